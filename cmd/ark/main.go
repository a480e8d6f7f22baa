// Package main is the entry point for the ark CLI.
//
// ark reads and edits single-file documents and can serve one over Connect
// RPC. Every write goes through the store's coalescing writer, so the file
// always holds a complete document.
//
// Usage:
//
//	ark init data/app.json            # create the file if missing
//	ark set data/app.json theme '"dark"'
//	ark get data/app.json theme
//	ark serve data/app.json --addr :8080
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "ark",
	Short: "A single-file durable document store",
	Long: `ark keeps a JSON or YAML document in one file and writes it atomically:
every save is staged in a hidden sibling file and renamed into place.

Configuration may be supplied as a JSON file with --config:
  {
    "store":  {"format": "yaml", "file_mode": 384},
    "server": {"addr": "127.0.0.1:8080"},
    "events": {"nats_url": "nats://localhost:4222"}
  }`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to JSON config file")
	rootCmd.PersistentFlags().StringP("format", "f", "", "document format (json, yaml, protojson); default by extension")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log store events to stderr")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ark %s (%s)\n", version, commit)
	},
}
