package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init FILE",
	Short: "Create the document file if it does not exist",
	Long: `Connect to a document, creating it with an empty document when the
file is missing. Existing files are validated but left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

var getCmd = &cobra.Command{
	Use:   "get FILE [KEY]",
	Short: "Print the document or one top-level key as JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGet,
}

var setCmd = &cobra.Command{
	Use:   "set FILE KEY VALUE",
	Short: "Set a top-level key and save",
	Long: `Set a top-level key and save the document.

VALUE is parsed as JSON; anything that is not valid JSON is stored as a
string.

Example:
  ark set app.json retries 3
  ark set app.json hosts '["a","b"]'
  ark set app.json owner alice`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete FILE KEY",
	Short: "Remove a top-level key and save",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(initCmd, getCmd, setCmd, deleteCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d keys (%s)\n", s.Path(), len(s.Data), s.Codec().Name())
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	var out any = s.Data
	if len(args) == 2 {
		value, ok := s.Data[args[1]]
		if !ok {
			return fmt.Errorf("key %q not found in %s", args[1], s.Path())
		}
		out = value
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	s.Data[args[1]] = parseValue(args[2])
	return s.Save(cmd.Context())
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	s, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	delete(s.Data, args[1])
	return s.Save(cmd.Context())
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
