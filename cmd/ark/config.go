package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/ark/observability"
	"github.com/tailored-agentic-units/ark/observability/stream"
	"github.com/tailored-agentic-units/ark/server"
	"github.com/tailored-agentic-units/ark/store"
)

// Config holds initialization parameters for every ark subsystem.
type Config struct {
	Store  store.Config  `json:"store"`
	Server server.Config `json:"server"`
	Events stream.Config `json:"events"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Store:  store.DefaultConfig(),
		Server: server.DefaultConfig(),
		Events: stream.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	c.Server.Merge(&source.Server)
	c.Events.Merge(&source.Events)
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// resolveConfig loads --config when given and applies the document path and
// persistent flag overrides.
func resolveConfig(cmd *cobra.Command, path string) (*Config, error) {
	cfg := DefaultConfig()
	if file, _ := cmd.Flags().GetString("config"); file != "" {
		loaded, err := LoadConfig(file)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	cfg.Store.Path = path
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Store.Format = format
	}
	return &cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}

// openStore builds and connects the store named by path. extra observers are
// added alongside the CLI logger.
func openStore(cmd *cobra.Command, cfg *Config, extra ...observability.Observer) (*store.Store[map[string]any], error) {
	observers := append([]observability.Observer{observability.NewSlogObserver(newLogger(cmd))}, extra...)

	s, err := store.Open[map[string]any](&cfg.Store,
		store.WithObserver(observability.NewMultiObserver(observers...)),
	)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(cmd.Context()); err != nil {
		return nil, err
	}
	if s.Data == nil {
		s.Data = map[string]any{}
	}
	return s, nil
}
