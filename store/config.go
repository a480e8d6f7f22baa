package store

import (
	"fmt"
	"os"

	"github.com/tailored-agentic-units/ark/codec"
	"github.com/tailored-agentic-units/ark/observability"
)

// Config holds store initialization parameters.
type Config struct {
	Path     string      `json:"path,omitempty"`      // Document path; extension optional.
	Format   string      `json:"format,omitempty"`    // Codec name; empty selects by extension.
	FileMode os.FileMode `json:"file_mode,omitempty"` // Permissions of staged files.
	Observer string      `json:"observer,omitempty"`  // Registered observer name.
}

// DefaultConfig returns the default store configuration. Path has no default.
func DefaultConfig() Config {
	return Config{
		FileMode: defaultFileMode,
		Observer: "slog",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Format != "" {
		c.Format = source.Format
	}
	if source.FileMode != 0 {
		c.FileMode = source.FileMode
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// Open creates a Store from configuration. Options are applied after the
// config-derived settings and override them.
func Open[T any](cfg *Config, opts ...Option) (*Store[T], error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	base := make([]Option, 0, 3+len(opts))
	if cfg.Format != "" {
		c, err := codec.Get(cfg.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve format: %w", err)
		}
		base = append(base, WithCodec(c))
	}
	if cfg.Observer != "" {
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		base = append(base, WithObserver(obs))
	}
	if cfg.FileMode != 0 {
		base = append(base, WithFileMode(cfg.FileMode))
	}

	return New[T](cfg.Path, append(base, opts...)...), nil
}
