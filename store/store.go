package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tailored-agentic-units/ark/codec"
	"github.com/tailored-agentic-units/ark/observability"
)

// Store mirrors Data to a single file.
type Store[T any] struct {
	// Data is the in-memory document. It holds the zero value until Connect
	// succeeds.
	Data T

	path     string
	fs       afero.Fs
	codec    codec.Codec
	observer observability.Observer
	writer   *writer
}

// New creates a Store for path. When path has no extension the codec's
// extension is appended. Nothing is read until Connect.
func New[T any](path string, opts ...Option) *Store[T] {
	cfg := settings{
		mode: defaultFileMode,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.fs == nil {
		cfg.fs = afero.NewOsFs()
	}
	if cfg.codec == nil {
		cfg.codec = codec.ForPath(path)
	}
	if cfg.observer == nil {
		cfg.observer = observability.NewSlogObserver(slog.Default())
	}

	path = ResolvePath(path, cfg.codec)

	return &Store[T]{
		path:     path,
		fs:       cfg.fs,
		codec:    cfg.codec,
		observer: cfg.observer,
		writer: &writer{
			fs:       cfg.fs,
			path:     path,
			staging:  StagingPath(path),
			mode:     cfg.mode,
			observer: cfg.observer,
		},
	}
}

// Path returns the document's location.
func (s *Store[T]) Path() string {
	return s.path
}

// StagingPath returns the file written before each rename into Path.
func (s *Store[T]) StagingPath() string {
	return s.writer.staging
}

// Codec returns the codec used for the document.
func (s *Store[T]) Codec() codec.Codec {
	return s.codec
}

// Connect loads the document into Data. A missing file is created holding the
// codec's empty document. Other read errors wrap ErrReadFailed; malformed
// content wraps ErrDecodeFailed and leaves Data unchanged.
func (s *Store[T]) Connect(ctx context.Context) error {
	bootstrapped := false

	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return s.fail(ctx, fmt.Errorf("%w: %s: %w", ErrReadFailed, s.path, err))
		}

		if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return s.fail(ctx, fmt.Errorf("%w: %s: %w", ErrWriteFailed, s.path, err))
		}
		raw = s.codec.Empty()
		if err := s.writer.submit(raw).Wait(ctx); err != nil {
			return err
		}
		bootstrapped = true
	}

	var value T
	if err := s.codec.Decode(raw, &value); err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, s.path, err))
	}
	s.Data = value

	s.observer.OnEvent(ctx, observability.NewEvent(EventConnect, observability.LevelInfo, "store.Connect", map[string]any{
		"path":         s.path,
		"format":       s.codec.Name(),
		"bootstrapped": bootstrapped,
		"bytes":        len(raw),
	}))
	return nil
}

// SaveAsync encodes Data immediately and submits it for writing. The returned
// Completion resolves when this document, or a newer one it was coalesced
// with, has been renamed into place.
func (s *Store[T]) SaveAsync() *Completion {
	raw, err := s.codec.Encode(s.Data)
	if err != nil {
		return resolved(fmt.Errorf("%w: %s: %w", ErrEncodeFailed, s.path, err))
	}
	return s.writer.submit(raw)
}

// Save is SaveAsync followed by Wait. Cancelling ctx abandons the wait, not
// the write.
func (s *Store[T]) Save(ctx context.Context) error {
	return s.SaveAsync().Wait(ctx)
}

func (s *Store[T]) fail(ctx context.Context, err error) error {
	s.observer.OnEvent(ctx, observability.NewEvent(EventError, observability.LevelError, "store.Connect", map[string]any{
		"path":  s.path,
		"error": err.Error(),
	}))
	return err
}
