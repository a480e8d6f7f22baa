package store

import (
	"os"

	"github.com/spf13/afero"

	"github.com/tailored-agentic-units/ark/codec"
	"github.com/tailored-agentic-units/ark/observability"
)

const defaultFileMode os.FileMode = 0o644

type settings struct {
	fs       afero.Fs
	codec    codec.Codec
	observer observability.Observer
	mode     os.FileMode
}

// Option configures a Store at construction.
type Option func(*settings)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) { s.fs = fs }
}

// WithCodec sets the document codec. Defaults to the codec matching the
// path's extension, or JSON.
func WithCodec(c codec.Codec) Option {
	return func(s *settings) { s.codec = c }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithFileMode sets the permissions of newly staged files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *settings) { s.mode = mode }
}
