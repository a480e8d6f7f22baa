package store

import (
	"path/filepath"

	"github.com/tailored-agentic-units/ark/codec"
)

// ResolvePath appends the codec's extension when path has none, so "settings"
// becomes "settings.json".
func ResolvePath(path string, c codec.Codec) string {
	if filepath.Ext(path) == "" {
		return path + c.Extension()
	}
	return path
}

// StagingPath returns the hidden sibling used as the write target before the
// rename: <dir>/.<base>.tmp.
func StagingPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
}
