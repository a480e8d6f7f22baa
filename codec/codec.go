// Package codec converts in-memory documents to and from the structured text
// stored on disk. Codecs are stateless; the store calls Encode on every save
// and Decode once per connect.
package codec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Codec is a stateless encode/decode pair for one text format.
type Codec interface {
	// Name identifies the format in configuration ("json", "yaml", ...).
	Name() string
	// Extension is the file extension, including the leading dot.
	Extension() string
	// Empty returns the canonical empty document written when a store file
	// does not yet exist.
	Empty() []byte
	// Encode serializes v.
	Encode(v any) ([]byte, error)
	// Decode parses data into the value pointed to by v.
	Decode(data []byte, v any) error
}

var (
	codecs = map[string]Codec{
		"json":      JSON,
		"yaml":      YAML,
		"protojson": ProtoJSON,
	}
	extensions = map[string]string{
		".json": "json",
		".yaml": "yaml",
		".yml":  "yaml",
	}
	mutex sync.RWMutex
)

// Get returns a registered codec by name.
// Pre-registered codecs: "json", "yaml" and "protojson".
func Get(name string) (Codec, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	c, exists := codecs[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
	return c, nil
}

// Register adds or replaces a named codec. The codec's extension is mapped to
// it unless another codec already claims that extension.
func Register(c Codec) {
	mutex.Lock()
	defer mutex.Unlock()

	codecs[c.Name()] = c
	if _, taken := extensions[c.Extension()]; !taken {
		extensions[c.Extension()] = c.Name()
	}
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForPath picks a codec from the file extension of path. Unknown or missing
// extensions fall back to JSON.
func ForPath(path string) Codec {
	mutex.RLock()
	defer mutex.RUnlock()

	if name, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return codecs[name]
	}
	return JSON
}
