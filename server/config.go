package server

const defaultAddr = "127.0.0.1:8080"

// Config holds server initialization parameters.
type Config struct {
	Addr string `json:"addr,omitempty"` // Listen address.
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{Addr: defaultAddr}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
}
