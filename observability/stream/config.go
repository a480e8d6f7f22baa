package stream

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/tailored-agentic-units/ark/observability"
)

// Config selects the brokers events are forwarded to. Empty URLs disable the
// corresponding observer.
type Config struct {
	NATSURL   string `json:"nats_url,omitempty"`
	Subject   string `json:"subject,omitempty"` // Subject prefix.
	RedisAddr string `json:"redis_addr,omitempty"`
	Stream    string `json:"stream,omitempty"`
	MaxLen    int64  `json:"max_len,omitempty"`
}

// DefaultConfig returns the default configuration (forwarding disabled).
func DefaultConfig() Config {
	return Config{
		Subject: "ark.events.",
		Stream:  "ark:events",
		MaxLen:  10000,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.NATSURL != "" {
		c.NATSURL = source.NATSURL
	}
	if source.Subject != "" {
		c.Subject = source.Subject
	}
	if source.RedisAddr != "" {
		c.RedisAddr = source.RedisAddr
	}
	if source.Stream != "" {
		c.Stream = source.Stream
	}
	if source.MaxLen > 0 {
		c.MaxLen = source.MaxLen
	}
}

// Enabled reports whether any broker is configured.
func (c *Config) Enabled() bool {
	return c.NATSURL != "" || c.RedisAddr != ""
}

// New connects to the configured brokers and returns an observer forwarding
// to all of them, plus a func that releases the connections. Returns a nil
// observer when forwarding is disabled.
func New(cfg *Config, fallback observability.Observer) (observability.Observer, func() error, error) {
	if !cfg.Enabled() {
		return nil, func() error { return nil }, nil
	}

	var (
		observers []observability.Observer
		closers   []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("ark"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		observers = append(observers, NewNATSObserver(nc, cfg.Subject, fallback))
		closers = append(closers, nc.Drain)
	}

	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		obs := NewRedisObserver(rc, cfg.Stream, cfg.MaxLen, fallback)
		observers = append(observers, obs)
		closers = append(closers, obs.Close, rc.Close)
	}

	return observability.NewMultiObserver(observers...), closeAll, nil
}
