package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tailored-agentic-units/ark/observability"
)

// StreamAdder is the subset of go-redis commands used by RedisObserver.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

const defaultQueueSize = 256

var errQueueFull = errors.New("queue full, event dropped")

// RedisObserver appends each event to a Redis Stream, trimmed approximately
// to maxLen entries. Events are queued and added by a single worker, so a
// slow or unreachable Redis never delays the caller. When the queue is full
// the event is dropped and reported to the fallback observer.
type RedisObserver struct {
	client   StreamAdder
	stream   string
	maxLen   int64
	timeout  time.Duration
	fallback observability.Observer

	mu     sync.RWMutex
	closed bool
	queue  chan observability.Event
	wg     sync.WaitGroup
}

// NewRedisObserver creates a RedisObserver and starts its worker. fallback
// may be nil. Call Close to flush queued events and stop the worker.
func NewRedisObserver(client StreamAdder, stream string, maxLen int64, fallback observability.Observer) *RedisObserver {
	return newRedisObserver(client, stream, maxLen, defaultQueueSize, fallback)
}

func newRedisObserver(client StreamAdder, stream string, maxLen int64, size int, fallback observability.Observer) *RedisObserver {
	o := &RedisObserver{
		client:   client,
		stream:   stream,
		maxLen:   maxLen,
		timeout:  2 * time.Second,
		fallback: fallback,
		queue:    make(chan observability.Event, size),
	}
	o.wg.Add(1)
	go o.run()
	return o
}

// OnEvent queues event without blocking. Events arriving after Close, or
// while the queue is full, are dropped.
func (o *RedisObserver) OnEvent(ctx context.Context, event observability.Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return
	}

	select {
	case o.queue <- event:
	default:
		report(ctx, o.fallback, "stream.RedisObserver", event, errQueueFull)
	}
}

// Close stops accepting events and waits until every queued event has been
// added or has failed.
func (o *RedisObserver) Close() error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	o.wg.Wait()
	return nil
}

func (o *RedisObserver) run() {
	defer o.wg.Done()
	for event := range o.queue {
		o.add(event)
	}
}

func (o *RedisObserver) add(event observability.Event) {
	ctx := context.Background()

	values, err := encodeValues(event)
	if err != nil {
		report(ctx, o.fallback, "stream.RedisObserver", event, err)
		return
	}

	addCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	err = o.client.XAdd(addCtx, &redis.XAddArgs{
		Stream: o.stream,
		MaxLen: o.maxLen,
		Approx: o.maxLen > 0,
		Values: values,
	}).Err()
	if err != nil {
		report(ctx, o.fallback, "stream.RedisObserver", event, err)
	}
}

func encodeValues(event observability.Event) (map[string]any, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return map[string]any{
		"type":      string(event.Type),
		"level":     int(event.Level),
		"source":    event.Source,
		"timestamp": ts.UnixNano(),
		"data":      string(data),
	}, nil
}

// DecodeEntry converts a stream entry written by RedisObserver back into an
// event. Redis returns every field as a string.
func DecodeEntry(entry redis.XMessage) (observability.Event, error) {
	typ, _ := entry.Values["type"].(string)
	source, _ := entry.Values["source"].(string)

	level, err := intField(entry.Values["level"])
	if err != nil {
		return observability.Event{}, fmt.Errorf("entry %s: level: %w", entry.ID, err)
	}
	ns, err := intField(entry.Values["timestamp"])
	if err != nil {
		return observability.Event{}, fmt.Errorf("entry %s: timestamp: %w", entry.ID, err)
	}

	var data map[string]any
	if raw, _ := entry.Values["data"].(string); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return observability.Event{}, fmt.Errorf("entry %s: data: %w", entry.ID, err)
		}
	}

	return observability.Event{
		Type:      observability.EventType(typ),
		Level:     observability.Level(level),
		Timestamp: time.Unix(0, ns),
		Source:    source,
		Data:      data,
	}, nil
}

func intField(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
