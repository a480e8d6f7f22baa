// Package stream forwards observability events to message brokers so other
// processes can follow a store's write activity. Forwarding is best effort:
// publish failures go to a fallback observer and never reach the store.
package stream

import (
	"context"
	"encoding/json"

	"github.com/tailored-agentic-units/ark/observability"
)

// EventPublishError is reported to the fallback observer when an event could
// not be forwarded.
const EventPublishError observability.EventType = "stream.publish.error"

// EncodeEvent serializes an event as JSON.
func EncodeEvent(event observability.Event) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeEvent parses an event produced by EncodeEvent. Numeric Data values
// decode as float64.
func DecodeEvent(data []byte) (observability.Event, error) {
	var event observability.Event
	err := json.Unmarshal(data, &event)
	return event, err
}

func report(ctx context.Context, fallback observability.Observer, source string, event observability.Event, err error) {
	if fallback == nil {
		return
	}
	fallback.OnEvent(ctx, observability.NewEvent(EventPublishError, observability.LevelWarning, source, map[string]any{
		"event": string(event.Type),
		"error": err.Error(),
	}))
}
