package stream

import (
	"context"

	"github.com/tailored-agentic-units/ark/observability"
)

// Publisher is the subset of *nats.Conn used by NATSObserver.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSObserver publishes each event on <prefix><event type>, e.g.
// "ark.events.store.write.complete".
type NATSObserver struct {
	pub      Publisher
	prefix   string
	fallback observability.Observer
}

// NewNATSObserver creates a NATSObserver. fallback may be nil.
func NewNATSObserver(pub Publisher, prefix string, fallback observability.Observer) *NATSObserver {
	return &NATSObserver{pub: pub, prefix: prefix, fallback: fallback}
}

// Subject returns the subject an event of the given type is published on.
func (o *NATSObserver) Subject(typ observability.EventType) string {
	return o.prefix + string(typ)
}

func (o *NATSObserver) OnEvent(ctx context.Context, event observability.Event) {
	data, err := EncodeEvent(event)
	if err != nil {
		report(ctx, o.fallback, "stream.NATSObserver", event, err)
		return
	}
	if err := o.pub.Publish(o.Subject(event.Type), data); err != nil {
		report(ctx, o.fallback, "stream.NATSObserver", event, err)
	}
}
