package store

import "github.com/tailored-agentic-units/ark/observability"

// Store event types.
const (
	EventConnect       observability.EventType = "store.connect"
	EventWriteStart    observability.EventType = "store.write.start"
	EventWriteComplete observability.EventType = "store.write.complete"
	EventWriteError    observability.EventType = "store.write.error"
	EventSaveCoalesced observability.EventType = "store.save.coalesced"
	EventError         observability.EventType = "store.error"
)
