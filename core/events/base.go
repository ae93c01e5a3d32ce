package events

import "time"

// Kind names a coordination event, namespaced as documented in the package
// comment ("mic.listening_stopped", "session.purged", ...).
type Kind string

// Event is what the coordinator fans out to its caller callbacks. Concrete
// events embed Base and add their payload fields.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by every coordination
// event. It is immutable after construction.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps an event with its kind and the current time. Timestamps
// come from the emitting goroutine, so ordering between events is only
// meaningful within one coordinator.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
