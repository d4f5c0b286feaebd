package events

import "time"

// Kind is the namespaced identifier of an event type.
type Kind string

// Event is implemented by every event the pipeline emits.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by all events.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
