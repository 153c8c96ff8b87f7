// Package pubsub delivers end-of-operation events from the contact book to its observers.
package pubsub

import (
	"context"
	"time"
)

// EventType names the kind of mutation that produced an event.
type EventType string

const (
	CreatedEvent EventType = "created" // a person was added
	UpdatedEvent EventType = "updated" // a person was edited, pinned, unpinned or sorted
	DeletedEvent EventType = "deleted" // a person, module or module-tutorial group was removed
	ResetEvent   EventType = "reset"   // the whole book was replaced: load, clear, import
)

// Event carries a payload together with the mutation kind and publish time.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out event channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher accepts events.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
