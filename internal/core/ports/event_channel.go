package ports

import (
	"context"

	"fooddelivery/internal/core/domain/events"
)

// EventPublisher puts events on the transport. A returned error means the event may
// not have been published; callers treat it as a failure of their unit of work.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventSubscriber delivers the events of a topic to handler, at least once.
//
// Subscribe blocks until ctx is done or the subscription fails. A handler error
// leaves the event unacknowledged so the transport delivers it again.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic events.Topic, consumer string, handler events.Handler) error
}

// Inbox remembers which events a consumer finished handling.
type Inbox interface {
	// Processed reports whether eventID is marked for consumer.
	Processed(ctx context.Context, consumer, eventID string) (bool, error)

	// MarkProcessed records eventID for consumer once its handling is over and
	// reports whether the mark is new.
	MarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
}
