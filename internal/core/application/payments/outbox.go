package payments

import (
	"context"
	"fmt"
	"sync"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/ports"
)

// Outbox holds the events of an attempt until the caller's unit of work committed.
// Set it as Attempt.Publisher and Flush it after Commit.
type Outbox struct {
	mu      sync.Mutex
	pending []events.Event
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Publish(_ context.Context, event events.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, event)
	return nil
}

// Pending returns the events collected so far.
func (o *Outbox) Pending() []events.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]events.Event, len(o.pending))
	copy(out, o.pending)
	return out
}

// Flush publishes the collected events in order and stops at the first failure.
// Published events are removed, so a retried Flush does not repeat them.
func (o *Outbox) Flush(ctx context.Context, publisher ports.EventPublisher) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for len(o.pending) > 0 {
		e := o.pending[0]
		if err := publisher.Publish(ctx, e); err != nil {
			return fmt.Errorf("publish %s: %w", e.Type, err)
		}
		o.pending = o.pending[1:]
	}
	return nil
}
