// Package inproc is an in-process event transport. Every subscription receives every
// event of its topic on its own goroutine, through an unbounded queue, so a slow
// consumer never blocks a publisher.
package inproc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fooddelivery/internal/core/domain/events"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("event bus is closed")

const (
	DefaultRetryDelay      = 100 * time.Millisecond
	DefaultMaxRedeliveries = 5
)

// Options tune redelivery of events whose handler failed.
type Options struct {
	RetryDelay      time.Duration
	MaxRedeliveries int
}

// Bus implements ports.EventPublisher and ports.EventSubscriber.
type Bus struct {
	mu     sync.RWMutex
	subs   map[events.Topic][]*subscription
	closed bool

	opts    Options
	logger  *slog.Logger
	pending atomic.Int64
}

type delivery struct {
	data    []byte
	attempt int
}

type subscription struct {
	consumer string
	handler  events.Handler

	mu     sync.Mutex
	queue  []delivery
	signal chan struct{}
}

func NewBus(opts Options, logger *slog.Logger) *Bus {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.MaxRedeliveries <= 0 {
		opts.MaxRedeliveries = DefaultMaxRedeliveries
	}

	return &Bus{
		subs:   make(map[events.Topic][]*subscription),
		opts:   opts,
		logger: logger.With("component", "inproc_bus"),
	}
}

// Publish encodes the event once and queues a copy for every subscription of its topic.
func (b *Bus) Publish(_ context.Context, event events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	data, err := events.Encode(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	for _, s := range b.subs[event.Topic] {
		b.enqueue(s, delivery{data: data})
	}
	return nil
}

// Subscribe blocks until ctx is done. consumer only labels the logs; every
// subscription gets its own copy of each event.
func (b *Bus) Subscribe(ctx context.Context, topic events.Topic, consumer string, handler events.Handler) error {
	s := &subscription{
		consumer: consumer,
		handler:  handler,
		signal:   make(chan struct{}, 1),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	defer b.unsubscribe(topic, s)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.signal:
		}

		for {
			d, ok := s.pop()
			if !ok {
				break
			}
			b.deliver(ctx, topic, s, d)
		}
	}
}

// Subscriptions reports how many subscriptions the topic currently has.
func (b *Bus) Subscriptions(topic events.Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// WaitIdle blocks until no delivery is queued or in flight.
func (b *Bus) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for b.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close rejects further publishes. Subscriptions end with their contexts.
func (b *Bus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

func (b *Bus) deliver(ctx context.Context, topic events.Topic, s *subscription, d delivery) {
	defer b.pending.Add(-1)

	event, err := events.Decode(d.data)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping malformed event",
			"topic", topic.String(), "consumer", s.consumer, "error", err)
		return
	}

	err = s.handler(ctx, event)
	if err == nil {
		return
	}

	if d.attempt >= b.opts.MaxRedeliveries {
		b.logger.ErrorContext(ctx, "giving up on event",
			"event_id", event.ID, "type", event.Type.String(), "consumer", s.consumer,
			"attempts", d.attempt+1, "error", err)
		return
	}

	b.logger.WarnContext(ctx, "event handling failed, redelivering",
		"event_id", event.ID, "type", event.Type.String(), "consumer", s.consumer,
		"attempt", d.attempt+1, "error", err)

	retry := delivery{data: d.data, attempt: d.attempt + 1}
	b.pending.Add(1)
	time.AfterFunc(b.opts.RetryDelay*time.Duration(retry.attempt), func() {
		b.requeue(s, retry)
	})
}

func (b *Bus) enqueue(s *subscription, d delivery) {
	b.pending.Add(1)
	s.push(d)
}

// requeue puts a retry back unless the subscription is gone; pending was already counted.
func (b *Bus) requeue(s *subscription, d delivery) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, live := range b.subs {
		for _, candidate := range live {
			if candidate == s {
				s.push(d)
				return
			}
		}
	}
	b.pending.Add(-1)
}

func (b *Bus) unsubscribe(topic events.Topic, s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, candidate := range subs {
		if candidate == s {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}

	s.mu.Lock()
	b.pending.Add(-int64(len(s.queue)))
	s.queue = nil
	s.mu.Unlock()
}

func (s *subscription) push(d delivery) {
	s.mu.Lock()
	s.queue = append(s.queue, d)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription) pop() (delivery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return delivery{}, false
	}
	d := s.queue[0]
	s.queue = s.queue[1:]
	return d, true
}
