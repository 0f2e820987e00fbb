// Package consumers subscribes the saga components to the event channel. A consumer
// skips envelopes its inbox already holds, routes the event by type and decides
// whether a failure is acknowledged or left for redelivery.
package consumers

import (
	"context"
	"errors"
	"log/slog"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

// Consumer is the event entry point of one component.
type Consumer struct {
	name       string
	topics     []events.Topic
	router     *events.Router
	subscriber ports.EventSubscriber
	inbox      ports.Inbox
	logger     *slog.Logger
}

func newConsumer(
	name string,
	subscriber ports.EventSubscriber,
	inbox ports.Inbox,
	logger *slog.Logger,
	topics ...events.Topic,
) *Consumer {
	logger = logger.With("component", name, "consumer", name)
	return &Consumer{
		name:       name,
		topics:     topics,
		router:     events.NewRouter(logger),
		subscriber: subscriber,
		inbox:      inbox,
		logger:     logger,
	}
}

func (c *Consumer) Name() string {
	return c.name
}

// Topics lists the subscribed topics.
func (c *Consumer) Topics() []events.Topic {
	return c.topics
}

// Types lists the routed event types.
func (c *Consumer) Types() []events.Type {
	return c.router.Types()
}

// Run subscribes to every topic and blocks until ctx is done or a subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range c.topics {
		g.Go(func() error {
			c.logger.InfoContext(ctx, "subscribing", "topic", topic.String())
			return c.subscriber.Subscribe(ctx, topic, c.name, c.Handle)
		})
	}
	return g.Wait()
}

// Handle processes one delivery. A nil result acknowledges the event. The inbox mark
// is written only after the handler finished, so a crash mid-way leaves the event to
// its redelivery; handlers tolerate running twice.
func (c *Consumer) Handle(ctx context.Context, event events.Event) error {
	seen, err := c.inbox.Processed(ctx, c.name, event.ID)
	if err != nil {
		return err
	}
	if seen {
		c.logger.DebugContext(ctx, "duplicate event skipped",
			"event_id", event.ID, "type", event.Type.String(), "order_id", event.Payload.OrderID)
		return nil
	}

	err = c.router.Handle(ctx, event)
	switch {
	case err == nil:
	case isPermanent(err):
		c.logger.WarnContext(ctx, "event rejected",
			"event_id", event.ID, "type", event.Type.String(), "order_id", event.Payload.OrderID, "error", err)
	default:
		c.logger.ErrorContext(ctx, "event handling failed, awaiting redelivery",
			"event_id", event.ID, "type", event.Type.String(), "order_id", event.Payload.OrderID, "error", err)
		return err
	}

	_, err = c.inbox.MarkProcessed(ctx, c.name, event.ID)
	return err
}

func (c *Consumer) on(t events.Type, h events.Handler) {
	c.router.On(t, h)
}

// isPermanent tells validation and state errors, which a redelivery cannot fix,
// from infrastructure errors.
func isPermanent(err error) bool {
	return errors.Is(err, errs.ErrValueIsRequired) ||
		errors.Is(err, errs.ErrValueIsInvalid) ||
		errors.Is(err, errs.ErrValueIsOutOfRange) ||
		errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, order.ErrInvalidTransition) ||
		errors.Is(err, order.ErrPaymentMismatch) ||
		errors.Is(err, tracking.ErrRecordIsTerminal) ||
		errors.Is(err, ports.ErrAlreadyTracked)
}
