// Package notifications holds the customer notification channels. Channels only
// write to the log; History keeps what was sent so it can be queried.
package notifications

import (
	"context"
	"log/slog"

	"fooddelivery/internal/core/domain/model/notification"
)

// EmailChannel logs the notification as an outgoing e-mail.
type EmailChannel struct {
	logger *slog.Logger
}

func NewEmailChannel(logger *slog.Logger) *EmailChannel {
	return &EmailChannel{logger: logger.With("channel", "email")}
}

func (c *EmailChannel) Name() string {
	return "email"
}

// Notify skips notifications without a customer reference: there is no address to write to.
func (c *EmailChannel) Notify(ctx context.Context, n notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.CustomerID() == "" {
		c.logger.DebugContext(ctx, "email skipped, no customer", "order_id", n.OrderID(), "type", n.Type().String())
		return nil
	}

	c.logger.InfoContext(ctx, "email sent",
		"to", n.CustomerID(), "order_id", n.OrderID(), "subject", n.Subject(), "body", n.Message())
	return nil
}

// PushChannel logs the notification as a mobile push message.
type PushChannel struct {
	logger *slog.Logger
}

func NewPushChannel(logger *slog.Logger) *PushChannel {
	return &PushChannel{logger: logger.With("channel", "push")}
}

func (c *PushChannel) Name() string {
	return "push"
}

func (c *PushChannel) Notify(ctx context.Context, n notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "push sent",
		"order_id", n.OrderID(), "customer_id", n.CustomerID(), "title", n.Subject(), "text", n.Message())
	return nil
}
