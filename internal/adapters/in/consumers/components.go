package consumers

import (
	"context"
	"log/slog"

	"fooddelivery/internal/core/application/notifications"
	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
)

// OrderHandlers are the order commands driven by events.
type OrderHandlers struct {
	PaymentResult  commands.ApplyPaymentResultCommandHandler
	DeliveryStatus commands.ApplyDeliveryStatusCommandHandler
	Complete       commands.CompleteOrderCommandHandler
}

// NewOrderConsumer reacts to payment results and delivery progress.
func NewOrderConsumer(
	h *OrderHandlers,
	subscriber ports.EventSubscriber,
	inbox ports.Inbox,
	logger *slog.Logger,
) *Consumer {
	c := newConsumer(events.ProducerOrder, subscriber, inbox, logger,
		events.TopicPaymentResult, events.TopicTrackingStatus)

	applyResult := func(ctx context.Context, event events.Event) error {
		cmd, err := commands.NewApplyPaymentResultCommand(event)
		if err != nil {
			return err
		}
		return h.PaymentResult.Handle(ctx, cmd)
	}
	c.on(events.PaymentProcessed, applyResult)
	c.on(events.PaymentFailed, applyResult)
	c.on(events.PaymentRefunded, applyResult)
	c.on(events.RefundFailed, applyResult)

	c.on(events.DeliveryStatus, func(ctx context.Context, event events.Event) error {
		orderID, err := event.OrderUUID()
		if err != nil {
			return err
		}
		status, err := tracking.ParseStatus(event.Payload.Status)
		if err != nil {
			return err
		}
		cmd, err := commands.NewApplyDeliveryStatusCommand(orderID, status)
		if err != nil {
			return err
		}
		return h.DeliveryStatus.Handle(ctx, cmd)
	})

	c.on(events.DeliveryCompleted, func(ctx context.Context, event events.Event) error {
		orderID, err := event.OrderUUID()
		if err != nil {
			return err
		}
		cmd, err := commands.NewCompleteOrderCommand(orderID)
		if err != nil {
			return err
		}
		return h.Complete.Handle(ctx, cmd)
	})

	return c
}

// PaymentHandlers are the payment commands driven by events.
type PaymentHandlers struct {
	Charge commands.ProcessPaymentCommandHandler
	Refund commands.ProcessRefundCommandHandler
}

// NewPaymentConsumer charges new and confirmed orders and refunds cancelled ones.
// ORDER_CREATED and PAYMENT_REQUESTED both request the charge; the handler
// acknowledges an order that already owns a completed charge.
func NewPaymentConsumer(
	h *PaymentHandlers,
	subscriber ports.EventSubscriber,
	inbox ports.Inbox,
	logger *slog.Logger,
) *Consumer {
	c := newConsumer(events.ProducerPayment, subscriber, inbox, logger,
		events.TopicOrderLifecycle, events.TopicPaymentRequest)

	charge := func(ctx context.Context, event events.Event) error {
		cmd, err := commands.NewProcessPaymentCommandFromEvent(event)
		if err != nil {
			return err
		}
		_, err = h.Charge.Handle(ctx, cmd)
		return err
	}
	c.on(events.OrderCreated, charge)
	c.on(events.PaymentRequested, charge)

	c.on(events.RefundRequested, func(ctx context.Context, event events.Event) error {
		cmd, err := commands.NewProcessRefundCommandFromEvent(event)
		if err != nil {
			return err
		}
		_, err = h.Refund.Handle(ctx, cmd)
		return err
	})

	return c
}

// TrackingHandlers are the tracking commands driven by events.
type TrackingHandlers struct {
	Start commands.StartTrackingCommandHandler
	Stop  commands.StopTrackingCommandHandler
}

// NewTrackingConsumer opens tracking for confirmed orders and drops it once the order
// is cancelled or delivered.
func NewTrackingConsumer(
	h *TrackingHandlers,
	subscriber ports.EventSubscriber,
	inbox ports.Inbox,
	logger *slog.Logger,
) *Consumer {
	c := newConsumer(events.ProducerTracking, subscriber, inbox, logger,
		events.TopicTrackingStart, events.TopicOrderLifecycle)

	c.on(events.TrackingStarted, func(ctx context.Context, event events.Event) error {
		cmd, err := commands.NewStartTrackingCommandFromEvent(event)
		if err != nil {
			return err
		}
		return h.Start.Handle(ctx, cmd)
	})

	stop := func(ctx context.Context, event events.Event) error {
		orderID, err := event.OrderUUID()
		if err != nil {
			return err
		}
		cmd, err := commands.NewDeliveryCommand(orderID)
		if err != nil {
			return err
		}
		return h.Stop.Handle(ctx, cmd)
	}
	c.on(events.OrderCancelled, stop)
	// A manual PUT to DELIVERED never passes through CompleteDelivery.
	c.on(events.OrderCompleted, stop)

	return c
}

// NewNotificationConsumer hands notification requests to the dispatcher.
func NewNotificationConsumer(
	dispatcher *notifications.Dispatcher,
	subscriber ports.EventSubscriber,
	inbox ports.Inbox,
	logger *slog.Logger,
) *Consumer {
	c := newConsumer(events.ProducerNotification, subscriber, inbox, logger, events.TopicNotificationDispatch)
	c.on(events.NotificationRequested, dispatcher.Handle)
	return c
}
