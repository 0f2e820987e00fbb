package commands

import (
	"context"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/ports"
)

// CreateOrderCommandHandler persists a new order in CREATED status and announces it.
// ORDER_CREATED starts the payment; the notification request greets the customer.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, publisher, logger, time.Now)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
		now:        now,
	}
}

// Handle creates the order. Events are published once the order is committed, so a
// consumer reacting to them always finds it.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	now := h.now()
	o, err := order.NewOrder(
		cmd.OrderID(),
		cmd.CustomerID(),
		cmd.RestaurantID(),
		cmd.Items(),
		cmd.PaymentMethod(),
		cmd.Restaurant(),
		cmd.Customer(),
		now,
	)
	if err != nil {
		return err
	}

	evts, err := orderEvents(o, now, events.OrderCreated)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if err = publishAll(ctx, h.publisher, evts); err != nil {
		h.logger.ErrorContext(ctx, "order events not published", "order_id", o.ID().String(), "error", err)
		return err
	}

	h.logger.InfoContext(ctx, "order created",
		"order_id", o.ID().String(), "amount", o.Amount().String(), "payment_method", o.PaymentMethod().String())
	return nil
}
