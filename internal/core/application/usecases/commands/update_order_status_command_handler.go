package commands

import (
	"context"
	"log/slog"
	"time"

	"fooddelivery/internal/core/ports"
)

// UpdateOrderStatusCommandHandler applies the order transition rule and announces
// the new status.
//
// Emitted events:
//   - exactly one lifecycle event: ORDER_CONFIRMED, ORDER_CANCELLED, ORDER_COMPLETED or ORDER_UPDATED
//   - one NOTIFICATION_REQUESTED for the new status
//   - on CONFIRMED: PAYMENT_REQUESTED and TRACKING_STARTED
//   - on CANCELLED with a captured payment: REFUND_REQUESTED
type UpdateOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewUpdateOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
		now:        now,
	}
}

// Handle returns *order.InvalidTransitionError when the move is illegal; the order
// is left untouched.
func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	from := o.Status()
	evts, err := transitionOrder(o, cmd.Target(), h.now())
	if err != nil {
		return err
	}

	if err = repo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order status changed",
		"order_id", o.ID().String(), "from", from.String(), "to", o.Status().String())

	return publishAll(ctx, h.publisher, evts)
}
