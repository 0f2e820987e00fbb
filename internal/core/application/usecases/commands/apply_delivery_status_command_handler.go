package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// ApplyDeliveryStatusCommandHandler moves an order along with its delivery.
// PREPARING and IN_TRANSIT map onto the order; DELIVERED is left to
// CompleteOrderCommandHandler, which reacts to DELIVERY_COMPLETED.
type ApplyDeliveryStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewApplyDeliveryStatusCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) ApplyDeliveryStatusCommandHandler {
	return ApplyDeliveryStatusCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
		now:        now,
	}
}

func orderStatusFor(s tracking.Status) (order.Status, bool) {
	switch s { //nolint:exhaustive
	case tracking.Preparing:
		return order.Preparing, true
	case tracking.InTransit:
		return order.InTransit, true
	default:
		return order.Unknown, false
	}
}

// Handle drops updates that would move the order backwards or out of a terminal
// status; those are logged, not returned. An update for the current status publishes
// its events again.
func (h *ApplyDeliveryStatusCommandHandler) Handle(ctx context.Context, cmd ApplyDeliveryStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	target, ok := orderStatusFor(cmd.Status())
	if !ok {
		return nil
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
	if errors.Is(err, errs.ErrObjectNotFound) {
		h.logger.WarnContext(ctx, "delivery update for unknown order", "order_id", cmd.OrderID().String())
		return nil
	}
	if err != nil {
		return err
	}

	switch current := o.Status(); {
	case current == target:
		// Redelivered update: the status is stored, its events may not have left.
		evts, announceErr := announceOrder(o, h.now())
		if announceErr != nil {
			return announceErr
		}
		return publishAll(ctx, h.publisher, evts)
	case !current.IsTerminal() && current > target:
		return nil
	}

	evts, err := transitionOrder(o, target, h.now())
	if errors.Is(err, order.ErrInvalidTransition) {
		h.logger.WarnContext(ctx, "delivery update dropped",
			"order_id", o.ID().String(), "status", o.Status().String(), "delivery_status", cmd.Status().String())
		return nil
	}
	if err != nil {
		return err
	}

	if err = repo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return publishAll(ctx, h.publisher, evts)
}
