package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// CompleteOrderCommandHandler reacts to DELIVERY_COMPLETED.
//
// Business rules:
//   - A missing order is logged and not an error: the delivery outlived it
//   - An order already DELIVERED is not changed; ORDER_COMPLETED is published again in
//     case the first attempt never reached the transport
//   - Otherwise the order moves to DELIVERED and ORDER_COMPLETED is emitted
type CompleteOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewCompleteOrderCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) CompleteOrderCommandHandler {
	return CompleteOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
		now:        now,
	}
}

func (h *CompleteOrderCommandHandler) Handle(ctx context.Context, cmd CompleteOrderCommand) error {
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
	if errors.Is(err, errs.ErrObjectNotFound) {
		h.logger.WarnContext(ctx, "completed delivery for unknown order", "order_id", cmd.OrderID().String())
		return nil
	}
	if err != nil {
		return err
	}

	if o.Status() == order.Delivered {
		evts, err := announceOrder(o, h.now())
		if err != nil {
			return err
		}
		h.logger.DebugContext(ctx, "order already delivered, announcing again", "order_id", o.ID().String())
		return publishAll(ctx, h.publisher, evts)
	}

	evts, err := transitionOrder(o, order.Delivered, h.now())
	if err != nil {
		return err
	}

	if err = repo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order delivered", "order_id", o.ID().String())
	return publishAll(ctx, h.publisher, evts)
}
