package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/ports"
)

// ApplyPaymentResultCommandHandler folds payment results into the order.
//
// Business rules:
//   - PAYMENT_PROCESSED records the payment and confirms a CREATED order. A payment
//     already recorded changes nothing; while the order is CONFIRMED its confirmation
//     events are published again. A payment landing on a cancelled order is
//     compensated with REFUND_REQUESTED and the order is left untouched
//   - PAYMENT_FAILED keeps the reason; the order stays CREATED
//   - PAYMENT_REFUNDED marks the recorded payment refunded
//   - REFUND_FAILED is only logged
type ApplyPaymentResultCommandHandler struct {
	uowFactory OrderUoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewApplyPaymentResultCommandHandler(
	uowFactory OrderUoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) ApplyPaymentResultCommandHandler {
	return ApplyPaymentResultCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
		now:        now,
	}
}

func (h *ApplyPaymentResultCommandHandler) Handle(ctx context.Context, cmd ApplyPaymentResultCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if cmd.Result() == events.RefundFailed {
		h.logger.ErrorContext(ctx, "refund failed",
			"order_id", cmd.OrderID().String(), "reason", cmd.Reason())
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
	if err != nil {
		return err
	}

	now := h.now()
	var evts []events.Event

	switch cmd.Result() { //nolint:exhaustive
	case events.PaymentProcessed:
		var changed bool
		evts, changed, err = h.applyProcessed(ctx, o, cmd, now)
		if err != nil {
			return err
		}
		if !changed {
			return publishAll(ctx, h.publisher, evts)
		}

	case events.PaymentFailed:
		if err = o.RecordPaymentFailure(cmd.Reason(), now); errors.Is(err, order.ErrInvalidTransition) {
			h.logger.WarnContext(ctx, "payment failure for closed order ignored",
				"order_id", o.ID().String(), "status", o.Status().String())
			return nil
		}
		if err != nil {
			return err
		}
		h.logger.InfoContext(ctx, "payment failed", "order_id", o.ID().String(), "reason", cmd.Reason())

	case events.PaymentRefunded:
		if err = o.RecordRefund(cmd.PaymentID(), now); errors.Is(err, order.ErrPaymentMismatch) {
			h.logger.WarnContext(ctx, "refund for unknown payment ignored",
				"order_id", o.ID().String(), "payment_id", cmd.PaymentID().String())
			return nil
		}
		if err != nil {
			return err
		}
		h.logger.InfoContext(ctx, "payment refunded", "order_id", o.ID().String())
	}

	if err = repo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return publishAll(ctx, h.publisher, evts)
}

// applyProcessed returns the events to publish and whether the order changed.
func (h *ApplyPaymentResultCommandHandler) applyProcessed(
	ctx context.Context,
	o *order.Order,
	cmd ApplyPaymentResultCommand,
	now time.Time,
) ([]events.Event, bool, error) {
	recorded, err := o.RecordPayment(cmd.PaymentID(), cmd.TransactionID(), now)
	if errors.Is(err, order.ErrInvalidTransition) {
		h.logger.WarnContext(ctx, "payment captured for closed order, requesting refund",
			"order_id", o.ID().String(), "status", o.Status().String(), "payment_id", cmd.PaymentID().String())

		payload := orderPayload(o)
		payload.PaymentID = cmd.PaymentID().String()
		payload.TransactionID = cmd.TransactionID()
		refund, buildErr := events.New(events.RefundRequested, events.ProducerOrder, payload, now)
		if buildErr != nil {
			return nil, false, buildErr
		}
		return []events.Event{refund.WithDerivedID(payload.Status, payload.PaymentID)}, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !recorded {
		if o.Status() != order.Confirmed {
			h.logger.DebugContext(ctx, "payment already recorded", "order_id", o.ID().String())
			return nil, false, nil
		}

		// The confirmation may have been committed without its events reaching the
		// transport; announce it again.
		h.logger.InfoContext(ctx, "payment already recorded, announcing confirmation again",
			"order_id", o.ID().String())
		evts, err := announceOrder(o, now)
		return evts, false, err
	}

	if o.Status() != order.Created {
		return nil, true, nil
	}

	evts, err := transitionOrder(o, order.Confirmed, now)
	if err != nil {
		return nil, false, err
	}
	h.logger.InfoContext(ctx, "order confirmed by payment", "order_id", o.ID().String())
	return evts, true, nil
}
