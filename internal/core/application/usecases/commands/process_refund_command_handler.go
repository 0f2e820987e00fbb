package commands

import (
	"context"
	"log/slog"

	"fooddelivery/internal/core/application/payments"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/ports"
)

// ProcessRefundCommandHandler runs the refund pipeline. A charge that is already
// REFUNDED is not refunded twice; its PAYMENT_REFUNDED is published again, so a
// redelivered REFUND_REQUESTED neither ends in REFUND_FAILED nor loses the result.
type ProcessRefundCommandHandler struct {
	uowFactory PaymentUoWFactory
	processor  PaymentProcessor
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewProcessRefundCommandHandler(
	uowFactory PaymentUoWFactory,
	processor PaymentProcessor,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) ProcessRefundCommandHandler {
	return ProcessRefundCommandHandler{uowFactory: uowFactory, processor: processor, publisher: publisher, logger: logger}
}

func (h *ProcessRefundCommandHandler) Handle(ctx context.Context, cmd ProcessRefundCommand) (payments.Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return payments.Outcome{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return payments.Outcome{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.PaymentRepository()
	previous, err := repo.FindByOrder(ctx, cmd.OrderID())
	if err != nil {
		return payments.Outcome{}, err
	}

	if refunded := refundedCharge(previous, cmd); refunded != nil {
		h.logger.InfoContext(ctx, "payment already refunded, announcing the refund again",
			"order_id", cmd.OrderID().String(), "payment_id", refunded.ID().String())
		err = h.processor.AnnounceRefund(ctx, &payments.Attempt{
			OrderID:    cmd.OrderID(),
			CustomerID: cmd.CustomerID(),
			OriginalID: cmd.PaymentID(),
			Payments:   repo,
			Publisher:  h.publisher,
		}, refunded, refundOf(previous, refunded))
		if err != nil {
			return payments.Outcome{}, err
		}
		return payments.Outcome{Record: refunded}, nil
	}

	outbox := payments.NewOutbox()
	outcome, err := h.processor.Refund(ctx, &payments.Attempt{
		OrderID:    cmd.OrderID(),
		CustomerID: cmd.CustomerID(),
		OriginalID: cmd.PaymentID(),
		Payments:   repo,
		Publisher:  outbox,
	})
	if err != nil {
		return payments.Outcome{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return payments.Outcome{}, err
	}

	if err = outbox.Flush(ctx, h.publisher); err != nil {
		return payments.Outcome{}, err
	}

	h.logger.InfoContext(ctx, "refund processed",
		"order_id", cmd.OrderID().String(), "succeeded", outcome.Succeeded())
	return outcome, nil
}

// refundedCharge returns the refunded charge the command targets, unless a
// completed charge is still waiting for its refund.
func refundedCharge(list []*payment.Payment, cmd ProcessRefundCommand) *payment.Payment {
	var refunded *payment.Payment
	for _, p := range list {
		if p.Kind() != payment.Charge {
			continue
		}
		if id := cmd.PaymentID(); id != nil && !p.ID().IsEqual(*id) {
			continue
		}
		switch p.Status() { //nolint:exhaustive
		case payment.Completed:
			return nil
		case payment.Refunded:
			refunded = p
		}
	}
	return refunded
}

// refundOf returns the successful refund record of charge.
func refundOf(list []*payment.Payment, charge *payment.Payment) *payment.Payment {
	for _, p := range list {
		if p.Kind() != payment.Refund || p.Status() != payment.Refunded {
			continue
		}
		if id := p.OriginalID(); id != nil && id.IsEqual(charge.ID()) {
			return p
		}
	}
	return nil
}
