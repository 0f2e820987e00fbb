package commands

import (
	"context"
	"log/slog"

	"fooddelivery/internal/core/application/payments"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/ports"
)

// ProcessPaymentCommandHandler runs the charge pipeline in one payment transaction.
// An order that already owns a COMPLETED charge gets no new record; its
// PAYMENT_PROCESSED is published again instead, so a replay of ORDER_CREATED or
// PAYMENT_REQUESTED repairs a result that was committed but never published.
type ProcessPaymentCommandHandler struct {
	uowFactory PaymentUoWFactory
	processor  PaymentProcessor
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewProcessPaymentCommandHandler(
	uowFactory PaymentUoWFactory,
	processor PaymentProcessor,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) ProcessPaymentCommandHandler {
	return ProcessPaymentCommandHandler{uowFactory: uowFactory, processor: processor, publisher: publisher, logger: logger}
}

func (h *ProcessPaymentCommandHandler) Handle(ctx context.Context, cmd ProcessPaymentCommand) (payments.Outcome, error) {
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

	if existing := completedCharge(previous); existing != nil {
		h.logger.InfoContext(ctx, "order already paid, announcing the charge again",
			"order_id", cmd.OrderID().String(), "payment_id", existing.ID().String())
		err = h.processor.AnnounceCharge(ctx, &payments.Attempt{
			OrderID:    cmd.OrderID(),
			CustomerID: cmd.CustomerID(),
			Payments:   repo,
			Publisher:  h.publisher,
		}, existing)
		if err != nil {
			return payments.Outcome{}, err
		}
		return payments.Outcome{Record: existing}, nil
	}

	outbox := payments.NewOutbox()
	outcome, err := h.processor.Charge(ctx, &payments.Attempt{
		OrderID:    cmd.OrderID(),
		CustomerID: cmd.CustomerID(),
		Amount:     cmd.Amount(),
		Method:     cmd.Method(),
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

	h.logger.InfoContext(ctx, "payment processed",
		"order_id", cmd.OrderID().String(), "succeeded", outcome.Succeeded(),
		"status", outcome.Record.Status().String())
	return outcome, nil
}

func completedCharge(list []*payment.Payment) *payment.Payment {
	for _, p := range list {
		if p.IsCompletedCharge() {
			return p
		}
	}
	return nil
}
