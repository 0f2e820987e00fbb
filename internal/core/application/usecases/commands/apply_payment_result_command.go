package commands

import (
	"errors"
	"fmt"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var ErrApplyPaymentResultCommandIsNotConstructed = errors.New(
	"ApplyPaymentResultCommand must be created via NewApplyPaymentResultCommand constructor",
)

// ApplyPaymentResultCommand carries a payment.result event to the order it concerns.
type ApplyPaymentResultCommand struct {
	result        events.Type
	orderID       kernel.UUID
	paymentID     kernel.UUID
	transactionID string
	reason        string

	guard guard.ConstructorGuard
}

// NewApplyPaymentResultCommand accepts PAYMENT_PROCESSED, PAYMENT_FAILED, PAYMENT_REFUNDED
// and REFUND_FAILED. Processed and refunded results must name the payment.
func NewApplyPaymentResultCommand(event events.Event) (ApplyPaymentResultCommand, error) {
	switch event.Type { //nolint:exhaustive
	case events.PaymentProcessed, events.PaymentFailed, events.PaymentRefunded, events.RefundFailed:
	default:
		return ApplyPaymentResultCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"payment result is invalid", fmt.Errorf("%s is not a payment result", event.Type))
	}

	orderID, err := event.OrderUUID()
	if err != nil {
		return ApplyPaymentResultCommand{}, err
	}

	cmd := ApplyPaymentResultCommand{
		result:        event.Type,
		orderID:       orderID,
		transactionID: event.Payload.TransactionID,
		reason:        event.Payload.Reason,
		guard:         guard.NewConstructorGuard(),
	}

	if event.Payload.PaymentID != "" {
		if cmd.paymentID, err = kernel.UUIDFromString(event.Payload.PaymentID); err != nil {
			return ApplyPaymentResultCommand{}, err
		}
	} else if event.Type == events.PaymentProcessed || event.Type == events.PaymentRefunded {
		return ApplyPaymentResultCommand{}, errs.NewValueIsRequiredError("paymentId")
	}

	return cmd, nil
}

func (c ApplyPaymentResultCommand) Validate() error {
	return c.guard.Validate(ErrApplyPaymentResultCommandIsNotConstructed)
}

func (c ApplyPaymentResultCommand) Result() events.Type    { return c.result }
func (c ApplyPaymentResultCommand) OrderID() kernel.UUID   { return c.orderID }
func (c ApplyPaymentResultCommand) PaymentID() kernel.UUID { return c.paymentID }
func (c ApplyPaymentResultCommand) TransactionID() string  { return c.transactionID }
func (c ApplyPaymentResultCommand) Reason() string         { return c.reason }
