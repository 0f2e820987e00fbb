package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrProcessPaymentCommandIsNotConstructed = errors.New(
		"ProcessPaymentCommand must be created via NewProcessPaymentCommand constructor",
	)
	ErrProcessRefundCommandIsNotConstructed = errors.New(
		"ProcessRefundCommand must be created via NewProcessRefundCommand constructor",
	)
)

// ProcessPaymentCommand asks the payment pipeline to charge an order.
// The amount is checked by the pipeline's validate stage, not here, so an invalid
// amount still produces a FAILED record and a PAYMENT_FAILED event.
type ProcessPaymentCommand struct {
	orderID    kernel.UUID
	customerID string
	amount     decimal.Decimal
	method     kernel.PaymentMethod

	guard guard.ConstructorGuard
}

// NewProcessPaymentCommandFromEvent reads ORDER_CREATED or PAYMENT_REQUESTED.
// An absent payment method defaults to CREDIT_CARD.
func NewProcessPaymentCommandFromEvent(event events.Event) (ProcessPaymentCommand, error) {
	orderID, err := event.OrderUUID()
	if err != nil {
		return ProcessPaymentCommand{}, err
	}

	method, err := kernel.ParsePaymentMethod(event.Payload.PaymentMethod)
	if err != nil {
		return ProcessPaymentCommand{}, err
	}

	return NewProcessPaymentCommand(orderID, event.Payload.CustomerID, event.Payload.Amount, method)
}

func NewProcessPaymentCommand(
	orderID kernel.UUID,
	customerID string,
	amount decimal.Decimal,
	method kernel.PaymentMethod,
) (ProcessPaymentCommand, error) {
	if err := errors.Join(orderID.Validate(), method.Validate()); err != nil {
		return ProcessPaymentCommand{}, err
	}

	return ProcessPaymentCommand{
		orderID:    orderID,
		customerID: customerID,
		amount:     amount,
		method:     method,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessPaymentCommand) Validate() error {
	return c.guard.Validate(ErrProcessPaymentCommandIsNotConstructed)
}

func (c ProcessPaymentCommand) OrderID() kernel.UUID         { return c.orderID }
func (c ProcessPaymentCommand) CustomerID() string           { return c.customerID }
func (c ProcessPaymentCommand) Amount() decimal.Decimal      { return c.amount }
func (c ProcessPaymentCommand) Method() kernel.PaymentMethod { return c.method }

// ProcessRefundCommand asks the payment pipeline to reverse an order's charge.
type ProcessRefundCommand struct {
	orderID    kernel.UUID
	customerID string

	// paymentID names the charge; nil means the order's completed charge
	paymentID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewProcessRefundCommandFromEvent reads REFUND_REQUESTED.
func NewProcessRefundCommandFromEvent(event events.Event) (ProcessRefundCommand, error) {
	orderID, err := event.OrderUUID()
	if err != nil {
		return ProcessRefundCommand{}, err
	}

	var paymentID *kernel.UUID
	if event.Payload.PaymentID != "" {
		id, parseErr := kernel.UUIDFromString(event.Payload.PaymentID)
		if parseErr != nil {
			return ProcessRefundCommand{}, parseErr
		}
		paymentID = &id
	}

	return NewProcessRefundCommand(orderID, event.Payload.CustomerID, paymentID)
}

func NewProcessRefundCommand(orderID kernel.UUID, customerID string, paymentID *kernel.UUID) (ProcessRefundCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ProcessRefundCommand{}, err
	}

	return ProcessRefundCommand{
		orderID:    orderID,
		customerID: customerID,
		paymentID:  paymentID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessRefundCommand) Validate() error {
	return c.guard.Validate(ErrProcessRefundCommandIsNotConstructed)
}

func (c ProcessRefundCommand) OrderID() kernel.UUID    { return c.orderID }
func (c ProcessRefundCommand) CustomerID() string      { return c.customerID }
func (c ProcessRefundCommand) PaymentID() *kernel.UUID { return c.paymentID }
