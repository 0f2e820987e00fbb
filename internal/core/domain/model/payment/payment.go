package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	// ErrPaymentIsNotConstructed is returned when using a Payment not built by a constructor.
	ErrPaymentIsNotConstructed = errors.New("Payment must be created via NewCharge or NewRefund constructor")

	// ErrOriginalIsNotRefundable is returned when a refund targets anything but a completed charge.
	ErrOriginalIsNotRefundable = errors.New("only a completed charge can be refunded")
)

// DuplicatePaymentReason is the failure reason of records refused by the store.
const DuplicatePaymentReason = "duplicate payment"

// Payment is one attempt to move money for an order.
//
// Invariants:
//   - Amount is positive
//   - A Refund always references the Charge it reverses
//   - Status only changes through Complete, Fail and MarkRefunded
type Payment struct {
	id      kernel.UUID
	orderID kernel.UUID
	kind    Kind
	method  kernel.PaymentMethod
	amount  decimal.Decimal
	status  Status

	transactionID string
	signature     string

	// originalID is set for refunds only
	originalID *kernel.UUID

	failureReason string
	createdAt     time.Time

	guard guard.ConstructorGuard
}

// NewCharge creates a Pending charge.
//
// The amount is not range-checked here: business limits such as the maximum amount
// are pipeline rules and produce a Failed record instead of a construction error.
func NewCharge(
	id kernel.UUID,
	orderID kernel.UUID,
	method kernel.PaymentMethod,
	amount decimal.Decimal,
	transactionID string,
	now time.Time,
) (*Payment, error) {
	p := &Payment{
		kind:      Charge,
		status:    Pending,
		amount:    amount,
		createdAt: now,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		p.setID(id),
		p.setOrderID(orderID),
		p.setMethod(method),
		p.SetTransactionID(transactionID),
	); err != nil {
		return nil, err
	}

	return p, nil
}

// NewRefund creates a Pending refund of original, which must be a Completed charge.
func NewRefund(id kernel.UUID, original *Payment, transactionID string, now time.Time) (*Payment, error) {
	if err := original.Validate(); err != nil {
		return nil, err
	}

	if original.kind != Charge || original.status != Completed {
		return nil, fmt.Errorf("%w: %s is %s %s", ErrOriginalIsNotRefundable, original.id, original.kind, original.status)
	}

	originalID := original.id
	p := &Payment{
		kind:       Refund,
		status:     Pending,
		amount:     original.amount,
		originalID: &originalID,
		createdAt:  now,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		p.setID(id),
		p.setOrderID(original.orderID),
		p.setMethod(original.method),
		p.SetTransactionID(transactionID),
	); err != nil {
		return nil, err
	}

	return p, nil
}

// RestorePayment rebuilds a payment loaded from storage.
func RestorePayment(
	id kernel.UUID,
	orderID kernel.UUID,
	kind Kind,
	method kernel.PaymentMethod,
	amount decimal.Decimal,
	status Status,
	transactionID string,
	signature string,
	originalID *kernel.UUID,
	failureReason string,
	createdAt time.Time,
) (*Payment, error) {
	p := &Payment{
		amount:        amount,
		signature:     signature,
		originalID:    originalID,
		failureReason: failureReason,
		createdAt:     createdAt,
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		p.setID(id),
		p.setOrderID(orderID),
		p.setMethod(method),
		p.SetTransactionID(transactionID),
		kind.Validate(),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	p.kind = kind
	p.status = status
	return p, nil
}

func (p *Payment) Validate() error {
	if p == nil {
		return ErrPaymentIsNotConstructed
	}
	return p.guard.Validate(ErrPaymentIsNotConstructed)
}

func (p *Payment) ID() kernel.UUID                { return p.id }
func (p *Payment) OrderID() kernel.UUID           { return p.orderID }
func (p *Payment) Kind() Kind                     { return p.kind }
func (p *Payment) Method() kernel.PaymentMethod   { return p.method }
func (p *Payment) Amount() decimal.Decimal        { return p.amount }
func (p *Payment) Status() Status                 { return p.status }
func (p *Payment) TransactionID() string          { return p.transactionID }
func (p *Payment) Signature() string              { return p.signature }
func (p *Payment) OriginalID() *kernel.UUID       { return p.originalID }
func (p *Payment) FailureReason() string          { return p.failureReason }
func (p *Payment) CreatedAt() time.Time           { return p.createdAt }

// IsCompletedCharge reports whether p captured money that was not refunded.
func (p *Payment) IsCompletedCharge() bool {
	return p.kind == Charge && p.status == Completed
}

// SetTransactionID replaces the transaction id while the payment is still pending,
// used when a generated id collides with a stored one.
func (p *Payment) SetTransactionID(transactionID string) error {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return errs.NewValueIsRequiredError("transactionID")
	}
	if p.status != Pending && p.status != UnknownStatus {
		return fmt.Errorf("%w: transaction id of a %s payment is fixed", ErrInvalidStatusChange, p.status)
	}
	p.transactionID = transactionID
	return nil
}

// Sign stores the transaction signature.
func (p *Payment) Sign(signature string) {
	p.signature = signature
}

// Complete marks a pending payment as successful. A charge becomes Completed,
// a refund becomes Refunded.
func (p *Payment) Complete() error {
	if p.status != Pending {
		return fmt.Errorf("%w: %s -> done", ErrInvalidStatusChange, p.status)
	}

	p.status = Completed
	if p.kind == Refund {
		p.status = Refunded
	}
	return nil
}

// Fail marks a pending payment as failed with a reason.
func (p *Payment) Fail(reason string) error {
	if p.status != Pending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, p.status, Failed)
	}

	p.status = Failed
	p.failureReason = reason
	return nil
}

// MarkRefunded flips a completed charge after its refund succeeded.
func (p *Payment) MarkRefunded() error {
	if !p.IsCompletedCharge() {
		return fmt.Errorf("%w: %s %s cannot be refunded", ErrInvalidStatusChange, p.kind, p.status)
	}

	p.status = Refunded
	return nil
}

// FailAsDuplicate turns a record the store refused into a Failed one under a fresh
// transaction id, so it can still be saved for the audit trail.
func (p *Payment) FailAsDuplicate(transactionID string) error {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return errs.NewValueIsRequiredError("transactionID")
	}

	p.status = Failed
	p.failureReason = DuplicatePaymentReason
	p.transactionID = transactionID
	return nil
}

func (p *Payment) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Payment) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("orderID", err)
	}
	p.orderID = orderID
	return nil
}

func (p *Payment) setMethod(method kernel.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}
	p.method = method
	return nil
}
