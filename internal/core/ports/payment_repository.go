package ports

import (
	"context"
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/payment"
)

// ErrDuplicatePayment is returned by Save when the store already holds the transaction
// id or a completed charge for the same order.
var ErrDuplicatePayment = errors.New("duplicate payment")

// PaymentRepository defines the persistence contract for payment records.
type PaymentRepository interface {
	// Save inserts or updates a payment record.
	// Returns an error wrapping ErrDuplicatePayment on a uniqueness violation.
	Save(ctx context.Context, p *payment.Payment) error

	// Get retrieves a payment by identifier.
	// Returns *errs.ObjectNotFoundError when absent.
	Get(ctx context.Context, id kernel.UUID) (*payment.Payment, error)

	// FindByOrder lists every payment of an order, oldest first.
	FindByOrder(ctx context.Context, orderID kernel.UUID) ([]*payment.Payment, error)

	// FindByTransactionID returns the payment holding transactionID.
	// Returns *errs.ObjectNotFoundError when absent.
	FindByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error)

	// CountByMethodSince counts charges of method created at or after since.
	CountByMethodSince(ctx context.Context, method kernel.PaymentMethod, since time.Time) (int64, error)
}
