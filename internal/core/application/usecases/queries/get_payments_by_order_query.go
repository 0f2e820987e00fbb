package queries

import (
	"context"
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetPaymentsByOrderQueryIsNotConstructed = errors.New(
	"GetPaymentsByOrderQuery must be created via NewGetPaymentsByOrderQuery constructor",
)

// GetPaymentsByOrderQuery lists every charge and refund of an order.
type GetPaymentsByOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetPaymentsByOrderQuery(orderID kernel.UUID) (GetPaymentsByOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetPaymentsByOrderQuery{}, err
	}
	return GetPaymentsByOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetPaymentsByOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetPaymentsByOrderQueryIsNotConstructed)
}

func (q GetPaymentsByOrderQuery) OrderID() kernel.UUID { return q.orderID }

// PaymentResponse is the read model of a payment record. The signature stays internal.
type PaymentResponse struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	Kind          payment.Kind
	Method        kernel.PaymentMethod
	Amount        decimal.Decimal
	Status        payment.Status
	TransactionID string
	OriginalID    *kernel.UUID
	FailureReason string
	CreatedAt     time.Time
}

type GetPaymentsByOrderQueryHandler struct {
	payments PaymentReader
}

func NewGetPaymentsByOrderQueryHandler(payments PaymentReader) GetPaymentsByOrderQueryHandler {
	return GetPaymentsByOrderQueryHandler{payments: payments}
}

// Handle returns an empty list for an order without payments.
func (h GetPaymentsByOrderQueryHandler) Handle(ctx context.Context, query GetPaymentsByOrderQuery) ([]PaymentResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	list, err := h.payments.FindByOrder(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}

	out := make([]PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, PaymentResponse{
			ID:            p.ID(),
			OrderID:       p.OrderID(),
			Kind:          p.Kind(),
			Method:        p.Method(),
			Amount:        p.Amount(),
			Status:        p.Status(),
			TransactionID: p.TransactionID(),
			OriginalID:    p.OriginalID(),
			FailureReason: p.FailureReason(),
			CreatedAt:     p.CreatedAt(),
		})
	}
	return out, nil
}
