package ports

import (
	"context"

	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

// GatewayRequest is what a payment gateway needs to move money.
type GatewayRequest struct {
	OrderID       kernel.UUID
	Amount        decimal.Decimal
	TransactionID string
	Signature     string
}

// GatewayResult is the gateway decision. Approved false carries a Reason.
type GatewayResult struct {
	Approved bool
	Reason   string
}

// PaymentGateway charges and refunds through one payment method.
// A returned error is an infrastructure failure, not a decline.
type PaymentGateway interface {
	Method() kernel.PaymentMethod
	Charge(ctx context.Context, req GatewayRequest) (GatewayResult, error)
	Refund(ctx context.Context, req GatewayRequest) (GatewayResult, error)
}
