// Package gateways holds the simulated payment gateways. No money moves: every call
// is approved with a fixed probability per method.
package gateways

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/ports"
)

// Approval rates of the simulators.
const (
	CreditCardChargeRate = 0.95
	CreditCardRefundRate = 0.90
	PayPalChargeRate     = 0.93
	PayPalRefundRate     = 0.92
)

// Settings are reported in the logs, as a real gateway client would be configured.
type Settings struct {
	URL     string
	Timeout time.Duration
}

// Simulator implements ports.PaymentGateway for one method.
type Simulator struct {
	method     kernel.PaymentMethod
	chargeRate float64
	refundRate float64
	settings   Settings
	roll       func() float64
	logger     *slog.Logger
}

// NewSimulator builds a gateway approving charges and refunds with the given rates.
// roll returns a value in [0, 1); nil uses math/rand.
func NewSimulator(
	method kernel.PaymentMethod,
	chargeRate, refundRate float64,
	settings Settings,
	roll func() float64,
	logger *slog.Logger,
) *Simulator {
	if roll == nil {
		roll = rand.Float64
	}
	return &Simulator{
		method:     method,
		chargeRate: chargeRate,
		refundRate: refundRate,
		settings:   settings,
		roll:       roll,
		logger:     logger.With("component", "gateway", "method", method.String()),
	}
}

// Defaults returns one simulator per supported payment method.
func Defaults(settings Settings, roll func() float64, logger *slog.Logger) []ports.PaymentGateway {
	return []ports.PaymentGateway{
		NewSimulator(kernel.CreditCard, CreditCardChargeRate, CreditCardRefundRate, settings, roll, logger),
		NewSimulator(kernel.PayPal, PayPalChargeRate, PayPalRefundRate, settings, roll, logger),
	}
}

func (s *Simulator) Method() kernel.PaymentMethod {
	return s.method
}

func (s *Simulator) Charge(ctx context.Context, req ports.GatewayRequest) (ports.GatewayResult, error) {
	return s.decide(ctx, "charge", req, s.chargeRate)
}

func (s *Simulator) Refund(ctx context.Context, req ports.GatewayRequest) (ports.GatewayResult, error) {
	return s.decide(ctx, "refund", req, s.refundRate)
}

func (s *Simulator) decide(
	ctx context.Context,
	operation string,
	req ports.GatewayRequest,
	rate float64,
) (ports.GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.GatewayResult{}, err
	}

	s.logger.InfoContext(ctx, "processing "+operation,
		"order_id", req.OrderID.String(), "transaction_id", req.TransactionID,
		"amount", req.Amount.StringFixed(2), "gateway_url", s.settings.URL, "timeout", s.settings.Timeout.String())

	if s.roll() < rate {
		return ports.GatewayResult{Approved: true}, nil
	}

	return ports.GatewayResult{
		Reason: fmt.Sprintf("%s %s declined by gateway", s.method, operation),
	}, nil
}
