package payments_test

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentRepository) FindByOrder(ctx context.Context, orderID kernel.UUID) ([]*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	list, _ := args.Get(0).([]*payment.Payment)
	return list, args.Error(1)
}

func (m *MockPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	args := m.Called(ctx, transactionID)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentRepository) CountByMethodSince(ctx context.Context, method kernel.PaymentMethod, since time.Time) (int64, error) {
	args := m.Called(ctx, method, since)
	return args.Get(0).(int64), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type stubGateway struct {
	method  kernel.PaymentMethod
	approve bool
	err     error

	charges []ports.GatewayRequest
	refunds []ports.GatewayRequest
}

func (g *stubGateway) Method() kernel.PaymentMethod { return g.method }

func (g *stubGateway) Charge(_ context.Context, req ports.GatewayRequest) (ports.GatewayResult, error) {
	g.charges = append(g.charges, req)
	return g.result()
}

func (g *stubGateway) Refund(_ context.Context, req ports.GatewayRequest) (ports.GatewayResult, error) {
	g.refunds = append(g.refunds, req)
	return g.result()
}

func (g *stubGateway) result() (ports.GatewayResult, error) {
	if g.err != nil {
		return ports.GatewayResult{}, g.err
	}
	if !g.approve {
		return ports.GatewayResult{Reason: "declined by " + g.method.String()}, nil
	}
	return ports.GatewayResult{Approved: true}, nil
}
