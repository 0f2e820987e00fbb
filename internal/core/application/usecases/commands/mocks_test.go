package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fooddelivery/internal/core/application/payments"
	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

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

type MockPaymentUoW struct{ mock.Mock }

func (m *MockPaymentUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPaymentUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPaymentUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPaymentUoW) PaymentRepository() ports.PaymentRepository {
	args := m.Called()
	return args.Get(0).(ports.PaymentRepository)
}

type MockPaymentUoWFactory struct{ mock.Mock }

func (m *MockPaymentUoWFactory) Create() commands.PaymentUoW {
	args := m.Called()
	return args.Get(0).(commands.PaymentUoW)
}

type MockPaymentProcessor struct{ mock.Mock }

func (m *MockPaymentProcessor) Charge(ctx context.Context, a *payments.Attempt) (payments.Outcome, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(payments.Outcome), args.Error(1)
}

func (m *MockPaymentProcessor) Refund(ctx context.Context, a *payments.Attempt) (payments.Outcome, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(payments.Outcome), args.Error(1)
}

func (m *MockPaymentProcessor) AnnounceCharge(ctx context.Context, a *payments.Attempt, charge *payment.Payment) error {
	return m.Called(ctx, a, charge).Error(0)
}

func (m *MockPaymentProcessor) AnnounceRefund(ctx context.Context, a *payments.Attempt, charge, refund *payment.Payment) error {
	return m.Called(ctx, a, charge, refund).Error(0)
}

// recordingPublisher keeps every published event. When err is set, Publish fails
// from the failAt-th call on (1-based; 0 fails every call).
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
	failAt int
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil && len(p.events)+1 >= p.failAt {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) ofType(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fakeTrackingStore is a map guarded by one mutex; enough for single-goroutine tests.
type fakeTrackingStore struct {
	mu      sync.Mutex
	records map[kernel.UUID]*tracking.Record
}

func newFakeTrackingStore() *fakeTrackingStore {
	return &fakeTrackingStore{records: make(map[kernel.UUID]*tracking.Record)}
}

func (s *fakeTrackingStore) Insert(_ context.Context, r *tracking.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.OrderID()]; ok {
		return ports.ErrAlreadyTracked
	}
	s.records[r.OrderID()] = r
	return nil
}

func (s *fakeTrackingStore) Update(
	_ context.Context,
	orderID kernel.UUID,
	fn func(*tracking.Record) (bool, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[orderID]
	if !ok {
		return errs.NewObjectNotFoundError("orderID", orderID)
	}
	remove, err := fn(r)
	if err != nil {
		return err
	}
	if remove {
		delete(s.records, orderID)
	}
	return nil
}

func (s *fakeTrackingStore) Get(_ context.Context, orderID kernel.UUID) (tracking.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[orderID]
	if !ok {
		return tracking.Snapshot{}, errs.NewObjectNotFoundError("orderID", orderID)
	}
	return r.Snapshot(), nil
}

func (s *fakeTrackingStore) List(context.Context) ([]tracking.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tracking.Snapshot, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Snapshot())
	}
	return out, nil
}

func (s *fakeTrackingStore) Remove(_ context.Context, orderID kernel.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[orderID]
	delete(s.records, orderID)
	return ok, nil
}

func testItems(t *testing.T) []order.Item {
	t.Helper()
	item, err := order.NewItem("Margherita", 2, decimal.RequireFromString("9.99"))
	require.NoError(t, err)
	return []order.Item{item}
}

// restoredOrder builds an order in status, optionally with a captured payment.
func restoredOrder(t *testing.T, status order.Status, paymentRef *order.PaymentReference) *order.Order {
	t.Helper()
	o, err := order.RestoreOrder(
		kernel.NewUUID(), "c-1", "r-1", testItems(t), kernel.CreditCard,
		kernel.UnsetGeoPoint, kernel.UnsetGeoPoint, status, paymentRef, "", nil, testNow, testNow,
	)
	require.NoError(t, err)
	return o
}

// orderUoW wires one repository into a unit of work expected to be begun and rolled back.
func orderUoW(ctx context.Context, repo *MockOrderRepository, commit bool) (*MockOrderUoWFactory, *MockOrderUoW) {
	uow := new(MockOrderUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(repo).Maybe()
	if commit {
		uow.On("Commit", ctx).Return(nil).Once()
	}
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	return factory, uow
}
