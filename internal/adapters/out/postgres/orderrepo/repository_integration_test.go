package orderrepo_test

import (
	"context"
	"testing"
	"time"

	pgadapter "fooddelivery/internal/adapters/out/postgres"
	"fooddelivery/internal/adapters/out/postgres/orderrepo"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite verifies order persistence against a real PostgreSQL.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := pgadapter.Open(connStr)
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(pgadapter.Migrate(db))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders, order_items").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ThenGet_RoundTripsTheAggregate() {
	ctx := context.Background()
	created := suite.createTestOrder(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	suite.Require().NoError(suite.repository.Add(ctx, created))

	loaded, err := suite.repository.Get(ctx, created.ID())
	suite.Require().NoError(err)

	suite.True(loaded.IsEqual(created))
	suite.Equal("c-1", loaded.CustomerID())
	suite.Equal("r-1", loaded.RestaurantID())
	suite.Equal(order.Created, loaded.Status())
	suite.Equal(kernel.PayPal, loaded.PaymentMethod())
	suite.True(created.Amount().Equal(loaded.Amount()))
	suite.Require().Len(loaded.Items(), 2)
	suite.Equal("Margherita", loaded.Items()[0].Name())
	suite.Equal("Tiramisu", loaded.Items()[1].Name())
	suite.InDelta(40.7128, loaded.RestaurantLocation().Latitude(), 1e-9)
	suite.Nil(loaded.Payment())
	suite.Nil(loaded.DeliveryID())

	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", created.ID(), created)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_PersistsPaymentAndStatus() {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o := suite.createTestOrder(now)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	paymentID := kernel.NewUUID()
	_, err := o.RecordPayment(paymentID, "TXN-1", now.Add(time.Second))
	suite.Require().NoError(err)
	suite.Require().NoError(o.TransitionTo(order.Confirmed, now.Add(time.Second)))
	deliveryID := o.StartDelivery()

	suite.Require().NoError(suite.repository.Update(ctx, o))

	loaded, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Confirmed, loaded.Status())
	suite.Require().NotNil(loaded.Payment())
	suite.True(loaded.Payment().ID.IsEqual(paymentID))
	suite.Equal("TXN-1", loaded.Payment().TransactionID)
	suite.Require().NotNil(loaded.DeliveryID())
	suite.True(loaded.DeliveryID().IsEqual(deliveryID))
	suite.Len(loaded.Items(), 2)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_ClearsPaymentFailure() {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o := suite.createTestOrder(now)
	suite.Require().NoError(o.RecordPaymentFailure("declined", now))
	suite.Require().NoError(suite.repository.Add(ctx, o))

	_, err := o.RecordPayment(kernel.NewUUID(), "TXN-2", now.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, o))

	loaded, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Empty(loaded.PaymentFailure())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_NonExistentOrder_ReturnsError() {
	o := suite.createTestOrder(time.Now().UTC())

	err := suite.repository.Update(context.Background(), o)

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestActiveOrders_ExcludesTerminalOrders() {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	older := suite.createTestOrder(base)
	newer := suite.createTestOrder(base.Add(time.Minute))
	delivered := suite.createTestOrder(base.Add(2 * time.Minute))
	cancelled := suite.createTestOrder(base.Add(3 * time.Minute))

	for _, o := range []*order.Order{newer, older, delivered, cancelled} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}

	for _, step := range []order.Status{order.Confirmed, order.Preparing, order.InTransit, order.Delivered} {
		suite.Require().NoError(delivered.TransitionTo(step, base))
	}
	suite.Require().NoError(suite.repository.Update(ctx, delivered))
	suite.Require().NoError(cancelled.TransitionTo(order.Cancelled, base))
	suite.Require().NoError(suite.repository.Update(ctx, cancelled))

	active, err := orderrepo.NewActiveOrdersReader(suite.db).ActiveOrders(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(active, 2)
	suite.True(active[0].ID.IsEqual(older.ID()))
	suite.True(active[1].ID.IsEqual(newer.ID()))
	suite.Equal(order.Created, active[0].Status)
	suite.True(older.Amount().Equal(active[0].Amount))
}

func (suite *OrderRepositoryIntegrationTestSuite) createTestOrder(now time.Time) *order.Order {
	margherita, err := order.NewItem("Margherita", 2, decimal.RequireFromString("9.99"))
	suite.Require().NoError(err)
	tiramisu, err := order.NewItem("Tiramisu", 1, decimal.RequireFromString("5.50"))
	suite.Require().NoError(err)

	o, err := order.NewOrder(
		kernel.NewUUID(), "c-1", "r-1", []order.Item{margherita, tiramisu}, kernel.PayPal,
		kernel.MustNewGeoPoint(40.7128, -74.0060), kernel.MustNewGeoPoint(40.7308, -73.9973),
		now,
	)
	suite.Require().NoError(err)
	return o
}

func TestOrderRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
