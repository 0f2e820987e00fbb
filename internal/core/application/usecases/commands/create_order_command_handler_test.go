package commands_test

import (
	"errors"
	"testing"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCreateOrderCommand(t *testing.T) commands.CreateOrderCommand {
	t.Helper()
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "c-1", "r-1", testItems(t), kernel.CreditCard,
		kernel.UnsetGeoPoint, kernel.UnsetGeoPoint)
	require.NoError(t, err)
	return cmd
}

func TestCreateOrderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	cmd := newCreateOrderCommand(t)

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	publisher := &recordingPublisher{}

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger(), fixedClock)
	err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, []events.Type{events.OrderCreated, events.NotificationRequested}, publisher.types())

	created := publisher.ofType(events.OrderCreated)[0]
	assert.Equal(t, events.TopicOrderLifecycle, created.Topic)
	assert.Equal(t, cmd.OrderID().String(), created.Payload.OrderID)
	assert.Equal(t, "19.98", created.Payload.Amount.String())
	assert.Equal(t, "CREDIT_CARD", created.Payload.PaymentMethod)
	assert.Equal(t, "order-created", publisher.ofType(events.NotificationRequested)[0].Payload.NotificationType)

	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	factory := new(MockOrderUoWFactory)
	h := commands.NewCreateOrderCommandHandler(factory, &recordingPublisher{}, discardLogger(), fixedClock)

	err := h.Handle(t.Context(), commands.CreateOrderCommand{})

	require.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}

func TestCreateOrderCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	uow := new(MockOrderUoW)
	factory := new(MockOrderUoWFactory)
	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", ctx).Return(errors.New("begin error")).Once(),
	)
	publisher := &recordingPublisher{}

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger(), fixedClock)
	err := h.Handle(ctx, newCreateOrderCommand(t))

	require.Error(t, err)
	assert.Empty(t, publisher.types())
}

func TestCreateOrderCommandHandler_Handle_AddError(t *testing.T) {
	ctx := t.Context()
	repo := new(MockOrderRepository)
	repo.On("Add", mock.Anything, mock.Anything).Return(errors.New("add error")).Once()
	factory, uow := orderUoW(ctx, repo, false)
	publisher := &recordingPublisher{}

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger(), fixedClock)
	err := h.Handle(ctx, newCreateOrderCommand(t))

	require.ErrorContains(t, err, "add error")
	assert.Empty(t, publisher.types())
	uow.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_Handle_CommitError(t *testing.T) {
	ctx := t.Context()
	repo := new(MockOrderRepository)
	repo.On("Add", mock.Anything, mock.Anything).Return(nil).Once()
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		uow.On("Commit", ctx).Return(errors.New("commit error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()
	publisher := &recordingPublisher{}

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger(), fixedClock)
	err := h.Handle(ctx, newCreateOrderCommand(t))

	require.ErrorContains(t, err, "commit error")
	assert.Empty(t, publisher.types(), "nothing is announced for an order that was not stored")
}

func TestCreateOrderCommandHandler_Handle_PublishError(t *testing.T) {
	ctx := t.Context()
	repo := new(MockOrderRepository)
	repo.On("Add", mock.Anything, mock.Anything).Return(nil).Once()
	factory, _ := orderUoW(ctx, repo, true)
	publisher := &recordingPublisher{err: errors.New("broker down")}

	h := commands.NewCreateOrderCommandHandler(factory, publisher, discardLogger(), fixedClock)
	err := h.Handle(ctx, newCreateOrderCommand(t))

	require.ErrorContains(t, err, "broker down")
}
