package commands_test

import (
	"testing"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func deliveryStatusHandler(factory commands.OrderUoWFactory, publisher ports.EventPublisher) *commands.ApplyDeliveryStatusCommandHandler {
	h := commands.NewApplyDeliveryStatusCommandHandler(factory, publisher, discardLogger(), fixedClock)
	return &h
}

func TestApplyDeliveryStatusCommandHandler_Handle(t *testing.T) {
	t.Run("should move a confirmed order to preparing", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Confirmed, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		repo.On("Update", mock.Anything, o).Return(nil).Once()
		factory, _ := orderUoW(ctx, repo, true)
		publisher := &recordingPublisher{}

		cmd, err := commands.NewApplyDeliveryStatusCommand(o.ID(), tracking.Preparing)
		require.NoError(t, err)
		require.NoError(t, deliveryStatusHandler(factory, publisher).Handle(ctx, cmd))

		assert.Equal(t, order.Preparing, o.Status())
		assert.Equal(t, []events.Type{events.OrderUpdated, events.NotificationRequested}, publisher.types())
		assert.Equal(t, "order-preparation", publisher.ofType(events.NotificationRequested)[0].Payload.NotificationType)
	})

	t.Run("should ignore an update the order already passed", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.InTransit, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		factory, _ := orderUoW(ctx, repo, false)
		publisher := &recordingPublisher{}

		cmd, _ := commands.NewApplyDeliveryStatusCommand(o.ID(), tracking.Preparing)
		require.NoError(t, deliveryStatusHandler(factory, publisher).Handle(ctx, cmd))

		assert.Equal(t, order.InTransit, o.Status())
		assert.Empty(t, publisher.types())
	})

	t.Run("should announce again an update for the current status", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Preparing, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		factory, _ := orderUoW(ctx, repo, false)
		publisher := &recordingPublisher{}

		cmd, _ := commands.NewApplyDeliveryStatusCommand(o.ID(), tracking.Preparing)
		require.NoError(t, deliveryStatusHandler(factory, publisher).Handle(ctx, cmd))

		assert.Equal(t, []events.Type{events.OrderUpdated, events.NotificationRequested}, publisher.types())
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("should drop an update for a cancelled order", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Cancelled, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		factory, _ := orderUoW(ctx, repo, false)
		publisher := &recordingPublisher{}

		cmd, _ := commands.NewApplyDeliveryStatusCommand(o.ID(), tracking.InTransit)
		require.NoError(t, deliveryStatusHandler(factory, publisher).Handle(ctx, cmd))

		assert.Equal(t, order.Cancelled, o.Status())
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("should tolerate an unknown order", func(t *testing.T) {
		ctx := t.Context()
		id := kernel.NewUUID()
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("orderID", id)).Once()
		factory, _ := orderUoW(ctx, repo, false)

		cmd, _ := commands.NewApplyDeliveryStatusCommand(id, tracking.InTransit)
		require.NoError(t, deliveryStatusHandler(factory, &recordingPublisher{}).Handle(ctx, cmd))
	})

	t.Run("should leave delivered updates to order completion", func(t *testing.T) {
		factory := new(MockOrderUoWFactory)

		cmd, _ := commands.NewApplyDeliveryStatusCommand(kernel.NewUUID(), tracking.Delivered)
		require.NoError(t, deliveryStatusHandler(factory, &recordingPublisher{}).Handle(t.Context(), cmd))

		factory.AssertNotCalled(t, "Create")
	})
}
