package commands_test

import (
	"testing"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func updateHandler(factory commands.OrderUoWFactory, publisher ports.EventPublisher) *commands.UpdateOrderStatusCommandHandler {
	h := commands.NewUpdateOrderStatusCommandHandler(factory, publisher, discardLogger(), fixedClock)
	return &h
}

func TestUpdateOrderStatusCommandHandler_Handle(t *testing.T) {
	t.Run("should confirm, fill default coordinates and request payment and tracking", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Created, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		repo.On("Update", mock.Anything, o).Return(nil).Once()
		factory, uow := orderUoW(ctx, repo, true)
		publisher := &recordingPublisher{}

		cmd, err := commands.NewUpdateOrderStatusCommand(o.ID(), order.Confirmed)
		require.NoError(t, err)
		h := updateHandler(factory, publisher)

		require.NoError(t, h.Handle(ctx, cmd))

		assert.Equal(t, order.Confirmed, o.Status())
		assert.NotNil(t, o.DeliveryID())
		assert.Equal(t, []events.Type{
			events.OrderConfirmed, events.PaymentRequested, events.TrackingStarted, events.NotificationRequested,
		}, publisher.types())

		started := publisher.ofType(events.TrackingStarted)[0]
		assert.Equal(t, events.TopicTrackingStart, started.Topic)
		assert.InDelta(t, 40.7128, started.Payload.RestaurantLat, 1e-9)
		assert.InDelta(t, -73.9973, started.Payload.CustomerLon, 1e-9)
		assert.Equal(t, "order-confirmed", publisher.ofType(events.NotificationRequested)[0].Payload.NotificationType)
		repo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("should emit one lifecycle update for intermediate statuses", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Confirmed, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		repo.On("Update", mock.Anything, o).Return(nil).Once()
		factory, _ := orderUoW(ctx, repo, true)
		publisher := &recordingPublisher{}

		cmd, _ := commands.NewUpdateOrderStatusCommand(o.ID(), order.InTransit)
		h := updateHandler(factory, publisher)

		require.NoError(t, h.Handle(ctx, cmd))
		assert.Equal(t, []events.Type{events.OrderUpdated, events.NotificationRequested}, publisher.types())
		assert.Equal(t, "delivery-update", publisher.ofType(events.NotificationRequested)[0].Payload.NotificationType)
	})

	t.Run("should announce the current status again on a retried request", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Confirmed, &order.PaymentReference{ID: kernel.NewUUID()})
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		repo.On("Update", mock.Anything, o).Return(nil).Once()
		factory, _ := orderUoW(ctx, repo, true)
		publisher := &recordingPublisher{}

		cmd, _ := commands.NewUpdateOrderStatusCommand(o.ID(), order.Confirmed)
		require.NoError(t, updateHandler(factory, publisher).Handle(ctx, cmd))

		assert.Equal(t, order.Confirmed, o.Status())
		assert.Equal(t, []events.Type{events.OrderConfirmed, events.TrackingStarted, events.NotificationRequested},
			publisher.types())
	})

	t.Run("should request a refund when cancelling a paid order", func(t *testing.T) {
		ctx := t.Context()
		paymentID := kernel.NewUUID()
		o := restoredOrder(t, order.Confirmed, &order.PaymentReference{ID: paymentID, TransactionID: "TXN-1"})
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		repo.On("Update", mock.Anything, o).Return(nil).Once()
		factory, _ := orderUoW(ctx, repo, true)
		publisher := &recordingPublisher{}

		cancel := commands.NewCancelOrderCommandHandler(*updateHandler(factory, publisher))
		cmd, err := commands.NewCancelOrderCommand(o.ID())
		require.NoError(t, err)

		require.NoError(t, cancel.Handle(ctx, cmd))

		assert.Equal(t, order.Cancelled, o.Status())
		assert.Equal(t, []events.Type{events.OrderCancelled, events.RefundRequested, events.NotificationRequested},
			publisher.types())
		refund := publisher.ofType(events.RefundRequested)[0]
		assert.Equal(t, events.TopicPaymentRequest, refund.Topic)
		assert.Equal(t, paymentID.String(), refund.Payload.PaymentID)
	})

	t.Run("should not request a refund for an unpaid order", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Created, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		repo.On("Update", mock.Anything, o).Return(nil).Once()
		factory, _ := orderUoW(ctx, repo, true)
		publisher := &recordingPublisher{}

		cancel := commands.NewCancelOrderCommandHandler(*updateHandler(factory, publisher))
		cmd, _ := commands.NewCancelOrderCommand(o.ID())

		require.NoError(t, cancel.Handle(ctx, cmd))
		assert.Empty(t, publisher.ofType(events.RefundRequested))
	})

	t.Run("should reject leaving DELIVERED and keep the order", func(t *testing.T) {
		ctx := t.Context()
		o := restoredOrder(t, order.Delivered, nil)
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
		factory, _ := orderUoW(ctx, repo, false)
		publisher := &recordingPublisher{}

		cmd, _ := commands.NewUpdateOrderStatusCommand(o.ID(), order.Cancelled)
		err := updateHandler(factory, publisher).Handle(ctx, cmd)

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, order.Delivered, o.Status())
		assert.Empty(t, publisher.types())
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("should surface a missing order", func(t *testing.T) {
		ctx := t.Context()
		id := kernel.NewUUID()
		repo := new(MockOrderRepository)
		repo.On("Get", mock.Anything, id).Return(nil, errs.NewObjectNotFoundError("orderID", id)).Once()
		factory, _ := orderUoW(ctx, repo, false)

		cmd, _ := commands.NewUpdateOrderStatusCommand(id, order.Confirmed)
		err := updateHandler(factory, &recordingPublisher{}).Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestNewUpdateOrderStatusCommand(t *testing.T) {
	t.Run("should reject an unknown target", func(t *testing.T) {
		_, err := commands.NewUpdateOrderStatusCommand(kernel.NewUUID(), order.Unknown)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
