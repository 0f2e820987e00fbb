package commands_test

import (
	"errors"
	"testing"
	"time"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/domain/services"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingFixture struct {
	store     *fakeTrackingStore
	publisher *recordingPublisher
	now       time.Time
}

func newTrackingFixture() *trackingFixture {
	return &trackingFixture{store: newFakeTrackingStore(), publisher: &recordingPublisher{}, now: testNow}
}

func (f *trackingFixture) clock() time.Time { return f.now }

func (f *trackingFixture) start(t *testing.T) kernel.UUID {
	t.Helper()
	estimator, err := services.NewETAEstimator(services.DefaultAverageSpeedKmh)
	require.NoError(t, err)

	h := commands.NewStartTrackingCommandHandler(f.store, f.publisher, estimator, discardLogger(), f.clock)
	cmd, err := commands.NewStartTrackingCommand(kernel.NewUUID(), "c-1",
		order.DefaultRestaurantLocation, order.DefaultCustomerLocation)
	require.NoError(t, err)
	require.NoError(t, h.Handle(t.Context(), cmd))
	return cmd.OrderID()
}

func deliveryCommand(t *testing.T, id kernel.UUID) commands.DeliveryCommand {
	t.Helper()
	cmd, err := commands.NewDeliveryCommand(id)
	require.NoError(t, err)
	return cmd
}

func TestStartTrackingCommandHandler_Handle(t *testing.T) {
	t.Run("should enter preparing with the fixed ETA and announce it", func(t *testing.T) {
		f := newTrackingFixture()
		id := f.start(t)

		snap, err := f.store.Get(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, tracking.Preparing, snap.Status)
		assert.Equal(t, 15, snap.ETAMinutes)
		assert.Equal(t, 5, snap.TravelMinutes)

		require.Equal(t, []events.Type{events.DeliveryStatus}, f.publisher.types())
		status := f.publisher.events[0]
		assert.Equal(t, "PREPARING", status.Payload.Status)
		assert.Equal(t, 15, status.Payload.ETAMinutes)
		assert.Equal(t, events.TopicTrackingStatus, status.Topic)
	})

	t.Run("should ignore a second start", func(t *testing.T) {
		f := newTrackingFixture()
		estimator, _ := services.NewETAEstimator(services.DefaultAverageSpeedKmh)
		h := commands.NewStartTrackingCommandHandler(f.store, f.publisher, estimator, discardLogger(), f.clock)
		cmd, _ := commands.NewStartTrackingCommand(kernel.NewUUID(), "c-1",
			order.DefaultRestaurantLocation, order.DefaultCustomerLocation)

		require.NoError(t, h.Handle(t.Context(), cmd))
		require.NoError(t, h.Handle(t.Context(), cmd))
		assert.Len(t, f.publisher.types(), 1)
	})

	t.Run("should forget the record when the start cannot be announced", func(t *testing.T) {
		f := newTrackingFixture()
		f.publisher.err = errors.New("broker down")
		estimator, _ := services.NewETAEstimator(services.DefaultAverageSpeedKmh)
		h := commands.NewStartTrackingCommandHandler(f.store, f.publisher, estimator, discardLogger(), f.clock)
		cmd, _ := commands.NewStartTrackingCommand(kernel.NewUUID(), "c-1",
			order.DefaultRestaurantLocation, order.DefaultCustomerLocation)

		require.ErrorContains(t, h.Handle(t.Context(), cmd), "broker down")
		_, err := f.store.Get(t.Context(), cmd.OrderID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should read coordinates from the tracking request", func(t *testing.T) {
		e, err := events.New(events.TrackingStarted, events.ProducerOrder, events.Payload{
			OrderID:       kernel.NewUUID().String(),
			RestaurantLat: 40.7128, RestaurantLon: -74.0060,
			CustomerLat: 40.7308, CustomerLon: -73.9973,
		}, testNow)
		require.NoError(t, err)

		cmd, err := commands.NewStartTrackingCommandFromEvent(e)
		require.NoError(t, err)
		assert.Equal(t, order.DefaultCustomerLocation, cmd.Customer())
	})
}

func TestAdvanceDeliveryCommandHandler_Handle(t *testing.T) {
	t.Run("should walk preparing to delivered and drop the record", func(t *testing.T) {
		f := newTrackingFixture()
		id := f.start(t)
		h := commands.NewAdvanceDeliveryCommandHandler(f.store, f.publisher, discardLogger(), f.clock)

		change, err := h.Handle(t.Context(), deliveryCommand(t, id))
		require.NoError(t, err)
		assert.Equal(t, tracking.InTransit, change.To)
		assert.Equal(t, 8, change.ETAMinutes)

		change, err = h.Handle(t.Context(), deliveryCommand(t, id))
		require.NoError(t, err)
		assert.Equal(t, tracking.Delivered, change.To)
		assert.Zero(t, change.ETAMinutes)

		assert.Equal(t, []events.Type{
			events.DeliveryStatus, events.DeliveryStatus, events.DeliveryStatus, events.DeliveryCompleted,
		}, f.publisher.types())

		_, err = h.Handle(t.Context(), deliveryCommand(t, id))
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should keep the record unchanged when publishing fails", func(t *testing.T) {
		f := newTrackingFixture()
		id := f.start(t)
		f.publisher.err, f.publisher.failAt = errors.New("broker down"), 2
		h := commands.NewAdvanceDeliveryCommandHandler(f.store, f.publisher, discardLogger(), f.clock)

		_, err := h.Handle(t.Context(), deliveryCommand(t, id))
		require.ErrorContains(t, err, "broker down")

		snap, err := f.store.Get(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, tracking.Preparing, snap.Status)
		assert.Equal(t, 15, snap.ETAMinutes)
	})
}

func TestCompleteDeliveryCommandHandler_Handle(t *testing.T) {
	f := newTrackingFixture()
	id := f.start(t)
	h := commands.NewCompleteDeliveryCommandHandler(f.store, f.publisher, discardLogger(), f.clock)

	changes, err := h.Handle(t.Context(), deliveryCommand(t, id))

	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, tracking.Delivered, changes[1].To)
	assert.Len(t, f.publisher.ofType(events.DeliveryCompleted), 1)
	_, err = f.store.Get(t.Context(), id)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestRefreshDeliveryCommandHandler_Handle(t *testing.T) {
	t.Run("should lower the ETA in transit without touching the update time", func(t *testing.T) {
		f := newTrackingFixture()
		id := f.start(t)
		advance := commands.NewAdvanceDeliveryCommandHandler(f.store, f.publisher, discardLogger(), f.clock)
		_, err := advance.Handle(t.Context(), deliveryCommand(t, id))
		require.NoError(t, err)

		f.now = f.now.Add(10 * time.Second)
		h := commands.NewRefreshDeliveryCommandHandler(f.store, f.publisher, f.clock)
		change, err := h.Handle(t.Context(), deliveryCommand(t, id))

		require.NoError(t, err)
		assert.False(t, change.StatusChanged())
		assert.Equal(t, 1, change.ETAMinutes)

		snap, _ := f.store.Get(t.Context(), id)
		assert.Equal(t, testNow, snap.LastUpdated)
	})
}

func TestStopTrackingCommandHandler_Handle(t *testing.T) {
	f := newTrackingFixture()
	id := f.start(t)
	h := commands.NewStopTrackingCommandHandler(f.store, discardLogger())

	require.NoError(t, h.Handle(t.Context(), deliveryCommand(t, id)))
	require.NoError(t, h.Handle(t.Context(), deliveryCommand(t, id)), "stopping twice is harmless")

	_, err := f.store.Get(t.Context(), id)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestReconcileDeliveriesCommandHandler_Handle(t *testing.T) {
	t.Run("should refresh fresh records and advance stale ones", func(t *testing.T) {
		f := newTrackingFixture()
		id := f.start(t)
		h := commands.NewReconcileDeliveriesCommandHandler(f.store, f.publisher, 30*time.Second, discardLogger(), f.clock)

		f.now = testNow.Add(10 * time.Second)
		result, err := h.Handle(t.Context())
		require.NoError(t, err)
		assert.Equal(t, commands.ReconcileResult{Refreshed: 1}, result)

		f.now = testNow.Add(31 * time.Second)
		result, err = h.Handle(t.Context())
		require.NoError(t, err)
		assert.Equal(t, commands.ReconcileResult{Refreshed: 1, Stale: 1}, result)

		snap, err := f.store.Get(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, tracking.InTransit, snap.Status)
	})

	t.Run("should keep ETA monotonic and deliver every record eventually", func(t *testing.T) {
		f := newTrackingFixture()
		id := f.start(t)
		h := commands.NewReconcileDeliveriesCommandHandler(f.store, f.publisher, 30*time.Second, discardLogger(), f.clock)

		previous := 15
		for i := 1; i <= 20; i++ {
			f.now = testNow.Add(time.Duration(i) * 31 * time.Second)
			_, err := h.Handle(t.Context())
			require.NoError(t, err)

			snap, err := f.store.Get(t.Context(), id)
			if errors.Is(err, errs.ErrObjectNotFound) {
				break
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, snap.ETAMinutes, previous)
			previous = snap.ETAMinutes
		}

		assert.Len(t, f.publisher.ofType(events.DeliveryCompleted), 1)
	})
}
