package tracking_test

import (
	"testing"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newRecord(t *testing.T) *tracking.Record {
	t.Helper()
	r, err := tracking.NewRecord(kernel.NewUUID(), "c-1",
		kernel.MustNewGeoPoint(40.7128, -74.0060), kernel.MustNewGeoPoint(40.7308, -73.9973), 5, testNow)
	require.NoError(t, err)
	return r
}

func TestStatus_Next(t *testing.T) {
	t.Run("should be a pure successor function", func(t *testing.T) {
		assert.Equal(t, tracking.InTransit, tracking.Preparing.Next())
		assert.Equal(t, tracking.Delivered, tracking.InTransit.Next())
		assert.Equal(t, tracking.Delivered, tracking.Delivered.Next())
		assert.Equal(t, tracking.UnknownStatus, tracking.UnknownStatus.Next())
	})

	t.Run("should parse wire tags", func(t *testing.T) {
		status, err := tracking.ParseStatus("in_transit")

		require.NoError(t, err)
		assert.Equal(t, tracking.InTransit, status)
	})
}

func TestNewRecord(t *testing.T) {
	t.Run("should start preparing with the fixed estimate", func(t *testing.T) {
		r := newRecord(t)

		require.NoError(t, r.Validate())
		assert.Equal(t, tracking.Preparing, r.Status())
		assert.Equal(t, tracking.PreparingETAMinutes, r.ETAMinutes())
		assert.Equal(t, 5, r.TravelMinutes())
		assert.Equal(t, testNow, r.LastUpdated())
	})

	t.Run("should reject a missing order id", func(t *testing.T) {
		_, err := tracking.NewRecord(kernel.UUID{}, "", kernel.MustNewGeoPoint(0, 0), kernel.MustNewGeoPoint(0, 0), 1, testNow)

		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestRecord_Apply(t *testing.T) {
	later := testNow.Add(time.Minute)

	t.Run("should advance through every status", func(t *testing.T) {
		r := newRecord(t)

		change, err := r.Apply(tracking.Advance, later)
		require.NoError(t, err)
		assert.Equal(t, tracking.Change{From: tracking.Preparing, To: tracking.InTransit, ETAMinutes: 8}, change)
		assert.Equal(t, later, r.LastUpdated())

		change, err = r.Apply(tracking.Advance, later)
		require.NoError(t, err)
		assert.Equal(t, tracking.Delivered, change.To)
		assert.Equal(t, 0, r.ETAMinutes())
	})

	t.Run("should floor the transit estimate and keep lastUpdated on refresh", func(t *testing.T) {
		r := newRecord(t)
		_, err := r.Apply(tracking.Advance, testNow)
		require.NoError(t, err)

		for range 3 {
			change, applyErr := r.Apply(tracking.Refresh, later)
			require.NoError(t, applyErr)
			assert.False(t, change.StatusChanged())
		}

		assert.Equal(t, tracking.MinTransitETAMinutes, r.ETAMinutes())
		assert.Equal(t, testNow, r.LastUpdated())
	})

	t.Run("should keep the estimate while preparing", func(t *testing.T) {
		r := newRecord(t)

		_, err := r.Apply(tracking.Refresh, later)

		require.NoError(t, err)
		assert.Equal(t, tracking.PreparingETAMinutes, r.ETAMinutes())
	})

	t.Run("should deliver from any active status", func(t *testing.T) {
		r := newRecord(t)

		change, err := r.Apply(tracking.Deliver, later)

		require.NoError(t, err)
		assert.Equal(t, tracking.Delivered, change.To)
		assert.Equal(t, 0, change.ETAMinutes)
	})

	t.Run("should reject triggers on a delivered record", func(t *testing.T) {
		r := newRecord(t)
		_, err := r.Apply(tracking.Deliver, later)
		require.NoError(t, err)

		_, err = r.Apply(tracking.Advance, later)

		require.ErrorIs(t, err, tracking.ErrRecordIsTerminal)
		assert.Equal(t, tracking.Delivered, r.Status())
	})

	t.Run("should reject unknown triggers", func(t *testing.T) {
		_, err := newRecord(t).Apply(tracking.Trigger(42), later)

		require.ErrorIs(t, err, tracking.ErrIllegalTrigger)
	})

	t.Run("should never increase the estimate", func(t *testing.T) {
		triggers := []tracking.Trigger{
			tracking.Refresh, tracking.Advance, tracking.Refresh, tracking.Refresh, tracking.Refresh, tracking.Advance,
		}
		r := newRecord(t)
		previous := r.ETAMinutes()

		for _, trigger := range triggers {
			_, err := r.Apply(trigger, later)
			require.NoError(t, err)
			assert.LessOrEqual(t, r.ETAMinutes(), previous)
			previous = r.ETAMinutes()
		}
		assert.Equal(t, tracking.Delivered, r.Status())
	})
}

func TestRecord_IsStale(t *testing.T) {
	t.Run("should detect records without status change", func(t *testing.T) {
		r := newRecord(t)

		assert.False(t, r.IsStale(testNow.Add(30*time.Second), 30*time.Second))
		assert.True(t, r.IsStale(testNow.Add(31*time.Second), 30*time.Second))
	})

	t.Run("should stay stale across refreshes", func(t *testing.T) {
		r := newRecord(t)
		_, err := r.Apply(tracking.Refresh, testNow.Add(25*time.Second))
		require.NoError(t, err)

		assert.True(t, r.IsStale(testNow.Add(31*time.Second), 30*time.Second))
	})

	t.Run("should never report a delivered record", func(t *testing.T) {
		r := newRecord(t)
		_, err := r.Apply(tracking.Deliver, testNow)
		require.NoError(t, err)

		assert.False(t, r.IsStale(testNow.Add(time.Hour), 30*time.Second))
	})
}
