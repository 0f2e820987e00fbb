package memory_test

import (
	"sync"
	"testing"
	"time"

	"fooddelivery/internal/adapters/out/memory"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, started time.Time) *tracking.Record {
	t.Helper()

	r, err := tracking.NewRecord(kernel.NewUUID(), "c-1",
		kernel.MustNewGeoPoint(40.7128, -74.0060), kernel.MustNewGeoPoint(40.7308, -73.9973), 5, started)
	require.NoError(t, err)
	return r
}

func TestTrackingStore(t *testing.T) {
	t.Run("should refuse a second record for an order", func(t *testing.T) {
		store := memory.NewTrackingStore()
		r := newRecord(t, testNow)
		require.NoError(t, store.Insert(t.Context(), r))

		assert.ErrorIs(t, store.Insert(t.Context(), r), ports.ErrAlreadyTracked)
	})

	t.Run("should remove the record when asked", func(t *testing.T) {
		store := memory.NewTrackingStore()
		r := newRecord(t, testNow)
		require.NoError(t, store.Insert(t.Context(), r))

		err := store.Update(t.Context(), r.OrderID(), func(*tracking.Record) (bool, error) { return true, nil })
		require.NoError(t, err)

		_, err = store.Get(t.Context(), r.OrderID())
		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should report not found to a caller that waited on a removed record", func(t *testing.T) {
		store := memory.NewTrackingStore()
		r := newRecord(t, testNow)
		require.NoError(t, store.Insert(t.Context(), r))

		entered := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- store.Update(t.Context(), r.OrderID(), func(*tracking.Record) (bool, error) {
				close(entered)
				<-release
				return true, nil
			})
		}()

		<-entered
		waiter := make(chan error, 1)
		go func() {
			waiter <- store.Update(t.Context(), r.OrderID(), func(*tracking.Record) (bool, error) {
				return false, nil
			})
		}()

		close(release)
		require.NoError(t, <-done)
		assert.ErrorIs(t, <-waiter, errs.ErrObjectNotFound)
	})

	t.Run("should serialize updates of one order", func(t *testing.T) {
		store := memory.NewTrackingStore()
		r := newRecord(t, testNow)
		require.NoError(t, store.Insert(t.Context(), r))

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			inside  int
			overlap bool
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.Update(t.Context(), r.OrderID(), func(*tracking.Record) (bool, error) {
					mu.Lock()
					inside++
					if inside > 1 {
						overlap = true
					}
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					inside--
					mu.Unlock()
					return false, nil
				})
			}()
		}
		wg.Wait()

		assert.False(t, overlap)
	})

	t.Run("should list snapshots by start time", func(t *testing.T) {
		store := memory.NewTrackingStore()
		later := newRecord(t, testNow.Add(time.Minute))
		earlier := newRecord(t, testNow)
		require.NoError(t, store.Insert(t.Context(), later))
		require.NoError(t, store.Insert(t.Context(), earlier))

		list, err := store.List(t.Context())

		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.True(t, list[0].OrderID.IsEqual(earlier.OrderID()))

		removed, err := store.Remove(t.Context(), earlier.OrderID())
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.Remove(t.Context(), earlier.OrderID())
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestInbox(t *testing.T) {
	t.Run("should report the first mark only", func(t *testing.T) {
		inbox := memory.NewInbox(time.Hour, nil)

		first, err := inbox.MarkProcessed(t.Context(), "payment", "e-1")
		require.NoError(t, err)
		again, err := inbox.MarkProcessed(t.Context(), "payment", "e-1")
		require.NoError(t, err)
		other, err := inbox.MarkProcessed(t.Context(), "order", "e-1")
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, again)
		assert.True(t, other)
	})

	t.Run("should report marks without adding one", func(t *testing.T) {
		inbox := memory.NewInbox(time.Hour, nil)

		seen, err := inbox.Processed(t.Context(), "payment", "e-1")
		require.NoError(t, err)
		assert.False(t, seen)

		seen, _ = inbox.Processed(t.Context(), "payment", "e-1")
		assert.False(t, seen)

		_, _ = inbox.MarkProcessed(t.Context(), "payment", "e-1")
		seen, _ = inbox.Processed(t.Context(), "payment", "e-1")
		assert.True(t, seen)
	})

	t.Run("should accept the event again after expiry", func(t *testing.T) {
		now := testNow
		inbox := memory.NewInbox(time.Minute, func() time.Time { return now })

		_, _ = inbox.MarkProcessed(t.Context(), "payment", "e-1")
		now = now.Add(2 * time.Minute)

		seen, _ := inbox.Processed(t.Context(), "payment", "e-1")
		assert.False(t, seen)
		first, _ := inbox.MarkProcessed(t.Context(), "payment", "e-1")
		assert.True(t, first)
	})
}
