package memory

import (
	"context"
	"sort"
	"sync"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// TrackingStore keeps active delivery records with one mutex per order. The map lock
// is never held while waiting for a record lock.
type TrackingStore struct {
	mu      sync.Mutex
	entries map[kernel.UUID]*trackingEntry
}

type trackingEntry struct {
	mu      sync.Mutex
	record  *tracking.Record
	removed bool
}

func NewTrackingStore() *TrackingStore {
	return &TrackingStore{entries: make(map[kernel.UUID]*trackingEntry)}
}

func (s *TrackingStore) Insert(_ context.Context, record *tracking.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[record.OrderID()]; ok {
		return ports.ErrAlreadyTracked
	}
	s.entries[record.OrderID()] = &trackingEntry{record: record}
	return nil
}

func (s *TrackingStore) Update(
	ctx context.Context,
	orderID kernel.UUID,
	fn func(record *tracking.Record) (bool, error),
) error {
	entry, ok := s.lookup(orderID)
	if !ok {
		return notTracked(orderID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.removed {
		return notTracked(orderID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	remove, err := fn(entry.record)
	if err != nil {
		return err
	}

	if remove {
		entry.removed = true
		s.mu.Lock()
		if s.entries[orderID] == entry {
			delete(s.entries, orderID)
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *TrackingStore) Get(_ context.Context, orderID kernel.UUID) (tracking.Snapshot, error) {
	entry, ok := s.lookup(orderID)
	if !ok {
		return tracking.Snapshot{}, notTracked(orderID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.removed {
		return tracking.Snapshot{}, notTracked(orderID)
	}
	return entry.record.Snapshot(), nil
}

// List returns snapshots ordered by start time.
func (s *TrackingStore) List(_ context.Context) ([]tracking.Snapshot, error) {
	s.mu.Lock()
	entries := make([]*trackingEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]tracking.Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			out = append(out, e.record.Snapshot())
		}
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].OrderID.String() < out[j].OrderID.String()
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func (s *TrackingStore) Remove(_ context.Context, orderID kernel.UUID) (bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[orderID]
	delete(s.entries, orderID)
	s.mu.Unlock()

	if !ok {
		return false, nil
	}

	entry.mu.Lock()
	existed := !entry.removed
	entry.removed = true
	entry.mu.Unlock()
	return existed, nil
}

func (s *TrackingStore) lookup(orderID kernel.UUID) (*trackingEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[orderID]
	return e, ok
}

func notTracked(orderID kernel.UUID) error {
	return errs.NewObjectNotFoundError("tracking", orderID.String())
}
