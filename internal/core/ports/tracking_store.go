package ports

import (
	"context"
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"
)

// ErrAlreadyTracked is returned by Insert when the order already has a record.
var ErrAlreadyTracked = errors.New("order is already tracked")

// TrackingStore holds active delivery records. Access to one record is serialized:
// Update runs fn while holding the lock of that order only.
type TrackingStore interface {
	// Insert adds a new record. Returns ErrAlreadyTracked if one exists.
	Insert(ctx context.Context, record *tracking.Record) error

	// Update runs fn on the record of orderID under its lock. When fn returns
	// remove true the record is deleted before the lock is released.
	// Returns *errs.ObjectNotFoundError when no record exists, including when it
	// was removed while the caller waited for the lock.
	Update(ctx context.Context, orderID kernel.UUID, fn func(record *tracking.Record) (remove bool, err error)) error

	// Get returns a snapshot of the record of orderID.
	Get(ctx context.Context, orderID kernel.UUID) (tracking.Snapshot, error)

	// List returns a snapshot of every active record.
	List(ctx context.Context) ([]tracking.Snapshot, error)

	// Remove deletes the record of orderID. Returns true if it existed.
	Remove(ctx context.Context, orderID kernel.UUID) (bool, error)
}
