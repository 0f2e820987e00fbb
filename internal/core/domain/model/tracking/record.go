package tracking

import (
	"errors"
	"fmt"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var (
	// ErrRecordIsNotConstructed is returned when using a Record not built by NewRecord.
	ErrRecordIsNotConstructed = errors.New("Record must be created via NewRecord constructor")

	// ErrRecordIsTerminal is returned when a delivered record is asked to move.
	ErrRecordIsTerminal = errors.New("delivery is already delivered")

	// ErrIllegalTrigger is returned for a trigger the transition table does not know.
	ErrIllegalTrigger = errors.New("illegal delivery trigger")
)

// Change describes the effect of one Apply call.
type Change struct {
	From       Status
	To         Status
	ETAMinutes int
}

// StatusChanged reports whether the status moved.
func (c Change) StatusChanged() bool {
	return c.From != c.To
}

// Record is the in-memory delivery state of one order.
//
// Invariants:
//   - ETA never increases while the record is not Delivered
//   - lastUpdated moves only when the status changes
//   - Delivered accepts no trigger
type Record struct {
	orderID    kernel.UUID
	customerID string
	status     Status
	etaMinutes int

	restaurant kernel.GeoPoint
	customer   kernel.GeoPoint

	// travelMinutes is the distance-based estimate computed at start
	travelMinutes int

	startedAt   time.Time
	lastUpdated time.Time

	guard guard.ConstructorGuard
}

// NewRecord starts a delivery in Preparing with the fixed preparation ETA.
func NewRecord(
	orderID kernel.UUID,
	customerID string,
	restaurant kernel.GeoPoint,
	customer kernel.GeoPoint,
	travelMinutes int,
	now time.Time,
) (*Record, error) {
	if err := errors.Join(orderID.Validate(), restaurant.Validate(), customer.Validate()); err != nil {
		return nil, err
	}

	return &Record{
		orderID:       orderID,
		customerID:    customerID,
		status:        Preparing,
		etaMinutes:    PreparingETAMinutes,
		restaurant:    restaurant,
		customer:      customer,
		travelMinutes: travelMinutes,
		startedAt:     now,
		lastUpdated:   now,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (r *Record) Validate() error {
	if r == nil {
		return ErrRecordIsNotConstructed
	}
	return r.guard.Validate(ErrRecordIsNotConstructed)
}

func (r *Record) OrderID() kernel.UUID        { return r.orderID }
func (r *Record) CustomerID() string          { return r.customerID }
func (r *Record) Status() Status              { return r.status }
func (r *Record) ETAMinutes() int             { return r.etaMinutes }
func (r *Record) Restaurant() kernel.GeoPoint { return r.restaurant }
func (r *Record) Customer() kernel.GeoPoint   { return r.customer }
func (r *Record) TravelMinutes() int          { return r.travelMinutes }
func (r *Record) StartedAt() time.Time        { return r.startedAt }
func (r *Record) LastUpdated() time.Time      { return r.lastUpdated }

// IsStale reports whether the record has not changed status for longer than after.
func (r *Record) IsStale(now time.Time, after time.Duration) bool {
	return !r.status.IsTerminal() && now.Sub(r.lastUpdated) > after
}

// Apply runs trigger through the transition table. Every caller, scheduled or
// manual, goes through here.
func (r *Record) Apply(trigger Trigger, now time.Time) (Change, error) {
	if r.status.IsTerminal() {
		return Change{}, fmt.Errorf("%w: order %s", ErrRecordIsTerminal, r.orderID)
	}

	t, ok := lookupTransition(r.status, trigger)
	if !ok {
		return Change{}, fmt.Errorf("%w: %s from %s", ErrIllegalTrigger, trigger, r.status)
	}

	change := Change{From: r.status, To: t.next, ETAMinutes: t.eta(r.etaMinutes)}

	r.status = change.To
	r.etaMinutes = change.ETAMinutes
	if change.StatusChanged() {
		r.lastUpdated = now
	}

	return change, nil
}

// Snapshot is a read-only copy of a record for queries.
type Snapshot struct {
	OrderID       kernel.UUID
	Status        Status
	ETAMinutes    int
	TravelMinutes int
	Restaurant    kernel.GeoPoint
	Customer      kernel.GeoPoint
	StartedAt     time.Time
	LastUpdated   time.Time
}

func (r *Record) Snapshot() Snapshot {
	return Snapshot{
		OrderID:       r.orderID,
		Status:        r.status,
		ETAMinutes:    r.etaMinutes,
		TravelMinutes: r.travelMinutes,
		Restaurant:    r.restaurant,
		Customer:      r.customer,
		StartedAt:     r.startedAt,
		LastUpdated:   r.lastUpdated,
	}
}
