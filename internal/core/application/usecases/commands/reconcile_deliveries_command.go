package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// DefaultStaleAfter is how long a delivery may keep its status before the
// reconciler pushes it forward.
const DefaultStaleAfter = 30 * time.Second

// ReconcileResult counts what one reconciliation pass did.
type ReconcileResult struct {
	Delivered int
	Advanced  int
	Refreshed int
	Stale     int
}

// reconcileTrigger is the per-record rule of a scheduled tick:
//   - ETA <= 0 and not delivered: deliver
//   - PREPARING with ETA <= AdvanceThresholdMinutes: advance
//   - otherwise: refresh
func reconcileTrigger(r *tracking.Record, _ time.Time) (tracking.Trigger, bool) {
	switch {
	case r.Status() == tracking.Delivered:
		return 0, false
	case r.ETAMinutes() <= 0:
		return tracking.Deliver, true
	case r.Status() == tracking.Preparing && r.ETAMinutes() <= tracking.AdvanceThresholdMinutes:
		return tracking.Advance, true
	default:
		return tracking.Refresh, true
	}
}

func staleTrigger(after time.Duration) decideFunc {
	return func(r *tracking.Record, now time.Time) (tracking.Trigger, bool) {
		if !r.IsStale(now, after) {
			return 0, false
		}
		return tracking.Advance, true
	}
}

// ReconcileDeliveriesCommandHandler is run by the scheduler on every tick.
//
// The first pass applies reconcileTrigger to every record. The second pass advances
// records whose status has not changed for longer than staleAfter. Each record is
// processed under its own lock, so manual operations on the same order interleave
// safely; a record removed meanwhile is skipped.
type ReconcileDeliveriesCommandHandler struct {
	store      ports.TrackingStore
	steps      deliverySteps
	staleAfter time.Duration
	logger     *slog.Logger
}

func NewReconcileDeliveriesCommandHandler(
	store ports.TrackingStore,
	publisher ports.EventPublisher,
	staleAfter time.Duration,
	logger *slog.Logger,
	now func() time.Time,
) ReconcileDeliveriesCommandHandler {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return ReconcileDeliveriesCommandHandler{
		store:      store,
		steps:      deliverySteps{store: store, publisher: publisher, now: now},
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Handle returns the counts and every per-record failure joined; one failing record
// does not stop the others.
func (h *ReconcileDeliveriesCommandHandler) Handle(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	active, err := h.store.List(ctx)
	if err != nil {
		return result, err
	}

	var failures []error
	for _, snap := range active {
		change, stepErr := h.steps.step(ctx, snap.OrderID, reconcileTrigger)
		if skip, err := h.outcome(snap.OrderID, stepErr); skip {
			if err != nil {
				failures = append(failures, err)
			}
			continue
		}

		switch {
		case change.To == tracking.Delivered && change.StatusChanged():
			result.Delivered++
		case change.StatusChanged():
			result.Advanced++
		default:
			result.Refreshed++
		}
	}

	remaining, err := h.store.List(ctx)
	if err != nil {
		return result, errors.Join(append(failures, err)...)
	}

	for _, snap := range remaining {
		change, stepErr := h.steps.step(ctx, snap.OrderID, staleTrigger(h.staleAfter))
		if skip, err := h.outcome(snap.OrderID, stepErr); skip {
			if err != nil {
				failures = append(failures, err)
			}
			continue
		}
		if change.StatusChanged() {
			result.Stale++
			h.logger.InfoContext(ctx, "stale delivery advanced",
				"order_id", snap.OrderID.String(), "from", change.From.String(), "to", change.To.String())
		}
	}

	if len(active) > 0 {
		h.logger.DebugContext(ctx, "deliveries reconciled",
			"active", len(active), "delivered", result.Delivered, "advanced", result.Advanced,
			"refreshed", result.Refreshed, "stale", result.Stale)
	}

	return result, errors.Join(failures...)
}

// outcome classifies a step error: records removed concurrently are skipped silently.
func (h *ReconcileDeliveriesCommandHandler) outcome(orderID kernel.UUID, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, errs.ErrObjectNotFound) || errors.Is(err, tracking.ErrRecordIsTerminal) {
		return true, nil
	}
	return true, fmt.Errorf("reconcile delivery %s: %w", orderID, err)
}
