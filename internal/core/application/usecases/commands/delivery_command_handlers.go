package commands

import (
	"context"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
)

// AdvanceDeliveryCommandHandler moves a delivery to its next status.
// A delivered record is gone from the store, so advancing it reports not found.
type AdvanceDeliveryCommandHandler struct {
	steps  deliverySteps
	logger *slog.Logger
}

func NewAdvanceDeliveryCommandHandler(
	store ports.TrackingStore,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) AdvanceDeliveryCommandHandler {
	return AdvanceDeliveryCommandHandler{
		steps:  deliverySteps{store: store, publisher: publisher, now: now},
		logger: logger,
	}
}

func (h *AdvanceDeliveryCommandHandler) Handle(ctx context.Context, cmd DeliveryCommand) (tracking.Change, error) {
	if err := cmd.Validate(); err != nil {
		return tracking.Change{}, err
	}

	change, err := h.steps.step(ctx, cmd.OrderID(), always(tracking.Advance))
	if err != nil {
		return tracking.Change{}, err
	}

	h.logger.InfoContext(ctx, "delivery advanced",
		"order_id", cmd.OrderID().String(), "from", change.From.String(), "to", change.To.String())
	return change, nil
}

// RefreshDeliveryCommandHandler reconciles a single record on demand.
type RefreshDeliveryCommandHandler struct {
	steps deliverySteps
}

func NewRefreshDeliveryCommandHandler(
	store ports.TrackingStore,
	publisher ports.EventPublisher,
	now func() time.Time,
) RefreshDeliveryCommandHandler {
	return RefreshDeliveryCommandHandler{
		steps: deliverySteps{store: store, publisher: publisher, now: now},
	}
}

func (h *RefreshDeliveryCommandHandler) Handle(ctx context.Context, cmd DeliveryCommand) (tracking.Change, error) {
	if err := cmd.Validate(); err != nil {
		return tracking.Change{}, err
	}
	return h.steps.step(ctx, cmd.OrderID(), reconcileTrigger)
}

// CompleteDeliveryCommandHandler walks a delivery forward until it is delivered.
type CompleteDeliveryCommandHandler struct {
	steps  deliverySteps
	logger *slog.Logger
}

func NewCompleteDeliveryCommandHandler(
	store ports.TrackingStore,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) CompleteDeliveryCommandHandler {
	return CompleteDeliveryCommandHandler{
		steps:  deliverySteps{store: store, publisher: publisher, now: now},
		logger: logger,
	}
}

// Handle returns the status changes in the order they happened.
func (h *CompleteDeliveryCommandHandler) Handle(ctx context.Context, cmd DeliveryCommand) ([]tracking.Change, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	changes, err := h.steps.untilDelivered(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "delivery completed", "order_id", cmd.OrderID().String(), "steps", len(changes))
	return changes, nil
}

// StopTrackingCommandHandler drops the record of a cancelled or delivered order.
type StopTrackingCommandHandler struct {
	store  ports.TrackingStore
	logger *slog.Logger
}

func NewStopTrackingCommandHandler(store ports.TrackingStore, logger *slog.Logger) StopTrackingCommandHandler {
	return StopTrackingCommandHandler{store: store, logger: logger}
}

func (h *StopTrackingCommandHandler) Handle(ctx context.Context, cmd DeliveryCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	removed, err := h.store.Remove(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if removed {
		h.logger.InfoContext(ctx, "delivery tracking stopped", "order_id", cmd.OrderID().String())
	}
	return nil
}
