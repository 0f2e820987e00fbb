package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/domain/services"
	"fooddelivery/internal/core/ports"
)

// StartTrackingCommandHandler creates the tracking record in PREPARING and
// publishes the first DELIVERY_STATUS. Starting an already tracked order is a no-op.
type StartTrackingCommandHandler struct {
	store     ports.TrackingStore
	publisher ports.EventPublisher
	estimator services.ETAEstimator
	logger    *slog.Logger
	now       func() time.Time
}

func NewStartTrackingCommandHandler(
	store ports.TrackingStore,
	publisher ports.EventPublisher,
	estimator services.ETAEstimator,
	logger *slog.Logger,
	now func() time.Time,
) StartTrackingCommandHandler {
	return StartTrackingCommandHandler{
		store:     store,
		publisher: publisher,
		estimator: estimator,
		logger:    logger,
		now:       now,
	}
}

func (h *StartTrackingCommandHandler) Handle(ctx context.Context, cmd StartTrackingCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	travel, err := h.estimator.Estimate(cmd.Restaurant(), cmd.Customer())
	if err != nil {
		return err
	}

	now := h.now()
	rec, err := tracking.NewRecord(cmd.OrderID(), cmd.CustomerID(), cmd.Restaurant(), cmd.Customer(), travel, now)
	if err != nil {
		return err
	}

	if err = h.store.Insert(ctx, rec); errors.Is(err, ports.ErrAlreadyTracked) {
		h.logger.DebugContext(ctx, "order already tracked", "order_id", cmd.OrderID().String())
		return nil
	} else if err != nil {
		return err
	}

	e, err := events.New(events.DeliveryStatus, events.ProducerTracking, trackingPayload(rec), now)
	if err == nil {
		err = h.publisher.Publish(ctx, e)
	}
	if err != nil {
		if _, removeErr := h.store.Remove(ctx, cmd.OrderID()); removeErr != nil {
			err = errors.Join(err, removeErr)
		}
		return err
	}

	h.logger.InfoContext(ctx, "delivery tracking started",
		"order_id", cmd.OrderID().String(), "eta_minutes", rec.ETAMinutes(), "travel_minutes", travel)
	return nil
}
