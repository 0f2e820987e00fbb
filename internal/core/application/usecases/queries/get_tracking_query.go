package queries

import (
	"context"
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/pkg/guard"
)

var ErrGetTrackingQueryIsNotConstructed = errors.New(
	"GetTrackingQuery must be created via NewGetTrackingQuery constructor",
)

// GetTrackingQuery reads the live delivery state of an order. Delivered orders are
// no longer tracked and report not found.
type GetTrackingQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetTrackingQuery(orderID kernel.UUID) (GetTrackingQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetTrackingQuery{}, err
	}
	return GetTrackingQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetTrackingQuery) Validate() error {
	return q.guard.Validate(ErrGetTrackingQueryIsNotConstructed)
}

func (q GetTrackingQuery) OrderID() kernel.UUID { return q.orderID }

type GetTrackingQueryHandler struct {
	store TrackingReader
}

func NewGetTrackingQueryHandler(store TrackingReader) GetTrackingQueryHandler {
	return GetTrackingQueryHandler{store: store}
}

func (h GetTrackingQueryHandler) Handle(ctx context.Context, query GetTrackingQuery) (tracking.Snapshot, error) {
	if err := query.Validate(); err != nil {
		return tracking.Snapshot{}, err
	}
	return h.store.Get(ctx, query.OrderID())
}
