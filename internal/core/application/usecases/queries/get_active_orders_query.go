package queries

import (
	"context"
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery retrieves all orders still moving through the saga.
type GetActiveOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery creates a parameterless query.
func NewGetActiveOrdersQuery() GetActiveOrdersQuery {
	return GetActiveOrdersQuery{guard: guard.NewConstructorGuard()}
}

func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// ActiveOrder is one row of the active orders listing.
type ActiveOrder struct {
	ID           kernel.UUID
	CustomerID   string
	RestaurantID string
	Status       order.Status
	Amount       decimal.Decimal
	CreatedAt    time.Time
}

// ActiveStatuses are the statuses listed by GetActiveOrdersQuery, in lifecycle order.
func ActiveStatuses() []order.Status {
	return []order.Status{order.Created, order.Confirmed, order.Preparing, order.InTransit}
}

// GetActiveOrdersQueryHandler lists active orders, oldest first.
//
// Example:
//
//	handler := NewGetActiveOrdersQueryHandler(orderrepo.NewActiveOrdersReader(db))
//	active, err := handler.Handle(ctx, NewGetActiveOrdersQuery())
//	if err != nil {
//	    return fmt.Errorf("failed to list active orders: %w", err)
//	}
//	fmt.Printf("%d orders in flight\n", len(active))
type GetActiveOrdersQueryHandler struct {
	source ActiveOrdersReader
}

func NewGetActiveOrdersQueryHandler(source ActiveOrdersReader) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{source: source}
}

func (h GetActiveOrdersQueryHandler) Handle(ctx context.Context, query GetActiveOrdersQuery) ([]ActiveOrder, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.source.ActiveOrders(ctx)
}
