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

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves one order with its items and payment state.
//
// Example:
//
//	query, _ := NewGetOrderQuery(orderID)
//	resp, err := handler.Handle(ctx, query)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // 404
//	}
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }

type OrderItemResponse struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// GetOrderQueryResponse is the read model of an order.
type GetOrderQueryResponse struct {
	ID                 kernel.UUID
	CustomerID         string
	RestaurantID       string
	Items              []OrderItemResponse
	Amount             decimal.Decimal
	PaymentMethod      kernel.PaymentMethod
	Status             order.Status
	RestaurantLocation kernel.GeoPoint
	CustomerLocation   kernel.GeoPoint
	PaymentID          *kernel.UUID
	PaymentRefunded    bool
	PaymentFailure     string
	DeliveryID         *kernel.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewGetOrderQueryResponse flattens an aggregate into its read model.
func NewGetOrderQueryResponse(o *order.Order) GetOrderQueryResponse {
	items := make([]OrderItemResponse, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, OrderItemResponse{Name: item.Name(), Quantity: item.Quantity(), UnitPrice: item.UnitPrice()})
	}

	resp := GetOrderQueryResponse{
		ID:                 o.ID(),
		CustomerID:         o.CustomerID(),
		RestaurantID:       o.RestaurantID(),
		Items:              items,
		Amount:             o.Amount(),
		PaymentMethod:      o.PaymentMethod(),
		Status:             o.Status(),
		RestaurantLocation: o.RestaurantLocation(),
		CustomerLocation:   o.CustomerLocation(),
		PaymentFailure:     o.PaymentFailure(),
		DeliveryID:         o.DeliveryID(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}
	if ref := o.Payment(); ref != nil {
		id := ref.ID
		resp.PaymentID = &id
		resp.PaymentRefunded = ref.Refunded
	}
	return resp
}

type GetOrderQueryHandler struct {
	orders OrderReader
}

func NewGetOrderQueryHandler(orders OrderReader) GetOrderQueryHandler {
	return GetOrderQueryHandler{orders: orders}
}

// Handle returns *errs.ObjectNotFoundError for an unknown order.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	o, err := h.orders.Get(ctx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	return NewGetOrderQueryResponse(o), nil
}
