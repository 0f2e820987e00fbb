package http

import (
	"time"

	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"

	"github.com/shopspring/decimal"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status     string   `json:"status"`
	Components []string `json:"components"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func locationOf(p kernel.GeoPoint) Location {
	return Location{Latitude: p.Latitude(), Longitude: p.Longitude()}
}

type NewOrderItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// NewOrder is the body of POST /api/v1/orders. Locations may be omitted.
type NewOrder struct {
	CustomerID         string         `json:"customerId"`
	RestaurantID       string         `json:"restaurantId"`
	Items              []NewOrderItem `json:"items"`
	PaymentMethod      string         `json:"paymentMethod"`
	RestaurantLocation *Location      `json:"restaurantLocation,omitempty"`
	CustomerLocation   *Location      `json:"customerLocation,omitempty"`
}

// StatusChange is the body of PUT /api/v1/orders/:id/status.
type StatusChange struct {
	Status string `json:"status"`
}

// TrackingStart is the optional body of POST /api/v1/tracking/:orderId/start.
type TrackingStart struct {
	CustomerID         string    `json:"customerId"`
	RestaurantLocation *Location `json:"restaurantLocation,omitempty"`
	CustomerLocation   *Location `json:"customerLocation,omitempty"`
}

type OrderItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID                 string          `json:"id"`
	CustomerID         string          `json:"customerId,omitempty"`
	RestaurantID       string          `json:"restaurantId"`
	Items              []OrderItem     `json:"items"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentMethod      string          `json:"paymentMethod"`
	Status             string          `json:"status"`
	RestaurantLocation Location        `json:"restaurantLocation"`
	CustomerLocation   Location        `json:"customerLocation"`
	PaymentID          string          `json:"paymentId,omitempty"`
	PaymentRefunded    bool            `json:"paymentRefunded"`
	PaymentFailure     string          `json:"paymentFailure,omitempty"`
	DeliveryID         string          `json:"deliveryId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func orderOf(r queries.GetOrderQueryResponse) Order {
	items := make([]OrderItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = OrderItem{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}

	o := Order{
		ID:                 r.ID.String(),
		CustomerID:         r.CustomerID,
		RestaurantID:       r.RestaurantID,
		Items:              items,
		Amount:             r.Amount,
		PaymentMethod:      r.PaymentMethod.String(),
		Status:             r.Status.String(),
		RestaurantLocation: locationOf(r.RestaurantLocation),
		CustomerLocation:   locationOf(r.CustomerLocation),
		PaymentRefunded:    r.PaymentRefunded,
		PaymentFailure:     r.PaymentFailure,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.PaymentID != nil {
		o.PaymentID = r.PaymentID.String()
	}
	if r.DeliveryID != nil {
		o.DeliveryID = r.DeliveryID.String()
	}
	return o
}

type ActiveOrder struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customerId,omitempty"`
	RestaurantID string          `json:"restaurantId"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type Payment struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"orderId"`
	Kind          string          `json:"kind"`
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId"`
	OriginalID    string          `json:"originalId,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func paymentOf(r queries.PaymentResponse) Payment {
	p := Payment{
		ID:            r.ID.String(),
		OrderID:       r.OrderID.String(),
		Kind:          r.Kind.String(),
		Method:        r.Method.String(),
		Amount:        r.Amount,
		Status:        r.Status.String(),
		TransactionID: r.TransactionID,
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
	}
	if r.OriginalID != nil {
		p.OriginalID = r.OriginalID.String()
	}
	return p
}

type Tracking struct {
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	ETAMinutes    int       `json:"etaMinutes"`
	TravelMinutes int       `json:"travelMinutes"`
	Restaurant    Location  `json:"restaurantLocation"`
	Customer      Location  `json:"customerLocation"`
	StartedAt     time.Time `json:"startedAt"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

func trackingOf(s tracking.Snapshot) Tracking {
	return Tracking{
		OrderID:       s.OrderID.String(),
		Status:        s.Status.String(),
		ETAMinutes:    s.ETAMinutes,
		TravelMinutes: s.TravelMinutes,
		Restaurant:    locationOf(s.Restaurant),
		Customer:      locationOf(s.Customer),
		StartedAt:     s.StartedAt,
		LastUpdated:   s.LastUpdated,
	}
}

type DeliveryChange struct {
	From       string `json:"from"`
	To         string `json:"to"`
	ETAMinutes int    `json:"etaMinutes"`
}

func changeOf(c tracking.Change) DeliveryChange {
	return DeliveryChange{From: c.From.String(), To: c.To.String(), ETAMinutes: c.ETAMinutes}
}

type Notification struct {
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
