package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Producers name the component that emitted an event.
const (
	ProducerOrder        = "order"
	ProducerPayment      = "payment"
	ProducerTracking     = "tracking"
	ProducerNotification = "notification"
)

// Payload is shared by all event types; fields irrelevant to a type stay empty.
// Coordinates default to 0.0 when unset.
type Payload struct {
	OrderID          string          `json:"orderId"`
	Status           string          `json:"status,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	CustomerID       string          `json:"customerId,omitempty"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	PaymentID        string          `json:"paymentId,omitempty"`
	TransactionID    string          `json:"transactionId,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	RestaurantLat    float64         `json:"restaurantLatitude"`
	RestaurantLon    float64         `json:"restaurantLongitude"`
	CustomerLat      float64         `json:"customerLatitude"`
	CustomerLon      float64         `json:"customerLongitude"`
	ETAMinutes       int             `json:"etaMinutes"`
	NotificationType string          `json:"notificationType,omitempty"`
}

// Event is the envelope put on the transport.
type Event struct {
	ID            string    `json:"id"`
	Topic         Topic     `json:"topic"`
	Type          Type      `json:"type"`
	Producer      string    `json:"producer"`
	CorrelationID string    `json:"correlationId"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       Payload   `json:"payload"`
}

// New builds an event of type t. The topic is derived from t and the correlation id
// defaults to the order id, so every event of one order can be followed in the logs.
func New(t Type, producer string, payload Payload, now time.Time) (Event, error) {
	topic, err := t.Topic()
	if err != nil {
		return Event{}, err
	}

	if payload.OrderID == "" {
		return Event{}, errs.NewValueIsRequiredError("orderId")
	}

	return Event{
		ID:            kernel.NewUUID().String(),
		Topic:         topic,
		Type:          t,
		Producer:      producer,
		CorrelationID: payload.OrderID,
		OccurredAt:    now.UTC(),
		Payload:       payload,
	}, nil
}

// WithDerivedID replaces the random id with one derived from the type, the order id
// and parts. Announcing the same fact twice then yields the same id, and the consumer
// inboxes drop the copy.
func (e Event) WithDerivedID(parts ...string) Event {
	name := append([]string{string(e.Type), e.Payload.OrderID}, parts...)
	e.ID = kernel.NewNameUUID(strings.Join(name, "|")).String()
	return e
}

// Key is the partitioning key; events of one order stay ordered within a topic.
func (e Event) Key() string {
	return e.Payload.OrderID
}

// Validate checks an envelope before it is published: the type must be known and
// travel on its own topic.
func (e Event) Validate() error {
	return e.validate(true)
}

// validate checks the envelope. With knownType unset an unknown type passes, so the
// Router can acknowledge what this build does not route.
func (e Event) validate(knownType bool) error {
	var idErr error
	if e.ID == "" {
		idErr = errs.NewValueIsRequiredError("event id")
	}

	var topicErr error
	topic, err := e.Type.Topic()
	switch {
	case err == nil && topic != e.Topic:
		topicErr = errs.NewValueIsInvalidErrorWithCause("event topic is invalid",
			fmt.Errorf("%s travels on %s, not %s", e.Type, topic, e.Topic))
	case err == nil:
	case knownType:
		topicErr = err
	case e.Type == "":
		topicErr = errs.NewValueIsRequiredError("event type")
	case e.Topic == "":
		topicErr = errs.NewValueIsRequiredError("event topic")
	}

	var orderErr error
	if e.Payload.OrderID == "" {
		orderErr = errs.NewValueIsRequiredError("orderId")
	}

	return errors.Join(idErr, topicErr, orderErr)
}

// OrderUUID parses the payload order id.
func (e Event) OrderUUID() (kernel.UUID, error) {
	return kernel.UUIDFromString(e.Payload.OrderID)
}

// Restaurant returns the restaurant coordinates, or an unset point.
func (p Payload) Restaurant() (kernel.GeoPoint, error) {
	return kernel.NewGeoPoint(p.RestaurantLat, p.RestaurantLon)
}

// Customer returns the customer coordinates, or an unset point.
func (p Payload) Customer() (kernel.GeoPoint, error) {
	return kernel.NewGeoPoint(p.CustomerLat, p.CustomerLon)
}

func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return data, nil
}

// Decode parses and validates an envelope. Events of a type this build does not know
// are returned as they are.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, errs.NewValueIsInvalidErrorWithCause("event is malformed", err)
	}
	if err := e.validate(false); err != nil {
		return Event{}, err
	}
	return e, nil
}
