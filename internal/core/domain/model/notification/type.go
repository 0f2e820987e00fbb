// Package notification models the customer-facing messages produced by the saga.
//
// A Type names a notification template. The set is closed: ParseType rejects unknown
// tags and Message renders every Type through an exhaustive switch, so adding a Type
// without a template is caught by the exhaustive linter and by the tests.
package notification

import (
	"fmt"

	"fooddelivery/internal/pkg/errs"
)

// Type is a notification template. The zero value is invalid.
type Type int

const (
	Unknown Type = iota
	OrderCreated
	OrderConfirmed
	OrderPreparation
	OrderInTransit
	DeliveryUpdate
	OrderArrival
	OrderCancelled
	OrderStatusUpdate
)

func getTypeTags() map[Type]string {
	return map[Type]string{
		OrderCreated:      "order-created",
		OrderConfirmed:    "order-confirmed",
		OrderPreparation:  "order-preparation",
		OrderInTransit:    "order-in-transit",
		DeliveryUpdate:    "delivery-update",
		OrderArrival:      "order-arrival",
		OrderCancelled:    "order-cancelled",
		OrderStatusUpdate: "order-status-update",
	}
}

// Types returns every valid Type.
func Types() []Type {
	return []Type{
		OrderCreated,
		OrderConfirmed,
		OrderPreparation,
		OrderInTransit,
		DeliveryUpdate,
		OrderArrival,
		OrderCancelled,
		OrderStatusUpdate,
	}
}

// ParseType maps a wire tag such as "order-created" to its Type.
func ParseType(tag string) (Type, error) {
	for t, s := range getTypeTags() {
		if s == tag {
			return t, nil
		}
	}

	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"notification type is invalid",
		fmt.Errorf("%q has no template", tag),
	)
}

func (t Type) Validate() error {
	if _, ok := getTypeTags()[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"notification type is invalid",
			fmt.Errorf("%d is not a valid notification type", t),
		)
	}
	return nil
}

// String returns the wire tag, or "unknown".
func (t Type) String() string {
	if s, ok := getTypeTags()[t]; ok {
		return s
	}
	return "unknown"
}

// Subject is the title used by channels that need one (email).
func (t Type) Subject() string {
	return "Order update: " + t.String()
}

// Message renders the canned text for orderID.
func (t Type) Message(orderID string) (string, error) {
	switch t {
	case OrderCreated:
		return "Your Order Has Been Created", nil
	case OrderConfirmed:
		return "Your Order Has Been Confirmed", nil
	case OrderPreparation:
		return "Your Order is Being Prepared", nil
	case OrderInTransit:
		return "Your Order is In Transit", nil
	case DeliveryUpdate:
		return "Your Order is Now On Route", nil
	case OrderArrival:
		return "Your Order Has Arrived", nil
	case OrderCancelled:
		return fmt.Sprintf("Your order (%s) has been cancelled", orderID), nil
	case OrderStatusUpdate:
		return fmt.Sprintf("Your order (%s) status has been updated", orderID), nil
	case Unknown:
	}
	return "", t.Validate()
}
