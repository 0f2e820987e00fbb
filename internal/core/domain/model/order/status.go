package order

import (
	"errors"
	"fmt"
	"strings"

	"fooddelivery/internal/core/domain/model/notification"
	"fooddelivery/internal/pkg/errs"
)

// ErrInvalidTransition is the sentinel behind every rejected status change.
var ErrInvalidTransition = errors.New("invalid order status transition")

// InvalidTransitionError carries both sides of a rejected transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Status is the lifecycle state of an order. Values are ordered: a transition may
// only move to a status with an equal or higher ordinal, except for the explicit
// cancellation edge.
//
// State transitions:
//
//	Created ──> Confirmed ──> Preparing ──> InTransit ──> Delivered
//	   │            │             │             │
//	   └────────────┴─────────────┴─────────────┴──────> Cancelled
//
// Delivered and Cancelled are terminal.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota

	// Created is the initial status; the order waits for its payment.
	Created

	// Confirmed means the payment was captured and delivery tracking may start.
	Confirmed

	// Preparing means the restaurant is preparing the food.
	Preparing

	// InTransit means the order left the restaurant.
	InTransit

	// Delivered is terminal.
	Delivered

	// Cancelled is terminal and reachable from any non-terminal status.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "UNKNOWN",
		Created:   "CREATED",
		Confirmed: "CONFIRMED",
		Preparing: "PREPARING",
		InTransit: "IN_TRANSIT",
		Delivered: "DELIVERED",
		Cancelled: "CANCELLED",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Created:   "CREATED",
		Confirmed: "CONFIRMED",
		Preparing: "PREPARING",
		InTransit: "IN_TRANSIT",
		Delivered: "DELIVERED",
		Cancelled: "CANCELLED",
	}
}

// ParseStatus maps a wire tag ("IN_TRANSIT") to a Status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for status, tag := range getValidStatusStrings() {
		if tag == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// ValidateTransition checks the transition rule without performing it:
// the current status must be non-terminal and the target must be Cancelled or
// have an ordinal not lower than the current one.
//
// Example:
//
//	if err := order.Delivered.ValidateTransition(order.Cancelled); err != nil {
//	    // errors.Is(err, order.ErrInvalidTransition) == true
//	}
func (s Status) ValidateTransition(target Status) error {
	if err := errors.Join(s.Validate(), target.Validate()); err != nil {
		return err
	}

	if s.IsTerminal() {
		return &InvalidTransitionError{From: s, To: target}
	}

	if target == Cancelled || target >= s {
		return nil
	}

	return &InvalidTransitionError{From: s, To: target}
}

// TransitionTo returns target if the transition is legal.
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := s.ValidateTransition(target); err != nil {
		return Unknown, err
	}
	return target, nil
}

// NotificationType is the customer message announced when an order enters s.
func (s Status) NotificationType() notification.Type {
	switch s {
	case Created:
		return notification.OrderCreated
	case Confirmed:
		return notification.OrderConfirmed
	case Preparing:
		return notification.OrderPreparation
	case InTransit:
		return notification.DeliveryUpdate
	case Delivered:
		return notification.OrderArrival
	case Cancelled:
		return notification.OrderCancelled
	case Unknown:
	}
	return notification.OrderStatusUpdate
}
