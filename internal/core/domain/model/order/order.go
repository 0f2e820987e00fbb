package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrPaymentMismatch is returned when a refund names a payment the order does not own.
	ErrPaymentMismatch = errors.New("payment does not belong to the order")
)

// Sentinel coordinates substituted at confirmation time when an order carries no
// geolocation. They produce a plausible but fictitious ETA.
var (
	DefaultRestaurantLocation = kernel.MustNewGeoPoint(40.7128, -74.0060)
	DefaultCustomerLocation   = kernel.MustNewGeoPoint(40.7308, -73.9973)
)

// PaymentReference is the order's view of its captured payment.
type PaymentReference struct {
	ID            kernel.UUID
	TransactionID string
	Refunded      bool
}

// Order is the aggregate root of the ordering context. It owns the order status
// and is mutated only through its transition API.
//
// Order follows these invariants:
//   - Must have a valid identifier and restaurant
//   - Must contain at least one item; the amount is the sum of item totals and is positive
//   - Status changes follow Status.ValidateTransition; Delivered and Cancelled are terminal
//   - A terminal order accepts no further mutation
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// customerID is optional and only used for notifications
	customerID string

	restaurantID string

	items  []Item
	amount decimal.Decimal

	paymentMethod kernel.PaymentMethod

	restaurantLocation kernel.GeoPoint
	customerLocation   kernel.GeoPoint

	// payment is set once a payment was captured
	payment *PaymentReference

	// paymentFailure is the reason of the last failed payment attempt
	paymentFailure string

	// deliveryID is assigned when delivery tracking is requested
	deliveryID *kernel.UUID

	status Status

	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewOrder creates an order in Created status.
//
// Parameters:
//   - id: unique identifier (must be valid)
//   - customerID: optional customer reference
//   - restaurantID: restaurant reference (required)
//   - items: at least one line; the amount is derived from them
//   - method: payment method used by the payment pipeline
//   - restaurant, customer: constructed coordinates; kernel.UnsetGeoPoint when unknown
//   - now: creation timestamp
//
// Example:
//
//	item, _ := order.NewItem("Margherita", 2, decimal.RequireFromString("9.99"))
//	o, err := order.NewOrder(kernel.NewUUID(), "c-1", "r-1", []order.Item{item},
//	    kernel.CreditCard, restaurant, customer, time.Now())
//	// o.Amount() == 19.98
func NewOrder(
	id kernel.UUID,
	customerID string,
	restaurantID string,
	items []Item,
	method kernel.PaymentMethod,
	restaurant kernel.GeoPoint,
	customer kernel.GeoPoint,
	now time.Time,
) (*Order, error) {
	o := &Order{
		customerID:    strings.TrimSpace(customerID),
		status:        Created,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setRestaurantID(restaurantID),
		o.setItems(items),
		o.setPaymentMethod(method),
		o.setRestaurantLocation(restaurant),
		o.setCustomerLocation(customer),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from persistence without re-running creation rules
// that only apply to new orders. The status must be valid.
func RestoreOrder(
	id kernel.UUID,
	customerID string,
	restaurantID string,
	items []Item,
	method kernel.PaymentMethod,
	restaurant kernel.GeoPoint,
	customer kernel.GeoPoint,
	status Status,
	payment *PaymentReference,
	paymentFailure string,
	deliveryID *kernel.UUID,
	createdAt time.Time,
	updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		customerID:     customerID,
		payment:        payment,
		paymentFailure: paymentFailure,
		deliveryID:     deliveryID,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		isConstructed:  true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setRestaurantID(restaurantID),
		o.setItems(items),
		o.setPaymentMethod(method),
		o.setRestaurantLocation(restaurant),
		o.setCustomerLocation(customer),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	o.status = status
	return o, nil
}

// Validate ensures the Order instance was built by NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID                     { return o.id }
func (o *Order) CustomerID() string                  { return o.customerID }
func (o *Order) RestaurantID() string                { return o.restaurantID }
func (o *Order) Amount() decimal.Decimal             { return o.amount }
func (o *Order) PaymentMethod() kernel.PaymentMethod { return o.paymentMethod }
func (o *Order) RestaurantLocation() kernel.GeoPoint { return o.restaurantLocation }
func (o *Order) CustomerLocation() kernel.GeoPoint   { return o.customerLocation }
func (o *Order) Status() Status                      { return o.status }
func (o *Order) PaymentFailure() string              { return o.paymentFailure }
func (o *Order) CreatedAt() time.Time                { return o.createdAt }
func (o *Order) UpdatedAt() time.Time                { return o.updatedAt }

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// Payment returns the captured payment, or nil.
func (o *Order) Payment() *PaymentReference {
	if o.payment == nil {
		return nil
	}
	p := *o.payment
	return &p
}

// DeliveryID returns the delivery reference, or nil before tracking was requested.
func (o *Order) DeliveryID() *kernel.UUID {
	return o.deliveryID
}

// HasCompletedPayment reports whether a captured, not yet refunded payment exists.
func (o *Order) HasCompletedPayment() bool {
	return o.payment != nil && !o.payment.Refunded
}

// TransitionTo moves the order to target following Status.ValidateTransition.
//
// Returns:
//   - nil on success; UpdatedAt becomes now
//   - *InvalidTransitionError (errors.Is ErrInvalidTransition) if the move is illegal;
//     the order is left untouched
func (o *Order) TransitionTo(target Status, now time.Time) error {
	next, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}

	o.status = next
	o.updatedAt = now
	return nil
}

// ApplyDefaultCoordinates substitutes the sentinel coordinates for every unset point.
// Returns true if anything changed.
func (o *Order) ApplyDefaultCoordinates() bool {
	changed := false
	if o.restaurantLocation.IsUnset() {
		o.restaurantLocation = DefaultRestaurantLocation
		changed = true
	}
	if o.customerLocation.IsUnset() {
		o.customerLocation = DefaultCustomerLocation
		changed = true
	}
	return changed
}

// RecordPayment stores the captured payment. Returns false without error when the
// same payment was already recorded, so a redelivered result is harmless.
func (o *Order) RecordPayment(paymentID kernel.UUID, transactionID string, now time.Time) (bool, error) {
	if err := paymentID.Validate(); err != nil {
		return false, err
	}

	if o.payment != nil && o.payment.ID.IsEqual(paymentID) {
		return false, nil
	}

	if o.status.IsTerminal() {
		return false, &InvalidTransitionError{From: o.status, To: o.status}
	}

	o.payment = &PaymentReference{ID: paymentID, TransactionID: transactionID}
	o.paymentFailure = ""
	o.updatedAt = now
	return true, nil
}

// RecordPaymentFailure keeps the reason of the last failed attempt. The status is unchanged.
func (o *Order) RecordPaymentFailure(reason string, now time.Time) error {
	if o.status.IsTerminal() {
		return &InvalidTransitionError{From: o.status, To: o.status}
	}

	o.paymentFailure = reason
	o.updatedAt = now
	return nil
}

// RecordRefund marks the captured payment as refunded. Allowed on cancelled orders,
// since refunds are the compensation of a cancellation.
func (o *Order) RecordRefund(paymentID kernel.UUID, now time.Time) error {
	if o.payment == nil || !o.payment.ID.IsEqual(paymentID) {
		return fmt.Errorf("%w: %s", ErrPaymentMismatch, paymentID)
	}

	o.payment.Refunded = true
	o.updatedAt = now
	return nil
}

// StartDelivery assigns the delivery reference on first call and returns it.
func (o *Order) StartDelivery() kernel.UUID {
	if o.deliveryID == nil {
		id := kernel.NewUUID()
		o.deliveryID = &id
	}
	return *o.deliveryID
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setRestaurantID(restaurantID string) error {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return errs.NewValueIsRequiredError("restaurantID")
	}
	o.restaurantID = restaurantID
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredErrorWithCause("items", errors.New("order must contain at least one item"))
	}

	amount := decimal.Zero
	for _, item := range items {
		amount = amount.Add(item.Total())
	}

	if !amount.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause("amount is invalid", fmt.Errorf("%s is not greater than 0", amount))
	}

	o.items = make([]Item, len(items))
	copy(o.items, items)
	o.amount = amount
	return nil
}

func (o *Order) setPaymentMethod(method kernel.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}
	o.paymentMethod = method
	return nil
}

func (o *Order) setRestaurantLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("restaurant location: %w", err)
	}
	o.restaurantLocation = p
	return nil
}

func (o *Order) setCustomerLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("customer location: %w", err)
	}
	o.customerLocation = p
	return nil
}
