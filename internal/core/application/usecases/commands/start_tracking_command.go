package commands

import (
	"errors"
	"strings"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var ErrStartTrackingCommandIsNotConstructed = errors.New(
	"StartTrackingCommand must be created via NewStartTrackingCommand constructor",
)

// StartTrackingCommand opens delivery tracking for an order.
type StartTrackingCommand struct {
	orderID    kernel.UUID
	customerID string
	restaurant kernel.GeoPoint
	customer   kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewStartTrackingCommand requires valid coordinates for both ends of the trip.
func NewStartTrackingCommand(
	orderID kernel.UUID,
	customerID string,
	restaurant kernel.GeoPoint,
	customer kernel.GeoPoint,
) (StartTrackingCommand, error) {
	if err := errors.Join(orderID.Validate(), restaurant.Validate(), customer.Validate()); err != nil {
		return StartTrackingCommand{}, err
	}

	return StartTrackingCommand{
		orderID:    orderID,
		customerID: strings.TrimSpace(customerID),
		restaurant: restaurant,
		customer:   customer,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// NewStartTrackingCommandFromEvent reads a TRACKING_STARTED event.
func NewStartTrackingCommandFromEvent(event events.Event) (StartTrackingCommand, error) {
	orderID, err := event.OrderUUID()
	if err != nil {
		return StartTrackingCommand{}, err
	}

	restaurant, restaurantErr := event.Payload.Restaurant()
	customer, customerErr := event.Payload.Customer()
	if err = errors.Join(restaurantErr, customerErr); err != nil {
		return StartTrackingCommand{}, err
	}

	return NewStartTrackingCommand(orderID, event.Payload.CustomerID, restaurant, customer)
}

func (c StartTrackingCommand) Validate() error {
	return c.guard.Validate(ErrStartTrackingCommandIsNotConstructed)
}

func (c StartTrackingCommand) OrderID() kernel.UUID        { return c.orderID }
func (c StartTrackingCommand) CustomerID() string          { return c.customerID }
func (c StartTrackingCommand) Restaurant() kernel.GeoPoint { return c.restaurant }
func (c StartTrackingCommand) Customer() kernel.GeoPoint   { return c.customer }
