package commands

import (
	"errors"
	"strings"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrItemsAreRequired = errors.New("order must contain at least one item")
)

// CreateOrderCommand represents a request to place a new order.
//
// Example:
//
//	item, _ := order.NewItem("Margherita", 2, decimal.RequireFromString("9.99"))
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "c-1", "r-1", []order.Item{item},
//	    kernel.CreditCard, restaurant, customer)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      kernel.UUID
	customerID   string
	restaurantID string
	items        []order.Item
	method       kernel.PaymentMethod
	restaurant   kernel.GeoPoint
	customer     kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the identifiers, the items and the payment method.
// Coordinates are optional; unset points are filled with defaults at confirmation.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerID string,
	restaurantID string,
	items []order.Item,
	method kernel.PaymentMethod,
	restaurant kernel.GeoPoint,
	customer kernel.GeoPoint,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		customerID: strings.TrimSpace(customerID),
		restaurant: restaurant,
		customer:   customer,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setRestaurantID(restaurantID),
		cmd.setItems(items),
		cmd.setMethod(method),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID                { return c.orderID }
func (c CreateOrderCommand) CustomerID() string                  { return c.customerID }
func (c CreateOrderCommand) RestaurantID() string                { return c.restaurantID }
func (c CreateOrderCommand) PaymentMethod() kernel.PaymentMethod { return c.method }
func (c CreateOrderCommand) Restaurant() kernel.GeoPoint         { return c.restaurant }
func (c CreateOrderCommand) Customer() kernel.GeoPoint           { return c.customer }

// Items returns a copy of the order lines.
func (c CreateOrderCommand) Items() []order.Item {
	items := make([]order.Item, len(c.items))
	copy(items, c.items)
	return items
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setRestaurantID(restaurantID string) error {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return errs.NewValueIsRequiredError("restaurantId")
	}

	c.restaurantID = restaurantID
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredErrorWithCause("items", ErrItemsAreRequired)
	}

	c.items = make([]order.Item, len(items))
	copy(c.items, items)
	return nil
}

func (c *CreateOrderCommand) setMethod(method kernel.PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}

	c.method = method
	return nil
}
