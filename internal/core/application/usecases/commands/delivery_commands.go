package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var ErrDeliveryCommandIsNotConstructed = errors.New(
	"DeliveryCommand must be created via NewDeliveryCommand constructor",
)

// DeliveryCommand names the tracked order a manual delivery operation applies to.
// It is shared by advance, refresh, complete and stop.
type DeliveryCommand struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewDeliveryCommand(orderID kernel.UUID) (DeliveryCommand, error) {
	if err := orderID.Validate(); err != nil {
		return DeliveryCommand{}, err
	}
	return DeliveryCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c DeliveryCommand) Validate() error {
	return c.guard.Validate(ErrDeliveryCommandIsNotConstructed)
}

func (c DeliveryCommand) OrderID() kernel.UUID { return c.orderID }
