package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/pkg/guard"
)

var ErrApplyDeliveryStatusCommandIsNotConstructed = errors.New(
	"ApplyDeliveryStatusCommand must be created via NewApplyDeliveryStatusCommand constructor",
)

// ApplyDeliveryStatusCommand carries a DELIVERY_STATUS update to the order.
type ApplyDeliveryStatusCommand struct {
	orderID kernel.UUID
	status  tracking.Status

	guard guard.ConstructorGuard
}

func NewApplyDeliveryStatusCommand(orderID kernel.UUID, status tracking.Status) (ApplyDeliveryStatusCommand, error) {
	if err := errors.Join(orderID.Validate(), status.Validate()); err != nil {
		return ApplyDeliveryStatusCommand{}, err
	}
	return ApplyDeliveryStatusCommand{orderID: orderID, status: status, guard: guard.NewConstructorGuard()}, nil
}

func (c ApplyDeliveryStatusCommand) Validate() error {
	return c.guard.Validate(ErrApplyDeliveryStatusCommandIsNotConstructed)
}

func (c ApplyDeliveryStatusCommand) OrderID() kernel.UUID    { return c.orderID }
func (c ApplyDeliveryStatusCommand) Status() tracking.Status { return c.status }
