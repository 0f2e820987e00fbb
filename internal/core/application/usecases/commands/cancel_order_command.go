package commands

import (
	"context"
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand asks to cancel an order. Cancelling refunds a captured payment.
type CancelOrderCommand struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewCancelOrderCommand(orderID kernel.UUID) (CancelOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CancelOrderCommand{}, err
	}
	return CancelOrderCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

func (c CancelOrderCommand) OrderID() kernel.UUID { return c.orderID }

// CancelOrderCommandHandler is UpdateOrderStatus with target CANCELLED.
type CancelOrderCommandHandler struct {
	update UpdateOrderStatusCommandHandler
}

func NewCancelOrderCommandHandler(update UpdateOrderStatusCommandHandler) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{update: update}
}

func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	update, err := NewUpdateOrderStatusCommand(cmd.OrderID(), order.Cancelled)
	if err != nil {
		return err
	}
	return h.update.Handle(ctx, update)
}
