// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// Order and payment commands run inside a unit of work; tracking commands work on
// the tracking store, which serializes access per order.
package commands

import (
	"context"

	"fooddelivery/internal/core/application/payments"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// PaymentRepoFactory provides access to payment repository within a transaction.
	PaymentRepoFactory interface {
		PaymentRepository() ports.PaymentRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// PaymentUoW manages transactions for payment-only operations.
	// A refund saves two records (the refund and its flipped charge) in one transaction.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   repo := uow.PaymentRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	PaymentUoW interface {
		TxManager
		PaymentRepoFactory
	}

	// PaymentUoWFactory creates new payment unit of work instances.
	PaymentUoWFactory interface {
		Create() PaymentUoW
	}
)

// PaymentProcessor runs the charge and refund pipelines and announces stored results
// again for replayed requests.
type PaymentProcessor interface {
	Charge(ctx context.Context, a *payments.Attempt) (payments.Outcome, error)
	Refund(ctx context.Context, a *payments.Attempt) (payments.Outcome, error)
	AnnounceCharge(ctx context.Context, a *payments.Attempt, charge *payment.Payment) error
	AnnounceRefund(ctx context.Context, a *payments.Attempt, charge, refund *payment.Payment) error
}

type orderUoWFactory struct{ factory ports.UnitOfWorkFactory }

func (f orderUoWFactory) Create() OrderUoW { return f.factory.Create() }

type paymentUoWFactory struct{ factory ports.UnitOfWorkFactory }

func (f paymentUoWFactory) Create() PaymentUoW { return f.factory.Create() }

// NewOrderUoWFactory narrows a storage unit of work factory to order operations.
func NewOrderUoWFactory(factory ports.UnitOfWorkFactory) OrderUoWFactory {
	return orderUoWFactory{factory: factory}
}

// NewPaymentUoWFactory narrows a storage unit of work factory to payment operations.
func NewPaymentUoWFactory(factory ports.UnitOfWorkFactory) PaymentUoWFactory {
	return paymentUoWFactory{factory: factory}
}
