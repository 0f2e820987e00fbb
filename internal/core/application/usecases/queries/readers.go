// Package queries contains read operations of the CQRS architecture.
// Query handlers never mutate state and read outside of any unit of work.
package queries

import (
	"context"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/notification"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/domain/model/tracking"
)

// Read-side sources. Storage adapters implement them next to their repositories.
type (
	OrderReader interface {
		Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
	}

	// ActiveOrdersReader lists orders that are neither DELIVERED nor CANCELLED.
	ActiveOrdersReader interface {
		ActiveOrders(ctx context.Context) ([]ActiveOrder, error)
	}

	PaymentReader interface {
		FindByOrder(ctx context.Context, orderID kernel.UUID) ([]*payment.Payment, error)
	}

	TrackingReader interface {
		Get(ctx context.Context, orderID kernel.UUID) (tracking.Snapshot, error)
	}

	NotificationHistoryReader interface {
		History(ctx context.Context, orderID string) ([]notification.Notification, error)
	}
)
