package ports

import (
	"context"

	"fooddelivery/internal/core/domain/model/notification"
)

// NotificationListener receives every rendered customer notification.
type NotificationListener interface {
	Name() string
	Notify(ctx context.Context, n notification.Notification) error
}
