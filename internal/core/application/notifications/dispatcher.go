// Package notifications renders customer notifications from saga events and fans
// them out to the registered channels.
package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/notification"
	"fooddelivery/internal/core/ports"
)

// Dispatcher is an observer registry. Listener failures are logged and never
// propagated, so a broken channel cannot stall the saga.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []ports.NotificationListener

	logger *slog.Logger
	now    func() time.Time
}

func NewDispatcher(logger *slog.Logger, now func() time.Time) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{logger: logger, now: now}
}

// Subscribe adds a listener. Listeners are notified in subscription order.
func (d *Dispatcher) Subscribe(listener ports.NotificationListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

// Listeners returns the names of the subscribed listeners.
func (d *Dispatcher) Listeners() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.listeners))
	for _, l := range d.listeners {
		names = append(names, l.Name())
	}
	return names
}

// Dispatch renders the notification requested by event and hands it to every
// listener. It returns the number of listeners that accepted it.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) (int, error) {
	t, err := notification.ParseType(event.Payload.NotificationType)
	if err != nil {
		d.logger.WarnContext(ctx, "notification type has no template",
			"event_id", event.ID, "order_id", event.Payload.OrderID,
			"notification_type", event.Payload.NotificationType)
		return 0, nil
	}

	n, err := notification.NewNotification(t, event.Payload.OrderID, event.Payload.CustomerID, d.now())
	if err != nil {
		return 0, err
	}

	d.mu.RLock()
	listeners := make([]ports.NotificationListener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	delivered := 0
	for _, l := range listeners {
		if notifyErr := l.Notify(ctx, n); notifyErr != nil {
			d.logger.ErrorContext(ctx, "notification listener failed",
				"listener", l.Name(), "order_id", n.OrderID(), "type", t.String(), "error", notifyErr)
			continue
		}
		delivered++
	}

	d.logger.InfoContext(ctx, "notification dispatched",
		"order_id", n.OrderID(), "type", t.String(), "listeners", delivered)
	return delivered, nil
}

// Handle adapts Dispatch to events.Handler.
func (d *Dispatcher) Handle(ctx context.Context, event events.Event) error {
	_, err := d.Dispatch(ctx, event)
	return err
}
