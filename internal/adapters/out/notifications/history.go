package notifications

import (
	"context"
	"sync"

	"fooddelivery/internal/core/domain/model/notification"
)

// DefaultHistoryLimit is the number of notifications kept per order.
const DefaultHistoryLimit = 50

// History is a listener remembering the last notifications of every order.
type History struct {
	mu      sync.RWMutex
	limit   int
	byOrder map[string][]notification.Notification
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, byOrder: make(map[string][]notification.Notification)}
}

func (h *History) Name() string {
	return "history"
}

func (h *History) Notify(_ context.Context, n notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	list := append(h.byOrder[n.OrderID()], n)
	if len(list) > h.limit {
		list = append([]notification.Notification(nil), list[len(list)-h.limit:]...)
	}
	h.byOrder[n.OrderID()] = list
	return nil
}

// History returns the notifications sent for orderID, oldest first.
func (h *History) History(_ context.Context, orderID string) ([]notification.Notification, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := h.byOrder[orderID]
	out := make([]notification.Notification, len(list))
	copy(out, list)
	return out, nil
}
