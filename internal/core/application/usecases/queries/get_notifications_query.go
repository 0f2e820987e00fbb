package queries

import (
	"context"
	"errors"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/notification"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var ErrGetNotificationsQueryIsNotConstructed = errors.New(
	"GetNotificationsQuery must be created via NewGetNotificationsQuery constructor",
)

// GetNotificationsQuery reads the recent notifications sent for an order.
type GetNotificationsQuery struct {
	orderID string

	guard guard.ConstructorGuard
}

func NewGetNotificationsQuery(orderID string) (GetNotificationsQuery, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return GetNotificationsQuery{}, errs.NewValueIsRequiredError("orderId")
	}
	return GetNotificationsQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetNotificationsQuery) Validate() error {
	return q.guard.Validate(ErrGetNotificationsQueryIsNotConstructed)
}

func (q GetNotificationsQuery) OrderID() string { return q.orderID }

type NotificationResponse struct {
	Type      notification.Type
	Subject   string
	Message   string
	CreatedAt time.Time
}

type GetNotificationsQueryHandler struct {
	history NotificationHistoryReader
}

func NewGetNotificationsQueryHandler(history NotificationHistoryReader) GetNotificationsQueryHandler {
	return GetNotificationsQueryHandler{history: history}
}

// Handle returns notifications oldest first; an unknown order yields an empty list.
func (h GetNotificationsQueryHandler) Handle(ctx context.Context, query GetNotificationsQuery) ([]NotificationResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	list, err := h.history.History(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}

	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationResponse{
			Type:      n.Type(),
			Subject:   n.Subject(),
			Message:   n.Message(),
			CreatedAt: n.CreatedAt(),
		})
	}
	return out, nil
}
