package notification

import (
	"errors"
	"time"

	"fooddelivery/internal/pkg/errs"
)

var ErrNotificationIsNotConstructed = errors.New("Notification must be created via NewNotification constructor")

// Notification is a rendered message ready to be handed to a delivery channel.
type Notification struct {
	notificationType Type
	orderID          string
	customerID       string
	subject          string
	message          string
	createdAt        time.Time

	isConstructed bool
}

// NewNotification renders t for orderID. customerID may be empty.
func NewNotification(t Type, orderID, customerID string, now time.Time) (Notification, error) {
	if orderID == "" {
		return Notification{}, errs.NewValueIsRequiredError("orderID")
	}

	message, err := t.Message(orderID)
	if err != nil {
		return Notification{}, err
	}

	return Notification{
		notificationType: t,
		orderID:          orderID,
		customerID:       customerID,
		subject:          t.Subject(),
		message:          message,
		createdAt:        now,
		isConstructed:    true,
	}, nil
}

func (n Notification) Validate() error {
	if !n.isConstructed {
		return ErrNotificationIsNotConstructed
	}
	return nil
}

func (n Notification) Type() Type           { return n.notificationType }
func (n Notification) OrderID() string      { return n.orderID }
func (n Notification) CustomerID() string   { return n.customerID }
func (n Notification) Subject() string      { return n.subject }
func (n Notification) Message() string      { return n.message }
func (n Notification) CreatedAt() time.Time { return n.createdAt }
