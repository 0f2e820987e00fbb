package events

import (
	"fmt"

	"fooddelivery/internal/pkg/errs"
)

// Topic is a named channel of the event transport.
type Topic string

const (
	TopicOrderLifecycle       Topic = "order.lifecycle"
	TopicPaymentRequest       Topic = "payment.request"
	TopicPaymentResult        Topic = "payment.result"
	TopicTrackingStart        Topic = "tracking.start"
	TopicTrackingStatus       Topic = "tracking.status"
	TopicNotificationDispatch Topic = "notification.dispatch"
)

// Topics returns every topic in a stable order.
func Topics() []Topic {
	return []Topic{
		TopicOrderLifecycle,
		TopicPaymentRequest,
		TopicPaymentResult,
		TopicTrackingStart,
		TopicTrackingStatus,
		TopicNotificationDispatch,
	}
}

func (t Topic) String() string {
	return string(t)
}

// Type identifies what happened.
type Type string

const (
	OrderCreated   Type = "ORDER_CREATED"
	OrderConfirmed Type = "ORDER_CONFIRMED"
	OrderUpdated   Type = "ORDER_UPDATED"
	OrderCancelled Type = "ORDER_CANCELLED"
	OrderCompleted Type = "ORDER_COMPLETED"

	PaymentRequested Type = "PAYMENT_REQUESTED"
	RefundRequested  Type = "REFUND_REQUESTED"

	PaymentProcessed Type = "PAYMENT_PROCESSED"
	PaymentFailed    Type = "PAYMENT_FAILED"
	PaymentRefunded  Type = "PAYMENT_REFUNDED"
	RefundFailed     Type = "REFUND_FAILED"

	TrackingStarted   Type = "TRACKING_STARTED"
	DeliveryStatus    Type = "DELIVERY_STATUS"
	DeliveryCompleted Type = "DELIVERY_COMPLETED"

	NotificationRequested Type = "NOTIFICATION_REQUESTED"
)

func getTypeTopics() map[Type]Topic {
	return map[Type]Topic{
		OrderCreated:          TopicOrderLifecycle,
		OrderConfirmed:        TopicOrderLifecycle,
		OrderUpdated:          TopicOrderLifecycle,
		OrderCancelled:        TopicOrderLifecycle,
		OrderCompleted:        TopicOrderLifecycle,
		PaymentRequested:      TopicPaymentRequest,
		RefundRequested:       TopicPaymentRequest,
		PaymentProcessed:      TopicPaymentResult,
		PaymentFailed:         TopicPaymentResult,
		PaymentRefunded:       TopicPaymentResult,
		RefundFailed:          TopicPaymentResult,
		TrackingStarted:       TopicTrackingStart,
		DeliveryStatus:        TopicTrackingStatus,
		DeliveryCompleted:     TopicTrackingStatus,
		NotificationRequested: TopicNotificationDispatch,
	}
}

// Topic returns the channel events of this type travel on.
func (t Type) Topic() (Topic, error) {
	topic, ok := getTypeTopics()[t]
	if !ok {
		return "", errs.NewValueIsInvalidErrorWithCause("event type is invalid", fmt.Errorf("%q is not a known event type", string(t)))
	}
	return topic, nil
}

func (t Type) Validate() error {
	_, err := t.Topic()
	return err
}

func (t Type) String() string {
	return string(t)
}
