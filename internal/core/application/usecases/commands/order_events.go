package commands

import (
	"context"
	"strconv"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/notification"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/ports"
)

// orderPayload describes the order on the wire.
func orderPayload(o *order.Order) events.Payload {
	p := events.Payload{
		OrderID:       o.ID().String(),
		Status:        o.Status().String(),
		Amount:        o.Amount(),
		CustomerID:    o.CustomerID(),
		PaymentMethod: o.PaymentMethod().String(),
		RestaurantLat: o.RestaurantLocation().Latitude(),
		RestaurantLon: o.RestaurantLocation().Longitude(),
		CustomerLat:   o.CustomerLocation().Latitude(),
		CustomerLon:   o.CustomerLocation().Longitude(),
	}
	if ref := o.Payment(); ref != nil {
		p.PaymentID = ref.ID.String()
		p.TransactionID = ref.TransactionID
	}
	return p
}

// lifecycleType is the single lifecycle event emitted when an order enters s.
func lifecycleType(s order.Status) events.Type {
	switch s { //nolint:exhaustive
	case order.Created:
		return events.OrderCreated
	case order.Confirmed:
		return events.OrderConfirmed
	case order.Cancelled:
		return events.OrderCancelled
	case order.Delivered:
		return events.OrderCompleted
	default:
		return events.OrderUpdated
	}
}

// transitionOrder moves o to target and returns the events announcing it.
func transitionOrder(o *order.Order, target order.Status, now time.Time) ([]events.Event, error) {
	if err := o.TransitionTo(target, now); err != nil {
		return nil, err
	}

	if target == order.Confirmed {
		o.ApplyDefaultCoordinates()
		o.StartDelivery()
	}
	return announceOrder(o, now)
}

// announceOrder builds the events for the current status of o: one lifecycle event and
// one notification request. CONFIRMED adds the tracking request, and a payment
// request while no payment is recorded. CANCELLED adds a refund request while money
// is captured.
//
// Ids are derived from the order, its status and the time it last changed, so a
// redelivered trigger can announce the status again and consumers that already saw
// it drop the copy.
func announceOrder(o *order.Order, now time.Time) ([]events.Event, error) {
	types := []events.Type{lifecycleType(o.Status())}
	switch o.Status() { //nolint:exhaustive
	case order.Confirmed:
		if o.Payment() == nil {
			types = append(types, events.PaymentRequested)
		}
		types = append(types, events.TrackingStarted)
	case order.Cancelled:
		if o.HasCompletedPayment() {
			types = append(types, events.RefundRequested)
		}
	}

	return orderEvents(o, now, types...)
}

// orderEvents builds events of the given types plus the notification request for
// the current status.
func orderEvents(o *order.Order, now time.Time, types ...events.Type) ([]events.Event, error) {
	payload := orderPayload(o)

	out := make([]events.Event, 0, len(types)+1)
	for _, t := range types {
		e, err := events.New(t, events.ProducerOrder, payload, now)
		if err != nil {
			return nil, err
		}
		out = append(out, e.WithDerivedID(payload.Status, payload.PaymentID, changedAt(o)))
	}

	n, err := notificationEvent(o, o.Status().NotificationType(), now)
	if err != nil {
		return nil, err
	}
	return append(out, n), nil
}

func notificationEvent(o *order.Order, t notification.Type, now time.Time) (events.Event, error) {
	payload := orderPayload(o)
	payload.NotificationType = t.String()
	e, err := events.New(events.NotificationRequested, events.ProducerOrder, payload, now)
	if err != nil {
		return events.Event{}, err
	}
	return e.WithDerivedID(payload.Status, payload.NotificationType, changedAt(o)), nil
}

// changedAt is kept to milliseconds, which every store preserves.
func changedAt(o *order.Order) string {
	return strconv.FormatInt(o.UpdatedAt().UnixMilli(), 10)
}

func publishAll(ctx context.Context, publisher ports.EventPublisher, evts []events.Event) error {
	for _, e := range evts {
		if err := publisher.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
