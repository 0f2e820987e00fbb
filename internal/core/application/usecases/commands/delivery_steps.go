package commands

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/tracking"
	"fooddelivery/internal/core/ports"
)

// deliverySteps applies triggers to tracking records. Every status change is
// published while the record lock is held; the record only takes the new state once
// publishing succeeded, so a transport failure leaves it as it was.
type deliverySteps struct {
	store     ports.TrackingStore
	publisher ports.EventPublisher
	now       func() time.Time
}

// decideFunc picks the trigger for a record, or false to leave it alone.
type decideFunc func(r *tracking.Record, now time.Time) (tracking.Trigger, bool)

func always(trigger tracking.Trigger) decideFunc {
	return func(*tracking.Record, time.Time) (tracking.Trigger, bool) { return trigger, true }
}

// step applies one decided trigger to the record of orderID.
func (s deliverySteps) step(ctx context.Context, orderID kernel.UUID, decide decideFunc) (tracking.Change, error) {
	var change tracking.Change
	err := s.store.Update(ctx, orderID, func(rec *tracking.Record) (bool, error) {
		now := s.now()
		trigger, ok := decide(rec, now)
		if !ok {
			return false, nil
		}

		next := *rec
		c, err := next.Apply(trigger, now)
		if err != nil {
			return false, err
		}

		if err = s.announce(ctx, &next, c, now); err != nil {
			return false, err
		}

		*rec = next
		change = c
		return next.Status() == tracking.Delivered, nil
	})
	return change, err
}

// untilDelivered advances the record of orderID until it is delivered, under one lock.
func (s deliverySteps) untilDelivered(ctx context.Context, orderID kernel.UUID) ([]tracking.Change, error) {
	var changes []tracking.Change
	err := s.store.Update(ctx, orderID, func(rec *tracking.Record) (bool, error) {
		for rec.Status() != tracking.Delivered {
			now := s.now()
			next := *rec
			c, err := next.Apply(tracking.Advance, now)
			if err != nil {
				return false, err
			}

			if err = s.announce(ctx, &next, c, now); err != nil {
				return false, err
			}

			*rec = next
			changes = append(changes, c)
		}
		return true, nil
	})
	return changes, err
}

// announce publishes DELIVERY_STATUS for a status change and DELIVERY_COMPLETED on arrival.
func (s deliverySteps) announce(ctx context.Context, rec *tracking.Record, c tracking.Change, now time.Time) error {
	if !c.StatusChanged() {
		return nil
	}

	types := []events.Type{events.DeliveryStatus}
	if c.To == tracking.Delivered {
		types = append(types, events.DeliveryCompleted)
	}

	for _, t := range types {
		e, err := events.New(t, events.ProducerTracking, trackingPayload(rec), now)
		if err != nil {
			return err
		}
		if err = s.publisher.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func trackingPayload(rec *tracking.Record) events.Payload {
	return events.Payload{
		OrderID:       rec.OrderID().String(),
		Status:        rec.Status().String(),
		CustomerID:    rec.CustomerID(),
		RestaurantLat: rec.Restaurant().Latitude(),
		RestaurantLon: rec.Restaurant().Longitude(),
		CustomerLat:   rec.Customer().Latitude(),
		CustomerLon:   rec.Customer().Longitude(),
		ETAMinutes:    rec.ETAMinutes(),
	}
}
