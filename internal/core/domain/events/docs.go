// Package events defines the messages exchanged between the saga components.
//
// Every message is an Event envelope carrying a flat Payload. The Type of an event
// determines its Topic, so a producer cannot put an event on the wrong channel.
// Events are values: once built by New they are never modified.
//
// Topics:
//   - order.lifecycle: order status changes, consumed by payment and tracking
//   - payment.request: charge and refund requests, consumed by payment
//   - payment.result: payment outcomes, consumed by order
//   - tracking.start: requests to start delivery tracking
//   - tracking.status: delivery progress, consumed by order
//   - notification.dispatch: customer messages, consumed by notification
package events
