// Package payment provides the Payment aggregate of the payment context.
//
// A Payment is either a Charge against an order or a Refund of an earlier charge.
// Its Status moves Pending -> Completed | Failed and Completed -> Refunded; every
// other move is rejected with ErrInvalidStatusChange.
package payment
