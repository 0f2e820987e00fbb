// Package order provides the Order aggregate root of the ordering context and the
// order status state machine.
//
// The package includes:
//   - Order: identity, items, amount, coordinates, payment and delivery references
//   - Item: an order line (name, quantity, unit price)
//   - Status: an ordered enum with a single legality rule for every transition
//
// Key business rules:
//   - The amount is the sum of item totals and must be positive
//   - Status follows Created < Confirmed < Preparing < InTransit < Delivered; a transition
//     may stay or move forward, and Cancelled is reachable from any non-terminal status
//   - Delivered and Cancelled are terminal; no further mutation is permitted
//   - Unset coordinates are replaced by sentinel values when the order is confirmed
//
// Event emission around these transitions lives in the application layer; the
// aggregate itself stays free of transport concerns.
package order
