// Package services provides domain services that implement business rules which do
// not belong to a single aggregate.
//
// The package includes:
//   - ETAEstimator: travel time between two GeoPoints from great-circle distance
//   - TransactionIDs: generator for charge and refund transaction identifiers
//   - TransactionSigner: HMAC signature binding order, amount and transaction id
//
// All services are stateless after construction and safe for concurrent use.
package services
