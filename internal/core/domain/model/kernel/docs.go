// Package kernel holds the value objects shared by every bounded context of the
// food-delivery saga.
//
// The package includes:
//   - UUID: identifier for orders, payments and events, JSON-encodable as text
//   - GeoPoint: a validated latitude/longitude pair with haversine distance
//   - PaymentMethod: the closed set of payment methods understood by orders and payments
//
// All values are immutable and safe for concurrent use. Zero values fail Validate so
// that unset data is caught at aggregate boundaries.
package kernel
