package services

import (
	"errors"
	"fmt"
	"math"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
)

// DefaultAverageSpeedKmh is the courier speed assumed when none is configured.
const DefaultAverageSpeedKmh = 30.0

// ETAEstimator turns the distance between restaurant and customer into minutes.
//
// Business rules:
//   - Distance is the haversine great-circle distance on a 6371 km sphere
//   - Minutes are distance / speed, rounded up
//   - Distinct points never produce less than one minute; identical points produce 0
//
// Example:
//
//	estimator, _ := services.NewETAEstimator(30)
//	minutes, _ := estimator.Estimate(order.DefaultRestaurantLocation, order.DefaultCustomerLocation)
//	// minutes == 5
type ETAEstimator struct {
	speedKmh float64
}

func NewETAEstimator(speedKmh float64) (ETAEstimator, error) {
	if speedKmh <= 0 || math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) {
		return ETAEstimator{}, errs.NewValueIsInvalidErrorWithCause(
			"average speed is invalid",
			fmt.Errorf("%v km/h is not a positive finite speed", speedKmh),
		)
	}
	return ETAEstimator{speedKmh: speedKmh}, nil
}

// Estimate returns the travel time in whole minutes.
func (e ETAEstimator) Estimate(from, to kernel.GeoPoint) (int, error) {
	if e.speedKmh <= 0 {
		return 0, errors.New("ETAEstimator must be created via NewETAEstimator")
	}

	if err := errors.Join(from.Validate(), to.Validate()); err != nil {
		return 0, err
	}

	distance := from.DistanceKm(to)

	if distance == 0 {
		return 0, nil
	}

	minutes := int(math.Ceil(distance / e.speedKmh * 60))
	return max(minutes, 1), nil
}
