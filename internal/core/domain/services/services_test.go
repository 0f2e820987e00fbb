package services_test

import (
	"strings"
	"testing"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/services"
	"fooddelivery/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestETAEstimator_Estimate(t *testing.T) {
	estimator, err := services.NewETAEstimator(services.DefaultAverageSpeedKmh)
	require.NoError(t, err)

	t.Run("should return a fixed positive estimate for the default points", func(t *testing.T) {
		first, err := estimator.Estimate(order.DefaultRestaurantLocation, order.DefaultCustomerLocation)
		require.NoError(t, err)

		second, err := estimator.Estimate(order.DefaultRestaurantLocation, order.DefaultCustomerLocation)
		require.NoError(t, err)

		assert.Equal(t, 5, first)
		assert.Equal(t, first, second)
	})

	t.Run("should round short distances up to one minute", func(t *testing.T) {
		minutes, err := estimator.Estimate(kernel.MustNewGeoPoint(10, 10), kernel.MustNewGeoPoint(10, 10.0001))

		require.NoError(t, err)
		assert.Equal(t, 1, minutes)
	})

	t.Run("should return zero for identical points", func(t *testing.T) {
		p := kernel.MustNewGeoPoint(1, 1)

		minutes, err := estimator.Estimate(p, p)

		require.NoError(t, err)
		assert.Zero(t, minutes)
	})

	t.Run("should scale with speed", func(t *testing.T) {
		fast, err := services.NewETAEstimator(60)
		require.NoError(t, err)

		minutes, err := fast.Estimate(order.DefaultRestaurantLocation, order.DefaultCustomerLocation)

		require.NoError(t, err)
		assert.Equal(t, 3, minutes)
	})

	t.Run("should reject unconstructed points", func(t *testing.T) {
		_, err := estimator.Estimate(kernel.GeoPoint{}, order.DefaultCustomerLocation)

		require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
	})

	t.Run("should reject invalid speeds", func(t *testing.T) {
		_, err := services.NewETAEstimator(0)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestTransactionIDs(t *testing.T) {
	t.Run("should prefix charges and refunds", func(t *testing.T) {
		ids := services.NewTransactionIDs()

		charge := ids.Charge()
		refund := ids.Refund()

		assert.True(t, strings.HasPrefix(charge, "TXN-"))
		assert.True(t, strings.HasPrefix(refund, "REFUND-"))
		assert.NotEqual(t, charge, ids.Charge())
		assert.True(t, services.IsRefund(refund))
		assert.False(t, services.IsRefund(charge))
	})

	t.Run("should use the injected source", func(t *testing.T) {
		ids := services.NewTransactionIDsFrom(func() string { return "fixed" })

		assert.Equal(t, "TXN-fixed", ids.Charge())
	})
}

func TestTransactionSigner(t *testing.T) {
	signer, err := services.NewTransactionSigner("secret")
	require.NoError(t, err)

	t.Run("should sign deterministically", func(t *testing.T) {
		amount := decimal.RequireFromString("19.98")

		signature := signer.Sign("order-1", amount, "TXN-1")

		assert.Equal(t, signature, signer.Sign("order-1", decimal.RequireFromString("19.980"), "TXN-1"))
		assert.True(t, signer.Verify("order-1", amount, "TXN-1", signature))
		assert.False(t, signer.Verify("order-1", amount, "TXN-2", signature))
	})

	t.Run("should require a secret", func(t *testing.T) {
		_, err := services.NewTransactionSigner(" ")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}
