package commands_test

import (
	"testing"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateOrderCommand(t *testing.T) {
	t.Run("should keep valid input", func(t *testing.T) {
		id := kernel.NewUUID()
		restaurant := kernel.MustNewGeoPoint(40.7, -74)

		cmd, err := commands.NewCreateOrderCommand(id, " c-1 ", "r-1", testItems(t), kernel.PayPal,
			restaurant, kernel.UnsetGeoPoint)

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.Equal(t, id, cmd.OrderID())
		assert.Equal(t, "c-1", cmd.CustomerID())
		assert.Equal(t, "r-1", cmd.RestaurantID())
		assert.Equal(t, kernel.PayPal, cmd.PaymentMethod())
		assert.Equal(t, restaurant, cmd.Restaurant())
		assert.Len(t, cmd.Items(), 1)
	})

	t.Run("should report every invalid field", func(t *testing.T) {
		_, err := commands.NewCreateOrderCommand(kernel.UUID{}, "", " ", nil, kernel.UnknownPaymentMethod,
			kernel.UnsetGeoPoint, kernel.UnsetGeoPoint)

		require.Error(t, err)
		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		assert.ErrorIs(t, err, commands.ErrItemsAreRequired)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject a zero value command", func(t *testing.T) {
		assert.ErrorIs(t, commands.CreateOrderCommand{}.Validate(), commands.ErrCreateOrderCommandIsNotConstructed)
	})
}
