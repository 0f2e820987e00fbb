// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Items live in their own table; they never change after creation.
type OrderDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID   string
	RestaurantID string          `gorm:"not null"`
	Items        []ItemDTO       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	PaymentMethod string `gorm:"not null"`
	Status        int    `gorm:"index"`

	RestaurantLocation LocationDTO `gorm:"embedded;embeddedPrefix:restaurant_"`
	CustomerLocation   LocationDTO `gorm:"embedded;embeddedPrefix:customer_"`

	PaymentID            *uuid.UUID `gorm:"type:uuid"`
	PaymentTransactionID string
	PaymentRefunded      bool
	PaymentFailure       string

	DeliveryID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time `gorm:"index"`
	// The aggregate owns the timestamp; gorm must not replace it with the write time.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is one order line. Position keeps the original line order.
type ItemDTO struct {
	OrderID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position  int       `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Quantity  int
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2)"`
}

func (ItemDTO) TableName() string {
	return "order_items"
}

// LocationDTO represents embedded coordinates within the order table.
type LocationDTO struct {
	Latitude  float64
	Longitude float64
}

func fromDomain(o *order.Order) OrderDTO {
	id := o.ID().Bytes()

	items := make([]ItemDTO, 0, len(o.Items()))
	for i, item := range o.Items() {
		items = append(items, ItemDTO{
			OrderID:   id,
			Position:  i,
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	dto := OrderDTO{
		ID:            id,
		CustomerID:    o.CustomerID(),
		RestaurantID:  o.RestaurantID(),
		Items:         items,
		Amount:        o.Amount(),
		PaymentMethod: o.PaymentMethod().String(),
		Status:        int(o.Status()),
		RestaurantLocation: LocationDTO{
			Latitude:  o.RestaurantLocation().Latitude(),
			Longitude: o.RestaurantLocation().Longitude(),
		},
		CustomerLocation: LocationDTO{
			Latitude:  o.CustomerLocation().Latitude(),
			Longitude: o.CustomerLocation().Longitude(),
		},
		PaymentFailure: o.PaymentFailure(),
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
	}

	if ref := o.Payment(); ref != nil {
		raw := ref.ID.Bytes()
		dto.PaymentID = &raw
		dto.PaymentTransactionID = ref.TransactionID
		dto.PaymentRefunded = ref.Refunded
	}

	if deliveryID := o.DeliveryID(); deliveryID != nil {
		raw := deliveryID.Bytes()
		dto.DeliveryID = &raw
	}

	return dto
}

// toDomain reconstructs the aggregate using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, line := range dto.Items {
		item, itemErr := order.NewItem(line.Name, line.Quantity, line.UnitPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	method, err := kernel.ParsePaymentMethod(dto.PaymentMethod)
	if err != nil {
		return nil, err
	}

	restaurant, err := kernel.NewGeoPoint(dto.RestaurantLocation.Latitude, dto.RestaurantLocation.Longitude)
	if err != nil {
		return nil, err
	}

	customer, err := kernel.NewGeoPoint(dto.CustomerLocation.Latitude, dto.CustomerLocation.Longitude)
	if err != nil {
		return nil, err
	}

	var ref *order.PaymentReference
	if dto.PaymentID != nil {
		paymentID, paymentErr := kernel.UUIDFromBytes((*dto.PaymentID)[:])
		if paymentErr != nil {
			return nil, paymentErr
		}
		ref = &order.PaymentReference{
			ID:            paymentID,
			TransactionID: dto.PaymentTransactionID,
			Refunded:      dto.PaymentRefunded,
		}
	}

	var deliveryID *kernel.UUID
	if dto.DeliveryID != nil {
		dID, deliveryErr := kernel.UUIDFromBytes((*dto.DeliveryID)[:])
		if deliveryErr != nil {
			return nil, deliveryErr
		}
		deliveryID = &dID
	}

	return order.RestoreOrder(
		id,
		dto.CustomerID,
		dto.RestaurantID,
		items,
		method,
		restaurant,
		customer,
		order.Status(dto.Status),
		ref,
		dto.PaymentFailure,
		deliveryID,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
