package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order with its items.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves every column of an existing order. Items are immutable and left alone.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit(clause.Associations, "id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundErrorWithCause("order", aggregate.ID().String(), gorm.ErrRecordNotFound)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ActiveOrdersReader answers the active orders listing with one raw query.
type ActiveOrdersReader struct {
	db *gorm.DB
}

func NewActiveOrdersReader(db *gorm.DB) *ActiveOrdersReader {
	return &ActiveOrdersReader{db: db}
}

// ActiveOrders returns orders that are neither delivered nor cancelled, oldest first.
func (r *ActiveOrdersReader) ActiveOrders(ctx context.Context) ([]queries.ActiveOrder, error) {
	statuses := make([]int, 0, len(queries.ActiveStatuses()))
	for _, s := range queries.ActiveStatuses() {
		statuses = append(statuses, int(s))
	}

	rows, err := r.db.WithContext(ctx).Raw(
		`SELECT id, customer_id, restaurant_id, status, amount, created_at
		 FROM orders
		 WHERE status IN ?
		 ORDER BY created_at, id`,
		statuses,
	).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query active orders: %w", err)
	}
	defer rows.Close()

	result := make([]queries.ActiveOrder, 0)
	for rows.Next() {
		var (
			rawID  uuid.UUID
			status int
			amount decimal.Decimal
			item   queries.ActiveOrder
		)

		if err = rows.Scan(&rawID, &item.CustomerID, &item.RestaurantID, &status, &amount, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan active order: %w", err)
		}

		if item.ID, err = kernel.UUIDFromBytes(rawID[:]); err != nil {
			return nil, err
		}
		item.Status = order.Status(status)
		item.Amount = amount

		result = append(result, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active orders: %w", err)
	}

	return result, nil
}
