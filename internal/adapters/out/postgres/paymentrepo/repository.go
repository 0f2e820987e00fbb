package paymentrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const savePointName = "save_payment"

// CompletedChargeIndex enforces at most one completed charge per order.
var CompletedChargeIndex = fmt.Sprintf(
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_completed_charge ON payments (order_id) WHERE kind = %d AND status = %d",
	int(payment.Charge), int(payment.Completed),
)

// GormPaymentRepository implements ports.PaymentRepository using GORM.
type GormPaymentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormPaymentRepository(db *gorm.DB, tracker aggregateTracker) *GormPaymentRepository {
	return &GormPaymentRepository{db: db, tracker: tracker}
}

// Save upserts p by id. Inside a transaction the write runs behind a savepoint, so a
// refused record leaves the transaction usable for the follow-up write of the
// failed duplicate.
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dto := fromDomain(p)
	db := r.db.WithContext(ctx)

	_, inTx := db.Statement.ConnPool.(gorm.TxCommitter)
	if inTx {
		if err := db.SavePoint(savePointName).Error; err != nil {
			return err
		}
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&dto).Error
	if err != nil {
		if inTx {
			if rollbackErr := db.RollbackTo(savePointName).Error; rollbackErr != nil {
				return errors.Join(err, rollbackErr)
			}
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: transaction %s of order %s", ports.ErrDuplicatePayment, p.TransactionID(), p.OrderID())
		}
		return err
	}

	r.tracker.TrackAggregate(p.ID(), p)
	return nil
}

func (r *GormPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Payment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto PaymentDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("payment", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID kernel.UUID) ([]*payment.Payment, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []PaymentDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	list := make([]*payment.Payment, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	return list, nil
}

func (r *GormPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, error) {
	var dto PaymentDTO
	if err := r.db.WithContext(ctx).First(&dto, "transaction_id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("payment", transactionID)
		}
		return nil, err
	}

	return toDomain(dto)
}

// CountByMethodSince counts every charge of method, whatever its status.
func (r *GormPaymentRepository) CountByMethodSince(
	ctx context.Context,
	method kernel.PaymentMethod,
	since time.Time,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PaymentDTO{}).
		Where("method = ? AND kind = ? AND created_at >= ?", method.String(), int(payment.Charge), since).
		Count(&count).Error
	return count, err
}
