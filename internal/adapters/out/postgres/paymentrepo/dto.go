// Package paymentrepo persists payment records with GORM.
package paymentrepo

import (
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentDTO is the payments table. TransactionID is unique; the store also keeps at
// most one completed charge per order through CompletedChargeIndex.
type PaymentDTO struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind          int             `gorm:"not null"`
	Method        string          `gorm:"not null;index:idx_payments_method_created,priority:1"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status        int             `gorm:"not null"`
	TransactionID string          `gorm:"not null;uniqueIndex"`
	Signature     string
	OriginalID    *uuid.UUID `gorm:"type:uuid"`
	FailureReason string
	CreatedAt     time.Time `gorm:"index:idx_payments_method_created,priority:2"`
}

func (PaymentDTO) TableName() string {
	return "payments"
}

func fromDomain(p *payment.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:            p.ID().Bytes(),
		OrderID:       p.OrderID().Bytes(),
		Kind:          int(p.Kind()),
		Method:        p.Method().String(),
		Amount:        p.Amount(),
		Status:        int(p.Status()),
		TransactionID: p.TransactionID(),
		Signature:     p.Signature(),
		FailureReason: p.FailureReason(),
		CreatedAt:     p.CreatedAt(),
	}

	if originalID := p.OriginalID(); originalID != nil {
		raw := originalID.Bytes()
		dto.OriginalID = &raw
	}

	return dto
}

func toDomain(dto PaymentDTO) (*payment.Payment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	method, err := kernel.ParsePaymentMethod(dto.Method)
	if err != nil {
		return nil, err
	}

	var originalID *kernel.UUID
	if dto.OriginalID != nil {
		oID, originalErr := kernel.UUIDFromBytes((*dto.OriginalID)[:])
		if originalErr != nil {
			return nil, originalErr
		}
		originalID = &oID
	}

	return payment.RestorePayment(
		id,
		orderID,
		payment.Kind(dto.Kind),
		method,
		dto.Amount,
		payment.Status(dto.Status),
		dto.TransactionID,
		dto.Signature,
		originalID,
		dto.FailureReason,
		dto.CreatedAt,
	)
}
