package services

import (
	"strings"

	"github.com/google/uuid"
)

const (
	chargePrefix = "TXN-"
	refundPrefix = "REFUND-"
)

// TransactionIDs generates gateway transaction identifiers. The zero value uses
// random UUIDs; tests inject a deterministic source.
type TransactionIDs struct {
	next func() string
}

func NewTransactionIDs() TransactionIDs {
	return TransactionIDs{}
}

// NewTransactionIDsFrom builds a generator over a custom id source.
func NewTransactionIDsFrom(next func() string) TransactionIDs {
	return TransactionIDs{next: next}
}

func (g TransactionIDs) Charge() string {
	return chargePrefix + g.id()
}

func (g TransactionIDs) Refund() string {
	return refundPrefix + g.id()
}

// IsRefund reports whether id was produced by Refund.
func IsRefund(id string) bool {
	return strings.HasPrefix(id, refundPrefix)
}

func (g TransactionIDs) id() string {
	if g.next != nil {
		return g.next()
	}
	return uuid.NewString()
}
