package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"fooddelivery/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// TransactionSigner signs "orderId|amount|transactionId" with HMAC-SHA256 and encodes
// the digest as standard base64. The amount uses its canonical decimal string so that
// 19.98 and 19.980 sign identically.
type TransactionSigner struct {
	secret []byte
}

func NewTransactionSigner(secret string) (TransactionSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return TransactionSigner{}, errs.NewValueIsRequiredError("signing secret")
	}
	return TransactionSigner{secret: []byte(secret)}, nil
}

func (s TransactionSigner) Sign(orderID string, amount decimal.Decimal, transactionID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + amount.String() + "|" + transactionID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks signature in constant time.
func (s TransactionSigner) Verify(orderID string, amount decimal.Decimal, transactionID, signature string) bool {
	expected := s.Sign(orderID, amount, transactionID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
