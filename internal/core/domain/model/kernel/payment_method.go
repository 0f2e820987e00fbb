package kernel

import (
	"fmt"
	"strings"

	"fooddelivery/internal/pkg/errs"
)

// PaymentMethod is shared by the order and payment contexts. The zero value is invalid.
type PaymentMethod int

const (
	UnknownPaymentMethod PaymentMethod = iota
	CreditCard
	PayPal
)

// DefaultPaymentMethod is used when an order does not name one.
const DefaultPaymentMethod = CreditCard

func getPaymentMethodStrings() map[PaymentMethod]string {
	return map[PaymentMethod]string{
		CreditCard: "CREDIT_CARD",
		PayPal:     "PAYPAL",
	}
}

// PaymentMethods lists every supported method in declaration order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{CreditCard, PayPal}
}

// ParsePaymentMethod accepts the wire tags case-insensitively; an empty string yields
// DefaultPaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultPaymentMethod, nil
	}

	for method, tag := range getPaymentMethodStrings() {
		if tag == s {
			return method, nil
		}
	}

	return UnknownPaymentMethod, errs.NewValueIsInvalidErrorWithCause(
		"payment method is invalid",
		fmt.Errorf("%q is not a supported payment method", s),
	)
}

func (m PaymentMethod) Validate() error {
	if _, ok := getPaymentMethodStrings()[m]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"payment method is invalid",
			fmt.Errorf("%d is not a supported payment method", m),
		)
	}
	return nil
}

func (m PaymentMethod) String() string {
	if s, ok := getPaymentMethodStrings()[m]; ok {
		return s
	}
	return "UNKNOWN"
}
