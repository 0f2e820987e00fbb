package payment

import (
	"errors"
	"fmt"
	"strings"

	"fooddelivery/internal/pkg/errs"
)

// ErrInvalidStatusChange is returned when a payment leaves a status it may not leave.
var ErrInvalidStatusChange = errors.New("invalid payment status change")

// Status of a payment record. The zero value is invalid.
type Status int

const (
	UnknownStatus Status = iota
	Pending
	Completed
	Failed
	Refunded
)

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // UnknownStatus is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:   "PENDING",
		Completed: "COMPLETED",
		Failed:    "FAILED",
		Refunded:  "REFUNDED",
	}
}

func ParseStatus(s string) (Status, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for status, tag := range getValidStatusStrings() {
		if tag == s {
			return status, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("payment status is invalid", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getValidStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Kind distinguishes charges from refunds.
type Kind int

const (
	UnknownKind Kind = iota
	Charge
	Refund
)

func getValidKindStrings() map[Kind]string {
	//nolint:exhaustive // UnknownKind is intentionally excluded as it's invalid
	return map[Kind]string{
		Charge: "CHARGE",
		Refund: "REFUND",
	}
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for kind, tag := range getValidKindStrings() {
		if tag == s {
			return kind, nil
		}
	}
	return UnknownKind, errs.NewValueIsInvalidErrorWithCause("payment kind is invalid", fmt.Errorf("%q is not a valid kind", s))
}

func (k Kind) Validate() error {
	if _, ok := getValidKindStrings()[k]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment kind is invalid", fmt.Errorf("%d is not a valid kind", k))
	}
	return nil
}

func (k Kind) String() string {
	if str, ok := getValidKindStrings()[k]; ok {
		return str
	}
	return "UNKNOWN"
}
