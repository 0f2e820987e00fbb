// Package tracking models the delivery of a confirmed order: a short three-step
// state machine with an ETA that only decreases.
package tracking

import (
	"fmt"
	"strings"

	"fooddelivery/internal/pkg/errs"
)

// Status of a delivery.
//
//	Preparing ──> InTransit ──> Delivered
type Status int

const (
	UnknownStatus Status = iota
	Preparing
	InTransit
	Delivered
)

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // UnknownStatus is intentionally excluded as it's invalid
	return map[Status]string{
		Preparing: "PREPARING",
		InTransit: "IN_TRANSIT",
		Delivered: "DELIVERED",
	}
}

func ParseStatus(s string) (Status, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for status, tag := range getValidStatusStrings() {
		if tag == s {
			return status, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("delivery status is invalid", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("delivery status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getValidStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Next is the status that follows s. Delivered is absorbing.
func (s Status) Next() Status {
	switch s {
	case Preparing:
		return InTransit
	case InTransit, Delivered:
		return Delivered
	case UnknownStatus:
	}
	return UnknownStatus
}

func (s Status) IsTerminal() bool {
	return s == Delivered
}
