package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for session store lookups and arithmetic limits. NotFound
// conditions and amount conditions are distinct so the handler layer can map
// them to different HTTP statuses.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAmountOverflow  = errors.New("total amount overflow")
)

// InvalidAmountError is returned when a payment amount string does not parse
// as a non-negative decimal integer. It carries the offending value so the
// caller can surface it verbatim.
type InvalidAmountError struct {
	Value  string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid payment amount %q: %s", e.Value, e.Reason)
}

// NewInvalidAmountError creates a new InvalidAmountError
func NewInvalidAmountError(value, reason string) *InvalidAmountError {
	return &InvalidAmountError{Value: value, Reason: reason}
}
