package entity

import (
	"encoding/json"
	"errors"

	"github.com/holiman/uint256"

	domainErr "github.com/AnkanMisra/SettleOne/internal/domain/errors"
)

// Amount is an unsigned 256-bit token quantity. It is parsed once at the wire
// boundary and carried numerically; JSON encoding is a decimal digit string so
// large values survive clients that mangle big numbers.
type Amount struct {
	n uint256.Int
}

// ParseAmount parses a decimal digit string into an Amount. Syntax failures
// return an *errors.InvalidAmountError; values above 2^256-1 return
// errors.ErrAmountOverflow.
func ParseAmount(s string) (Amount, error) {
	n, err := uint256.FromDecimal(s)
	if err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return Amount{}, domainErr.ErrAmountOverflow
		}
		return Amount{}, domainErr.NewInvalidAmountError(s, err.Error())
	}
	return Amount{n: *n}, nil
}

// MustParseAmount is ParseAmount for test fixtures and constants; it panics on
// invalid input.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the decimal representation. The zero Amount is "0".
func (a Amount) String() string {
	return a.n.Dec()
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.n.IsZero()
}

// Equal reports whether two amounts are numerically equal.
func (a Amount) Equal(b Amount) bool {
	return a.n.Eq(&b.n)
}

// AddChecked returns a+b, reporting overflow past 2^256-1.
func (a Amount) AddChecked(b Amount) (Amount, bool) {
	var sum uint256.Int
	_, overflow := sum.AddOverflow(&a.n, &b.n)
	return Amount{n: sum}, overflow
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.n.Dec())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
