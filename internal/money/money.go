// Package money holds the one monetary representation this ledger uses:
// signed int64 minor units. spec.md §9 flags the teacher's parallel
// signed-amount/debit-credit schemas and NUMERIC-cast ambiguity as an
// Open Question; this package is the resolution — no float64, no
// decimal.Decimal, no string-cast NUMERIC anywhere in the posting path.
package money

import (
	"errors"
	"math"
)

// Minor is an amount expressed in integer minor units (cents, etc.).
type Minor int64

// ErrOverflow is returned instead of silently wrapping or truncating.
var ErrOverflow = errors.New("money: amount overflows int64 minor units")

// ErrNegative is returned by operations that require a non-negative
// amount (line debit/credit legs are never negative; sign is carried by
// which leg is populated, not by the integer's sign).
var ErrNegative = errors.New("money: amount must be non-negative")

// Add returns a+b, failing closed on overflow rather than wrapping.
func Add(a, b Minor) (Minor, error) {
	if b > 0 && a > Minor(math.MaxInt64)-b {
		return 0, ErrOverflow
	}

	if b < 0 && a < Minor(math.MinInt64)-b {
		return 0, ErrOverflow
	}

	return a + b, nil
}

// Sum adds a slice of amounts, failing closed on overflow.
func Sum(amounts ...Minor) (Minor, error) {
	var total Minor

	for _, a := range amounts {
		var err error

		total, err = Add(total, a)
		if err != nil {
			return 0, err
		}
	}

	return total, nil
}

// RequireNonNegative validates a line leg amount.
func RequireNonNegative(m Minor) error {
	if m < 0 {
		return ErrNegative
	}

	return nil
}
