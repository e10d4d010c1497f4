// Package pricing derives the advance and remaining amounts of a booking from
// the price of the selected package.
//
// Amounts are whole currency units held in int64. The advance is
// round-half-up(price * AdvanceRateBasisPoints / 10000) and the remaining
// amount is whatever is left, so Advance+Remaining == Total always holds.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// AdvanceRateBasisPoints is the advance share of the package price (10%).
const AdvanceRateBasisPoints int64 = 1000

const basisPointsDenominator int64 = 10000

// MaxPrice is the largest price whose advance can be computed without
// overflowing int64.
const MaxPrice = math.MaxInt64 / basisPointsDenominator

var (
	ErrNegativePrice = errors.New("package price must not be negative")
	ErrPriceTooLarge = errors.New("package price exceeds the supported maximum")
)

type Split struct {
	Total     int64
	Advance   int64
	Remaining int64
}

// ComputeSplit applies the fixed advance rate to packagePrice.
func ComputeSplit(packagePrice int64) (Split, error) {
	return ComputeSplitWithRate(packagePrice, AdvanceRateBasisPoints)
}

// ComputeSplitWithRate is ComputeSplit for an explicit rate in basis points.
func ComputeSplitWithRate(packagePrice, rateBasisPoints int64) (Split, error) {
	if packagePrice < 0 {
		return Split{}, ErrNegativePrice
	}
	if packagePrice > MaxPrice {
		return Split{}, fmt.Errorf("%w: %d", ErrPriceTooLarge, packagePrice)
	}
	if rateBasisPoints < 0 || rateBasisPoints > basisPointsDenominator {
		return Split{}, fmt.Errorf("advance rate %d bps out of range", rateBasisPoints)
	}

	advance := (packagePrice*rateBasisPoints + basisPointsDenominator/2) / basisPointsDenominator

	return Split{
		Total:     packagePrice,
		Advance:   advance,
		Remaining: packagePrice - advance,
	}, nil
}

// Valid reports whether the stored amounts still satisfy the split rule.
func (s Split) Valid() bool {
	expected, err := ComputeSplit(s.Total)
	if err != nil {
		return false
	}
	return expected == s
}
