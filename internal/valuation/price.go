package valuation

import (
	"math"

	apperrors "github.com/agbru/nightrate/internal/errors"
)

// Price is a predicted nightly rate. It is a currency-agnostic magnitude.
type Price float64

// Valid reports whether p is finite and non-negative.
func (p Price) Valid() bool {
	f := float64(p)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// Float64 returns the raw value.
func (p Price) Float64() float64 { return float64(p) }

// checkPrice turns an out-of-contract price into a ServiceError.
func checkPrice(p Price) error {
	if p.Valid() {
		return nil
	}
	return apperrors.NewServiceError(apperrors.KindInvalidPrice, "service returned %v", float64(p))
}
