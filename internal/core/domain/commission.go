package domain

import "errors"

// Sentinel errors for split computation. Callers at service boundaries map
// these onto the structured error catalogue.
var (
	ErrInvalidAmount = errors.New("sale amount must be positive")
	ErrInvalidRate   = errors.New("commission rate must be within [0, 100]")
)

// Split is the commission/payout division of a sale amount.
type Split struct {
	Commission int64 `json:"commission"`
	Payout     int64 `json:"payout"`
}

// ComputeSplit divides a sale amount (minor units) between the platform
// commission and the artisan payout at the given percentage rate.
//
// Rounding is half-up on the commission so the platform never systematically
// underpays artisans through banker's rounding: commission + payout always
// equals the sale amount exactly.
func ComputeSplit(saleAmount int64, ratePercent float64) (Split, error) {
	if saleAmount <= 0 {
		return Split{}, ErrInvalidAmount
	}
	if ratePercent < 0 || ratePercent > 100 {
		return Split{}, ErrInvalidRate
	}

	// Work in tenths of a basis point so the half-up rounding happens on
	// integers rather than floats. Rates come from a settings form with at
	// most two decimal places, so the conversion itself is exact.
	rateMilliBp := int64(ratePercent*100000 + 0.5)
	commission := (saleAmount*rateMilliBp + 5000000) / 10000000

	return Split{
		Commission: commission,
		Payout:     saleAmount - commission,
	}, nil
}
