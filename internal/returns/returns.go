// Package returns holds the portfolio return math: per-position percentage
// returns with manual override precedence, snapshot-level aggregation, and
// the banding used by the HTML report. Everything here is pure.
package returns

import (
	"github.com/shopspring/decimal"

	"investtrack/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Effective resolves the price to use for return math. A manual override wins
// over the fetched price when it is set and non-zero; a zero override is
// treated as unset.
func Effective(price, override *decimal.Decimal) *decimal.Decimal {
	if override != nil && !override.IsZero() {
		return override
	}
	return price
}

// Compute returns the percentage return between two effective prices.
// The second result is false when either price is absent or the start price
// is zero; callers must render that as "no return available", never as 0.
func Compute(start, end *decimal.Decimal) (decimal.Decimal, bool) {
	return ComputeWithDividends(start, end, decimal.Zero)
}

// ComputeWithDividends is Compute with dividend income added to the exit
// value: ((end + dividends) - start) / start * 100.
func ComputeWithDividends(start, end *decimal.Decimal, dividends decimal.Decimal) (decimal.Decimal, bool) {
	if start == nil || end == nil {
		return decimal.Zero, false
	}
	if start.IsZero() {
		// Division by zero; no meaningful return exists.
		return decimal.Zero, false
	}
	ret := end.Add(dividends).Sub(*start).Div(*start).Mul(hundred)
	return ret, true
}

// FromPosition computes a position's return from its own prices, applying
// override precedence. Dividend income is supplied by the caller since
// positions do not carry an accumulated total.
func FromPosition(p models.Position, dividends decimal.Decimal) (decimal.Decimal, bool) {
	start := Effective(p.StartPrice, p.StartPriceOverride)
	end := Effective(p.EndPrice, p.EndPriceOverride)
	return ComputeWithDividends(start, end, dividends)
}

// FromSnapshotPosition computes a frozen row's return from its captured
// prices and accumulated dividends.
func FromSnapshotPosition(sp models.SnapshotPosition) (decimal.Decimal, bool) {
	return ComputeWithDividends(sp.StartPrice, sp.EndPrice, sp.DividendsPaid)
}

// IsGain classifies a return for display: zero counts as a gain.
func IsGain(ret decimal.Decimal) bool {
	return !ret.IsNegative()
}
