package returns

import "github.com/shopspring/decimal"

// Band is the color bucket the HTML report assigns to a return percentage.
type Band string

const (
	BandNegative     Band = "negative"
	BandLowPositive  Band = "low-positive"
	BandPositive     Band = "positive"
	BandMorePositive Band = "more-positive"
	BandVeryPositive Band = "very-positive"
)

var (
	bandLow  = decimal.NewFromInt(15)
	bandMid  = decimal.NewFromInt(30)
	bandHigh = decimal.NewFromInt(50)
)

// Classify buckets a return percentage. Boundaries are fixed,
// inclusive-lower/exclusive-upper: <0, [0,15), [15,30), [30,50), >=50.
func Classify(ret decimal.Decimal) Band {
	switch {
	case ret.IsNegative():
		return BandNegative
	case ret.LessThan(bandLow):
		return BandLowPositive
	case ret.LessThan(bandMid):
		return BandPositive
	case ret.LessThan(bandHigh):
		return BandMorePositive
	default:
		return BandVeryPositive
	}
}
