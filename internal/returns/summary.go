package returns

import (
	"github.com/shopspring/decimal"

	"investtrack/internal/models"
)

// Summary is the portfolio-level view over a snapshot's frozen rows.
type Summary struct {
	TotalPositions int             `json:"total_positions"`
	Winners        int             `json:"winners"`
	Losers         int             `json:"losers"`
	TotalDividends decimal.Decimal `json:"total_dividends"`
	AverageReturn  decimal.Decimal `json:"average_return"`
}

// SummarizeSnapshot aggregates per-row returns (dividends included) into
// winner/loser counts, total dividend income, and the mean return.
//
// Rows with no computable return contribute 0 to the mean and stay in the
// denominator. That mirrors the historical behavior of the reports; whether
// they should instead be excluded is an open product question.
func SummarizeSnapshot(items []models.SnapshotPosition) Summary {
	sum := Summary{
		TotalDividends: decimal.Zero,
		AverageReturn:  decimal.Zero,
	}
	if len(items) == 0 {
		return sum
	}

	total := decimal.Zero
	for _, sp := range items {
		sum.TotalPositions++
		sum.TotalDividends = sum.TotalDividends.Add(sp.DividendsPaid)

		ret, ok := FromSnapshotPosition(sp)
		if !ok {
			continue
		}
		total = total.Add(ret)
		if ret.IsPositive() {
			sum.Winners++
		} else if ret.IsNegative() {
			sum.Losers++
		}
	}

	sum.AverageReturn = total.Div(decimal.NewFromInt(int64(sum.TotalPositions)))
	return sum
}

// FilterPositions applies the lifecycle filter used by the tables:
// "all" passes everything, otherwise exact status match. Idempotent.
func FilterPositions(items []models.Position, status string) []models.Position {
	if status == "" || status == "all" {
		return items
	}
	out := make([]models.Position, 0, len(items))
	for _, p := range items {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// FilterSnapshotPositions is the same predicate over frozen rows, keyed on
// the status captured at snapshot time.
func FilterSnapshotPositions(items []models.SnapshotPosition, status string) []models.SnapshotPosition {
	if status == "" || status == "all" {
		return items
	}
	out := make([]models.SnapshotPosition, 0, len(items))
	for _, sp := range items {
		if sp.PositionStatus == status {
			out = append(out, sp)
		}
	}
	return out
}
