package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"investtrack/internal/marketdata"
	"investtrack/internal/models"
	"investtrack/internal/repository"
	"investtrack/internal/returns"
)

var (
	ErrPositionNotFound = errors.New("position not found")
	ErrInvalidDividend  = errors.New("dividend amount must be positive")
)

// PositionService owns live-position flows that go beyond plain CRUD:
// scheduled price refresh, the live portfolio summary, dividend recording,
// and delete semantics.
type PositionService struct {
	Repo   repository.Repository
	Market marketdata.Provider
	Logger *zap.Logger
	Flags  *SettingsService
}

// RefreshOpenPrices backfills missing start prices and updates the end price
// of every open position from the provider. Positions with an end override
// keep it: the override always wins, so fetching would be wasted work.
func (s *PositionService) RefreshOpenPrices(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.Market == nil {
		return nil
	}
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, FeaturePriceRefresh, true) {
		return nil
	}
	items, err := s.Repo.ListOpenPositions(ctx)
	if err != nil || len(items) == 0 {
		return err
	}

	for i := range items {
		pos := items[i]
		changed := false

		if pos.StartPrice == nil && pos.StartPriceOverride == nil {
			price, err := s.Market.CloseOn(ctx, pos.Ticker, pos.StartDate)
			if err == nil {
				pos.StartPrice = &price
				changed = true
			} else if s.Logger != nil {
				s.Logger.Warn("start price fetch failed",
					zap.String("ticker", pos.Ticker),
					zap.Error(err),
				)
			}
		}

		if pos.EndPriceOverride == nil {
			q, err := s.Market.Quote(ctx, pos.Ticker)
			if err == nil {
				pos.EndPrice = &q.Price
				changed = true
			} else if s.Logger != nil {
				s.Logger.Warn("quote fetch failed",
					zap.String("ticker", pos.Ticker),
					zap.Error(err),
				)
			}
		}

		if !changed {
			continue
		}
		if err := s.Repo.UpdatePosition(ctx, &pos); err != nil {
			return err
		}
	}
	return nil
}

// Summary computes the live winner/loser/average view over current positions,
// dividends included, without going through a snapshot.
func (s *PositionService) Summary(ctx context.Context) (returns.Summary, error) {
	sum := returns.Summary{TotalDividends: decimal.Zero, AverageReturn: decimal.Zero}
	if s == nil || s.Repo == nil {
		return sum, nil
	}
	items, err := s.Repo.ListPositions(ctx, repository.ListPositionsParams{Limit: 1000})
	if err != nil {
		return sum, err
	}
	if len(items) == 0 {
		return sum, nil
	}

	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	divTotals, err := s.Repo.SumDividendsByPositionIDs(ctx, ids)
	if err != nil {
		return sum, err
	}

	total := decimal.Zero
	for _, p := range items {
		sum.TotalPositions++
		divs := divTotals[p.ID]
		sum.TotalDividends = sum.TotalDividends.Add(divs)

		ret, ok := returns.FromPosition(p, divs)
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
	return sum, nil
}

// RecordDividend validates and inserts a dividend payment for a position.
func (s *PositionService) RecordDividend(ctx context.Context, positionID string, paymentDate time.Time, amount decimal.Decimal) (*models.Dividend, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidDividend
	}
	pos, err := s.Repo.GetPositionByID(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, ErrPositionNotFound
	}
	item := &models.Dividend{
		PositionID:  pos.ID,
		Ticker:      pos.Ticker,
		PaymentDate: paymentDate,
		Amount:      amount,
	}
	if err := s.Repo.InsertDividend(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a position and its dividends. Snapshot rows sharing the
// ticker are left alone: they are frozen history owned by their snapshots,
// and removing them here could destroy unrelated snapshots' records.
func (s *PositionService) Delete(ctx context.Context, id string) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	pos, err := s.Repo.GetPositionByID(ctx, id)
	if err != nil {
		return err
	}
	if pos == nil {
		return ErrPositionNotFound
	}
	return s.Repo.DeletePositionWithDividends(ctx, id)
}
