package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"investtrack/internal/marketdata"
	"investtrack/internal/models"
	"investtrack/internal/repository"
	"investtrack/internal/returns"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotBuilderService materializes snapshots: it seeds frozen rows from
// live positions, backfills prices and dividends from the market data
// provider, and computes portfolio-level stats.
type SnapshotBuilderService struct {
	Repo   repository.Repository
	Market marketdata.Provider
	Logger *zap.Logger
}

type CreateSnapshotOptions struct {
	Name      *string
	StartDate *time.Time
	EndDate   time.Time
	Notes     *string
}

// Create inserts the snapshot and one frozen row per live position. Override
// precedence is resolved at capture time, so the copies are self-contained
// and later position edits cannot rewrite history.
func (s *SnapshotBuilderService) Create(ctx context.Context, opts CreateSnapshotOptions) (*models.Snapshot, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	snap := &models.Snapshot{
		Name:      opts.Name,
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
		Notes:     opts.Notes,
		Status:    models.SnapshotStatusPending,
	}
	if err := s.Repo.CreateSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	positions, err := s.Repo.ListPositions(ctx, repository.ListPositionsParams{Limit: 1000})
	if err != nil {
		return nil, err
	}

	rows := make([]models.SnapshotPosition, 0, len(positions))
	for _, p := range positions {
		start := returns.Effective(p.StartPrice, p.StartPriceOverride)
		end := returns.Effective(p.EndPrice, p.EndPriceOverride)
		row := models.SnapshotPosition{
			SnapshotID:     snap.ID,
			Ticker:         p.Ticker,
			CompanyName:    p.CompanyName,
			StartDate:      p.StartDate,
			EndDate:        p.EndDate,
			StartPrice:     copyDecimal(start),
			EndPrice:       copyDecimal(end),
			PositionStatus: p.Status,
		}
		if ret, ok := returns.Compute(row.StartPrice, row.EndPrice); ok {
			r := ret.Round(4)
			row.ReturnPct = &r
		}
		rows = append(rows, row)
	}
	if err := s.Repo.InsertSnapshotPositions(ctx, rows); err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("snapshot created",
			zap.String("snapshot_id", snap.ID),
			zap.Int("positions", len(rows)),
		)
	}
	return snap, nil
}

// FetchResult reports a backfill pass. Errors are keyed by ticker; a partial
// failure still updates every row it could.
type FetchResult struct {
	Updated int               `json:"updated"`
	Skipped int               `json:"skipped"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (r *FetchResult) recordError(ticker, msg string) {
	if prev, ok := r.Errors[ticker]; ok {
		r.Errors[ticker] = prev + "; " + msg
		return
	}
	r.Errors[ticker] = msg
}

// FetchPrices fills missing prices on a snapshot's rows from the provider:
// the close on the row's start date, and the close on the row's end date (or
// the snapshot's end date for rows still open). Rows that already carry a
// price keep it. A pass that made any progress marks the snapshot ready and
// recomputes its overall return; one where every fetch failed leaves it
// pending.
func (s *SnapshotBuilderService) FetchPrices(ctx context.Context, snapshotID string) (FetchResult, error) {
	res := FetchResult{Errors: map[string]string{}}
	if s == nil || s.Repo == nil || s.Market == nil {
		return res, nil
	}
	snap, err := s.Repo.GetSnapshotByID(ctx, snapshotID)
	if err != nil {
		return res, err
	}
	if snap == nil {
		return res, ErrSnapshotNotFound
	}
	rows, err := s.Repo.ListSnapshotPositions(ctx, snap.ID)
	if err != nil {
		return res, err
	}

	for i := range rows {
		row := rows[i]
		changed := false

		if row.StartPrice == nil {
			price, err := s.Market.CloseOn(ctx, row.Ticker, row.StartDate)
			if err != nil {
				res.recordError(row.Ticker, "start close: "+err.Error())
			} else {
				row.StartPrice = &price
				changed = true
			}
		}
		if row.EndPrice == nil {
			endDay := snap.EndDate
			if row.EndDate != nil {
				endDay = *row.EndDate
			}
			price, err := s.Market.CloseOn(ctx, row.Ticker, endDay)
			if err != nil {
				res.recordError(row.Ticker, "end close: "+err.Error())
			} else {
				row.EndPrice = &price
				changed = true
			}
		}

		if !changed {
			res.Skipped++
			continue
		}
		row.ReturnPct = recomputeRowReturn(row)
		if err := s.Repo.UpdateSnapshotPosition(ctx, &row); err != nil {
			return res, err
		}
		res.Updated++
	}

	// A pass where every fetch failed leaves the snapshot pending so a retry
	// is still expected; any progress (or nothing to do) marks it ready.
	if res.Updated > 0 || len(res.Errors) == 0 {
		snap.Status = models.SnapshotStatusReady
	}
	if err := s.refreshOverallReturn(ctx, snap); err != nil {
		return res, err
	}
	if s.Logger != nil {
		s.Logger.Info("snapshot prices fetched",
			zap.String("snapshot_id", snap.ID),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped),
			zap.Int("errors", len(res.Errors)),
		)
	}
	return res, nil
}

// PopulateDividends sums provider dividend payments over each row's holding
// window into dividends_paid and recomputes row and portfolio returns.
// Re-running it overwrites rather than accumulates, so it is idempotent.
func (s *SnapshotBuilderService) PopulateDividends(ctx context.Context, snapshotID string) (FetchResult, error) {
	res := FetchResult{Errors: map[string]string{}}
	if s == nil || s.Repo == nil || s.Market == nil {
		return res, nil
	}
	snap, err := s.Repo.GetSnapshotByID(ctx, snapshotID)
	if err != nil {
		return res, err
	}
	if snap == nil {
		return res, ErrSnapshotNotFound
	}
	rows, err := s.Repo.ListSnapshotPositions(ctx, snap.ID)
	if err != nil {
		return res, err
	}

	for i := range rows {
		row := rows[i]
		to := snap.EndDate
		if row.EndDate != nil {
			to = *row.EndDate
		}
		payments, err := s.Market.Dividends(ctx, row.Ticker, row.StartDate, to)
		if err != nil {
			res.recordError(row.Ticker, err.Error())
			continue
		}
		total := decimal.Zero
		for _, pay := range payments {
			total = total.Add(pay.Amount)
		}
		row.DividendsPaid = total
		row.ReturnPct = recomputeRowReturn(row)
		if err := s.Repo.UpdateSnapshotPosition(ctx, &row); err != nil {
			return res, err
		}
		res.Updated++
	}

	if err := s.refreshOverallReturn(ctx, snap); err != nil {
		return res, err
	}
	if s.Logger != nil {
		s.Logger.Info("snapshot dividends populated",
			zap.String("snapshot_id", snap.ID),
			zap.Int("updated", res.Updated),
			zap.Int("errors", len(res.Errors)),
		)
	}
	return res, nil
}

// SnapshotStats is the payload of the stats endpoint: the summary plus
// band and lifecycle breakdowns for the report UI.
type SnapshotStats struct {
	SnapshotID string          `json:"snapshot_id"`
	Summary    returns.Summary `json:"summary"`
	Bands      map[string]int  `json:"bands"`
	Open       int             `json:"open"`
	Closed     int             `json:"closed"`
}

// Stats aggregates a snapshot's rows. The computed payload is also cached on
// the snapshot row best-effort; a cache write failure is logged, not returned.
func (s *SnapshotBuilderService) Stats(ctx context.Context, snapshotID string) (SnapshotStats, error) {
	out := SnapshotStats{Bands: map[string]int{}}
	if s == nil || s.Repo == nil {
		return out, nil
	}
	snap, err := s.Repo.GetSnapshotByID(ctx, snapshotID)
	if err != nil {
		return out, err
	}
	if snap == nil {
		return out, ErrSnapshotNotFound
	}
	rows, err := s.Repo.ListSnapshotPositions(ctx, snap.ID)
	if err != nil {
		return out, err
	}

	out.SnapshotID = snap.ID
	out.Summary = returns.SummarizeSnapshot(rows)
	for _, row := range rows {
		switch row.PositionStatus {
		case models.PositionStatusOpen:
			out.Open++
		case models.PositionStatusClosed:
			out.Closed++
		}
		if ret, ok := returns.FromSnapshotPosition(row); ok {
			out.Bands[string(returns.Classify(ret))]++
		}
	}

	if raw, err := json.Marshal(out); err == nil {
		snap.Stats = datatypes.JSON(raw)
		if err := s.Repo.UpdateSnapshot(ctx, snap); err != nil && s.Logger != nil {
			s.Logger.Warn("snapshot stats cache write failed",
				zap.String("snapshot_id", snap.ID),
				zap.Error(err),
			)
		}
	}
	return out, nil
}

// Delete removes a snapshot and its rows. Row deletion happens before the
// snapshot row inside one transaction since the schema has no cascade.
func (s *SnapshotBuilderService) Delete(ctx context.Context, snapshotID string) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	snap, err := s.Repo.GetSnapshotByID(ctx, snapshotID)
	if err != nil {
		return err
	}
	if snap == nil {
		return ErrSnapshotNotFound
	}
	return s.Repo.DeleteSnapshotWithPositions(ctx, snapshotID)
}

func (s *SnapshotBuilderService) refreshOverallReturn(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.Repo.ListSnapshotPositions(ctx, snap.ID)
	if err != nil {
		return err
	}
	sum := returns.SummarizeSnapshot(rows)
	avg := sum.AverageReturn.Round(4)
	snap.OverallReturnPct = &avg
	return s.Repo.UpdateSnapshot(ctx, snap)
}

func recomputeRowReturn(row models.SnapshotPosition) *decimal.Decimal {
	if ret, ok := returns.FromSnapshotPosition(row); ok {
		r := ret.Round(4)
		return &r
	}
	return nil
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
