package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"investtrack/internal/marketdata"
	"investtrack/internal/models"
	memoryrepository "investtrack/internal/repository/memory"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// stubProvider serves canned prices and dividends keyed by ticker.
type stubProvider struct {
	prices    map[string]decimal.Decimal
	dividends map[string][]marketdata.DividendPayment
	failing   map[string]bool
}

func (p *stubProvider) Quote(ctx context.Context, ticker string) (marketdata.Quote, error) {
	if p.failing[ticker] {
		return marketdata.Quote{}, errors.New("provider down")
	}
	price, ok := p.prices[ticker]
	if !ok {
		return marketdata.Quote{}, marketdata.ErrPriceNotFound
	}
	return marketdata.Quote{Ticker: ticker, Price: price, AsOf: time.Now().UTC()}, nil
}

func (p *stubProvider) CloseOn(ctx context.Context, ticker string, dayArg time.Time) (decimal.Decimal, error) {
	if p.failing[ticker] {
		return decimal.Zero, errors.New("provider down")
	}
	price, ok := p.prices[ticker]
	if !ok {
		return decimal.Zero, marketdata.ErrPriceNotFound
	}
	return price, nil
}

func (p *stubProvider) Dividends(ctx context.Context, ticker string, from, to time.Time) ([]marketdata.DividendPayment, error) {
	if p.failing[ticker] {
		return nil, errors.New("provider down")
	}
	return p.dividends[ticker], nil
}

func seedPosition(t *testing.T, repo *memoryrepository.Store, p models.Position) models.Position {
	t.Helper()
	if err := repo.CreatePosition(context.Background(), &p); err != nil {
		t.Fatalf("seed position: %v", err)
	}
	return p
}

func TestSnapshotCreate_FreezesOverrideResolvedPrices(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	seedPosition(t, repo, models.Position{
		Ticker:             "AAPL",
		StartDate:          day(2025, 1, 2),
		StartPrice:         decPtr("100"),
		StartPriceOverride: decPtr("150"),
		EndPrice:           decPtr("200"),
		Status:             models.PositionStatusOpen,
	})

	svc := &SnapshotBuilderService{Repo: repo, Market: &stubProvider{}}
	snap, err := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap.Status != models.SnapshotStatusPending {
		t.Fatalf("status=%s want=pending", snap.Status)
	}

	rows, err := repo.ListSnapshotPositions(ctx, snap.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows=%d err=%v want 1 row", len(rows), err)
	}
	row := rows[0]
	if row.StartPrice == nil || row.StartPrice.Cmp(dec("150")) != 0 {
		t.Fatalf("frozen start must be the override, got %v", row.StartPrice)
	}
	if row.ReturnPct == nil {
		t.Fatalf("return must be precomputed when prices are present")
	}
	// (200-150)/150*100 rounded to 4 places.
	if row.ReturnPct.Cmp(dec("33.3333")) != 0 {
		t.Fatalf("return=%s want=33.3333", row.ReturnPct.String())
	}
}

func TestSnapshotCreate_FrozenRowsSurvivePositionEdits(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	pos := seedPosition(t, repo, models.Position{
		Ticker:     "MSFT",
		StartDate:  day(2025, 1, 2),
		StartPrice: decPtr("300"),
		EndPrice:   decPtr("330"),
		Status:     models.PositionStatusOpen,
	})

	svc := &SnapshotBuilderService{Repo: repo, Market: &stubProvider{}}
	snap, err := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pos.StartPrice = decPtr("1")
	if err := repo.UpdatePosition(ctx, &pos); err != nil {
		t.Fatalf("edit position: %v", err)
	}

	rows, _ := repo.ListSnapshotPositions(ctx, snap.ID)
	if rows[0].StartPrice.Cmp(dec("300")) != 0 {
		t.Fatalf("snapshot row changed after position edit: %s", rows[0].StartPrice.String())
	}
}

func TestFetchPrices_FillsMissingAndMarksReady(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	seedPosition(t, repo, models.Position{
		Ticker:    "VTI",
		StartDate: day(2025, 1, 2),
		Status:    models.PositionStatusOpen,
	})
	provider := &stubProvider{prices: map[string]decimal.Decimal{"VTI": dec("250")}}
	svc := &SnapshotBuilderService{Repo: repo, Market: provider}

	snap, err := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := svc.FetchPrices(ctx, snap.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Updated != 1 || len(res.Errors) != 0 {
		t.Fatalf("res=%+v want 1 update, 0 errors", res)
	}

	got, _ := repo.GetSnapshotByID(ctx, snap.ID)
	if got.Status != models.SnapshotStatusReady {
		t.Fatalf("status=%s want=ready", got.Status)
	}
	if got.OverallReturnPct == nil {
		t.Fatalf("overall return must be set after fetch")
	}
	rows, _ := repo.ListSnapshotPositions(ctx, snap.ID)
	if rows[0].StartPrice == nil || rows[0].EndPrice == nil {
		t.Fatalf("prices not backfilled: %+v", rows[0])
	}
}

func TestFetchPrices_PartialFailureStillUpdatesOthers(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	seedPosition(t, repo, models.Position{
		Ticker: "GOOD", StartDate: day(2025, 1, 2), Status: models.PositionStatusOpen,
	})
	seedPosition(t, repo, models.Position{
		Ticker: "BAD", StartDate: day(2025, 1, 2), Status: models.PositionStatusOpen,
	})
	provider := &stubProvider{
		prices:  map[string]decimal.Decimal{"GOOD": dec("10")},
		failing: map[string]bool{"BAD": true},
	}
	svc := &SnapshotBuilderService{Repo: repo, Market: provider}

	snap, _ := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	res, err := svc.FetchPrices(ctx, snap.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Updated != 1 {
		t.Fatalf("updated=%d want=1", res.Updated)
	}
	if res.Errors["BAD"] == "" {
		t.Fatalf("expected error recorded for BAD, got %+v", res.Errors)
	}
	// Both the start and end close failed for BAD; neither message may be lost.
	if !strings.Contains(res.Errors["BAD"], "start close") || !strings.Contains(res.Errors["BAD"], "end close") {
		t.Fatalf("error for BAD should carry both fetch failures, got %q", res.Errors["BAD"])
	}
}

func TestFetchPrices_TotalFailureLeavesSnapshotPending(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	seedPosition(t, repo, models.Position{
		Ticker: "BAD", StartDate: day(2025, 1, 2), Status: models.PositionStatusOpen,
	})
	provider := &stubProvider{failing: map[string]bool{"BAD": true}}
	svc := &SnapshotBuilderService{Repo: repo, Market: provider}

	snap, _ := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	res, err := svc.FetchPrices(ctx, snap.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Updated != 0 || len(res.Errors) != 1 {
		t.Fatalf("res=%+v want 0 updates, 1 errored ticker", res)
	}
	got, _ := repo.GetSnapshotByID(ctx, snap.ID)
	if got.Status != models.SnapshotStatusPending {
		t.Fatalf("status=%s want=pending after a pass with no progress", got.Status)
	}
}

func TestFetchPrices_UnknownSnapshot(t *testing.T) {
	svc := &SnapshotBuilderService{Repo: memoryrepository.New(), Market: &stubProvider{}}
	if _, err := svc.FetchPrices(context.Background(), "missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("err=%v want=ErrSnapshotNotFound", err)
	}
}

func TestPopulateDividends_OverwritesNotAccumulates(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	seedPosition(t, repo, models.Position{
		Ticker:     "KO",
		StartDate:  day(2025, 1, 2),
		StartPrice: decPtr("100"),
		EndPrice:   decPtr("110"),
		Status:     models.PositionStatusOpen,
	})
	provider := &stubProvider{
		prices: map[string]decimal.Decimal{"KO": dec("110")},
		dividends: map[string][]marketdata.DividendPayment{
			"KO": {
				{Ticker: "KO", PaymentDate: day(2025, 3, 15), Amount: dec("2")},
				{Ticker: "KO", PaymentDate: day(2025, 6, 15), Amount: dec("3")},
			},
		},
	}
	svc := &SnapshotBuilderService{Repo: repo, Market: provider}

	snap, _ := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	if _, err := svc.PopulateDividends(ctx, snap.ID); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if _, err := svc.PopulateDividends(ctx, snap.ID); err != nil {
		t.Fatalf("populate again: %v", err)
	}

	rows, _ := repo.ListSnapshotPositions(ctx, snap.ID)
	if rows[0].DividendsPaid.Cmp(dec("5")) != 0 {
		t.Fatalf("dividends=%s want=5 (idempotent)", rows[0].DividendsPaid.String())
	}
	// ((110+5)-100)/100*100 = 15
	if rows[0].ReturnPct == nil || rows[0].ReturnPct.Cmp(dec("15")) != 0 {
		t.Fatalf("return=%v want=15", rows[0].ReturnPct)
	}
}

func TestStats_CountsBandsAndLifecycle(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	seedPosition(t, repo, models.Position{
		Ticker: "WIN", StartDate: day(2025, 1, 2),
		StartPrice: decPtr("100"), EndPrice: decPtr("120"),
		Status: models.PositionStatusOpen,
	})
	seedPosition(t, repo, models.Position{
		Ticker: "LOSS", StartDate: day(2025, 1, 2),
		StartPrice: decPtr("100"), EndPrice: decPtr("80"),
		Status: models.PositionStatusClosed,
	})
	svc := &SnapshotBuilderService{Repo: repo, Market: &stubProvider{}}

	snap, _ := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	stats, err := svc.Stats(ctx, snap.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Summary.TotalPositions != 2 || stats.Summary.Winners != 1 || stats.Summary.Losers != 1 {
		t.Fatalf("summary=%+v", stats.Summary)
	}
	if stats.Open != 1 || stats.Closed != 1 {
		t.Fatalf("open=%d closed=%d want 1/1", stats.Open, stats.Closed)
	}
	if stats.Bands["positive"] != 1 || stats.Bands["negative"] != 1 {
		t.Fatalf("bands=%+v", stats.Bands)
	}

	// The payload is cached on the snapshot row.
	got, _ := repo.GetSnapshotByID(ctx, snap.ID)
	if len(got.Stats) == 0 {
		t.Fatalf("stats blob not cached")
	}
}

func TestSnapshotDelete_RemovesRowsAndSnapshot(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	seedPosition(t, repo, models.Position{
		Ticker: "X", StartDate: day(2025, 1, 2), Status: models.PositionStatusOpen,
	})
	svc := &SnapshotBuilderService{Repo: repo, Market: &stubProvider{}}

	snap, _ := svc.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})
	if err := svc.Delete(ctx, snap.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := repo.GetSnapshotByID(ctx, snap.ID)
	if got != nil {
		t.Fatalf("snapshot still present after delete")
	}
	rows, _ := repo.ListSnapshotPositions(ctx, snap.ID)
	if len(rows) != 0 {
		t.Fatalf("rows=%d want=0 after delete", len(rows))
	}
}

func TestPositionDelete_LeavesSnapshotHistoryAlone(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	pos := seedPosition(t, repo, models.Position{
		Ticker: "AAPL", StartDate: day(2025, 1, 2),
		StartPrice: decPtr("150"), EndPrice: decPtr("180"),
		Status: models.PositionStatusOpen,
	})
	builder := &SnapshotBuilderService{Repo: repo, Market: &stubProvider{}}
	snap, _ := builder.Create(ctx, CreateSnapshotOptions{EndDate: day(2025, 6, 30)})

	positions := &PositionService{Repo: repo, Market: &stubProvider{}}
	if err := positions.Delete(ctx, pos.ID); err != nil {
		t.Fatalf("delete position: %v", err)
	}

	rows, _ := repo.ListSnapshotPositions(ctx, snap.ID)
	if len(rows) != 1 {
		t.Fatalf("snapshot history must survive position deletion, rows=%d", len(rows))
	}
}

func TestRecordDividend_Validation(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	pos := seedPosition(t, repo, models.Position{
		Ticker: "T", StartDate: day(2025, 1, 2), Status: models.PositionStatusOpen,
	})
	svc := &PositionService{Repo: repo, Market: &stubProvider{}}

	if _, err := svc.RecordDividend(ctx, pos.ID, day(2025, 3, 1), dec("0")); !errors.Is(err, ErrInvalidDividend) {
		t.Fatalf("zero amount must be rejected, err=%v", err)
	}
	if _, err := svc.RecordDividend(ctx, "missing", day(2025, 3, 1), dec("1")); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("unknown position must be rejected, err=%v", err)
	}
	item, err := svc.RecordDividend(ctx, pos.ID, day(2025, 3, 1), dec("1.25"))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if item.Ticker != "T" {
		t.Fatalf("ticker=%s want=T", item.Ticker)
	}
}

func TestRefreshOpenPrices_RespectsOverridesAndFlag(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	withOverride := seedPosition(t, repo, models.Position{
		Ticker: "OVR", StartDate: day(2025, 1, 2),
		StartPrice:       decPtr("10"),
		EndPriceOverride: decPtr("99"),
		Status:           models.PositionStatusOpen,
	})
	plain := seedPosition(t, repo, models.Position{
		Ticker: "PLN", StartDate: day(2025, 1, 2),
		StartPrice: decPtr("10"),
		Status:     models.PositionStatusOpen,
	})
	provider := &stubProvider{prices: map[string]decimal.Decimal{"OVR": dec("50"), "PLN": dec("20")}}
	flags := &SettingsService{Repo: repo}
	svc := &PositionService{Repo: repo, Market: provider, Flags: flags}

	if err := svc.RefreshOpenPrices(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, _ := repo.GetPositionByID(ctx, withOverride.ID)
	if got.EndPrice != nil {
		t.Fatalf("override position must not be refreshed, end=%v", got.EndPrice)
	}
	got, _ = repo.GetPositionByID(ctx, plain.ID)
	if got.EndPrice == nil || got.EndPrice.Cmp(dec("20")) != 0 {
		t.Fatalf("plain position must be refreshed, end=%v", got.EndPrice)
	}

	// Disable the switch; a further refresh must be a no-op.
	if err := repo.UpsertSetting(ctx, FeaturePriceRefresh, "false"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	provider.prices["PLN"] = dec("999")
	if err := svc.RefreshOpenPrices(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got, _ = repo.GetPositionByID(ctx, plain.ID)
	if got.EndPrice.Cmp(dec("20")) != 0 {
		t.Fatalf("disabled refresh must not change prices, end=%s", got.EndPrice.String())
	}
}

func TestLiveSummary_IncludesDividends(t *testing.T) {
	repo := memoryrepository.New()
	ctx := context.Background()
	pos := seedPosition(t, repo, models.Position{
		Ticker: "DIV", StartDate: day(2025, 1, 2),
		StartPrice: decPtr("100"), EndPrice: decPtr("110"),
		Status: models.PositionStatusOpen,
	})
	svc := &PositionService{Repo: repo, Market: &stubProvider{}}
	if _, err := svc.RecordDividend(ctx, pos.ID, day(2025, 3, 1), dec("5")); err != nil {
		t.Fatalf("record: %v", err)
	}

	sum, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalPositions != 1 || sum.Winners != 1 {
		t.Fatalf("summary=%+v", sum)
	}
	if sum.TotalDividends.Cmp(dec("5")) != 0 {
		t.Fatalf("dividends=%s want=5", sum.TotalDividends.String())
	}
	// ((110+5)-100)/100*100 = 15
	if sum.AverageReturn.Cmp(dec("15")) != 0 {
		t.Fatalf("avg=%s want=15", sum.AverageReturn.String())
	}
}
