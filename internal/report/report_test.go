package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"investtrack/internal/models"
)

func dec(v string) *decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return &d
}

func sampleRows() []models.SnapshotPosition {
	closedEnd := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	name := "Apple Inc."
	return []models.SnapshotPosition{
		{
			Ticker:         "AAPL",
			CompanyName:    &name,
			StartDate:      time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			StartPrice:     dec("150"),
			EndPrice:       dec("180"),
			DividendsPaid:  decimal.Zero,
			PositionStatus: models.PositionStatusOpen,
		},
		{
			Ticker:         "GME",
			StartDate:      time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			EndDate:        &closedEnd,
			StartPrice:     dec("40"),
			EndPrice:       dec("20"),
			DividendsPaid:  decimal.Zero,
			PositionStatus: models.PositionStatusClosed,
		},
		{
			Ticker:         "NEW",
			StartDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			DividendsPaid:  decimal.Zero,
			PositionStatus: models.PositionStatusOpen,
		},
	}
}

func TestBuild_SplitsOpenAndClosed(t *testing.T) {
	snap := models.Snapshot{EndDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)}
	data := Build("Report", snap, sampleRows())

	if len(data.OpenRows) != 2 || len(data.ClosedRows) != 1 {
		t.Fatalf("open=%d closed=%d want 2/1", len(data.OpenRows), len(data.ClosedRows))
	}
	if data.Summary.TotalPositions != 3 || data.Summary.Winners != 1 || data.Summary.Losers != 1 {
		t.Fatalf("summary=%+v", data.Summary)
	}
}

func TestBuild_BandAndUnavailable(t *testing.T) {
	snap := models.Snapshot{EndDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)}
	data := Build("Report", snap, sampleRows())

	aapl := data.OpenRows[0]
	if aapl.Return != "20%" {
		t.Fatalf("return=%s want=20%%", aapl.Return)
	}
	if aapl.BandClass != "band-positive" {
		t.Fatalf("band=%s want=band-positive", aapl.BandClass)
	}

	missing := data.OpenRows[1]
	if !missing.Unavailable || missing.Return != "n/a" {
		t.Fatalf("row with no prices must render unavailable, got %+v", missing)
	}

	gme := data.ClosedRows[0]
	if gme.BandClass != "band-negative" {
		t.Fatalf("band=%s want=band-negative", gme.BandClass)
	}
}

func TestRender_SelfContainedHTML(t *testing.T) {
	snap := models.Snapshot{EndDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)}
	data := Build("My Holdings", snap, sampleRows())

	var b strings.Builder
	if err := Render(&b, data); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<style>",
		"My Holdings",
		"AAPL",
		"Apple Inc.",
		"band-positive",
		"band-negative",
		"Closed positions",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q", want)
		}
	}
	if strings.Contains(out, "href=") || strings.Contains(out, "src=") {
		t.Fatalf("report must not reference external assets")
	}
}

func TestRender_EscapesUserContent(t *testing.T) {
	notes := `<script>alert("x")</script>`
	snap := models.Snapshot{
		EndDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Notes:   &notes,
	}
	data := Build("Report", snap, nil)

	var b strings.Builder
	if err := Render(&b, data); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(b.String(), "<script>") {
		t.Fatalf("notes must be HTML-escaped")
	}
}
