package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"investtrack/internal/models"
	memoryrepository "investtrack/internal/repository/memory"
	"investtrack/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memoryrepository.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := memoryrepository.New()
	r := gin.New()

	positions := &PositionHandler{
		Repo:    repo,
		Service: &service.PositionService{Repo: repo},
	}
	positions.Register(r)

	snapshots := &SnapshotHandler{
		Repo:    repo,
		Builder: &service.SnapshotBuilderService{Repo: repo},
	}
	snapshots.Register(r)

	settings := &SettingsHandler{Service: &service.SettingsService{Repo: repo}}
	settings.Register(r)

	profile := &ProfileHandler{Repo: repo}
	profile.Register(r)
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v body=%s", err, w.Body.String())
		}
	}
}

func TestPositionCRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/positions", `{
		"ticker": "aapl",
		"start_date": "2025-01-02",
		"start_price": "150",
		"end_price": "180"
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var created models.Position
	decodeData(t, w, &created)
	if created.Ticker != "AAPL" {
		t.Fatalf("ticker=%s want=AAPL (uppercased)", created.Ticker)
	}
	if created.ID == "" {
		t.Fatalf("id must be assigned")
	}

	w = doJSON(t, r, http.MethodGet, "/api/positions/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	var view struct {
		models.Position
		CurrentReturnPct *decimal.Decimal `json:"current_return_pct"`
	}
	decodeData(t, w, &view)
	if view.CurrentReturnPct == nil || view.CurrentReturnPct.Cmp(decimal.NewFromInt(20)) != 0 {
		t.Fatalf("current_return_pct=%v want=20", view.CurrentReturnPct)
	}

	w = doJSON(t, r, http.MethodPut, "/api/positions/"+created.ID, `{"status": "closed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", w.Code, w.Body.String())
	}
	var updated models.Position
	decodeData(t, w, &updated)
	if updated.Status != models.PositionStatusClosed {
		t.Fatalf("status=%s want=closed", updated.Status)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/positions/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/positions/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d want=404", w.Code)
	}
}

func TestPositionValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing ticker", `{"start_date": "2025-01-02"}`},
		{"missing start_date", `{"ticker": "AAPL"}`},
		{"bad start_date", `{"ticker": "AAPL", "start_date": "Jan 2"}`},
		{"bad status", `{"ticker": "AAPL", "start_date": "2025-01-02", "status": "paused"}`},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/positions", tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want=400 body=%s", tc.name, w.Code, w.Body.String())
		}
	}
}

func TestPositionListStatusFilter(t *testing.T) {
	r, repo := newTestRouter(t)
	ctx := context.Background()
	for _, p := range []models.Position{
		{Ticker: "A", StartDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Status: models.PositionStatusOpen},
		{Ticker: "B", StartDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Status: models.PositionStatusClosed},
	} {
		item := p
		if err := repo.CreatePosition(ctx, &item); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	var views []json.RawMessage
	w := doJSON(t, r, http.MethodGet, "/api/positions?status=open", "")
	decodeData(t, w, &views)
	if len(views) != 1 {
		t.Fatalf("open filter returned %d rows, want 1", len(views))
	}

	w = doJSON(t, r, http.MethodGet, "/api/positions?status=all", "")
	decodeData(t, w, &views)
	if len(views) != 2 {
		t.Fatalf("all filter returned %d rows, want 2", len(views))
	}
}

func TestPositionListOrdering(t *testing.T) {
	r, repo := newTestRouter(t)
	ctx := context.Background()
	for i, ticker := range []string{"B", "A", "C"} {
		item := models.Position{
			Ticker:    ticker,
			StartDate: time.Date(2025, 1, 2+i, 0, 0, 0, 0, time.UTC),
			Status:    models.PositionStatusOpen,
		}
		if err := repo.CreatePosition(ctx, &item); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tickers := func(w *httptest.ResponseRecorder) []string {
		var views []struct {
			Ticker string `json:"ticker"`
		}
		decodeData(t, w, &views)
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Ticker)
		}
		return out
	}

	got := tickers(doJSON(t, r, http.MethodGet, "/api/positions?order_by=ticker&ascending=true", ""))
	if len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Fatalf("ticker asc order=%v want=[A B C]", got)
	}

	got = tickers(doJSON(t, r, http.MethodGet, "/api/positions?order_by=ticker", ""))
	if len(got) != 3 || got[0] != "C" {
		t.Fatalf("ticker desc order=%v want C first", got)
	}

	// Default ordering: newest start_date first.
	got = tickers(doJSON(t, r, http.MethodGet, "/api/positions", ""))
	if len(got) != 3 || got[0] != "C" || got[2] != "B" {
		t.Fatalf("default order=%v want=[C A B]", got)
	}
}

func TestDividendEndpoints(t *testing.T) {
	r, repo := newTestRouter(t)
	ctx := context.Background()
	pos := models.Position{Ticker: "KO", StartDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Status: models.PositionStatusOpen}
	if err := repo.CreatePosition(ctx, &pos); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/positions/"+pos.ID+"/dividends", `{"payment_date": "2025-03-15", "amount": "0.46"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("record status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/positions/"+pos.ID+"/dividends", `{"payment_date": "2025-03-15", "amount": "-1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative amount status=%d want=400", w.Code)
	}

	var items []models.Dividend
	w = doJSON(t, r, http.MethodGet, "/api/positions/"+pos.ID+"/dividends", "")
	decodeData(t, w, &items)
	if len(items) != 1 {
		t.Fatalf("dividends=%d want=1", len(items))
	}
}

func TestSnapshotEndpoints(t *testing.T) {
	r, repo := newTestRouter(t)
	ctx := context.Background()
	start := decimal.NewFromInt(100)
	end := decimal.NewFromInt(120)
	pos := models.Position{
		Ticker:     "VTI",
		StartDate:  time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		StartPrice: &start,
		EndPrice:   &end,
		Status:     models.PositionStatusOpen,
	}
	if err := repo.CreatePosition(ctx, &pos); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/snapshots", `{"end_date": "2025-06-30", "name": "H1 review"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var snap models.Snapshot
	decodeData(t, w, &snap)

	var detail struct {
		models.Snapshot
		Positions []models.SnapshotPosition `json:"positions"`
	}
	w = doJSON(t, r, http.MethodGet, "/api/snapshots/"+snap.ID, "")
	decodeData(t, w, &detail)
	if len(detail.Positions) != 1 {
		t.Fatalf("positions=%d want=1", len(detail.Positions))
	}

	w = doJSON(t, r, http.MethodGet, "/api/snapshots/"+snap.ID+"/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status=%d body=%s", w.Code, w.Body.String())
	}
	var stats service.SnapshotStats
	decodeData(t, w, &stats)
	if stats.Summary.TotalPositions != 1 || stats.Summary.Winners != 1 {
		t.Fatalf("stats=%+v", stats)
	}

	w = doJSON(t, r, http.MethodGet, "/api/snapshots/"+snap.ID+"/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("report status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type=%s want text/html", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("content-disposition=%s want attachment", cd)
	}
	if !strings.Contains(w.Body.String(), "VTI") {
		t.Fatalf("report body missing ticker")
	}

	w = doJSON(t, r, http.MethodDelete, "/api/snapshots/"+snap.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/snapshots/"+snap.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d want=404", w.Code)
	}
}

func TestSnapshotNotFoundActions(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, path := range []string{
		"/api/snapshots/missing/fetch-prices",
		"/api/snapshots/missing/populate-dividends",
	} {
		w := doJSON(t, r, http.MethodPost, path, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s status=%d want=404", path, w.Code)
		}
	}
}

func TestSettingsEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/settings/feature.price_refresh", `{"value": "false"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", w.Code, w.Body.String())
	}

	var items []models.Setting
	w = doJSON(t, r, http.MethodGet, "/api/settings", "")
	decodeData(t, w, &items)
	if len(items) != 1 || items[0].Key != "feature.price_refresh" || items[0].Value != "false" {
		t.Fatalf("settings=%+v", items)
	}
}

func TestProfileEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	// Reads before any write return the implicit default profile.
	var prof models.Profile
	w := doJSON(t, r, http.MethodGet, "/api/profile", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	decodeData(t, w, &prof)
	if prof.BaseCCY != "USD" {
		t.Fatalf("base_ccy=%s want=USD", prof.BaseCCY)
	}

	w = doJSON(t, r, http.MethodPut, "/api/profile", `{"display_name": "Jo", "base_ccy": "eur"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", w.Code, w.Body.String())
	}
	decodeData(t, w, &prof)
	if prof.BaseCCY != "EUR" || prof.DisplayName == nil || *prof.DisplayName != "Jo" {
		t.Fatalf("profile=%+v", prof)
	}

	w = doJSON(t, r, http.MethodPut, "/api/profile", `{"base_ccy": "euros"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad ccy status=%d want=400", w.Code)
	}
}
