package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"investtrack/internal/cache"
)

// YahooProvider reads the Yahoo Finance v8 chart API. Quotes are cached in
// the shared cache store so cron refreshes and snapshot builds do not hammer
// the endpoint.
type YahooProvider struct {
	HTTP     *http.Client
	BaseURL  string
	Cache    cache.Store
	QuoteTTL time.Duration
}

func NewYahooProvider(httpClient *http.Client, baseURL string, store cache.Store, quoteTTL time.Duration) *YahooProvider {
	if quoteTTL <= 0 {
		quoteTTL = time.Minute
	}
	return &YahooProvider{
		HTTP:     httpClient,
		BaseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Cache:    store,
		QuoteTTL: quoteTTL,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

type cachedQuote struct {
	Price string    `json:"price"`
	AsOf  time.Time `json:"as_of"`
}

func (p *YahooProvider) Quote(ctx context.Context, ticker string) (Quote, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Quote{}, ErrPriceNotFound
	}

	cacheKey := "quote:" + ticker
	if p.Cache != nil {
		if b, found, err := p.Cache.Get(ctx, cacheKey); err == nil && found {
			var cq cachedQuote
			if json.Unmarshal(b, &cq) == nil {
				if price, err := decimal.NewFromString(cq.Price); err == nil {
					return Quote{Ticker: ticker, Price: price, AsOf: cq.AsOf}, nil
				}
			}
		}
	}

	raw, err := p.fetchChart(ctx, ticker, url.Values{
		"interval": {"1m"},
		"range":    {"1d"},
	})
	if err != nil {
		return Quote{}, err
	}
	r := raw.Chart.Result[0]

	price := r.Meta.RegularMarketPrice
	asOf := time.Unix(r.Meta.RegularMarketTime, 0).UTC()

	// Fallback to the last non-zero close when meta is missing.
	if (price <= 0 || r.Meta.RegularMarketTime == 0) &&
		len(r.Timestamp) > 0 && len(r.Indicators.Quote) > 0 &&
		len(r.Indicators.Quote[0].Close) == len(r.Timestamp) {
		for i := len(r.Timestamp) - 1; i >= 0; i-- {
			if c := r.Indicators.Quote[0].Close[i]; c > 0 {
				price = c
				asOf = time.Unix(r.Timestamp[i], 0).UTC()
				break
			}
		}
	}
	if price <= 0 {
		return Quote{}, ErrPriceNotFound
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	q := Quote{Ticker: ticker, Price: decimal.NewFromFloat(price), AsOf: asOf}
	if p.Cache != nil {
		if b, err := json.Marshal(cachedQuote{Price: q.Price.String(), AsOf: q.AsOf}); err == nil {
			_ = p.Cache.Set(ctx, cacheKey, b, p.QuoteTTL)
		}
	}
	return q, nil
}

func (p *YahooProvider) CloseOn(ctx context.Context, ticker string, day time.Time) (decimal.Decimal, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return decimal.Zero, ErrPriceNotFound
	}
	day = day.UTC().Truncate(24 * time.Hour)

	// Pull a two-week window ending the day after, so weekends and holidays
	// resolve to the nearest earlier trading day.
	period2 := day.Add(24 * time.Hour)
	period1 := day.Add(-14 * 24 * time.Hour)
	raw, err := p.fetchChart(ctx, ticker, url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprintf("%d", period1.Unix())},
		"period2":  {fmt.Sprintf("%d", period2.Unix())},
	})
	if err != nil {
		return decimal.Zero, err
	}
	r := raw.Chart.Result[0]
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return decimal.Zero, ErrPriceNotFound
	}
	closes := r.Indicators.Quote[0].Close
	cutoff := day.Add(24*time.Hour - time.Second).Unix()
	for i := len(r.Timestamp) - 1; i >= 0; i-- {
		if r.Timestamp[i] > cutoff || i >= len(closes) {
			continue
		}
		if closes[i] > 0 {
			return decimal.NewFromFloat(closes[i]), nil
		}
	}
	return decimal.Zero, ErrPriceNotFound
}

func (p *YahooProvider) Dividends(ctx context.Context, ticker string, from, to time.Time) ([]DividendPayment, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, ErrNoResult
	}
	raw, err := p.fetchChart(ctx, ticker, url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprintf("%d", from.UTC().Unix())},
		"period2":  {fmt.Sprintf("%d", to.UTC().Add(24*time.Hour).Unix())},
		"events":   {"div"},
	})
	if err != nil {
		return nil, err
	}
	r := raw.Chart.Result[0]
	out := make([]DividendPayment, 0, len(r.Events.Dividends))
	for _, d := range r.Events.Dividends {
		if d.Amount <= 0 {
			continue
		}
		paid := time.Unix(d.Date, 0).UTC()
		if paid.Before(from) || paid.After(to.Add(24*time.Hour)) {
			continue
		}
		out = append(out, DividendPayment{
			Ticker:      ticker,
			PaymentDate: paid,
			Amount:      decimal.NewFromFloat(d.Amount),
		})
	}
	return out, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, ticker string, query url.Values) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.BaseURL, url.PathEscape(ticker), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "investtrack/1.0")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("marketdata: yahoo http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw.Chart.Result) == 0 {
		return nil, ErrNoResult
	}
	return &raw, nil
}

func (p *YahooProvider) httpClient() *http.Client {
	if p.HTTP != nil {
		return p.HTTP
	}
	return &http.Client{Timeout: 8 * time.Second}
}
