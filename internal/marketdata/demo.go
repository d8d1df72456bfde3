package marketdata

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
)

// DemoProvider serves deterministic synthetic market data so the whole API
// works without external credentials. Prices are a function of ticker and
// date only, which keeps demo snapshots reproducible.
type DemoProvider struct{}

func NewDemoProvider() *DemoProvider {
	return &DemoProvider{}
}

func (p *DemoProvider) Quote(ctx context.Context, ticker string) (Quote, error) {
	now := time.Now().UTC()
	return Quote{
		Ticker: ticker,
		Price:  demoPrice(ticker, now),
		AsOf:   now,
	}, nil
}

func (p *DemoProvider) CloseOn(ctx context.Context, ticker string, day time.Time) (decimal.Decimal, error) {
	return demoPrice(ticker, day), nil
}

func (p *DemoProvider) Dividends(ctx context.Context, ticker string, from, to time.Time) ([]DividendPayment, error) {
	// Quarterly payer: the 15th of March, June, September, December.
	amount := demoPrice(ticker, from).Div(decimal.NewFromInt(200)).Round(2)
	var out []DividendPayment
	for y := from.Year(); y <= to.Year(); y++ {
		for _, m := range []time.Month{time.March, time.June, time.September, time.December} {
			paid := time.Date(y, m, 15, 0, 0, 0, 0, time.UTC)
			if paid.Before(from) || paid.After(to) {
				continue
			}
			out = append(out, DividendPayment{Ticker: ticker, PaymentDate: paid, Amount: amount})
		}
	}
	return out, nil
}

// demoPrice derives a stable pseudo-price: a ticker-seeded base between 20
// and 420, drifting a few cents per day.
func demoPrice(ticker string, day time.Time) decimal.Decimal {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticker))
	seed := h.Sum32()

	base := decimal.NewFromInt(int64(20 + seed%400))
	days := day.UTC().Truncate(24*time.Hour).Unix() / 86400
	drift := decimal.NewFromInt(days%200 - 100).Div(decimal.NewFromInt(50))
	price := base.Add(drift)
	if price.LessThanOrEqual(decimal.Zero) {
		price = decimal.NewFromInt(1)
	}
	return price.Round(2)
}
