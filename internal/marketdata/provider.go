// Package marketdata fetches quotes, historical closes, and dividend
// histories for tickers. The Yahoo provider is the real one; the demo
// provider serves deterministic synthetic data when no backend is configured.
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceNotFound = errors.New("marketdata: price not found")
	ErrNoResult      = errors.New("marketdata: no result")
)

type Quote struct {
	Ticker string
	Price  decimal.Decimal
	AsOf   time.Time
}

type DividendPayment struct {
	Ticker      string
	PaymentDate time.Time
	Amount      decimal.Decimal
}

// Provider is the external market-data surface the snapshot builder and the
// price-refresh job depend on.
type Provider interface {
	// Quote returns the latest price for a ticker.
	Quote(ctx context.Context, ticker string) (Quote, error)
	// CloseOn returns the daily close for the given date, falling back to the
	// nearest earlier trading day within the lookback the provider allows.
	CloseOn(ctx context.Context, ticker string, day time.Time) (decimal.Decimal, error)
	// Dividends lists dividend payments in [from, to].
	Dividends(ctx context.Context, ticker string, from, to time.Time) ([]DividendPayment, error)
}
