// Package market fetches the raw inputs of an analysis run: historical
// prices, financial statements, and news headlines.
package market

import (
	"context"
	"time"
)

// Bar is one day of price history.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Financials holds annual statement metrics in column form: one entry per
// reporting period, most recent last.
type Financials struct {
	Symbol  string               `json:"symbol"`
	Periods []string             `json:"periods"`
	Metrics map[string][]float64 `json:"metrics"`
}

// Empty reports whether no statement data came back. Some tickers (ETFs,
// indices) have price history but no fundamentals.
func (f *Financials) Empty() bool {
	return f == nil || len(f.Metrics) == 0
}

// NewsItem is one published article about a symbol.
type NewsItem struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	Summary     string    `json:"summary"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}

// DataSource is the port through which analysis nodes obtain market data.
// The production implementation is the Yahoo client; tests use fakes.
type DataSource interface {
	// History returns up to a year of daily bars, oldest first.
	History(ctx context.Context, symbol string) ([]Bar, error)

	// Financials returns annual statement metrics for the symbol.
	Financials(ctx context.Context, symbol string) (*Financials, error)

	// News returns recent articles mentioning the symbol, unsorted.
	News(ctx context.Context, symbol string) ([]NewsItem, error)
}
