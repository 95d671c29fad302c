package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultChartHost  = "https://query1.finance.yahoo.com"
	defaultSearchHost = "https://query2.finance.yahoo.com"
	userAgent         = "Mozilla/5.0 (compatible; weft/1.0)"
)

// fundamental series requested from the timeseries endpoint. The "annual"
// prefix is the API's naming, stripped before storing in Financials.
var fundamentalTypes = []string{
	"annualTotalRevenue",
	"annualGrossProfit",
	"annualOperatingIncome",
	"annualNetIncome",
	"annualTotalAssets",
	"annualTotalLiabilitiesNetMinorityInterest",
	"annualFreeCashFlow",
}

// YahooClient implements DataSource against the public Yahoo Finance
// endpoints. No API key is needed, but the endpoints are rate limited, so
// callers should cache results where possible.
type YahooClient struct {
	http       *http.Client
	chartHost  string
	searchHost string
	logger     *slog.Logger
}

// YahooOption configures the client.
type YahooOption func(*YahooClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(y *YahooClient) { y.http = c }
}

// WithHosts points the client at alternate hosts. Used by tests.
func WithHosts(chartHost, searchHost string) YahooOption {
	return func(y *YahooClient) {
		y.chartHost = chartHost
		y.searchHost = searchHost
	}
}

// WithYahooLogger sets the request logger.
func WithYahooLogger(logger *slog.Logger) YahooOption {
	return func(y *YahooClient) {
		if logger != nil {
			y.logger = logger
		}
	}
}

// NewYahooClient builds a client with a 15s request timeout.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	y := &YahooClient{
		http:       &http.Client{Timeout: 15 * time.Second},
		chartHost:  defaultChartHost,
		searchHost: defaultSearchHost,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *YahooClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches one year of daily bars. Days where the exchange reported
// no close (halts, partial data) are skipped.
func (y *YahooClient) History(ctx context.Context, symbol string) ([]Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1y&interval=1d", y.chartHost, url.PathEscape(symbol))

	var payload chartResponse
	if err := y.get(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", symbol, err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	y.logger.Debug("fetched price history", "symbol", symbol, "bars", len(bars))
	return bars, nil
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
	} `json:"timeseries"`
}

type timeseriesPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue struct {
		Raw float64 `json:"raw"`
	} `json:"reportedValue"`
}

// Financials fetches annual fundamentals from the timeseries endpoint.
// Missing series are simply absent from the result, never an error.
func (y *YahooClient) Financials(ctx context.Context, symbol string) (*Financials, error) {
	now := time.Now()
	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?type=%s&period1=%d&period2=%d",
		y.chartHost,
		url.PathEscape(symbol),
		strings.Join(fundamentalTypes, ","),
		now.AddDate(-4, 0, 0).Unix(),
		now.Unix(),
	)

	var payload timeseriesResponse
	if err := y.get(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("fundamentals request for %s: %w", symbol, err)
	}

	fin := &Financials{
		Symbol:  symbol,
		Metrics: make(map[string][]float64),
	}
	periods := make(map[string]bool)

	for _, result := range payload.Timeseries.Result {
		for _, seriesType := range fundamentalTypes {
			raw, ok := result[seriesType]
			if !ok {
				continue
			}
			var points []*timeseriesPoint
			if err := json.Unmarshal(raw, &points); err != nil {
				continue
			}

			metric := strings.TrimPrefix(seriesType, "annual")
			for _, p := range points {
				if p == nil {
					continue
				}
				fin.Metrics[metric] = append(fin.Metrics[metric], p.ReportedValue.Raw)
				if !periods[p.AsOfDate] {
					periods[p.AsOfDate] = true
					fin.Periods = append(fin.Periods, p.AsOfDate)
				}
			}
		}
	}

	y.logger.Debug("fetched fundamentals", "symbol", symbol, "metrics", len(fin.Metrics))
	return fin, nil
}

type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		Summary             string `json:"summary"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// News fetches recent articles mentioning the symbol.
func (y *YahooClient) News(ctx context.Context, symbol string) ([]NewsItem, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=50&quotesCount=0", y.searchHost, url.QueryEscape(symbol))

	var payload searchResponse
	if err := y.get(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("news request for %s: %w", symbol, err)
	}

	items := make([]NewsItem, 0, len(payload.News))
	for _, n := range payload.News {
		items = append(items, NewsItem{
			Title:       n.Title,
			Publisher:   n.Publisher,
			Link:        n.Link,
			Summary:     n.Summary,
			PublishedAt: time.Unix(n.ProviderPublishTime, 0).UTC(),
		})
	}

	y.logger.Debug("fetched news", "symbol", symbol, "articles", len(items))
	return items, nil
}
