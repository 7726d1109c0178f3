// Package marketdata fetches OHLCV bars from the Yahoo Finance chart API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/pkg/util"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// YahooClient implements repository.BarSource against the public chart
// endpoint. An unknown symbol yields an empty result, not an error;
// callers decide whether that is fatal.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption configures a YahooClient.
type ClientOption func(*YahooClient)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *YahooClient) { c.baseURL = u }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *YahooClient) { c.httpClient.Timeout = d }
}

// WithProxy routes requests through an HTTP proxy.
func WithProxy(proxyURL string) ClientOption {
	return func(c *YahooClient) {
		if proxyURL == "" {
			return
		}
		if u, err := url.Parse(proxyURL); err == nil {
			c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
}

// NewYahooClient creates a chart API client.
func NewYahooClient(opts ...ClientOption) *YahooClient {
	c := &YahooClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// yahooChart mirrors the chart API response. Quote arrays use pointers so
// JSON nulls (halted or unreported bars) survive as missing values.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func deref(v []*float64, i int) float64 {
	if i >= len(v) || v[i] == nil {
		return math.NaN()
	}
	return *v[i]
}

// Fetch retrieves ascending daily (or other interval) bars for the given
// lookback period. Null quote entries become NaN fields so the cleaning
// stage can repair them.
func (c *YahooClient) Fetch(ctx context.Context, symbol, period, interval string) ([]models.Bar, error) {
	if interval == "" {
		interval = "1d"
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(symbol), interval, yahooRange(period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		// The API reports unknown symbols as an in-band error.
		return nil, nil
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, models.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   deref(quote.Open, i),
			High:   deref(quote.High, i),
			Low:    deref(quote.Low, i),
			Close:  deref(quote.Close, i),
			Volume: deref(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// yahooRange maps a yfinance-style period string onto the nearest chart
// API range bucket.
func yahooRange(period string) string {
	days, err := util.PeriodDays(period)
	if err != nil {
		return "1y"
	}
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	case days <= 3650:
		return "10y"
	}
	return "max"
}
