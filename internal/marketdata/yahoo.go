// Package marketdata fetches daily price history and quotes from the Yahoo
// Finance chart API, with an optional Redis response cache and a database
// fallback.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trogers1052/stock-tracker/internal/models"
)

// ErrNoData is returned for unknown symbols, empty results and upstream failures
var ErrNoData = errors.New("no data available")

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Periods accepted by the chart API's range parameter
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidPeriod reports whether period is one of Periods
func ValidPeriod(period string) bool {
	for _, p := range Periods {
		if p == period {
			return true
		}
	}
	return false
}

// ResponseCache stores raw chart responses by request key
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Client implements Fetcher against the Yahoo Finance chart API v8
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      ResponseCache
	symbolMap  map[string]string
}

// NewClient creates a chart API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		symbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"SPX500": "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
		},
	}
}

// WithCache makes the client consult cache before calling upstream
func (c *Client) WithCache(cache ResponseCache) *Client {
	c.cache = cache
	return c
}

func (c *Client) yahooSymbol(symbol string) string {
	if mapped, ok := c.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency           string   `json:"currency"`
		Symbol             string   `json:"symbol"`
		ExchangeName       string   `json:"exchangeName"`
		FullExchangeName   string   `json:"fullExchangeName"`
		LongName           string   `json:"longName"`
		ShortName          string   `json:"shortName"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64    `json:"regularMarketTime"`
		ChartPreviousClose *float64 `json:"chartPreviousClose"`
		PreviousClose      *float64 `json:"previousClose"`
		GMTOffset          int64    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchHistory returns daily bars covering period (see Periods)
func (c *Client) FetchHistory(ctx context.Context, symbol, period string) (*models.PriceSeries, error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("unsupported period %q", period)
	}
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", period)
	params.Set("includeAdjustedClose", "true")

	result, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	return toSeries(symbol, result)
}

// FetchHistoryRange returns daily bars between start and end, inclusive
func (c *Client) FetchHistoryRange(ctx context.Context, symbol string, start, end time.Time) (*models.PriceSeries, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("end %s is not after start %s", end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive upstream
	params.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	params.Set("includeAdjustedClose", "true")

	result, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	return toSeries(symbol, result)
}

// FetchQuote returns the latest price and the previous session's close
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "5d")

	result, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	series, seriesErr := toSeries(symbol, result)
	meta := result.Meta

	q := &models.Quote{
		Symbol:   symbol,
		Name:     meta.LongName,
		Exchange: meta.FullExchangeName,
		Currency: meta.Currency,
	}
	if q.Name == "" {
		q.Name = meta.ShortName
	}
	if q.Exchange == "" {
		q.Exchange = meta.ExchangeName
	}

	switch {
	case meta.RegularMarketPrice != nil:
		q.Price = *meta.RegularMarketPrice
		q.Time = time.Unix(meta.RegularMarketTime, 0).UTC()
	case seriesErr == nil:
		last, _ := series.Last()
		q.Price = last.Close
		q.Time = last.Time
	default:
		return nil, fmt.Errorf("no price for %s: %w", symbol, ErrNoData)
	}

	switch {
	case seriesErr == nil && series.Len() >= 2:
		q.PreviousClose = series.Bars[series.Len()-2].Close
	case meta.PreviousClose != nil:
		q.PreviousClose = *meta.PreviousClose
	case meta.ChartPreviousClose != nil:
		q.PreviousClose = *meta.ChartPreviousClose
	}
	return q, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, params url.Values) (*chartResult, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(c.yahooSymbol(symbol)), params.Encode())

	body, cached := c.cached(ctx, u)
	if !cached {
		var err error
		body, err = c.get(ctx, u)
		if err != nil {
			return nil, err
		}
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, chart.Chart.Error.Description, ErrNoData)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: empty result: %w", symbol, ErrNoData)
	}

	if !cached && c.cache != nil {
		if err := c.cache.Set(ctx, u, body); err != nil {
			slog.Warn("failed to cache chart response", "symbol", symbol, "error", err)
		}
	}
	return &chart.Chart.Result[0], nil
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("chart cache read failed", "error", err)
		return nil, false
	}
	return body, ok
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %v: %w", err, ErrNoData)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %v: %w", err, ErrNoData)
	}
	if resp.StatusCode == http.StatusNotFound {
		// unknown symbols come back as 404 with a chart.error body
		return body, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d: %w", resp.StatusCode, ErrNoData)
	}
	return body, nil
}

func toSeries(symbol string, result *chartResult) (*models.PriceSeries, error) {
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no bars: %w", symbol, ErrNoData)
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]models.Bar, 0, len(result.Timestamp))
	seen := make(map[time.Time]int, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice, ok := at(quote.Close, i)
		if !ok {
			// holidays and halted sessions come back as null rows
			continue
		}
		bar := models.Bar{
			Time:  sessionDate(ts, result.Meta.GMTOffset),
			Close: closePrice,
		}
		bar.Open = orDefault(quote.Open, i, closePrice)
		bar.High = orDefault(quote.High, i, closePrice)
		bar.Low = orDefault(quote.Low, i, closePrice)
		bar.AdjClose = orDefault(adj, i, closePrice)
		if v, ok := at(quote.Volume, i); ok {
			bar.Volume = int64(v)
		}

		// the live session can repeat the last daily row
		if j, dup := seen[bar.Time]; dup {
			bars[j] = bar
			continue
		}
		seen[bar.Time] = len(bars)
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: no bars: %w", symbol, ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return &models.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

func sessionDate(ts, gmtOffset int64) time.Time {
	local := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

func orDefault(values []*float64, i int, def float64) float64 {
	if v, ok := at(values, i); ok {
		return v
	}
	return def
}
