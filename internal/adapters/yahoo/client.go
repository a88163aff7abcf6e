package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

const chartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s"

// Client fetches OHLC candles from the Yahoo Finance chart API.
type Client struct {
	httpClient *http.Client
	logger     ports.Logger
}

// Config holds settings for the Yahoo client.
type Config struct {
	Timeout time.Duration // HTTP timeout, defaults to 30s
	Logger  ports.Logger
}

// New creates a Yahoo Finance candle source.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for yahoo client")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// chartResponse is the subset of the Yahoo chart payload we consume.
// Quote arrays use interface{} because Yahoo encodes missing bars as null.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []interface{} `json:"open"`
					High  []interface{} `json:"high"`
					Low   []interface{} `json:"low"`
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// FetchCandles tries each interval in order and returns the first non-empty
// series. All intervals empty maps to ports.ErrDataUnavailable.
func (c *Client) FetchCandles(ctx context.Context, symbol string, lookbackDays int, intervals []string) (*domain.CandleSeries, error) {
	if symbol == "" || lookbackDays <= 0 || len(intervals) == 0 {
		return nil, fmt.Errorf("%w: symbol, lookback and intervals are required", ports.ErrConfigurationError)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)

	var lastErr error
	for _, interval := range intervals {
		candles, err := c.fetchChart(ctx, symbol, interval, start, end)
		if err != nil {
			c.logger.Warn(ctx, "yahoo interval fetch failed", map[string]interface{}{
				"symbol":   symbol,
				"interval": interval,
				"error":    err.Error(),
			})
			lastErr = err
			continue
		}
		if len(candles) == 0 {
			c.logger.Warn(ctx, "yahoo interval returned no candles", map[string]interface{}{
				"symbol":   symbol,
				"interval": interval,
			})
			continue
		}
		series, err := domain.NewCandleSeries(candles)
		if err != nil {
			return nil, fmt.Errorf("yahoo returned invalid candles for %s %s: %w", symbol, interval, err)
		}
		c.logger.Info(ctx, "candles fetched", map[string]interface{}{
			"symbol":   symbol,
			"interval": interval,
			"count":    series.Len(),
		})
		return series, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrDataUnavailable, lastErr)
	}
	return nil, fmt.Errorf("%w: no candles for %s in any interval", ports.ErrDataUnavailable, symbol)
}

func (c *Client) fetchChart(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Candle, error) {
	u := fmt.Sprintf(chartURL, url.PathEscape(symbol), start.Unix(), end.Unix(), url.QueryEscape(interval))

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
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	candles := make([]domain.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		o, okO := toFloat(quote.Open[i])
		h, okH := toFloat(quote.High[i])
		l, okL := toFloat(quote.Low[i])
		cl, okC := toFloat(quote.Close[i])
		if !okO || !okH || !okL || !okC {
			continue // null bar (market holiday, partial interval)
		}
		candles = append(candles, domain.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     cl,
		})
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	return candles, nil
}
