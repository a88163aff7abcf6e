package binanceclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

// Client adapts the Binance futures REST API to the CandleSource port. It is
// the alternate market-data backend for symbols that trade on Binance rather
// than on a commodities feed.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration for the Binance client.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a Binance candle source. Public kline endpoints work without
// credentials, so empty keys are allowed.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for binance client")
	}
	futures.UseTestnet = cfg.UseTestnet
	return &Client{
		futuresClient: futures.NewClient(cfg.APIKey, cfg.SecretKey),
		logger:        cfg.Logger,
	}, nil
}

// intervalDuration maps a kline interval string to its bucket length.
func intervalDuration(interval string) (time.Duration, error) {
	if interval == "" {
		return 0, fmt.Errorf("empty interval")
	}
	unit := interval[len(interval)-1]
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
}

// FetchCandles retrieves lookbackDays of candles, trying each interval in
// order and returning the first non-empty series.
func (c *Client) FetchCandles(ctx context.Context, symbol string, lookbackDays int, intervals []string) (*domain.CandleSeries, error) {
	if symbol == "" || lookbackDays <= 0 || len(intervals) == 0 {
		return nil, fmt.Errorf("%w: symbol, lookback and intervals are required", ports.ErrConfigurationError)
	}

	var lastErr error
	for _, interval := range intervals {
		bucket, err := intervalDuration(interval)
		if err != nil {
			lastErr = err
			continue
		}
		limit := int(time.Duration(lookbackDays) * 24 * time.Hour / bucket)
		if limit > 1500 {
			limit = 1500
		}
		if limit < 1 {
			limit = 1
		}

		klines, err := c.futuresClient.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		if err != nil {
			c.logger.Warn(ctx, "binance kline fetch failed", map[string]interface{}{
				"symbol":   symbol,
				"interval": interval,
				"error":    err.Error(),
			})
			lastErr = err
			continue
		}
		if len(klines) == 0 {
			continue
		}

		candles := make([]domain.Candle, 0, len(klines))
		for _, k := range klines {
			candle, err := translateKline(k)
			if err != nil {
				return nil, fmt.Errorf("translating binance kline: %w", err)
			}
			candles = append(candles, candle)
		}
		series, err := domain.NewCandleSeries(candles)
		if err != nil {
			return nil, fmt.Errorf("binance returned invalid candles for %s %s: %w", symbol, interval, err)
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

func translateKline(k *futures.Kline) (domain.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing low %q: %w", k.Low, err)
	}
	closeP, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing close %q: %w", k.Close, err)
	}
	return domain.Candle{
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
	}, nil
}
