package indicator

import (
	"context"
	"fmt"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

// Config holds the periods for the primary indicator engine.
type Config struct {
	EMAFastPeriod int // e.g., 50
	EMASlowPeriod int // e.g., 200

	MACDFastPeriod   int // e.g., 12
	MACDSlowPeriod   int // e.g., 26
	MACDSignalPeriod int // e.g., 9

	RSIPeriod int // e.g., 14

	StochPeriod  int // e.g., 14
	StochDPeriod int // e.g., 3

	ADXPeriod int // e.g., 14
	ATRPeriod int // e.g., 14

	BollingerPeriod int     // e.g., 20
	BollingerK      float64 // e.g., 2.0
}

// DefaultConfig returns the primary engine configuration. The fast trend
// engine uses its own, much shorter periods and must not share these.
func DefaultConfig() Config {
	return Config{
		EMAFastPeriod:    50,
		EMASlowPeriod:    200,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		RSIPeriod:        14,
		StochPeriod:      14,
		StochDPeriod:     3,
		ADXPeriod:        14,
		ATRPeriod:        14,
		BollingerPeriod:  20,
		BollingerK:       2.0,
	}
}

// Engine computes the full set of derived indicator series for a candle
// series. One IndicatorSet is produced per fetch cycle and discarded after
// classification.
type Engine struct {
	cfg    Config
	logger ports.Logger
}

// NewEngine validates the configuration and creates an engine.
func NewEngine(cfg Config, logger ports.Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for indicator engine")
	}
	if cfg.EMAFastPeriod <= 0 || cfg.EMASlowPeriod <= 0 || cfg.RSIPeriod <= 0 ||
		cfg.StochPeriod <= 0 || cfg.StochDPeriod <= 0 || cfg.ADXPeriod <= 0 ||
		cfg.ATRPeriod <= 0 || cfg.BollingerPeriod <= 0 {
		return nil, fmt.Errorf("indicator periods must be positive")
	}
	if cfg.EMAFastPeriod >= cfg.EMASlowPeriod {
		return nil, fmt.Errorf("fast EMA period must be less than slow EMA period")
	}
	if cfg.MACDFastPeriod <= 0 || cfg.MACDSlowPeriod <= 0 || cfg.MACDSignalPeriod <= 0 {
		return nil, fmt.Errorf("MACD periods must be positive")
	}
	if cfg.MACDFastPeriod >= cfg.MACDSlowPeriod {
		return nil, fmt.Errorf("MACD fast period must be less than slow period")
	}
	if cfg.BollingerK <= 0 {
		return nil, fmt.Errorf("bollinger band width must be positive")
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// RequiredCandles returns the minimum series length for a full computation.
func (e *Engine) RequiredCandles() int {
	required := e.cfg.EMASlowPeriod
	candidates := []int{
		e.cfg.MACDSlowPeriod + e.cfg.MACDSignalPeriod,
		e.cfg.RSIPeriod + 1,
		e.cfg.StochPeriod + e.cfg.StochDPeriod,
		e.cfg.ADXPeriod*2 + 1,
		e.cfg.ATRPeriod + 1,
		e.cfg.BollingerPeriod,
	}
	for _, c := range candidates {
		if c > required {
			required = c
		}
	}
	return required
}

// Compute derives every indicator series for the candle series. Leading
// warm-up entries are backward-filled from the first computed value once the
// set is assembled; WarmupEnd marks where genuine values begin so that
// classification can skip the fabricated region.
func (e *Engine) Compute(ctx context.Context, series *domain.CandleSeries) (*domain.IndicatorSet, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty candle series", ports.ErrInsufficientHistory)
	}
	if required := e.RequiredCandles(); series.Len() < required {
		return nil, fmt.Errorf("%w: need %d candles, have %d", ports.ErrInsufficientHistory, required, series.Len())
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	set := &domain.IndicatorSet{
		EMAFast: emaSeries(closes, e.cfg.EMAFastPeriod),
		EMASlow: emaSeries(closes, e.cfg.EMASlowPeriod),
		RSI:     rsiSeries(closes, e.cfg.RSIPeriod),
		ATR:     atrSeries(highs, lows, closes, e.cfg.ATRPeriod),
	}

	macdFast := emaSeries(closes, e.cfg.MACDFastPeriod)
	macdSlow := emaSeries(closes, e.cfg.MACDSlowPeriod)
	set.MACDLine = subtractPoints(macdFast, macdSlow)
	set.MACDSignal = emaPoints(set.MACDLine, e.cfg.MACDSignalPeriod)

	set.StochK, set.StochD = stochSeries(highs, lows, closes, e.cfg.StochPeriod, e.cfg.StochDPeriod)
	set.ADX, set.PlusDI, set.MinusDI = adxSeries(highs, lows, closes, e.cfg.ADXPeriod)

	middle := smaSeries(closes, e.cfg.BollingerPeriod)
	dev := stddevSeries(closes, e.cfg.BollingerPeriod)
	set.BBUpper = bandPoints(middle, dev, e.cfg.BollingerK)
	set.BBLower = bandPoints(middle, dev, -e.cfg.BollingerK)

	warmup := 0
	for _, s := range [][]domain.Point{
		set.EMAFast, set.EMASlow, set.MACDLine, set.MACDSignal, set.RSI,
		set.StochK, set.StochD, set.ADX, set.PlusDI, set.MinusDI, set.ATR,
		set.BBUpper, set.BBLower,
	} {
		if first := backfill(s); first > warmup {
			warmup = first
		}
	}
	if warmup >= series.Len() {
		// A flat-range series can leave the stochastic with no values at
		// all; the set is still usable, but nothing may be classified.
		e.logger.Warn(ctx, "indicator set has no fully-computed index",
			map[string]interface{}{"candles": series.Len()})
	}
	set.WarmupEnd = warmup

	e.logger.Debug(ctx, "indicator set computed", map[string]interface{}{
		"candles": series.Len(),
		"warmup":  warmup,
	})
	return set, nil
}

func subtractPoints(a, b []domain.Point) []domain.Point {
	out := make([]domain.Point, len(a))
	for i := range a {
		if a[i].Valid && b[i].Valid {
			out[i] = domain.Value(a[i].V - b[i].V)
		}
	}
	return out
}

func bandPoints(middle, dev []domain.Point, k float64) []domain.Point {
	out := make([]domain.Point, len(middle))
	for i := range middle {
		if middle[i].Valid && dev[i].Valid {
			out[i] = domain.Value(middle[i].V + k*dev[i].V)
		}
	}
	return out
}
