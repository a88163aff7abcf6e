package signal

import (
	"context"
	"fmt"
	"math"
	"time"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/indicator"
	"silverSignalBot/internal/ports"
)

// TrendConfig holds the parameters of the fast trend/support-resistance pass.
// These periods are deliberately short and separate from the primary engine.
type TrendConfig struct {
	Window           int     // candles in the trend window, e.g. 48
	FastEMASpan      int     // e.g. 3
	MACDFastPeriod   int     // e.g. 6
	MACDSlowPeriod   int     // e.g. 13
	MACDSignalPeriod int     // e.g. 5
	ThresholdPct     float64 // trend label threshold in percent, e.g. 0.4
	LevelLookback    int     // candles for support/resistance, e.g. 3
	ATRWindow        int     // e.g. 10

	// Entry/exit bands around support and resistance.
	BuyNearSupportFactor  float64 // e.g. 1.03
	SellNearResistFactor  float64 // e.g. 0.97
	ShortBelowSupportFact float64 // e.g. 0.98
	ExitAboveResistFactor float64 // e.g. 1.02
}

// DefaultTrendConfig returns the production fast-pass parameters.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		Window:                48,
		FastEMASpan:           3,
		MACDFastPeriod:        6,
		MACDSlowPeriod:        13,
		MACDSignalPeriod:      5,
		ThresholdPct:          0.4,
		LevelLookback:         3,
		ATRWindow:             10,
		BuyNearSupportFactor:  1.03,
		SellNearResistFactor:  0.97,
		ShortBelowSupportFact: 0.98,
		ExitAboveResistFactor: 1.02,
	}
}

// TrendReporter produces the short-horizon TrendReport for the most recent
// trend window of a candle series.
type TrendReporter struct {
	cfg    TrendConfig
	logger ports.Logger
}

// NewTrendReporter validates the configuration and creates a reporter.
func NewTrendReporter(cfg TrendConfig, logger ports.Logger) (*TrendReporter, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for trend reporter")
	}
	if cfg.Window <= 1 || cfg.FastEMASpan <= 0 || cfg.LevelLookback <= 0 || cfg.ATRWindow <= 0 {
		return nil, fmt.Errorf("trend window parameters must be positive")
	}
	if cfg.MACDFastPeriod <= 0 || cfg.MACDSlowPeriod <= 0 || cfg.MACDSignalPeriod <= 0 {
		return nil, fmt.Errorf("fast MACD periods must be positive")
	}
	if cfg.MACDFastPeriod >= cfg.MACDSlowPeriod {
		return nil, fmt.Errorf("fast MACD fast period must be less than slow period")
	}
	if cfg.ThresholdPct <= 0 {
		return nil, fmt.Errorf("trend threshold must be positive")
	}
	return &TrendReporter{cfg: cfg, logger: logger}, nil
}

// Report evaluates the last Window candles and returns a fresh TrendReport.
// The stop-loss flags are conditioned on their companion entry flag from the
// same evaluation, not on any historical state.
func (t *TrendReporter) Report(ctx context.Context, series *domain.CandleSeries) (*domain.TrendReport, error) {
	if series == nil || series.Len() < t.cfg.Window {
		have := 0
		if series != nil {
			have = series.Len()
		}
		return nil, fmt.Errorf("%w: trend window needs %d candles, have %d",
			ports.ErrInsufficientHistory, t.cfg.Window, have)
	}

	window := series.Tail(t.cfg.Window)
	closes := window.Closes()
	highs := window.Highs()
	lows := window.Lows()
	n := len(closes)

	fastEMA := indicator.EMASpanValues(closes, t.cfg.FastEMASpan)
	macdFast := indicator.EMASpanValues(closes, t.cfg.MACDFastPeriod)
	macdSlow := indicator.EMASpanValues(closes, t.cfg.MACDSlowPeriod)
	macdLine := make([]float64, n)
	for i := range macdLine {
		macdLine[i] = macdFast[i] - macdSlow[i]
	}
	macdSignal := indicator.EMASpanValues(macdLine, t.cfg.MACDSignalPeriod)

	lastPrice := closes[n-1]
	priceChangePct := (lastPrice - closes[0]) / closes[0] * 100

	support := lows[n-t.cfg.LevelLookback]
	resistance := highs[n-t.cfg.LevelLookback]
	for i := n - t.cfg.LevelLookback + 1; i < n; i++ {
		if lows[i] < support {
			support = lows[i]
		}
		if highs[i] > resistance {
			resistance = highs[i]
		}
	}
	support = round2(support)
	resistance = round2(resistance)

	trend := domain.TrendSideways
	if priceChangePct > t.cfg.ThresholdPct {
		trend = domain.TrendBullish
	} else if priceChangePct < -t.cfg.ThresholdPct {
		trend = domain.TrendBearish
	}

	var buyFlag, sellFlag, shortFlag, exitFlag string
	if macdLine[n-1] > macdSignal[n-1] && lastPrice <= support*t.cfg.BuyNearSupportFactor {
		buyFlag = domain.FlagFastBuy
	}
	if macdLine[n-1] < macdSignal[n-1] && lastPrice >= resistance*t.cfg.SellNearResistFactor {
		sellFlag = domain.FlagFastSell
	}
	// The stop-loss flags require their companion flag set in this same pass.
	if buyFlag != "" && lastPrice < support*t.cfg.ShortBelowSupportFact {
		shortFlag = domain.FlagStopShort
	}
	if sellFlag != "" && lastPrice > resistance*t.cfg.ExitAboveResistFactor {
		exitFlag = domain.FlagStopExit
	}

	report := &domain.TrendReport{
		Trend:             trend,
		PriceChangePct:    round2(priceChangePct),
		NearestSupport:    support,
		NearestResistance: resistance,
		BuySignal:         orDefault(buyFlag, domain.NoBuySignal),
		SellSignal:        orDefault(sellFlag, domain.NoSellSignal),
		ShortSignal:       orDefault(shortFlag, domain.NoShortSignal),
		ExitSignal:        orDefault(exitFlag, domain.NoExitSignal),
		CurrentPrice:      round2(lastPrice),
		MACDLine:          round2(macdLine[n-1]),
		MACDSignal:        round2(macdSignal[n-1]),
		FastEMA:           round2(fastEMA[n-1]),
		ATR:               round2(t.volatility(highs, lows, closes)),
		GeneratedAt:       time.Now().UTC(),
	}

	t.logger.Debug(ctx, "trend report built", map[string]interface{}{
		"trend":      report.Trend,
		"change_pct": report.PriceChangePct,
		"buy":        report.BuySignal,
		"sell":       report.SellSignal,
	})
	return report, nil
}

// volatility is the simple mean of the last ATRWindow true ranges.
func (t *TrendReporter) volatility(highs, lows, closes []float64) float64 {
	n := len(closes)
	count := t.cfg.ATRWindow
	if count > n-1 {
		count = n - 1
	}
	if count <= 0 {
		return 0
	}
	sum := 0.0
	for i := n - count; i < n; i++ {
		tr := highs[i] - lows[i]
		if v := math.Abs(highs[i] - closes[i-1]); v > tr {
			tr = v
		}
		if v := math.Abs(lows[i] - closes[i-1]); v > tr {
			tr = v
		}
		sum += tr
	}
	return sum / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
