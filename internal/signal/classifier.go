package signal

import (
	"context"
	"fmt"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

// ClassifierConfig holds the thresholds for the rule-based per-candle pass.
type ClassifierConfig struct {
	TrendWindow int // trailing candles for the price-trend check, e.g. 48

	RSIBuyFloor   float64 // e.g. 50
	RSISellCeil   float64 // e.g. 55
	StochKBuy     float64 // e.g. 60
	StochDBuy     float64 // e.g. 50
	StochKSell    float64 // e.g. 50
	StochDSell    float64 // e.g. 60
	ADXFloor      float64 // e.g. 15
	DIRiseWindow  int     // lookback candles for the DI rise check, e.g. 5
	DIRiseMinFrac float64 // fractional rise, e.g. 0.10
}

// DefaultClassifierConfig returns the production rule thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		TrendWindow:   48,
		RSIBuyFloor:   50,
		RSISellCeil:   55,
		StochKBuy:     60,
		StochDBuy:     50,
		StochKSell:    50,
		StochDSell:    60,
		ADXFloor:      15,
		DIRiseWindow:  5,
		DIRiseMinFrac: 0.10,
	}
}

// Classifier applies the threshold rules to an indicator set and emits a
// discrete Buy/Sell/Hold signal per candle.
type Classifier struct {
	cfg    ClassifierConfig
	logger ports.Logger
}

// NewClassifier validates the configuration and creates a classifier.
func NewClassifier(cfg ClassifierConfig, logger ports.Logger) (*Classifier, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for classifier")
	}
	if cfg.TrendWindow <= 1 {
		return nil, fmt.Errorf("trend window must be greater than 1")
	}
	if cfg.DIRiseWindow <= 0 {
		return nil, fmt.Errorf("DI rise window must be positive")
	}
	return &Classifier{cfg: cfg, logger: logger}, nil
}

// Classify returns one signal per candle, aligned by index with the series.
// Candles inside the warm-up region, or without a full trailing trend
// window, always resolve to Hold: insufficient history never fabricates a
// Buy or Sell. The buy rules are evaluated first and the sell rules second;
// when both rule sets match, the sell result stands. That ordering is kept
// deliberately for behavioral parity with the rule table it encodes.
func (c *Classifier) Classify(ctx context.Context, series *domain.CandleSeries, set *domain.IndicatorSet) []domain.Signal {
	n := series.Len()
	signals := make([]domain.Signal, n)

	buys, sells := 0, 0
	for i := 0; i < n; i++ {
		if i < set.WarmupEnd || i < c.cfg.TrendWindow-1 {
			continue // Hold
		}
		if c.buyConditions(series, set, i) {
			signals[i] = domain.Buy
			buys++
		}
		if c.sellConditions(series, set, i) {
			if signals[i] == domain.Buy {
				buys--
			}
			signals[i] = domain.Sell
			sells++
		}
	}

	c.logger.Info(ctx, "signals generated", map[string]interface{}{
		"candles": n,
		"buy":     buys,
		"sell":    sells,
		"hold":    n - buys - sells,
	})
	return signals
}

// Latest classifies the series and returns the signal for the newest candle.
func (c *Classifier) Latest(ctx context.Context, series *domain.CandleSeries, set *domain.IndicatorSet) domain.Signal {
	signals := c.Classify(ctx, series, set)
	if len(signals) == 0 {
		return domain.Hold
	}
	return signals[len(signals)-1]
}

func (c *Classifier) buyConditions(series *domain.CandleSeries, set *domain.IndicatorSet, i int) bool {
	closeNow := series.At(i).Close
	closeThen := series.At(i - (c.cfg.TrendWindow - 1)).Close
	if closeNow <= closeThen {
		return false // no upward trailing trend
	}
	return set.EMAFast[i].LessThan(closeNow) &&
		set.EMASlow[i].LessThan(closeNow) &&
		set.MACDLine[i].Above(set.MACDSignal[i]) &&
		set.MACDLine[i].GreaterThan(0) &&
		set.RSI[i].GreaterThan(c.cfg.RSIBuyFloor) &&
		set.StochK[i].GreaterThan(c.cfg.StochKBuy) &&
		set.StochD[i].GreaterThan(c.cfg.StochDBuy) &&
		set.ADX[i].GreaterThan(c.cfg.ADXFloor) &&
		(set.PlusDI[i].Above(set.MinusDI[i]) || c.diRose(set.PlusDI, i))
}

func (c *Classifier) sellConditions(series *domain.CandleSeries, set *domain.IndicatorSet, i int) bool {
	closeNow := series.At(i).Close
	closeThen := series.At(i - (c.cfg.TrendWindow - 1)).Close
	if closeNow >= closeThen {
		return false // no downward trailing trend
	}
	return set.EMAFast[i].GreaterThan(closeNow) &&
		set.EMASlow[i].GreaterThan(closeNow) &&
		set.MACDSignal[i].Above(set.MACDLine[i]) &&
		set.MACDLine[i].LessThan(0) &&
		set.RSI[i].LessThan(c.cfg.RSISellCeil) &&
		(set.StochK[i].LessThan(c.cfg.StochKSell) || set.StochD[i].LessThan(c.cfg.StochDSell)) &&
		set.ADX[i].GreaterThan(c.cfg.ADXFloor) &&
		(set.MinusDI[i].Above(set.PlusDI[i]) || c.diRose(set.MinusDI, i))
}

// diRose reports whether the DI series rose by more than the configured
// fraction over the lookback window.
func (c *Classifier) diRose(di []domain.Point, i int) bool {
	j := i - c.cfg.DIRiseWindow
	if j < 0 || !di[i].Valid || !di[j].Valid || di[j].V == 0 {
		return false
	}
	return (di[i].V-di[j].V)/di[j].V > c.cfg.DIRiseMinFrac
}
