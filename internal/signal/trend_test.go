package signal

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

func newTestReporter(t *testing.T) *TrendReporter {
	t.Helper()
	r, err := NewTrendReporter(DefaultTrendConfig(), &mockLogger{})
	require.NoError(t, err)
	return r
}

func linearCloses(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestTrendReporter_InsufficientHistory(t *testing.T) {
	r := newTestReporter(t)
	series := seriesFromCloses(t, linearCloses(100, 0.1, 10))

	_, err := r.Report(context.Background(), series)
	assert.ErrorIs(t, err, ports.ErrInsufficientHistory)
}

func TestTrendReporter_BullishWindow(t *testing.T) {
	r := newTestReporter(t)
	closes := linearCloses(100, 0.05, 48)
	series := seriesFromCloses(t, closes)

	report, err := r.Report(context.Background(), series)
	require.NoError(t, err)

	assert.Equal(t, domain.TrendBullish, report.Trend)
	assert.InDelta(t, 2.35, report.PriceChangePct, 0.01)
	assert.InDelta(t, 102.35, report.CurrentPrice, 1e-9)

	// Support is the lowest low, resistance the highest high, of the last 3.
	assert.InDelta(t, closes[45]-0.5, report.NearestSupport, 1e-9)
	assert.InDelta(t, closes[47]+0.5, report.NearestResistance, 1e-9)

	// A steady climb keeps MACD above its signal near support.
	assert.Equal(t, domain.FlagFastBuy, report.BuySignal)
	assert.Equal(t, domain.NoSellSignal, report.SellSignal)
	assert.Equal(t, domain.NoShortSignal, report.ShortSignal, "price is well above the short band")
	assert.Equal(t, domain.NoExitSignal, report.ExitSignal)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestTrendReporter_BearishWindow(t *testing.T) {
	r := newTestReporter(t)
	series := seriesFromCloses(t, linearCloses(100, -0.05, 48))

	report, err := r.Report(context.Background(), series)
	require.NoError(t, err)

	assert.Equal(t, domain.TrendBearish, report.Trend)
	assert.Equal(t, domain.FlagFastSell, report.SellSignal)
	assert.Equal(t, domain.NoBuySignal, report.BuySignal)
	assert.Equal(t, domain.NoExitSignal, report.ExitSignal, "price is below the exit band")
}

func TestTrendReporter_SidewaysWindow(t *testing.T) {
	r := newTestReporter(t)
	// Alternate just enough to keep timestamps moving but the change tiny.
	closes := make([]float64, 48)
	for i := range closes {
		closes[i] = 100 + 0.01*math.Sin(float64(i))
	}
	series := seriesFromCloses(t, closes)

	report, err := r.Report(context.Background(), series)
	require.NoError(t, err)
	assert.Equal(t, domain.TrendSideways, report.Trend)
}

func TestTrendReporter_RoundsToTwoDecimals(t *testing.T) {
	r := newTestReporter(t)
	series := seriesFromCloses(t, linearCloses(100.123456, 0.0567, 48))

	report, err := r.Report(context.Background(), series)
	require.NoError(t, err)

	for name, v := range map[string]float64{
		"price_change":  report.PriceChangePct,
		"support":       report.NearestSupport,
		"resistance":    report.NearestResistance,
		"current_price": report.CurrentPrice,
		"macd_line":     report.MACDLine,
		"macd_signal":   report.MACDSignal,
		"fast_ema":      report.FastEMA,
		"atr":           report.ATR,
	} {
		assert.InDelta(t, v, math.Round(v*100)/100, 1e-9, name)
	}
}

func TestTrendReporter_UsesOnlyTrailingWindow(t *testing.T) {
	r := newTestReporter(t)

	// A long decline followed by 48 rising candles must read as bullish.
	closes := append(linearCloses(200, -1, 100), linearCloses(100, 0.05, 48)...)
	series := seriesFromCloses(t, closes)

	report, err := r.Report(context.Background(), series)
	require.NoError(t, err)
	assert.Equal(t, domain.TrendBullish, report.Trend)
	assert.InDelta(t, 102.35, report.CurrentPrice, 1e-9)
}
