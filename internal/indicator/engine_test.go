package indicator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func seriesFromCloses(t *testing.T, closes []float64) *domain.CandleSeries {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = domain.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
		}
	}
	s, err := domain.NewCandleSeries(candles)
	require.NoError(t, err)
	return s
}

func TestEMASeries(t *testing.T) {
	out := emaSeries([]float64{1, 2, 3, 4}, 2)

	assert.False(t, out[0].Valid, "entries before period-1 are warm-up")
	require.True(t, out[1].Valid)
	assert.InDelta(t, 1.6667, out[1].V, 1e-3)
	assert.InDelta(t, 2.5556, out[2].V, 1e-3)
	assert.InDelta(t, 3.5185, out[3].V, 1e-3)
}

func TestEMASpanValues(t *testing.T) {
	out := EMASpanValues([]float64{1, 2, 3, 4}, 2)

	// The span variant is defined from the very first value.
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, 1.6667, out[1], 1e-3)
	assert.InDelta(t, 3.5185, out[3], 1e-3)
}

func TestSMASeries(t *testing.T) {
	out := smaSeries([]float64{1, 2, 3, 4}, 2)

	assert.False(t, out[0].Valid)
	assert.InDelta(t, 1.5, out[1].V, 1e-9)
	assert.InDelta(t, 2.5, out[2].V, 1e-9)
	assert.InDelta(t, 3.5, out[3].V, 1e-9)
}

func TestRSISeries(t *testing.T) {
	t.Run("all gains is 100", func(t *testing.T) {
		out := rsiSeries([]float64{1, 2, 3, 4, 5}, 2)
		require.True(t, out[4].Valid)
		assert.InDelta(t, 100, out[4].V, 1e-9)
	})

	t.Run("all losses is 0", func(t *testing.T) {
		out := rsiSeries([]float64{5, 4, 3, 2, 1}, 2)
		require.True(t, out[4].Valid)
		assert.InDelta(t, 0, out[4].V, 1e-9)
	})

	t.Run("flat prices are neutral", func(t *testing.T) {
		out := rsiSeries([]float64{3, 3, 3, 3}, 2)
		require.True(t, out[3].Valid)
		assert.InDelta(t, 50, out[3].V, 1e-9)
	})

	t.Run("bounded", func(t *testing.T) {
		closes := []float64{10, 12, 9, 14, 8, 15, 7, 16, 11, 13}
		out := rsiSeries(closes, 3)
		for i, p := range out {
			if p.Valid {
				assert.GreaterOrEqual(t, p.V, 0.0, "index %d", i)
				assert.LessOrEqual(t, p.V, 100.0, "index %d", i)
			}
		}
	})
}

func TestStochSeries(t *testing.T) {
	highs := []float64{10, 10, 10}
	lows := []float64{0, 0, 0}
	closes := []float64{5, 7.5, 10}

	k, _ := stochSeries(highs, lows, closes, 2, 3)
	assert.False(t, k[0].Valid)
	assert.InDelta(t, 75, k[1].V, 1e-9)
	assert.InDelta(t, 100, k[2].V, 1e-9)
}

func TestStochSeries_FlatRange(t *testing.T) {
	highs := []float64{5, 5, 5}
	lows := []float64{5, 5, 5}
	closes := []float64{5, 5, 5}

	k, d := stochSeries(highs, lows, closes, 2, 2)
	for i := range k {
		assert.False(t, k[i].Valid, "flat range yields no %%K at index %d", i)
		assert.False(t, d[i].Valid)
	}
}

func TestBackfill(t *testing.T) {
	points := []domain.Point{domain.NoValue, domain.NoValue, domain.Value(5), domain.Value(6)}
	first := backfill(points)

	assert.Equal(t, 2, first)
	assert.Equal(t, domain.Value(5), points[0])
	assert.Equal(t, domain.Value(5), points[1])
	assert.Equal(t, domain.Value(6), points[3])

	empty := []domain.Point{domain.NoValue, domain.NoValue}
	assert.Equal(t, 2, backfill(empty))
	assert.False(t, empty[0].Valid)
}

func TestEngine_InsufficientHistory(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), &mockLogger{})
	require.NoError(t, err)

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	_, err = engine.Compute(context.Background(), seriesFromCloses(t, closes))
	assert.ErrorIs(t, err, ports.ErrInsufficientHistory)
}

func TestEngine_Compute(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), &mockLogger{})
	require.NoError(t, err)
	require.Equal(t, 200, engine.RequiredCandles())

	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	series := seriesFromCloses(t, closes)

	set, err := engine.Compute(context.Background(), series)
	require.NoError(t, err)

	for name, s := range map[string][]domain.Point{
		"EMAFast": set.EMAFast, "EMASlow": set.EMASlow,
		"MACDLine": set.MACDLine, "MACDSignal": set.MACDSignal,
		"RSI": set.RSI, "StochK": set.StochK, "StochD": set.StochD,
		"ADX": set.ADX, "PlusDI": set.PlusDI, "MinusDI": set.MinusDI,
		"ATR": set.ATR, "BBUpper": set.BBUpper, "BBLower": set.BBLower,
	} {
		assert.Len(t, s, series.Len(), name)
	}

	// The slow EMA has the longest warm-up (199 candles).
	assert.Equal(t, 199, set.WarmupEnd)

	// Leading entries are backfilled, so every index carries a value.
	assert.True(t, set.EMASlow[0].Valid)
	assert.True(t, set.ADX[0].Valid)

	last := series.Len() - 1
	assert.InDelta(t, 100, set.RSI[last].V, 1e-9, "monotonic gains saturate the RSI")
	assert.True(t, set.MACDLine[last].GreaterThan(0), "rising prices keep MACD positive")
	assert.True(t, set.EMAFast[last].LessThan(closes[last]), "EMA lags a rising close")
	assert.True(t, set.BBUpper[last].Above(set.BBLower[last]), "upper band stays above lower band")
}

func TestEngine_FlatSeriesHasNoComputableIndex(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), &mockLogger{})
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]domain.Candle, 250)
	for i := range candles {
		candles[i] = domain.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      5, High: 5, Low: 5, Close: 5,
		}
	}
	series, err := domain.NewCandleSeries(candles)
	require.NoError(t, err)

	set, err := engine.Compute(context.Background(), series)
	require.NoError(t, err)
	assert.Equal(t, series.Len(), set.WarmupEnd, "flat range leaves the stochastic with no values")
}
