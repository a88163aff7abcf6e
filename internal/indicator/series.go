package indicator

import (
	"math"

	"silverSignalBot/internal/domain"
)

// Series primitives. Every function returns a slice aligned 1:1 by index
// with its input; entries inside the warm-up region are invalid Points.

// emaSeries computes a recursive EMA seeded at the first value with
// smoothing factor 2/(period+1). Entries before index period-1 are invalid.
func emaSeries(values []float64, period int) []domain.Point {
	out := make([]domain.Point, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	ema := values[0]
	for i, v := range values {
		if i > 0 {
			ema = (v-ema)*alpha + ema
		}
		if i >= period-1 {
			out[i] = domain.Value(ema)
		}
	}
	return out
}

// emaSpanSeries is the fast-engine variant: same recursive blend but valid
// from the first index, matching an exponentially weighted mean that starts
// at the first observation.
func emaSpanSeries(values []float64, span int) []domain.Point {
	out := make([]domain.Point, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	ema := values[0]
	for i, v := range values {
		if i > 0 {
			ema = (v-ema)*alpha + ema
		}
		out[i] = domain.Value(ema)
	}
	return out
}

// EMASpanValues is EMASpan for callers that need the raw values; the span
// EMA is defined at every index, so no validity tracking is required.
func EMASpanValues(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	ema := values[0]
	for i, v := range values {
		if i > 0 {
			ema = (v-ema)*alpha + ema
		}
		out[i] = ema
	}
	return out
}

// emaPoints runs the recursive EMA over an already-derived series, starting
// at its first valid entry. Used for the MACD signal line.
func emaPoints(src []domain.Point, period int) []domain.Point {
	out := make([]domain.Point, len(src))
	first := firstValid(src)
	if first < 0 || period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	ema := src[first].V
	for i := first; i < len(src); i++ {
		if !src[i].Valid {
			continue
		}
		if i > first {
			ema = (src[i].V-ema)*alpha + ema
		}
		if i >= first+period-1 {
			out[i] = domain.Value(ema)
		}
	}
	return out
}

// smaSeries computes a simple moving average; invalid before period-1.
func smaSeries(values []float64, period int) []domain.Point {
	out := make([]domain.Point, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = domain.Value(sum / float64(period))
		}
	}
	return out
}

// smaPoints averages a derived series over a window; the window must be
// fully valid for the output entry to be valid.
func smaPoints(src []domain.Point, period int) []domain.Point {
	out := make([]domain.Point, len(src))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(src); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !src[j].Valid {
				ok = false
				break
			}
			sum += src[j].V
		}
		if ok {
			out[i] = domain.Value(sum / float64(period))
		}
	}
	return out
}

// stddevSeries computes the rolling sample standard deviation.
func stddevSeries(values []float64, period int) []domain.Point {
	out := make([]domain.Point, len(values))
	if period <= 1 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - period + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(period)
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		variance /= float64(period - 1)
		out[i] = domain.Value(math.Sqrt(variance))
	}
	return out
}

// rsiSeries computes the Relative Strength Index with Wilder smoothing.
// RS is undefined when the average loss is zero; per convention that maps to
// the maximal RSI of 100. Entries before index period are invalid.
func rsiSeries(closes []float64, period int) []domain.Point {
	out := make([]domain.Point, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = domain.Value(rsiFromAverages(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = domain.Value(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	if rsi > 100 {
		return 100
	}
	if rsi < 0 {
		return 0
	}
	return rsi
}

// stochSeries computes the raw %K oscillator and its SMA(%D).
// A flat range (highest high == lowest low) yields no value, not an error.
func stochSeries(highs, lows, closes []float64, period, dPeriod int) (k, d []domain.Point) {
	k = make([]domain.Point, len(closes))
	if period <= 0 || len(closes) < period {
		return k, make([]domain.Point, len(closes))
	}
	for i := period - 1; i < len(closes); i++ {
		hh := highs[i]
		ll := lows[i]
		for j := i - period + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			continue // flat range, no value
		}
		k[i] = domain.Value(100 * (closes[i] - ll) / (hh - ll))
	}
	d = smaPoints(k, dPeriod)
	return k, d
}

// trueRanges returns the true range per candle; index 0 has no prior close
// and is invalid.
func trueRanges(highs, lows, closes []float64) []domain.Point {
	out := make([]domain.Point, len(closes))
	for i := 1; i < len(closes); i++ {
		tr := highs[i] - lows[i]
		if v := math.Abs(highs[i] - closes[i-1]); v > tr {
			tr = v
		}
		if v := math.Abs(lows[i] - closes[i-1]); v > tr {
			tr = v
		}
		out[i] = domain.Value(tr)
	}
	return out
}

// atrSeries computes the Average True Range with Wilder smoothing.
func atrSeries(highs, lows, closes []float64, period int) []domain.Point {
	out := make([]domain.Point, len(closes))
	trs := trueRanges(highs, lows, closes)
	if period <= 0 || len(closes) <= period {
		return out
	}
	atr := 0.0
	for i := 1; i <= period; i++ {
		atr += trs[i].V
	}
	atr /= float64(period)
	out[period] = domain.Value(atr)
	for i := period + 1; i < len(closes); i++ {
		atr = (atr*float64(period-1) + trs[i].V) / float64(period)
		out[i] = domain.Value(atr)
	}
	return out
}

// adxSeries computes the directional movement system: +DI, -DI and ADX.
// DI values become valid after one smoothing period, ADX after two.
func adxSeries(highs, lows, closes []float64, period int) (adx, plusDI, minusDI []domain.Point) {
	n := len(closes)
	adx = make([]domain.Point, n)
	plusDI = make([]domain.Point, n)
	minusDI = make([]domain.Point, n)
	if period <= 0 || n <= period*2 {
		return adx, plusDI, minusDI
	}

	trs := trueRanges(highs, lows, closes)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder-smoothed TR and DM, seeded with the mean of the first period.
	var sTR, sPlus, sMinus float64
	for i := 1; i <= period; i++ {
		sTR += trs[i].V
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}
	sTR /= float64(period)
	sPlus /= float64(period)
	sMinus /= float64(period)

	dx := make([]domain.Point, n)
	setDI := func(i int) {
		if sTR <= 0 {
			return
		}
		pdi := 100 * sPlus / sTR
		mdi := 100 * sMinus / sTR
		plusDI[i] = domain.Value(pdi)
		minusDI[i] = domain.Value(mdi)
		if sum := pdi + mdi; sum > 0 {
			dx[i] = domain.Value(100 * math.Abs(pdi-mdi) / sum)
		}
	}
	setDI(period)
	for i := period + 1; i < n; i++ {
		sTR = (sTR*float64(period-1) + trs[i].V) / float64(period)
		sPlus = (sPlus*float64(period-1) + plusDM[i]) / float64(period)
		sMinus = (sMinus*float64(period-1) + minusDM[i]) / float64(period)
		setDI(i)
	}

	// ADX: smoothed average of DX, seeded over the second period.
	start := period * 2
	sum := 0.0
	count := 0
	for i := period + 1; i <= start; i++ {
		if dx[i].Valid {
			sum += dx[i].V
			count++
		}
	}
	if count == 0 {
		return adx, plusDI, minusDI
	}
	cur := sum / float64(count)
	adx[start] = domain.Value(cur)
	for i := start + 1; i < n; i++ {
		if !dx[i].Valid {
			adx[i] = domain.Value(cur)
			continue
		}
		cur = (cur*float64(period-1) + dx[i].V) / float64(period)
		adx[i] = domain.Value(cur)
	}
	return adx, plusDI, minusDI
}

// firstValid returns the index of the first valid point, or -1.
func firstValid(points []domain.Point) int {
	for i, p := range points {
		if p.Valid {
			return i
		}
	}
	return -1
}

// backfill copies the first computed value over the leading invalid entries
// and returns the index that value came from. A fully invalid series is left
// untouched and reported as length.
func backfill(points []domain.Point) int {
	first := firstValid(points)
	if first < 0 {
		return len(points)
	}
	for i := 0; i < first; i++ {
		points[i] = points[first]
	}
	return first
}
