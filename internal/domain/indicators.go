package domain

// Point is a single entry of a derived indicator series. Warm-up entries,
// where the indicator does not yet have enough history, carry Valid=false
// instead of a fabricated zero or a floating-point NaN.
type Point struct {
	V     float64
	Valid bool
}

// Value wraps a float in a valid Point.
func Value(v float64) Point { return Point{V: v, Valid: true} }

// NoValue is the absent indicator entry.
var NoValue = Point{}

// GreaterThan reports whether the point is valid and strictly above x.
// Invalid points fail every threshold comparison.
func (p Point) GreaterThan(x float64) bool { return p.Valid && p.V > x }

// LessThan reports whether the point is valid and strictly below x.
func (p Point) LessThan(x float64) bool { return p.Valid && p.V < x }

// Above reports whether both points are valid and p is strictly above q.
func (p Point) Above(q Point) bool { return p.Valid && q.Valid && p.V > q.V }

// IndicatorSet holds the derived series for one candle series, all aligned
// 1:1 by index with the source candles. Computed once per fetch cycle and
// discarded after classification, never mutated in place.
type IndicatorSet struct {
	EMAFast    []Point // EMA(close, fast period), default 50
	EMASlow    []Point // EMA(close, slow period), default 200
	MACDLine   []Point
	MACDSignal []Point
	RSI        []Point
	StochK     []Point
	StochD     []Point
	ADX        []Point
	PlusDI     []Point
	MinusDI    []Point
	ATR        []Point
	BBUpper    []Point
	BBLower    []Point

	// WarmupEnd is the first index at which every series has a computed
	// (pre-backfill) value. Classification must not emit Buy/Sell before it.
	WarmupEnd int
}
