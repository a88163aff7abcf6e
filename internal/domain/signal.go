package domain

import "time"

// Signal is the per-candle classification emitted by the rule-based pass.
type Signal int

const (
	Sell Signal = -1
	Hold Signal = 0
	Buy  Signal = 1
)

// String returns a human-readable label for the signal.
func (s Signal) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Hold"
	}
}

// Trend labels reported by the fast trend pass.
const (
	TrendBullish  = "Bullish (Uptrend)"
	TrendBearish  = "Bearish (Downtrend)"
	TrendSideways = "Sideways (Range-bound)"
)

// Flag strings attached to a TrendReport. Empty flags are rendered with the
// corresponding "No ... Signal" placeholder.
const (
	FlagFastBuy   = "BUY (Fast Entry)"
	FlagFastSell  = "SELL (Fast Exit)"
	FlagStopShort = "SHORT (Stop Loss)"
	FlagStopExit  = "EXIT (Stop Loss)"
	NoBuySignal   = "No Buy Signal"
	NoSellSignal  = "No Sell Signal"
	NoShortSignal = "No Short Signal"
	NoExitSignal  = "No Exit Signal"
)

// TrendReport is the short-horizon market snapshot produced once per cycle
// from the most recent trend window. It is immutable and has no identity
// beyond the cycle that created it.
type TrendReport struct {
	Trend             string
	PriceChangePct    float64
	NearestSupport    float64
	NearestResistance float64
	BuySignal         string
	SellSignal        string
	ShortSignal       string
	ExitSignal        string
	CurrentPrice      float64
	MACDLine          float64
	MACDSignal        float64
	FastEMA           float64
	ATR               float64
	GeneratedAt       time.Time
}
