package domain

import (
	"fmt"
	"time"
)

// Candle represents a single OHLC price observation for a fixed time bucket.
type Candle struct {
	Timestamp time.Time // Start of the interval the candle covers
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
}

// Validate checks the internal price envelope of the candle.
func (c Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return fmt.Errorf("candle has zero timestamp")
	}
	if c.High < c.Low {
		return fmt.Errorf("candle at %s: high %.4f below low %.4f", c.Timestamp, c.High, c.Low)
	}
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("candle at %s: high %.4f below open/close", c.Timestamp, c.High)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("candle at %s: low %.4f above open/close", c.Timestamp, c.Low)
	}
	return nil
}

// CandleSeries is an ordered, immutable sequence of candles with strictly
// increasing timestamps. Derived indicator series are aligned 1:1 by index.
type CandleSeries struct {
	candles []Candle
}

// NewCandleSeries validates the candles and returns an immutable series.
// Timestamps must be strictly increasing.
func NewCandleSeries(candles []Candle) (*CandleSeries, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("candle series cannot be empty")
	}
	owned := make([]Candle, len(candles))
	copy(owned, candles)
	for i, c := range owned {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid candle at index %d: %w", i, err)
		}
		if i > 0 && !c.Timestamp.After(owned[i-1].Timestamp) {
			return nil, fmt.Errorf("timestamps not strictly increasing at index %d (%s <= %s)",
				i, c.Timestamp, owned[i-1].Timestamp)
		}
	}
	return &CandleSeries{candles: owned}, nil
}

// Len returns the number of candles in the series.
func (s *CandleSeries) Len() int { return len(s.candles) }

// At returns the candle at index i.
func (s *CandleSeries) At(i int) Candle { return s.candles[i] }

// Last returns the most recent candle.
func (s *CandleSeries) Last() Candle { return s.candles[len(s.candles)-1] }

// Tail returns a new series containing the last n candles. If the series is
// shorter than n the whole series is returned.
func (s *CandleSeries) Tail(n int) *CandleSeries {
	if n >= len(s.candles) {
		return s
	}
	return &CandleSeries{candles: s.candles[len(s.candles)-n:]}
}

// Candles returns a copy of the underlying candles.
func (s *CandleSeries) Candles() []Candle {
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Closes returns the close prices, aligned by index.
func (s *CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.Close
	}
	return out
}

// Highs returns the high prices, aligned by index.
func (s *CandleSeries) Highs() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.High
	}
	return out
}

// Lows returns the low prices, aligned by index.
func (s *CandleSeries) Lows() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.Low
	}
	return out
}
