package ports

import (
	"context"

	"silverSignalBot/internal/domain"
)

// CandleSource retrieves historical OHLC candles for a symbol.
// This abstraction decouples the signal engine from any specific data vendor.
type CandleSource interface {
	// FetchCandles retrieves up to lookbackDays of history for the symbol,
	// trying each interval in order (finest to coarsest) and returning the
	// first non-empty, validated series. Returns ErrDataUnavailable when
	// every interval comes back empty.
	FetchCandles(ctx context.Context, symbol string, lookbackDays int, intervals []string) (*domain.CandleSeries, error)
}
