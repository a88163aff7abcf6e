package ports

import (
	"context"
	"time"

	"silverSignalBot/internal/domain"
)

// CandleStore is the append-only candle table kept alongside the signal
// engine. The stored row set is bounded: after each append the oldest rows
// beyond the cap are trimmed, with the header (schema) kept intact.
type CandleStore interface {
	// LastTimestamp returns the newest stored candle timestamp.
	// ok is false when the store is empty.
	LastTimestamp(ctx context.Context) (ts time.Time, ok bool, err error)
	// Append stores the candles whose timestamps are strictly greater than
	// the last stored timestamp, in order. Returns the number of rows added.
	Append(ctx context.Context, candles []domain.Candle) (int, error)
	// TrimTo deletes the oldest rows until at most max remain.
	// Returns the number of rows removed.
	TrimTo(ctx context.Context, max int) (int, error)
	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)
}

// PositionStore keeps the per-user trade positions. Implementations must
// treat each user id as an independent record; serialization of concurrent
// transitions for one id is the state machine's responsibility.
type PositionStore interface {
	// Get retrieves the position for the user id.
	// Returns nil, nil when the user has no open position.
	Get(ctx context.Context, userID string) (*domain.TradePosition, error)
	// Put creates or replaces the position for its user id.
	Put(ctx context.Context, pos *domain.TradePosition) error
	// Delete removes the position for the user id. Deleting a missing
	// position is not an error.
	Delete(ctx context.Context, userID string) error
}
