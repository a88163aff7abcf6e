package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these sentinels so the
// orchestrator can decide the recovery boundary without inspecting adapter
// internals.
var (
	// ErrDataUnavailable means the candle fetch returned no data after every
	// interval fallback. The cycle aborts and the prior report is retained.
	ErrDataUnavailable = errors.New("market data unavailable after all interval fallbacks")

	// ErrInsufficientHistory means the series has fewer candles than the
	// largest required indicator lookback. Classification is skipped.
	ErrInsufficientHistory = errors.New("not enough candle history for indicator computation")

	// ErrMalformedInput means a user message failed command parsing (e.g. a
	// non-numeric price token). Recovered with a single reply, never escalated.
	ErrMalformedInput = errors.New("malformed user input")

	// ErrDeliveryFailed means an outbound message send failed or timed out.
	// Surfaced distinctly so retry policy can act; never rolled back into the
	// state machine.
	ErrDeliveryFailed = errors.New("outbound message delivery failed")

	// ErrStoreInconsistent means the persisted table is missing an expected
	// column or timestamp. The operation is skipped without partial writes.
	ErrStoreInconsistent = errors.New("persistent store inconsistent")

	// General errors shared by adapters.
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")
)
