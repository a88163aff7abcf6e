package ports

import "context"

// Messenger sends plain-text messages to a recipient over the messaging
// channel. Delivery may block on network I/O; failures are reported via
// ErrDeliveryFailed and must never affect already-committed trade state.
type Messenger interface {
	// SendText delivers a text message to the recipient id.
	SendText(ctx context.Context, recipient, body string) error
}
