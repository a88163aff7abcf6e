package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeState is the state of a user's position in the trade state machine.
type TradeState string

const (
	// StateIdle means the user has no open position.
	StateIdle TradeState = "idle"
	// StateHolding means the user confirmed a purchase and holds a position.
	StateHolding TradeState = "holding"
)

// TradePosition is the single open position tracked per user. It is owned
// exclusively by the trade state machine: created on a buy confirmation,
// destroyed on a sale confirmation, never shared across users.
type TradePosition struct {
	UserID    string          `json:"user_id"`
	State     TradeState      `json:"state"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsHolding reports whether the position is an open holding.
func (p *TradePosition) IsHolding() bool {
	return p != nil && p.State == StateHolding
}

// TradeOutcome classifies a closed trade by its rounded profit/loss.
type TradeOutcome string

const (
	OutcomeProfit    TradeOutcome = "Profit"
	OutcomeLoss      TradeOutcome = "Loss"
	OutcomeBreakEven TradeOutcome = "Break-even"
)

// ClassifyOutcome maps a profit/loss amount to its outcome label.
func ClassifyOutcome(pl decimal.Decimal) TradeOutcome {
	switch pl.Sign() {
	case 1:
		return OutcomeProfit
	case -1:
		return OutcomeLoss
	default:
		return OutcomeBreakEven
	}
}
