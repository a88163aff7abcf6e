package trade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/ports"
)

// Reply texts mirror the messages users already know.
const (
	replyBuyFormat  = "❌ Invalid format. Use: 🚩 Bought at <price>"
	replySellIntent = "✅ Sell signal received. Please confirm sale by sending 'sold at <price>'."
	replyNoPosition = "🚫 You haven't bought silver yet. No sell signal available."
	replyNoRecord   = "🚫 You haven't bought silver yet. No record found."
	replySoldFormat = "❌ Invalid format. Use: sold at <price>"
	replyMenu       = "Send '🚩 Bought at <price>' to confirm purchase, 'sell' to initiate, or 'sold at <price>' to close the trade."
)

// Machine is the per-user trade state machine. Positions live in an injected
// keyed store; a per-user lock serializes concurrent transitions for one
// user id while distinct users proceed independently.
type Machine struct {
	store  ports.PositionStore
	parser *Parser
	logger ports.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMachine creates the state machine.
func NewMachine(store ports.PositionStore, parser *Parser, logger ports.Logger) (*Machine, error) {
	if store == nil || logger == nil {
		return nil, fmt.Errorf("position store and logger are required for trade machine")
	}
	if parser == nil {
		parser = NewParser("")
	}
	return &Machine{
		store:  store,
		parser: parser,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func (m *Machine) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// Handle runs one transition for the user and returns the reply text. The
// state mutation and the reply are decided atomically under the user's lock;
// a failed store operation surfaces as an error with no reply, and malformed
// input never mutates the position.
func (m *Machine) Handle(ctx context.Context, userID, text string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ports.ErrMalformedInput)
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cmd := m.parser.Parse(text)
	pos, err := m.store.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading position for %s: %w", userID, err)
	}

	switch cmd.Kind {
	case CmdConfirmBuy:
		next := &domain.TradePosition{
			UserID:    userID,
			State:     domain.StateHolding,
			BuyPrice:  cmd.Price,
			UpdatedAt: time.Now().UTC(),
		}
		if err := m.store.Put(ctx, next); err != nil {
			return "", fmt.Errorf("recording buy for %s: %w", userID, err)
		}
		m.logger.Info(ctx, "buy confirmed", map[string]interface{}{
			"user":  userID,
			"price": cmd.Price.String(),
		})
		return fmt.Sprintf("✅ Trade recorded at %s. Waiting for sell signal.", cmd.Price), nil

	case CmdInvalidBuy:
		return replyBuyFormat, nil

	case CmdSellIntent:
		if pos.IsHolding() {
			return replySellIntent, nil
		}
		return replyNoPosition, nil

	case CmdConfirmSale:
		if !pos.IsHolding() {
			return replyNoRecord, nil
		}
		profitLoss := cmd.Price.Sub(pos.BuyPrice).Round(2)
		outcome := domain.ClassifyOutcome(profitLoss)
		if err := m.store.Delete(ctx, userID); err != nil {
			return "", fmt.Errorf("closing position for %s: %w", userID, err)
		}
		m.logger.Info(ctx, "trade closed", map[string]interface{}{
			"user":    userID,
			"buy":     pos.BuyPrice.String(),
			"sell":    cmd.Price.String(),
			"pnl":     profitLoss.String(),
			"outcome": string(outcome),
		})
		return fmt.Sprintf("💰 Trade closed. Bought at %s, sold at %s. %s: %s",
			pos.BuyPrice, cmd.Price, outcome, profitLoss), nil

	case CmdInvalidSale:
		if !pos.IsHolding() {
			return replyNoRecord, nil
		}
		return replySoldFormat, nil

	default:
		return replyMenu, nil
	}
}

// IsHolding reports whether the user currently holds a recorded position.
// Used by the broadcast formatter to pick the trailing advice line.
func (m *Machine) IsHolding(ctx context.Context, userID string) bool {
	pos, err := m.store.Get(ctx, userID)
	if err != nil {
		m.logger.Warn(ctx, "position lookup failed", map[string]interface{}{
			"user":  userID,
			"error": err.Error(),
		})
		return false
	}
	return pos.IsHolding()
}
