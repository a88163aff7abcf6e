package trade

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CommandKind identifies the typed command parsed from an inbound message.
type CommandKind int

const (
	// CmdUnknown matches no known command pattern; the reply is the menu.
	CmdUnknown CommandKind = iota
	// CmdConfirmBuy records a purchase at Price.
	CmdConfirmBuy
	// CmdInvalidBuy carried the confirmed-buy marker with a bad price token.
	CmdInvalidBuy
	// CmdSellIntent is the bare "sell" request.
	CmdSellIntent
	// CmdConfirmSale closes the position at Price.
	CmdConfirmSale
	// CmdInvalidSale carried the sale phrase with a bad price token.
	CmdInvalidSale
)

// Command is the parsed form of an inbound message. Price is set only for
// CmdConfirmBuy and CmdConfirmSale.
type Command struct {
	Kind  CommandKind
	Price decimal.Decimal
}

// DefaultBuyMarker is the confirmed-buy marker users include when they have
// acted on a buy signal.
const DefaultBuyMarker = "🚩"

// Parser turns free text into typed commands. Parsing is decoupled from the
// state machine so that transitions operate on command variants, not strings.
type Parser struct {
	buyMarker  string
	salePhrase string
}

// NewParser creates a parser with the given buy marker, falling back to the
// default when empty.
func NewParser(buyMarker string) *Parser {
	if buyMarker == "" {
		buyMarker = DefaultBuyMarker
	}
	return &Parser{buyMarker: buyMarker, salePhrase: "sold at"}
}

// Parse normalizes the text (trimmed, lower-cased) and maps it to a command.
// The price is taken from the last whitespace-delimited token; a non-numeric
// token yields the matching Invalid command so the caller can reply with a
// format error instead of silently dropping the message.
func (p *Parser) Parse(text string) Command {
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch {
	case strings.Contains(normalized, p.buyMarker):
		price, ok := lastToken(normalized)
		if !ok {
			return Command{Kind: CmdInvalidBuy}
		}
		return Command{Kind: CmdConfirmBuy, Price: price}

	case normalized == "sell":
		return Command{Kind: CmdSellIntent}

	case strings.Contains(normalized, p.salePhrase):
		price, ok := lastToken(normalized)
		if !ok {
			return Command{Kind: CmdInvalidSale}
		}
		return Command{Kind: CmdConfirmSale, Price: price}

	default:
		return Command{Kind: CmdUnknown}
	}
}

func lastToken(text string) (decimal.Decimal, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return decimal.Decimal{}, false
	}
	price, err := decimal.NewFromString(fields[len(fields)-1])
	if err != nil {
		return decimal.Decimal{}, false
	}
	return price, true
}
