package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParser_Parse(t *testing.T) {
	p := NewParser("")

	tests := []struct {
		name      string
		text      string
		wantKind  CommandKind
		wantPrice string
	}{
		{
			name:      "confirmed buy",
			text:      "🚩 Bought at 25.5",
			wantKind:  CmdConfirmBuy,
			wantPrice: "25.5",
		},
		{
			name:      "confirmed buy with surrounding whitespace and caps",
			text:      "  🚩 BOUGHT AT 31.20  ",
			wantKind:  CmdConfirmBuy,
			wantPrice: "31.20",
		},
		{
			name:     "buy marker with non-numeric price",
			text:     "🚩 Bought at abc",
			wantKind: CmdInvalidBuy,
		},
		{
			name:     "bare sell",
			text:     "sell",
			wantKind: CmdSellIntent,
		},
		{
			name:     "sell with whitespace and caps",
			text:     "  SELL ",
			wantKind: CmdSellIntent,
		},
		{
			name:      "confirmed sale",
			text:      "sold at 26.0",
			wantKind:  CmdConfirmSale,
			wantPrice: "26.0",
		},
		{
			name:      "confirmed sale mixed case",
			text:      "Sold At 27.85",
			wantKind:  CmdConfirmSale,
			wantPrice: "27.85",
		},
		{
			name:     "sale phrase with non-numeric price",
			text:     "sold at later",
			wantKind: CmdInvalidSale,
		},
		{
			name:     "unrelated text",
			text:     "what is the price of silver",
			wantKind: CmdUnknown,
		},
		{
			name:     "empty text",
			text:     "",
			wantKind: CmdUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := p.Parse(tt.text)
			assert.Equal(t, tt.wantKind, cmd.Kind)
			if tt.wantPrice != "" {
				assert.Equal(t, tt.wantPrice, cmd.Price.String())
			}
		})
	}
}

func TestParser_CustomBuyMarker(t *testing.T) {
	p := NewParser("!buy")

	cmd := p.Parse("!buy at 12.5")
	assert.Equal(t, CmdConfirmBuy, cmd.Kind)
	assert.Equal(t, "12.5", cmd.Price.String())

	// The default marker no longer matches.
	cmd = p.Parse("🚩 Bought at 12.5")
	assert.Equal(t, CmdUnknown, cmd.Kind)
}
