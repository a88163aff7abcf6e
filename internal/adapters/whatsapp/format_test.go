package whatsapp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"silverSignalBot/internal/domain"
)

func TestFormatForWhatsApp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips bracketed markers",
			in:   "Price update【source: chart】 done",
			want: "Price update done",
		},
		{
			name: "converts double asterisk bold",
			in:   "**Buy now** at **25.5**",
			want: "*Buy now* at *25.5*",
		},
		{
			name: "plain text untouched",
			in:   "hello world",
			want: "hello world",
		},
		{
			name: "trims surrounding whitespace",
			in:   "  【x】text  ",
			want: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatForWhatsApp(tt.in))
		})
	}
}

func TestIntroMessage(t *testing.T) {
	msg := IntroMessage()
	assert.Contains(t, msg, "🚩 *Bought at <price>*")
	assert.Contains(t, msg, "💰 *Sold at <price>*")
}

func TestMarketUpdateMessage(t *testing.T) {
	report := &domain.TrendReport{
		Trend:             domain.TrendBullish,
		PriceChangePct:    1.25,
		NearestSupport:    24.8,
		NearestResistance: 26.1,
		BuySignal:         domain.FlagFastBuy,
		SellSignal:        domain.NoSellSignal,
		ShortSignal:       domain.NoShortSignal,
		ExitSignal:        domain.NoExitSignal,
		CurrentPrice:      25.5,
		MACDLine:          0.12,
		MACDSignal:        0.08,
		FastEMA:           25.4,
		ATR:               0.35,
		GeneratedAt:       time.Now().UTC(),
	}

	t.Run("without position", func(t *testing.T) {
		msg := MarketUpdateMessage(report, false)
		assert.Contains(t, msg, "*Trend:* Bullish (Uptrend)")
		assert.Contains(t, msg, "*Current Price:* 25.50")
		assert.Contains(t, msg, "*Buy:* BUY (Fast Entry)")
		assert.Contains(t, msg, "*Sell:* No Sell Signal")
		assert.True(t, strings.HasSuffix(msg, "🟢 *Buy Signal Available!* You may want to buy now!"))
	})

	t.Run("with position", func(t *testing.T) {
		msg := MarketUpdateMessage(report, true)
		assert.True(t, strings.HasSuffix(msg, "🔴 *Sell Signal Available!* Consider selling if you haven't already."))
	})
}
