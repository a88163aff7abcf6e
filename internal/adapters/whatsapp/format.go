package whatsapp

import (
	"fmt"
	"regexp"
	"strings"

	"silverSignalBot/internal/domain"
)

var (
	bracketPattern = regexp.MustCompile(`【.*?】`)
	boldPattern    = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// FormatForWhatsApp strips bracketed bullet markers of the form 【...】 and
// converts double-asterisk emphasis to WhatsApp's single-asterisk style.
func FormatForWhatsApp(text string) string {
	text = strings.TrimSpace(bracketPattern.ReplaceAllString(text, ""))
	return boldPattern.ReplaceAllString(text, "*$1*")
}

// IntroMessage explains the trade confirmation commands. Sent before each
// market update.
func IntroMessage() string {
	return `📢 *Silver Trading Signals* 📢

✅ When a *buy signal* appears, you can choose to buy.
To confirm your purchase, send:
🚩 *Bought at <price>* (Example: "🚩 Bought at 25.5")

✅ When a *sell signal* appears, you should sell if you've already bought.
To confirm your sale, send:
💰 *Sold at <price>* (Example: "Sold at 26.0")`
}

// MarketUpdateMessage renders the trend report for one recipient. The
// trailing advice line depends on whether that recipient holds a position.
func MarketUpdateMessage(report *domain.TrendReport, holding bool) string {
	var sb strings.Builder
	sb.WriteString("📊 *Market Update* 📊\n\n")
	sb.WriteString(fmt.Sprintf("📉 *Trend:* %s\n", report.Trend))
	sb.WriteString(fmt.Sprintf("💹 *Current Price:* %.2f\n", report.CurrentPrice))
	sb.WriteString(fmt.Sprintf("📈 *Price Change (%%):* %.2f%%\n\n", report.PriceChangePct))
	sb.WriteString(fmt.Sprintf("🔻 *Nearest Support:* %.2f\n", report.NearestSupport))
	sb.WriteString(fmt.Sprintf("🔺 *Nearest Resistance:* %.2f\n\n", report.NearestResistance))
	sb.WriteString("📊 *Indicators:*\n")
	sb.WriteString(fmt.Sprintf("📌 *MACD Line:* %.2f\n", report.MACDLine))
	sb.WriteString(fmt.Sprintf("📌 *MACD Signal:* %.2f\n", report.MACDSignal))
	sb.WriteString(fmt.Sprintf("📌 *Fast EMA:* %.2f\n\n", report.FastEMA))
	sb.WriteString("📢 *Signals:*\n")
	sb.WriteString(fmt.Sprintf("✅ *Buy:* %s\n", report.BuySignal))
	sb.WriteString(fmt.Sprintf("❌ *Sell:* %s\n", report.SellSignal))
	sb.WriteString(fmt.Sprintf("📉 *Short:* %s\n", report.ShortSignal))
	sb.WriteString(fmt.Sprintf("🚪 *Exit:* %s\n", report.ExitSignal))

	if holding {
		sb.WriteString("\n🔴 *Sell Signal Available!* Consider selling if you haven't already.")
	} else {
		sb.WriteString("\n🟢 *Buy Signal Available!* You may want to buy now!")
	}
	return sb.String()
}
