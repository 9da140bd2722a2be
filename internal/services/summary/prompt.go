package summary

import (
	"fmt"
	"strings"

	"StockBrief/internal/domain/models"

	"github.com/shopspring/decimal"
)

// NoNewsText is used verbatim when the news search returned nothing.
func NoNewsText(ticker string) string {
	return fmt.Sprintf("No recent news found for %s.", ticker)
}

// ErrorText replaces the summary when the model call fails.
func ErrorText(ticker string, err error) string {
	return fmt.Sprintf("Error generating summary for %s: %v", ticker, err)
}

// BuildPrompt renders the question sent to the language model.
func BuildPrompt(ticker string, p models.Position, news models.NewsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock: %s\n\n", ticker)
	b.WriteString("Position Information:\n")
	fmt.Fprintf(&b, "- Current position: %s shares\n", orNA(p.Quantity, ""))
	fmt.Fprintf(&b, "- Current value: %s\n", orNA(p.Equity, "$"))
	fmt.Fprintf(&b, "- Average buy price: %s\n", orNA(p.AverageBuyPrice, "$"))
	pct := orNA(p.PercentChange, "")
	if p.PercentChange != nil {
		pct += "%"
	}
	fmt.Fprintf(&b, "- Percent change: %s\n\n", pct)
	b.WriteString("Recent News:\n")
	b.WriteString(news.News)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Based on the above information, provide a concise 2-3 paragraph summary of the current situation for %s, "+
		"including the most important recent news and how it might impact the stock. Focus on actionable insights.", ticker)
	return b.String()
}

func orNA(d *decimal.Decimal, prefix string) string {
	if d == nil {
		return "N/A"
	}
	return prefix + d.String()
}
