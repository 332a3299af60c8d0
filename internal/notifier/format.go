package notifier

import (
	"fmt"
	"strings"

	"github.com/trogers1052/stock-tracker/internal/models"
)

const footer = "This is an automated message from your Stock Tracker."

// AlertMessage builds the subject and body of a triggered alert email
func AlertMessage(h *models.AlertHistory) (string, string) {
	subject := fmt.Sprintf("Price Alert: %s", h.Symbol)

	var b strings.Builder
	b.WriteString("Price Alert Triggered!\n\n")
	fmt.Fprintf(&b, "Stock: %s\n", h.Symbol)
	fmt.Fprintf(&b, "Alert Type: %s %s %s\n", h.RuleType, h.Comparison, formatValue(h.RuleType, h.Threshold.StringFixed(2)))
	fmt.Fprintf(&b, "Current Value: %s\n", formatValue(h.RuleType, h.TriggeredValue.StringFixed(2)))
	fmt.Fprintf(&b, "Triggered At: %s\n", h.TriggeredAt.UTC().Format("2006-01-02 15:04:05 MST"))
	if h.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", h.Message)
	}
	b.WriteString("\nReset the alert to be notified again.\n\n")
	b.WriteString(footer + "\n")
	return subject, b.String()
}

func formatValue(ruleType, v string) string {
	switch ruleType {
	case models.RuleTypePrice:
		return "$" + v
	case models.RuleTypePercentChange:
		return v + "%"
	}
	return v
}
