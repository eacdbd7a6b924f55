package export

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatMoney renders integer minor units with thousands separators.
func formatMoney(v int64) string {
	return printer.Sprintf("%d", v)
}

func formatCount(v int64) string {
	return printer.Sprintf("%d", v)
}

func formatRate(v float64) string {
	return printer.Sprintf("%.1f", v)
}

// formatComparison renders a week-over-week percentage; a missing
// comparison (no prior-week sales) prints as n/a, never as zero.
func formatComparison(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return printer.Sprintf("%+.1f%%", *v)
}
