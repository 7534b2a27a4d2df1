package statement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmountKES parses a Kenyan-formatted amount string into whole shillings.
// Format examples: "5,000.00" -> 5000, "-1,234.56" -> -1235, "800" -> 800.
// Statements occasionally carry cents; rent is tracked in whole shillings, so
// the value is rounded.
func parseAmountKES(s string) (int64, error) {
	clean := strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, err
	}

	return d.Round(0).IntPart(), nil
}
