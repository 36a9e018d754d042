package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses an amount printed with thousands separators, e.g. "1,234.56".
// Anything else left in the text is a parse error; nothing is silently dropped.
func ParseDecimal(text, thousandsSeparator string) (decimal.Decimal, error) {
	cleanText := strings.TrimSpace(text)
	if thousandsSeparator != "" {
		cleanText = strings.ReplaceAll(cleanText, thousandsSeparator, "")
	}
	if cleanText == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrNumericParse)
	}

	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNumericParse, text)
	}

	return amount, nil
}

// ParseDate parses a date token using a Go layout, in UTC so output never
// depends on the host timezone.
func ParseDate(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, time.UTC)
}

// FormatAmount renders money with two decimal places.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
