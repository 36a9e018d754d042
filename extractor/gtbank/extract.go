// Package gtbank declares the Guaranty Trust Bank layout. Its statement text
// has not been mapped yet, so every field operation reports ErrNotSupported.
package gtbank

import (
	"fmt"
	"regexp"
	"time"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/shopspring/decimal"
)

const Name = "GTBANK"

type Layout struct{}

func New() *Layout {
	return &Layout{}
}

func (l *Layout) Name() string { return Name }

// RowSeparator is nil: no separator pattern is known for this layout.
func (l *Layout) RowSeparator() *regexp.Regexp { return nil }

func (l *Layout) DateFormat() string { return "" }

func (l *Layout) Date(row string) (time.Time, error) {
	return time.Time{}, notSupported("transaction date")
}

func (l *Layout) Balance(row string) (decimal.Decimal, error) {
	return decimal.Zero, notSupported("balance")
}

func (l *Layout) Amount(row string) (decimal.Decimal, error) {
	return decimal.Zero, notSupported("amount")
}

func (l *Layout) Narration(row string) (string, error) {
	return "", notSupported("narration")
}

func notSupported(field string) error {
	return fmt.Errorf("%w: %s layout cannot extract %s", common.ErrNotSupported, Name, field)
}
