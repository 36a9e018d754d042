package extractor

import (
	"fmt"
	"strings"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/aqlanhadi/stmtscrape/extractor/gtbank"
	"github.com/aqlanhadi/stmtscrape/extractor/zenith"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const DefaultLayout = zenith.Name

// Layouts lists the layout names LayoutFor accepts.
func Layouts() []string {
	return []string{zenith.Name, gtbank.Name}
}

// LayoutFor resolves a layout by name. An empty name falls back to the
// configured session.layout, then to DefaultLayout.
func LayoutFor(name string) (common.Layout, error) {
	if name == "" {
		name = viper.GetString("session.layout")
	}
	if name == "" {
		name = DefaultLayout
	}

	switch strings.ToUpper(strings.TrimSpace(name)) {
	case zenith.Name:
		return zenith.New(zenith.LoadConfig())
	case gtbank.Name:
		return gtbank.New(), nil
	}
	return nil, fmt.Errorf("%w: unknown layout %q (available: %s)", common.ErrNotSupported, name, strings.Join(Layouts(), ", "))
}

type Options struct {
	// IncludeTrailingRow emits the last row of every page, closed by the end
	// of the page text. Off by default to keep legacy output.
	IncludeTrailingRow bool
	// StrictReconciliation fails the session on a row whose balance
	// movement matches neither debit nor credit.
	StrictReconciliation bool
	Tolerance            decimal.Decimal
	Logger               *log.Logger
}

// OptionsFromConfig reads the session.* keys.
func OptionsFromConfig() (Options, error) {
	opts := Options{
		IncludeTrailingRow:   viper.GetBool("session.include_trailing_row"),
		StrictReconciliation: viper.GetBool("session.strict_reconciliation"),
		Tolerance:            decimal.Zero,
	}

	if raw := viper.GetString("session.reconciliation_tolerance"); raw != "" {
		tolerance, err := decimal.NewFromString(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid session.reconciliation_tolerance %q: %w", raw, err)
		}
		if tolerance.IsNegative() {
			return opts, fmt.Errorf("invalid session.reconciliation_tolerance %q: must not be negative", raw)
		}
		opts.Tolerance = tolerance
	}

	return opts, nil
}
