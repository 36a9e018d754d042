package zenith

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const Name = "ZENITH"

var balanceToken = regexp.MustCompile(`^\s*-?[\d,]*\d(?:\.\d+)?`)

const (
	defaultCurrency           = "NGN"
	defaultRowSeparator       = `\d{2}/\d{2}/\d{4}\d{2}/\d{2}/\d{4}`
	defaultDate               = `^\d{2}/\d{2}/\d{4}`
	defaultDateFormat         = "02/01/2006"
	defaultThousandsSeparator = ","
	defaultMaxMarkerRun       = 3
)

type Config struct {
	Currency           string
	RowSeparator       string
	Date               string
	DateFormat         string
	ThousandsSeparator string
	MaxMarkerRun       int
}

func DefaultConfig() Config {
	return Config{
		Currency:           defaultCurrency,
		RowSeparator:       defaultRowSeparator,
		Date:               defaultDate,
		DateFormat:         defaultDateFormat,
		ThousandsSeparator: defaultThousandsSeparator,
		MaxMarkerRun:       defaultMaxMarkerRun,
	}
}

// LoadConfig reads layouts.ZENITH.* from viper, keeping defaults for unset keys.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := viper.GetString("layouts.ZENITH.currency"); v != "" {
		cfg.Currency = v
	}
	if v := viper.GetString("layouts.ZENITH.row_separator"); v != "" {
		cfg.RowSeparator = v
	}
	if v := viper.GetString("layouts.ZENITH.date"); v != "" {
		cfg.Date = v
	}
	if v := viper.GetString("layouts.ZENITH.date_format"); v != "" {
		cfg.DateFormat = v
	}
	if viper.IsSet("layouts.ZENITH.thousands_separator") {
		cfg.ThousandsSeparator = viper.GetString("layouts.ZENITH.thousands_separator")
	}
	if v := viper.GetInt("layouts.ZENITH.max_marker_run"); v > 0 {
		cfg.MaxMarkerRun = v
	}
	return cfg
}

// Layout reads Zenith Bank statements, where each row looks like
//
//	DD/MM/YYYYDD/MM/YYYY<narration>NGN<amount>NGN<balance>
//
// and the amount marker is sometimes printed two or three times.
type Layout struct {
	cfg       Config
	separator *regexp.Regexp
	date      *regexp.Regexp
	overlap   int
}

func New(cfg Config) (*Layout, error) {
	if cfg.Currency == "" {
		return nil, fmt.Errorf("%w: empty currency marker", common.ErrMalformedLayout)
	}
	separator, err := regexp.Compile(cfg.RowSeparator)
	if err != nil {
		return nil, fmt.Errorf("%w: row separator: %v", common.ErrMalformedLayout, err)
	}
	date, err := regexp.Compile(cfg.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date pattern: %v", common.ErrMalformedLayout, err)
	}
	if cfg.MaxMarkerRun < 1 {
		cfg.MaxMarkerRun = 1
	}

	return &Layout{
		cfg:       cfg,
		separator: separator,
		date:      date,
		overlap:   markerOverlap(cfg.Currency),
	}, nil
}

func (l *Layout) Name() string                 { return Name }
func (l *Layout) RowSeparator() *regexp.Regexp { return l.separator }
func (l *Layout) DateFormat() string           { return l.cfg.DateFormat }

func (l *Layout) Date(row string) (time.Time, error) {
	loc := l.date.FindStringIndex(row)
	if loc == nil || loc[0] != 0 {
		return time.Time{}, fmt.Errorf("%w: transaction date", common.ErrFieldNotFound)
	}

	token := row[loc[0]:loc[1]]
	date, err := common.ParseDate(l.cfg.DateFormat, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: transaction date %q is not a calendar date", common.ErrFieldNotFound, token)
	}
	return date, nil
}

// Balance is whatever follows the last currency marker.
func (l *Layout) Balance(row string) (decimal.Decimal, error) {
	last := strings.LastIndex(row, l.cfg.Currency)
	if last < 0 {
		return decimal.Zero, fmt.Errorf("%w: balance currency marker %s", common.ErrFieldNotFound, l.cfg.Currency)
	}

	balance, err := common.ParseDecimal(row[last+len(l.cfg.Currency):], l.cfg.ThousandsSeparator)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance: %w", err)
	}
	return balance, nil
}

// Amount sits between the first marker run and the last marker.
func (l *Layout) Amount(row string) (decimal.Decimal, error) {
	first := strings.Index(row, l.cfg.Currency)
	last := strings.LastIndex(row, l.cfg.Currency)
	if first < 0 || first == last {
		return decimal.Zero, fmt.Errorf("%w: amount currency marker %s", common.ErrFieldNotFound, l.cfg.Currency)
	}

	start := l.skipMarkerRun(row, first)
	if start > last {
		return decimal.Zero, fmt.Errorf("%w: amount currency marker %s", common.ErrFieldNotFound, l.cfg.Currency)
	}

	amount, err := common.ParseDecimal(row[start:last], l.cfg.ThousandsSeparator)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount: %w", err)
	}
	return amount, nil
}

// Narration runs from the end of the date pair to the first currency
// marker. A narration ending in "NG" loses those letters to the marker.
func (l *Layout) Narration(row string) (string, error) {
	start := 0
	if loc := l.separator.FindStringIndex(row); loc != nil && loc[0] == 0 {
		start = loc[1]
	}

	end := strings.Index(row[start:], l.cfg.Currency)
	if end < 0 {
		return row[start:], nil
	}
	return row[start : start+end], nil
}

// TrimTrailingRow cuts a row closed by the end of its page just after the
// balance figure, dropping page footers. Rows without a readable balance
// are returned unchanged so Balance still reports them.
func (l *Layout) TrimTrailingRow(row string) string {
	last := strings.LastIndex(row, l.cfg.Currency)
	if last < 0 {
		return row
	}
	start := last + len(l.cfg.Currency)
	loc := balanceToken.FindStringIndex(row[start:])
	if loc == nil {
		return row
	}
	return row[:start+loc[1]]
}

// skipMarkerRun returns the offset just past the longest run of repeated
// markers starting at pos, capped at MaxMarkerRun. Repeats may be printed
// back to back (NGNNGN) or sharing their overlapping letters (NGNGN).
func (l *Layout) skipMarkerRun(row string, pos int) int {
	marker := l.cfg.Currency
	end := pos + len(marker)
	for run := 1; run < l.cfg.MaxMarkerRun; run++ {
		switch {
		case strings.HasPrefix(row[end:], marker):
			end += len(marker)
		case l.overlap > 0 && strings.HasPrefix(row[end-l.overlap:], marker):
			end += len(marker) - l.overlap
		default:
			return end
		}
	}
	return end
}

// markerOverlap is the length of the longest proper suffix of marker that is
// also its prefix ("N" for NGN).
func markerOverlap(marker string) int {
	for k := len(marker) - 1; k > 0; k-- {
		if marker[len(marker)-k:] == marker[:k] {
			return k
		}
	}
	return 0
}
