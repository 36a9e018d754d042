package common

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Credit TransactionType = "CREDIT"
	Debit  TransactionType = "DEBIT"
)

// Row is one unparsed transaction substring, bounded by two consecutive
// separator matches on the same page.
type Row struct {
	Index int
	Page  int
	Text  string
}

// TransactionRecord is one assembled output row.
type TransactionRecord struct {
	Sequence          int             `json:"sequence"`
	TransactionDate   time.Time       `json:"-"`
	Date              string          `json:"transaction_date"`
	Narration         string          `json:"narration"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Balance           decimal.Decimal `json:"balance"`
	TransactionType   TransactionType `json:"transaction_type"`
	Reconciled        bool            `json:"reconciled"`
}

// Statement summarises one parsing run.
type Statement struct {
	ID                   string              `json:"id"`
	Source               string              `json:"source"`
	Layout               string              `json:"layout"`
	OpeningBalance       decimal.Decimal     `json:"opening_balance"`
	ClosingBalance       decimal.Decimal     `json:"closing_balance"`
	TotalCredit          decimal.Decimal     `json:"total_credit"`
	TotalDebit           decimal.Decimal     `json:"total_debit"`
	Nett                 decimal.Decimal     `json:"nett"`
	TransactionStartDate *time.Time          `json:"transaction_start_date,omitempty"`
	TransactionEndDate   *time.Time          `json:"transaction_end_date,omitempty"`
	Unreconciled         int                 `json:"unreconciled"`
	Transactions         []TransactionRecord `json:"transactions"`
}

// Layout is the per-bank capability set used to turn a Row into typed fields.
// Implementations must return ErrNotSupported from operations they cannot
// perform rather than zero values.
type Layout interface {
	Name() string
	RowSeparator() *regexp.Regexp
	DateFormat() string
	Date(row string) (time.Time, error)
	Balance(row string) (decimal.Decimal, error)
	Amount(row string) (decimal.Decimal, error)
	Narration(row string) (string, error)
}

// RowTrimmer is implemented by layouts that know where a row's last field
// ends. Rows closed by the end of a page are cut there, so page footers do
// not run into the balance.
type RowTrimmer interface {
	TrimTrailingRow(row string) string
}

// NewStatement builds the summary for an already assembled record list.
func NewStatement(id, source, layout string, opening decimal.Decimal, records []TransactionRecord) Statement {
	statement := Statement{
		ID:             id,
		Source:         source,
		Layout:         layout,
		OpeningBalance: opening,
		ClosingBalance: opening,
		TotalCredit:    decimal.Zero,
		TotalDebit:     decimal.Zero,
		Transactions:   records,
	}
	if statement.Transactions == nil {
		statement.Transactions = []TransactionRecord{}
	}

	for _, record := range records {
		if record.TransactionType == Debit {
			statement.TotalDebit = statement.TotalDebit.Add(record.TransactionAmount)
		} else {
			statement.TotalCredit = statement.TotalCredit.Add(record.TransactionAmount)
		}
		if !record.Reconciled {
			statement.Unreconciled++
		}
	}
	statement.Nett = statement.TotalCredit.Sub(statement.TotalDebit)

	if len(records) > 0 {
		first := records[0].TransactionDate
		last := records[len(records)-1].TransactionDate
		statement.TransactionStartDate = &first
		statement.TransactionEndDate = &last
		statement.ClosingBalance = records[len(records)-1].Balance
	}

	return statement
}
