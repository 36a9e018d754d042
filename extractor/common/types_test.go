package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatement(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }
	records := []TransactionRecord{
		{Sequence: 1, TransactionDate: day(1), TransactionAmount: decimal.NewFromInt(200), Balance: decimal.NewFromInt(800), TransactionType: Debit, Reconciled: true},
		{Sequence: 2, TransactionDate: day(2), TransactionAmount: decimal.NewFromInt(50), Balance: decimal.NewFromInt(850), TransactionType: Credit, Reconciled: true},
		{Sequence: 3, TransactionDate: day(5), TransactionAmount: decimal.NewFromInt(10), Balance: decimal.NewFromInt(900), TransactionType: Credit},
	}

	statement := NewStatement("id-1", "statement.pdf", "ZENITH", decimal.NewFromInt(1000), records)

	assert.Equal(t, "200.00", FormatAmount(statement.TotalDebit))
	assert.Equal(t, "60.00", FormatAmount(statement.TotalCredit))
	assert.Equal(t, "-140.00", FormatAmount(statement.Nett))
	assert.Equal(t, "900.00", FormatAmount(statement.ClosingBalance))
	assert.Equal(t, 1, statement.Unreconciled)
	require.NotNil(t, statement.TransactionStartDate)
	assert.Equal(t, day(1), *statement.TransactionStartDate)
	assert.Equal(t, day(5), *statement.TransactionEndDate)
}

func TestNewStatement_Empty(t *testing.T) {
	statement := NewStatement("id-2", "empty.pdf", "ZENITH", decimal.NewFromInt(1000), nil)

	assert.NotNil(t, statement.Transactions)
	assert.Empty(t, statement.Transactions)
	assert.True(t, statement.ClosingBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, statement.Nett.IsZero())
	assert.Nil(t, statement.TransactionEndDate)
}

func TestKindOf(t *testing.T) {
	err := &RowError{Index: 3, Page: 1, Err: ErrNumericParse}
	assert.Equal(t, ErrNumericParse, KindOf(err))
	assert.Equal(t, ErrNumericParse, err.Kind())
	assert.Equal(t, "row 3 (page 1): numeric parse error", err.Error())
	assert.Nil(t, KindOf(assert.AnError))
	assert.Equal(t, "NumericParseError", KindName(err))
	assert.Equal(t, "", KindName(assert.AnError))
}

func TestPagesFromStrings(t *testing.T) {
	var got []string
	for text, err := range PagesFromStrings([]string{"a", "b"}) {
		require.NoError(t, err)
		got = append(got, text)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestOpenPDF_Missing(t *testing.T) {
	_, err := OpenPDF("does-not-exist.pdf", "")
	assert.Error(t, err)
}
