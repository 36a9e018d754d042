package extractor

import (
	"fmt"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/aqlanhadi/stmtscrape/extractor/reconcile"
	"github.com/shopspring/decimal"
)

// Assemble turns one row into a record. previous is the running balance
// before this row; the record's Balance is the running balance after it.
func Assemble(layout common.Layout, row common.Row, previous decimal.Decimal, opts Options) (common.TransactionRecord, reconcile.Result, error) {
	date, err := layout.Date(row.Text)
	if err != nil {
		return common.TransactionRecord{}, reconcile.Result{}, err
	}
	balance, err := layout.Balance(row.Text)
	if err != nil {
		return common.TransactionRecord{}, reconcile.Result{}, err
	}
	amount, err := layout.Amount(row.Text)
	if err != nil {
		return common.TransactionRecord{}, reconcile.Result{}, err
	}
	narration, err := layout.Narration(row.Text)
	if err != nil {
		return common.TransactionRecord{}, reconcile.Result{}, err
	}

	result := reconcile.Classify(amount, previous, balance, opts.Tolerance)
	if !result.Reconciled && opts.StrictReconciliation {
		return common.TransactionRecord{}, result, fmt.Errorf("%w: previous %s, amount %s, balance %s",
			common.ErrUnreconciled, previous, amount, balance)
	}

	return common.TransactionRecord{
		Sequence:          row.Index + 1,
		TransactionDate:   date,
		Date:              date.Format(layout.DateFormat()),
		Narration:         narration,
		TransactionAmount: amount,
		Balance:           balance,
		TransactionType:   result.Type,
		Reconciled:        result.Reconciled,
	}, result, nil
}
