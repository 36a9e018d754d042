// Package reconcile infers debit or credit from running-balance arithmetic.
package reconcile

import (
	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/shopspring/decimal"
)

type Result struct {
	Type common.TransactionType
	// Reconciled is false when neither previous-amount nor previous+amount
	// lands on the current balance. Type is then CREDIT by convention.
	Reconciled bool
	// Delta is current-previous, the movement the row actually shows.
	Delta decimal.Decimal
}

// Classify returns DEBIT when previous-amount equals current within
// tolerance, otherwise CREDIT. A zero tolerance means exact equality;
// decimal comparison ignores scale, so 800 and 800.00 are equal.
func Classify(amount, previous, current, tolerance decimal.Decimal) Result {
	result := Result{Delta: current.Sub(previous)}

	if within(previous.Sub(amount), current, tolerance) {
		result.Type = common.Debit
		result.Reconciled = true
		return result
	}

	result.Type = common.Credit
	result.Reconciled = within(previous.Add(amount), current, tolerance)
	return result
}

func within(expected, actual, tolerance decimal.Decimal) bool {
	if tolerance.IsZero() {
		return expected.Equal(actual)
	}
	return expected.Sub(actual).Abs().LessThanOrEqual(tolerance.Abs())
}
