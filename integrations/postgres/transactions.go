package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/jackc/pgx/v5"
)

var spaceRegex = regexp.MustCompile(`\s+`)

// normalizeNarration collapses whitespace and uppercases, for matching
// across statements. The narration column keeps the text as printed.
func normalizeNarration(narration string) string {
	return strings.ToUpper(strings.TrimSpace(spaceRegex.ReplaceAllString(narration, " ")))
}

// CreateTransactions bulk inserts records for a statement
func (db *DB) CreateTransactions(ctx context.Context, statementID string, records []common.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO transactions (
				statement_id, sequence, transaction_date, narration, description, type, amount, balance, reconciled
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			statementID, record.Sequence, record.TransactionDate, record.Narration, normalizeNarration(record.Narration),
			string(record.TransactionType), record.TransactionAmount.StringFixed(2), record.Balance.StringFixed(2), record.Reconciled,
		)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, record := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", record.Sequence, err)
		}
	}

	return nil
}
