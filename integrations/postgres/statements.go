package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// StatementExists checks if a statement already exists using natural key
func (db *DB) StatementExists(ctx context.Context, source, layout string, opening decimal.Decimal) (bool, string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM statements
		WHERE source = $1 AND layout = $2 AND opening_balance = $3
	`, source, layout, opening.StringFixed(2)).Scan(&id)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to check statement: %w", err)
	}

	return true, id, nil
}

// CreateStatement inserts a statement under its session ID
func (db *DB) CreateStatement(ctx context.Context, stmt common.Statement) (string, error) {
	var id string

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO statements (
			id, source, layout,
			opening_balance, closing_balance,
			total_credit, total_debit, nett,
			transaction_start_date, transaction_end_date, unreconciled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		stmt.ID, stmt.Source, stmt.Layout,
		stmt.OpeningBalance.StringFixed(2), stmt.ClosingBalance.StringFixed(2),
		stmt.TotalCredit.StringFixed(2), stmt.TotalDebit.StringFixed(2), stmt.Nett.StringFixed(2),
		stmt.TransactionStartDate, stmt.TransactionEndDate, stmt.Unreconciled,
	).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create statement: %w", err)
	}

	return id, nil
}

// DeleteStatement removes a statement and its transactions (cascade)
func (db *DB) DeleteStatement(ctx context.Context, statementID string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM statements WHERE id = $1`, statementID)
	if err != nil {
		return fmt.Errorf("failed to delete statement: %w", err)
	}
	return nil
}
