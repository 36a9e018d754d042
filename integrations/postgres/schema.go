package postgres

import (
	"context"
	"fmt"
)

const ddl = `
-- Statements table, one row per successful parsing session
CREATE TABLE IF NOT EXISTS statements (
    id UUID PRIMARY KEY,
    source VARCHAR(255) NOT NULL,
    layout VARCHAR(50) NOT NULL,
    opening_balance NUMERIC(18,2) NOT NULL,
    closing_balance NUMERIC(18,2) NOT NULL,
    total_credit NUMERIC(18,2) NOT NULL,
    total_debit NUMERIC(18,2) NOT NULL,
    nett NUMERIC(18,2) NOT NULL,
    transaction_start_date DATE,
    transaction_end_date DATE,
    unreconciled INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    -- Natural key for deduplication
    UNIQUE(source, layout, opening_balance)
);

-- Transactions table
CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    statement_id UUID NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
    sequence INTEGER NOT NULL,
    transaction_date DATE NOT NULL,
    narration TEXT NOT NULL,
    description TEXT,
    type VARCHAR(10) NOT NULL,
    amount NUMERIC(18,2) NOT NULL,
    balance NUMERIC(18,2) NOT NULL,
    reconciled BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(statement_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_statements_source ON statements(source);
CREATE INDEX IF NOT EXISTS idx_transactions_statement_id ON transactions(statement_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date);
`

// migrateDDL adds columns introduced after the first release
const migrateDDL = `
DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'transactions' AND column_name = 'reconciled') THEN
        ALTER TABLE transactions ADD COLUMN reconciled BOOLEAN NOT NULL DEFAULT true;
    END IF;
END $$;

DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'statements' AND column_name = 'unreconciled') THEN
        ALTER TABLE statements ADD COLUMN unreconciled INTEGER NOT NULL DEFAULT 0;
    END IF;
END $$;
`

// EnsureSchema creates tables if they don't exist and runs migrations
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err = db.Pool.Exec(ctx, migrateDDL)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
