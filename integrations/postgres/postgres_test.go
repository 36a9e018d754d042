package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNarration(t *testing.T) {
	assert.Equal(t, "POS PURCHASE LEKKI", normalizeNarration("  pos  purchase\tLekki "))
	assert.Equal(t, "", normalizeNarration(" "))
}

func TestPDFFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PDF", "a.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	files, err := pdfFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.PDF")}, files)
}

func TestExtractFile_UnknownLayout(t *testing.T) {
	_, err := ExtractFile("statement.pdf", ImportOptions{Layout: "ACCESS"})
	assert.ErrorIs(t, err, common.ErrNotSupported)
}

func TestExtractFile_Missing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"), ImportOptions{Layout: "ZENITH"})
	assert.Error(t, err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://user@localhost:notaport/db")
	assert.Error(t, err)
}

// TestStatementRoundTrip needs a scratch database, e.g.
// STMTSCRAPE_TEST_DATABASE_URL=postgres://localhost/stmtscrape_test
func TestStatementRoundTrip(t *testing.T) {
	url := os.Getenv("STMTSCRAPE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STMTSCRAPE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.EnsureSchema(ctx))

	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	records := []common.TransactionRecord{{
		Sequence: 1, TransactionDate: date, Date: "01/02/2024", Narration: "POS PURCHASE",
		TransactionAmount: decimal.NewFromInt(200), Balance: decimal.NewFromInt(800),
		TransactionType: common.Debit, Reconciled: true,
	}}
	source := "roundtrip-" + uuid.NewString() + ".pdf"
	statement := common.NewStatement(uuid.NewString(), source, "ZENITH", decimal.NewFromInt(1000), records)

	id, err := db.CreateStatement(ctx, statement)
	require.NoError(t, err)
	defer db.DeleteStatement(ctx, id)
	require.NoError(t, db.CreateTransactions(ctx, id, statement.Transactions))

	exists, existingID, err := db.StatementExists(ctx, source, "ZENITH", decimal.RequireFromString("1000.00"))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, id, existingID)

	exists, _, err = db.StatementExists(ctx, source, "ZENITH", decimal.NewFromInt(999))
	require.NoError(t, err)
	assert.False(t, exists)
}
