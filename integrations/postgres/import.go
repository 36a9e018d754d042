package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aqlanhadi/stmtscrape/extractor"
	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
)

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	Force          bool // Force reprocessing of existing statements
	Layout         string
	Password       string
	OpeningBalance decimal.Decimal
	Session        extractor.Options
	Logger         *log.Logger
}

func (o ImportOptions) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// ExtractFile runs a full session over one PDF. Nothing is returned on
// failure, so a statement is either stored whole or not at all.
func ExtractFile(filePath string, opts ImportOptions) (common.Statement, error) {
	layout, err := extractor.LayoutFor(opts.Layout)
	if err != nil {
		return common.Statement{}, err
	}

	document, err := common.OpenPDF(filePath, opts.Password)
	if err != nil {
		return common.Statement{}, fmt.Errorf("failed to open file: %w", err)
	}

	sessionOpts := opts.Session
	if sessionOpts.Logger == nil {
		sessionOpts.Logger = opts.logger()
	}
	session, err := extractor.NewSession(filepath.Base(filePath), opts.OpeningBalance, layout, document.Pages(), sessionOpts)
	if err != nil {
		return common.Statement{}, err
	}
	return session.Collect()
}

// ImportFile processes a single PDF and stores it in the database
// Returns: processed count, skipped count, failed count, error messages
func (db *DB) ImportFile(ctx context.Context, filePath string, opts ImportOptions) (processed int, skipped int, failed int, errors []string) {
	fileName := filepath.Base(filePath)
	logger := opts.logger()

	statement, err := ExtractFile(filePath, opts)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
	}

	exists, existingID, err := db.StatementExists(ctx, statement.Source, statement.Layout, statement.OpeningBalance)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: check error: %v", fileName, err)}
	}

	if exists && !opts.Force {
		logger.Info("skip, already imported", "file", fileName, "statement", existingID)
		return 0, 1, 0, nil
	}

	if exists {
		if err := db.DeleteStatement(ctx, existingID); err != nil {
			return 0, 0, 1, []string{fmt.Sprintf("%s: delete error: %v", fileName, err)}
		}
	}

	statementID, err := db.CreateStatement(ctx, statement)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: statement error: %v", fileName, err)}
	}

	if err := db.CreateTransactions(ctx, statementID, statement.Transactions); err != nil {
		// Rollback by deleting the statement
		_ = db.DeleteStatement(ctx, statementID)
		return 0, 0, 1, []string{fmt.Sprintf("%s: transactions error: %v", fileName, err)}
	}

	logger.Info("imported", "file", fileName, "statement", statementID,
		"transactions", len(statement.Transactions), "unreconciled", statement.Unreconciled)
	return 1, 0, 0, nil
}

// pdfFiles lists the PDFs directly inside dirPath, in name order.
func pdfFiles(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dirPath, e.Name()))
		}
	}
	return files, nil
}

// ImportDirectory processes all PDF files in a directory
func (db *DB) ImportDirectory(ctx context.Context, dirPath string, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	files, err := pdfFiles(dirPath)
	if err != nil {
		return nil, err
	}

	logger := opts.logger()
	logger.Info("scanning", "dir", dirPath, "files", len(files))

	for _, filePath := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		processed, skipped, failed, errors := db.ImportFile(ctx, filePath, opts)

		result.Processed += processed
		result.Skipped += skipped
		result.Failed += failed
		result.Errors = append(result.Errors, errors...)

		for _, errMsg := range errors {
			logger.Warn("import failed", "err", errMsg)
		}
	}

	return result, nil
}

// Import handles both file and directory imports
func (db *DB) Import(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, path, opts)
	}

	result := &ImportResult{}
	processed, skipped, failed, errors := db.ImportFile(ctx, path, opts)

	result.Processed = processed
	result.Skipped = skipped
	result.Failed = failed
	result.Errors = errors

	return result, nil
}
