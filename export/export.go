// Package export writes assembled statements as CSV, JSON, XLSX or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/aqlanhadi/stmtscrape/metrics"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// Header is the column order of every tabular export.
var Header = []string{"transaction_date", "narration", "transaction_amount", "balance", "transaction_type"}

func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case CSV, JSON, XLSX, PDF:
		return f, nil
	case "":
		return CSV, nil
	}
	return "", fmt.Errorf("%w: export format %q", common.ErrNotSupported, name)
}

// FormatFromPath guesses the format from a file extension, falling back to CSV.
func FormatFromPath(path string) Format {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return CSV
	}
	if f, err := ParseFormat(path[i+1:]); err == nil {
		return f
	}
	return CSV
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	}
	return "text/csv"
}

// Write renders the statement to w.
func Write(w io.Writer, format Format, statement common.Statement) (err error) {
	defer func() { metrics.IncExport(string(format), metrics.Result(err)) }()

	switch format {
	case CSV:
		return WriteCSV(w, statement.Transactions)
	case JSON:
		return WriteJSON(w, statement)
	case XLSX:
		return WriteXLSX(w, statement)
	case PDF:
		return WritePDF(w, statement)
	}
	return fmt.Errorf("%w: export format %q", common.ErrNotSupported, format)
}

// WriteFile renders the statement into path, replacing any existing file.
// The file is only created once rendering has succeeded.
func WriteFile(path string, format Format, statement common.Statement) error {
	var buf bytes.Buffer
	if err := Write(&buf, format, statement); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func recordRow(record common.TransactionRecord) []string {
	return []string{
		record.Date,
		record.Narration,
		common.FormatAmount(record.TransactionAmount),
		common.FormatAmount(record.Balance),
		string(record.TransactionType),
	}
}

func WriteCSV(w io.Writer, records []common.TransactionRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(recordRow(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteJSON(w io.Writer, statement common.Statement) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(statement)
}

func WriteXLSX(w io.Writer, statement common.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	transactionsSheet := "transactions"
	summarySheet := "summary"
	f.SetSheetName("Sheet1", transactionsSheet)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	for i, title := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(transactionsSheet, cell, title)
	}
	for i, record := range statement.Transactions {
		row := i + 2
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("A%d", row), record.Date)
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("B%d", row), record.Narration)
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("C%d", row), record.TransactionAmount.InexactFloat64())
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("D%d", row), record.Balance.InexactFloat64())
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("E%d", row), string(record.TransactionType))
	}
	if len(statement.Transactions) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
		if err == nil {
			last := fmt.Sprintf("D%d", len(statement.Transactions)+1)
			_ = f.SetCellStyle(transactionsSheet, "C2", last, style)
		}
	}

	summary := [][2]any{
		{"Source", statement.Source},
		{"Layout", statement.Layout},
		{"Opening Balance", common.FormatAmount(statement.OpeningBalance)},
		{"Closing Balance", common.FormatAmount(statement.ClosingBalance)},
		{"Total Credit", common.FormatAmount(statement.TotalCredit)},
		{"Total Debit", common.FormatAmount(statement.TotalDebit)},
		{"Nett", common.FormatAmount(statement.Nett)},
		{"Transactions", len(statement.Transactions)},
		{"Unreconciled", statement.Unreconciled},
	}
	_ = f.SetCellValue(summarySheet, "A1", "Statement")
	for i, line := range summary {
		row := i + 3
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), line[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), line[1])
	}

	return f.Write(w)
}

func WritePDF(w io.Writer, statement common.Statement) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Account Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Source: %s", statement.Source))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Layout: %s", statement.Layout))
	pdf.Ln(5)
	if statement.TransactionStartDate != nil && statement.TransactionEndDate != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Period: %s - %s",
			statement.TransactionStartDate.Format("02/01/2006"), statement.TransactionEndDate.Format("02/01/2006")))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Opening Balance: %s", common.FormatAmount(statement.OpeningBalance)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Closing Balance: %s", common.FormatAmount(statement.ClosingBalance)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Credit: %s  Total Debit: %s  Nett: %s",
		common.FormatAmount(statement.TotalCredit), common.FormatAmount(statement.TotalDebit), common.FormatAmount(statement.Nett)))
	pdf.Ln(8)

	widths := []float64{30, 130, 40, 40, 30}
	pdf.SetFont("Arial", "B", 9)
	for i, title := range Header {
		pdf.CellFormat(widths[i], 6, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, record := range statement.Transactions {
		cells := recordRow(record)
		narration := cells[1]
		if pdf.GetStringWidth(narration) > widths[1]-2 {
			narration = truncate(pdf, narration, widths[1]-2)
		}
		pdf.CellFormat(widths[0], 6, cells[0], "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, narration, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, cells[2], "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, cells[3], "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, cells[4], "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func truncate(pdf *gofpdf.Fpdf, text string, width float64) string {
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
