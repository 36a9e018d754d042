package cmd

import (
	"errors"
	"fmt"
	"iter"
	"os"

	"github.com/aqlanhadi/stmtscrape/export"
	"github.com/aqlanhadi/stmtscrape/extractor"
	"github.com/aqlanhadi/stmtscrape/extractor/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	extractOpening  string
	extractPassword string
	extractText     []string
)

var extractCmd = &cobra.Command{
	Use:   "extract [file.pdf]",
	Short: "Extracts transactions from a statement",
	Long: `Extracts the transactions of one statement and writes them as a table.

Examples:
  stmtscrape extract statement.pdf --opening-balance 1000.00
  stmtscrape extract statement.pdf --opening-balance 1000.00 --format xlsx -o ledger.xlsx
  stmtscrape extract --text page1.txt --text page2.txt --opening-balance 0 -o -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractOpening == "" {
		return errors.New("--opening-balance is required")
	}
	opening, err := decimal.NewFromString(extractOpening)
	if err != nil {
		return fmt.Errorf("invalid --opening-balance %q: %w", extractOpening, err)
	}

	pages, source, err := pageSource(args)
	if err != nil {
		return err
	}

	layout, err := extractor.LayoutFor(viper.GetString("session.layout"))
	if err != nil {
		return err
	}

	opts, err := extractor.OptionsFromConfig()
	if err != nil {
		return err
	}
	opts.Logger = logger

	session, err := extractor.NewSession(source, opening, layout, pages, opts)
	if err != nil {
		return err
	}

	statement, err := session.Collect()
	if err != nil {
		return err
	}

	output := viper.GetString("output.path")
	format, err := outputFormat(cmd, output)
	if err != nil {
		return err
	}

	if output == "-" {
		return export.Write(os.Stdout, format, statement)
	}
	if err := export.WriteFile(output, format, statement); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%s: %d transactions written to %s", source, len(statement.Transactions), output)
	if statement.Unreconciled > 0 {
		fmt.Fprintf(os.Stderr, " (%d did not reconcile)", statement.Unreconciled)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// pageSource reads --text files when given, otherwise the PDF argument.
func pageSource(args []string) (iter.Seq2[string, error], string, error) {
	if len(extractText) > 0 {
		if len(args) > 0 {
			return nil, "", errors.New("pass either a PDF or --text files, not both")
		}
		pages := make([]string, 0, len(extractText))
		for _, path := range extractText {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, "", err
			}
			pages = append(pages, string(data))
		}
		return common.PagesFromStrings(pages), extractText[0], nil
	}

	if len(args) != 1 {
		return nil, "", errors.New("a statement PDF is required")
	}
	document, err := common.OpenPDF(args[0], extractPassword)
	if err != nil {
		return nil, "", err
	}
	logger.Debug("opened document", "file", args[0], "pages", document.NumPage())
	return document.Pages(), args[0], nil
}

// outputFormat prefers --format, then the output file extension when only
// --output was given, then output.format.
func outputFormat(cmd *cobra.Command, output string) (export.Format, error) {
	flags := cmd.Flags()
	if !flags.Changed("format") && flags.Changed("output") && output != "-" {
		return export.FormatFromPath(output), nil
	}
	return export.ParseFormat(viper.GetString("output.format"))
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.StringVar(&extractOpening, "opening-balance", "", "Balance before the first transaction (required)")
	flags.StringVarP(&extractPassword, "password", "p", "", "Password for encrypted PDFs")
	flags.StringArrayVar(&extractText, "text", nil, "Read page text from this file instead of a PDF (repeatable, in page order)")
	flags.StringP("layout", "l", "", "Statement layout (ZENITH)")
	flags.StringP("format", "f", "csv", "Output format: csv, json, xlsx or pdf")
	flags.StringP("output", "o", "output.csv", "Output file, - for stdout")
	flags.Bool("include-trailing-row", false, "Emit the last row of every page, cut after its balance")
	flags.Bool("strict", false, "Fail on rows whose balance does not reconcile")
	flags.String("tolerance", "0", "Reconciliation tolerance")

	viper.BindPFlag("session.layout", flags.Lookup("layout"))
	viper.BindPFlag("session.include_trailing_row", flags.Lookup("include-trailing-row"))
	viper.BindPFlag("session.strict_reconciliation", flags.Lookup("strict"))
	viper.BindPFlag("session.reconciliation_tolerance", flags.Lookup("tolerance"))
	viper.BindPFlag("output.format", flags.Lookup("format"))
	viper.BindPFlag("output.path", flags.Lookup("output"))
}
