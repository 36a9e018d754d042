package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration, used when no .stmtscrape.yaml is found
const defaultConfigYAML = `
layouts:
  ZENITH:
    currency: NGN
    row_separator: '\d{2}/\d{2}/\d{4}\d{2}/\d{2}/\d{4}'
    date: '^\d{2}/\d{2}/\d{4}'
    date_format: '02/01/2006'
    thousands_separator: ','
    max_marker_run: 3
  GTBANK:
    currency: NGN
session:
  layout: ZENITH
  include_trailing_row: false
  strict_reconciliation: false
  reconciliation_tolerance: "0"
output:
  format: csv
  path: output.csv
`

var (
	cfgFile string
	verbose bool
	logger  = log.Default()
	rootCmd = &cobra.Command{
		Use:   "stmtscrape",
		Short: "Turn bank statement PDFs into transaction tables",
		Long: `stmtscrape segments the text of a bank statement into transaction rows,
reads date, narration, amount and balance from each, and infers debit or
credit from the running balance.`,
		SilenceUsage: true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.stmtscrape.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "stmtscrape",
		Level:           level,
	})
	log.SetDefault(logger)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".stmtscrape")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STMTSCRAPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}
