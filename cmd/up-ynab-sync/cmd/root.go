// Package cmd provides CLI commands for up-ynab-sync.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes, distinguishable by automation callers.
const (
	exitOK            = 0
	exitConfigError   = 2 // missing credentials or mapping; no network call attempted
	exitPartialFailed = 3 // some accounts failed to sync
	exitTotalFailed   = 4 // no account synced
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "up-ynab-sync",
	Short: "Sync Up Bank transactions to YNAB",
	Long: `up-ynab-sync is a CLI tool that synchronizes transactions from the
Up Bank API into a YNAB budget.

It supports:
- Resuming from each account's last YNAB reconciliation date
- Resolving inter-account transfers to YNAB transfer payees
- Idempotent imports via YNAB import_id deduplication
- Recording sync history in SQLite
- Dry-run mode for testing

Example:
  up-ynab-sync sync
  up-ynab-sync sync --account "Up Spending" --dry-run
  up-ynab-sync accounts
  up-ynab-sync stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// exitConfig reports a configuration error and exits with its code.
func exitConfig(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(exitConfigError)
	}
}

// Helper function to handle unexpected errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
