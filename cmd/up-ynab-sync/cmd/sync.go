package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lachlanmcd/up-ynab-sync/pkg/config"
	"github.com/lachlanmcd/up-ynab-sync/pkg/mapping"
	"github.com/lachlanmcd/up-ynab-sync/pkg/sync"
	"github.com/lachlanmcd/up-ynab-sync/pkg/syncdb"
	"github.com/lachlanmcd/up-ynab-sync/pkg/upbank"
	"github.com/lachlanmcd/up-ynab-sync/pkg/ynab"
)

var (
	accountName string
	dryRun      bool
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Up Bank transactions to YNAB",
	Long: `Sync transactions from the Up Bank API into YNAB.

For each mapped account this command:
1. Finds the account's last YNAB reconciliation date (the watermark)
2. Fetches Up transactions from that date forward
3. Converts settled transactions to YNAB format, resolving transfers
4. Submits them in batches; YNAB deduplicates on import_id
5. Records run history in SQLite

Example:
  up-ynab-sync sync
  up-ynab-sync sync --account "Up Spending"
  up-ynab-sync sync --dry-run`,
	Run: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&accountName, "account", "", "Sync only the named account from the accounts file")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no submissions)")
}

func runSync(cmd *cobra.Command, args []string) {
	slog.Info("Starting sync", "account", accountName, "dry_run", dryRun)

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitConfig(err, "failed to load configuration")
	exitConfig(cfg.Validate(), "invalid configuration")

	// Load account mapping
	table, err := mapping.Load(cfg.Sync.AccountsFile)
	exitConfig(err, "failed to load account mapping")

	accounts := table.Accounts()
	if accountName != "" {
		acct, ok := table.ByName(accountName)
		if !ok {
			exitConfig(fmt.Errorf("account %q not found in %s", accountName, cfg.Sync.AccountsFile), "unknown account")
		}
		accounts = []mapping.Account{acct}
	}

	// Initialize API clients
	upClient := upbank.NewClient(upbank.ClientConfig{
		APIURL:      cfg.Up.APIURL,
		AccessToken: cfg.Up.AccessToken,
		Timeout:     cfg.Sync.HTTPTimeout,
	})
	ynabClient := ynab.NewClient(ynab.ClientConfig{
		APIURL:      cfg.YNAB.APIURL,
		AccessToken: cfg.YNAB.AccessToken,
		BudgetID:    cfg.YNAB.BudgetID,
		Timeout:     cfg.Sync.HTTPTimeout,
	})

	engine := sync.NewEngine(upClient, ynabClient, table, sync.Options{
		WatermarkFloor:   cfg.Sync.WatermarkFloor,
		FallbackLookback: cfg.Sync.FallbackLookback,
		MaxAttempts:      cfg.Sync.MaxAttempts,
		RetryBaseDelay:   cfg.Sync.RetryBaseDelay,
		BatchSize:        cfg.Sync.BatchSize,
		Concurrency:      cfg.Sync.Concurrency,
	}, slog.Default())

	// Operator abort stops new fetches and submissions promptly;
	// in-flight calls finish or time out on their own.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dryRun {
		runDryRun(ctx, engine, ynabClient, accounts)
		return
	}

	started := time.Now()
	reports := engine.SyncAll(ctx, accounts)
	finished := time.Now()

	recordHistory(cfg.Sync.DBPath, reports, started, finished)
	renderReports(reports)

	os.Exit(exitCode(reports))
}

func runDryRun(ctx context.Context, engine *sync.Engine, dest *ynab.Client, accounts []mapping.Account) {
	failed := 0
	for _, acct := range accounts {
		// Resolving the destination account name up front catches a
		// mistyped ynab.id in the accounts file before any preview work.
		destName, err := dest.AccountName(ctx, acct.YNAB.ID)
		if err != nil {
			pterm.Error.Printfln("%s: destination account %s: %v", acct.Name, acct.YNAB.ID, err)
			failed++
			continue
		}

		payloads, report := engine.Preview(ctx, acct)
		if report.Err != nil {
			pterm.Error.Printfln("%s: %v", acct.Name, report.Err)
			failed++
			continue
		}

		pterm.DefaultSection.Printfln("[DRY RUN] %s -> %s: would submit %d transactions (%d skipped, %d failed)",
			acct.Name, destName, len(payloads), report.Skipped, report.Failed)
		for _, p := range payloads {
			line, _ := json.Marshal(p)
			fmt.Println(string(line))
		}
	}

	if failed == len(accounts) {
		os.Exit(exitTotalFailed)
	}
	if failed > 0 {
		os.Exit(exitPartialFailed)
	}
}

// recordHistory writes each run to the SQLite history. History is an
// audit record; failing to write it does not fail the sync.
func recordHistory(dbPath string, reports []sync.Report, started, finished time.Time) {
	conn, err := syncdb.Open(dbPath)
	if err != nil {
		slog.Warn("Failed to open sync history database", "path", dbPath, "error", err)
		return
	}
	defer conn.Close()

	history := syncdb.NewHistory(conn)
	for _, report := range reports {
		imports := make([]syncdb.ImportRecord, 0, len(report.Created))
		for _, created := range report.Created {
			imports = append(imports, syncdb.ImportRecord{
				ImportID: created.ImportID,
				Account:  report.Account,
				Date:     created.Date,
				Amount:   created.Amount,
			})
		}

		run := syncdb.RunRecord{
			Account:    report.Account,
			StartedAt:  started,
			FinishedAt: finished,
			Imported:   report.Imported,
			Duplicates: report.Duplicates,
			Skipped:    report.Skipped,
			Failed:     report.Failed,
		}
		if report.Err != nil {
			run.Error = report.Err.Error()
		}

		if _, err := history.RecordRun(run, imports); err != nil {
			slog.Warn("Failed to record run", "account", report.Account, "error", err)
		}
	}
}

// renderReports prints the per-account summary. Every account's result
// is shown even when some accounts failed entirely.
func renderReports(reports []sync.Report) {
	rows := pterm.TableData{
		{"Account", "Imported", "Duplicates", "Skipped", "Failed", "Status"},
	}
	for _, r := range reports {
		status := "ok"
		if r.Err != nil {
			status = "FAILED"
		}
		rows = append(rows, []string{
			r.Account,
			fmt.Sprintf("%d", r.Imported),
			fmt.Sprintf("%d", r.Duplicates),
			fmt.Sprintf("%d", r.Skipped),
			fmt.Sprintf("%d", r.Failed),
			status,
		})
	}

	pterm.DefaultSection.Println("Sync summary")
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	for _, r := range reports {
		if r.Err != nil {
			pterm.Error.Printfln("%s: %v", r.Account, r.Err)
		}
		for _, f := range r.Failures {
			pterm.Warning.Printfln("%s: transaction %s: %s", r.Account, f.SourceID, f.Reason)
		}
	}
}

func exitCode(reports []sync.Report) int {
	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}

	switch {
	case failed == 0:
		return exitOK
	case failed == len(reports):
		return exitTotalFailed
	default:
		return exitPartialFailed
	}
}
