package cmd

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lachlanmcd/up-ynab-sync/pkg/config"
	"github.com/lachlanmcd/up-ynab-sync/pkg/syncdb"
)

var (
	statsRuns        int
	statsCheckImport string
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display sync statistics",
	Long: `Display statistics about past sync runs.

Shows:
- Total number of runs
- Total transactions imported and failed
- Last run timestamp
- The most recent runs per account

Example:
  up-ynab-sync stats
  up-ynab-sync stats --check 0a5f2f2c-9a34-4f2e-9f6d-0e8b7c1d2e3f`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsRuns, "runs", 10, "Number of recent runs to show")
	statsCmd.Flags().StringVar(&statsCheckImport, "check", "", "Report whether the given import_id has been recorded")
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg, err := config.Load(getConfigFile())
	exitConfig(err, "failed to load configuration")

	slog.Debug("Opening database", "path", cfg.Sync.DBPath)
	conn, err := syncdb.Open(cfg.Sync.DBPath)
	exitOnError(err, "failed to open sync history database")
	defer conn.Close()

	history := syncdb.NewHistory(conn)

	if statsCheckImport != "" {
		imported, err := history.IsImported(statsCheckImport)
		exitOnError(err, "failed to check import")
		if imported {
			fmt.Printf("%s: imported\n", statsCheckImport)
		} else {
			fmt.Printf("%s: not imported\n", statsCheckImport)
		}
		return
	}

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Sync Statistics ===")
	fmt.Printf("Total runs:           %d\n", stats.TotalRuns)
	fmt.Printf("Total imported:       %d\n", stats.TotalImported)
	fmt.Printf("Total failed:         %d\n", stats.TotalFailed)
	if stats.LastRun.Valid {
		fmt.Printf("Last run:             %s\n", stats.LastRun.String)
	}
	fmt.Println()

	runs, err := history.RecentRuns(statsRuns)
	exitOnError(err, "failed to get recent runs")

	if len(runs) == 0 {
		return
	}

	rows := pterm.TableData{{"Started", "Account", "Imported", "Duplicates", "Skipped", "Failed", "Error"}}
	for _, run := range runs {
		rows = append(rows, []string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Account,
			fmt.Sprintf("%d", run.Imported),
			fmt.Sprintf("%d", run.Duplicates),
			fmt.Sprintf("%d", run.Skipped),
			fmt.Sprintf("%d", run.Failed),
			run.Error,
		})
	}
	pterm.DefaultSection.Println("Recent runs")
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
