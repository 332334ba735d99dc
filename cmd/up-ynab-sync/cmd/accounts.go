package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lachlanmcd/up-ynab-sync/pkg/config"
	"github.com/lachlanmcd/up-ynab-sync/pkg/upbank"
	"github.com/lachlanmcd/up-ynab-sync/pkg/ynab"
)

// accountsCmd represents the accounts command.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List Up Bank and YNAB accounts",
	Long: `List the accounts visible on both sides, with their ids.

Use the ids shown here to build the accounts file (resources.yaml)
mapping each Up account to its YNAB counterpart.

Example:
  up-ynab-sync accounts`,
	Run: runAccounts,
}

func runAccounts(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitConfig(err, "failed to load configuration")
	exitConfig(cfg.Validate(), "invalid configuration")

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

	ctx := context.Background()

	slog.Debug("Pinging Up Bank API")
	exitOnError(upClient.Ping(ctx), "failed to reach the Up Bank API")

	slog.Debug("Fetching Up Bank accounts")
	upAccounts, err := upClient.ListAccounts(ctx)
	exitOnError(err, "failed to list Up Bank accounts")

	rows := pterm.TableData{{"Name", "Type", "Balance", "Up ID"}}
	for _, a := range upAccounts {
		rows = append(rows, []string{
			a.Attributes.DisplayName,
			a.Attributes.AccountType,
			fmt.Sprintf("%s %s", a.Attributes.Balance.Value, a.Attributes.Balance.CurrencyCode),
			a.ID,
		})
	}
	pterm.DefaultSection.Printfln("Up Bank accounts (%d)", len(upAccounts))
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	slog.Debug("Fetching YNAB accounts")
	ynabAccounts, err := ynabClient.ListAccounts(ctx)
	exitOnError(err, "failed to list YNAB accounts")

	rows = pterm.TableData{{"Name", "Type", "Balance", "YNAB ID"}}
	for _, a := range ynabAccounts {
		if a.Closed || a.Deleted {
			continue
		}
		rows = append(rows, []string{
			a.Name,
			a.Type,
			fmt.Sprintf("%.2f", float64(a.Balance)/1000),
			a.ID,
		})
	}
	pterm.DefaultSection.Printfln("YNAB accounts (%d)", len(ynabAccounts))
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
