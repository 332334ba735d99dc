package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ynab"
)

// dateLayout is the calendar-date form both ledgers agree on.
const dateLayout = "2006-01-02"

// WatermarkResolver determines the point in time from which the next
// sync must fetch source transactions, by inspecting the destination's
// reconciled records. The sync engine itself never marks anything
// reconciled, so the watermark only moves when a human (or a separate
// process) reconciles the account in YNAB.
type WatermarkResolver struct {
	dest DestinationClient
	// floor is the conservative historical date the destination is
	// scanned from. Comes from configuration, not a constant.
	floor string
}

// NewWatermarkResolver creates a WatermarkResolver scanning from floor
// (YYYY-MM-DD).
func NewWatermarkResolver(dest DestinationClient, floor string) *WatermarkResolver {
	return &WatermarkResolver{dest: dest, floor: floor}
}

// Resolve returns the date of the most recent reconciled transaction on
// the YNAB account. When the account has no reconciled transactions at
// all, it returns fallback unchanged rather than failing, so a first
// sync is never blocked. Only the date matters; YNAB's query granularity
// is date-level, so sub-day ordering among ties is irrelevant.
func (r *WatermarkResolver) Resolve(ctx context.Context, ynabAccountID string, fallback time.Time) (time.Time, error) {
	transactions, err := r.dest.AccountTransactionsSince(ctx, ynabAccountID, r.floor)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch destination transactions: %w", err)
	}

	var latest time.Time
	found := false
	for _, tx := range transactions {
		if tx.Cleared != ynab.ClearedReconciled {
			continue
		}
		d, err := time.Parse(dateLayout, tx.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed transaction date %q: %w", tx.Date, err)
		}
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}

	if !found {
		return fallback, nil
	}
	return latest, nil
}
