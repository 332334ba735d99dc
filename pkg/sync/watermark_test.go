package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ledger"
	"github.com/lachlanmcd/up-ynab-sync/pkg/upbank"
	"github.com/lachlanmcd/up-ynab-sync/pkg/ynab"
)

// fakeDest is a scriptable DestinationClient. The call counter is
// atomic because SyncAll runs account goroutines against one fake.
type fakeDest struct {
	transactions []ynab.Transaction
	fetchErr     error

	createCalls atomic.Int32
	createErrs  []error // error per call, nil entries succeed
	created     []ynab.TransactionPayload
	// seenImportIDs makes previously imported ids duplicates, matching
	// YNAB's import_id contract.
	seenImportIDs map[string]bool
}

func (f *fakeDest) AccountTransactionsSince(ctx context.Context, accountID, sinceDate string) ([]ynab.Transaction, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.transactions, nil
}

func (f *fakeDest) CreateTransactions(ctx context.Context, payloads []ynab.TransactionPayload) (ynab.CreateResult, error) {
	call := int(f.createCalls.Add(1)) - 1
	if call < len(f.createErrs) && f.createErrs[call] != nil {
		return ynab.CreateResult{}, f.createErrs[call]
	}

	if f.seenImportIDs == nil {
		f.seenImportIDs = make(map[string]bool)
	}

	var result ynab.CreateResult
	for _, p := range payloads {
		if f.seenImportIDs[p.ImportID] {
			result.DuplicateImportIDs = append(result.DuplicateImportIDs, p.ImportID)
			continue
		}
		f.seenImportIDs[p.ImportID] = true
		f.created = append(f.created, p)
		result.Created++
	}
	return result, nil
}

// fakeSource is a scriptable SourceClient.
type fakeSource struct {
	transactions []upbank.Transaction
	errs         []error // error per call, nil entries succeed
	calls        atomic.Int32
}

func (f *fakeSource) TransactionsSince(ctx context.Context, accountID string, since time.Time) ([]upbank.Transaction, error) {
	call := int(f.calls.Add(1)) - 1
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	return f.transactions, nil
}

func reconciledOn(dates ...string) []ynab.Transaction {
	var out []ynab.Transaction
	for _, d := range dates {
		out = append(out, ynab.Transaction{Date: d, Cleared: ynab.ClearedReconciled})
	}
	return out
}

func TestResolvePicksLatestReconciledDate(t *testing.T) {
	dest := &fakeDest{transactions: reconciledOn("2025-03-01", "2025-03-15", "2025-02-20")}
	resolver := NewWatermarkResolver(dest, "2020-01-01")

	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := resolver.Resolve(context.Background(), "acct", fallback)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-15", got.Format(dateLayout))
}

func TestResolveIgnoresUnreconciled(t *testing.T) {
	dest := &fakeDest{transactions: []ynab.Transaction{
		{Date: "2025-03-01", Cleared: ynab.ClearedReconciled},
		{Date: "2025-04-20", Cleared: ynab.ClearedCleared},
		{Date: "2025-05-01", Cleared: ynab.ClearedUncleared},
	}}
	resolver := NewWatermarkResolver(dest, "2020-01-01")

	got, err := resolver.Resolve(context.Background(), "acct", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", got.Format(dateLayout))
}

func TestResolveFallsBackWithoutReconciliationHistory(t *testing.T) {
	dest := &fakeDest{transactions: []ynab.Transaction{
		{Date: "2025-04-20", Cleared: ynab.ClearedCleared},
	}}
	resolver := NewWatermarkResolver(dest, "2020-01-01")

	fallback := time.Date(2025, 2, 13, 9, 30, 0, 0, time.UTC)
	got, err := resolver.Resolve(context.Background(), "acct", fallback)
	require.NoError(t, err)

	// The fallback is returned unchanged, not truncated or shifted.
	assert.True(t, got.Equal(fallback))
}

func TestResolvePropagatesFetchFailure(t *testing.T) {
	dest := &fakeDest{fetchErr: &ledger.TransportError{Op: "ynab.transactions", Status: 502}}
	resolver := NewWatermarkResolver(dest, "2020-01-01")

	_, err := resolver.Resolve(context.Background(), "acct", time.Now())
	require.Error(t, err)
	assert.True(t, ledger.IsTransport(err))
}

func TestResolveRejectsMalformedDates(t *testing.T) {
	dest := &fakeDest{transactions: []ynab.Transaction{
		{Date: "15/03/2025", Cleared: ynab.ClearedReconciled},
	}}
	resolver := NewWatermarkResolver(dest, "2020-01-01")

	_, err := resolver.Resolve(context.Background(), "acct", time.Now())
	assert.Error(t, err)
}
