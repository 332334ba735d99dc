package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ledger"
	"github.com/lachlanmcd/up-ynab-sync/pkg/mapping"
	"github.com/lachlanmcd/up-ynab-sync/pkg/upbank"
	"github.com/lachlanmcd/up-ynab-sync/pkg/ynab"
)

// SourceClient is the slice of the Up Bank client the engine needs.
type SourceClient interface {
	TransactionsSince(ctx context.Context, accountID string, since time.Time) ([]upbank.Transaction, error)
}

// DestinationClient is the slice of the YNAB client the engine and the
// watermark resolver need.
type DestinationClient interface {
	AccountTransactionsSince(ctx context.Context, accountID, sinceDate string) ([]ynab.Transaction, error)
	CreateTransactions(ctx context.Context, payloads []ynab.TransactionPayload) (ynab.CreateResult, error)
}

// Options configures the sync engine. Zero values fall back to the
// defaults noted on each field.
type Options struct {
	WatermarkFloor   string        // YYYY-MM-DD; default 2020-01-01
	FallbackLookback time.Duration // default 30 days
	MaxAttempts      int           // default 3
	RetryBaseDelay   time.Duration // default 1s
	BatchSize        int           // default 100
	Concurrency      int           // default 4
}

func (o Options) withDefaults() Options {
	if o.WatermarkFloor == "" {
		o.WatermarkFloor = "2020-01-01"
	}
	if o.FallbackLookback == 0 {
		o.FallbackLookback = 30 * 24 * time.Hour
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 3
	}
	if o.RetryBaseDelay == 0 {
		o.RetryBaseDelay = time.Second
	}
	if o.BatchSize == 0 {
		o.BatchSize = 100
	}
	if o.Concurrency == 0 {
		o.Concurrency = 4
	}
	return o
}

// Engine drives the end-to-end sync for each mapped account: resolve
// watermark, fetch, normalize, batch-submit, report. Submissions are
// idempotent through YNAB's import_id contract, so re-running over an
// overlapping window is safe and partial progress never needs rollback.
type Engine struct {
	source     SourceClient
	dest       DestinationClient
	normalizer *Normalizer
	watermarks *WatermarkResolver
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine creates a sync engine.
func NewEngine(source SourceClient, dest DestinationClient, mapper *mapping.Table, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	return &Engine{
		source:     source,
		dest:       dest,
		normalizer: NewNormalizer(mapper),
		watermarks: NewWatermarkResolver(dest, opts.WatermarkFloor),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// SyncAll syncs every account concurrently, bounded by the configured
// concurrency. Runs share nothing mutable; each gets its own report and
// a failed run never suppresses the others.
func (e *Engine) SyncAll(ctx context.Context, accounts []mapping.Account) []Report {
	reports := make([]Report, len(accounts))

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i, acct := range accounts {
		i, acct := i, acct
		g.Go(func() error {
			reports[i] = e.SyncAccount(ctx, acct)
			return nil
		})
	}
	_ = g.Wait() // goroutines only write reports

	return reports
}

// SyncAccount runs one account's sync end to end and always returns a
// report, failed or not.
func (e *Engine) SyncAccount(ctx context.Context, acct mapping.Account) Report {
	log := e.logger.With("account", acct.Name)

	payloads, report := e.prepare(ctx, acct, log)
	if report.Err != nil {
		return report
	}

	if err := e.submit(ctx, payloads, &report, log); err != nil {
		report.Err = err
		return report
	}

	log.Info("Account sync complete",
		"imported", report.Imported,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report
}

// Preview resolves the watermark, fetches, and normalizes without
// submitting anything. Used by dry runs.
func (e *Engine) Preview(ctx context.Context, acct mapping.Account) ([]ynab.TransactionPayload, Report) {
	return e.prepare(ctx, acct, e.logger.With("account", acct.Name))
}

// prepare covers the read side of a run: watermark, fetch, normalize.
func (e *Engine) prepare(ctx context.Context, acct mapping.Account, log *slog.Logger) ([]ynab.TransactionPayload, Report) {
	report := Report{Account: acct.Name}

	fallback := e.now().Add(-e.opts.FallbackLookback)

	var since time.Time
	err := e.retry(ctx, func() error {
		var rerr error
		since, rerr = e.watermarks.Resolve(ctx, acct.YNAB.ID, fallback)
		return rerr
	})
	if err != nil {
		report.Err = fmt.Errorf("failed to resolve watermark: %w", err)
		return nil, report
	}
	log.Info("Resolved watermark", "since", since.Format(dateLayout))

	var transactions []upbank.Transaction
	err = e.retry(ctx, func() error {
		var rerr error
		transactions, rerr = e.source.TransactionsSince(ctx, acct.Up.ID, since)
		return rerr
	})
	if err != nil {
		report.Err = fmt.Errorf("failed to fetch transactions: %w", err)
		return nil, report
	}
	log.Info("Fetched transactions", "count", len(transactions))

	payloads := e.normalizeAll(transactions, acct.YNAB.ID, &report, log)
	return payloads, report
}

// normalizeAll converts each transaction independently. A bad transfer
// mapping or malformed record fails only its own transaction.
func (e *Engine) normalizeAll(transactions []upbank.Transaction, ynabAccountID string, report *Report, log *slog.Logger) []ynab.TransactionPayload {
	payloads := make([]ynab.TransactionPayload, 0, len(transactions))

	for _, tx := range transactions {
		payload, ok, err := e.normalizer.Normalize(tx, ynabAccountID)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, Failure{SourceID: tx.ID, Reason: err.Error()})
			log.Warn("Failed to normalize transaction", "transaction_id", tx.ID, "error", err)
			continue
		}
		if !ok {
			report.Skipped++
			continue
		}
		payloads = append(payloads, payload)
	}

	return payloads
}

// submit sends payloads in batches. Transport failures are retried with
// exponential backoff; once retries are exhausted the run aborts (the
// network is gone, and resuming later is safe). A validation rejection
// is recorded against the whole batch, since YNAB does not report
// per-item results, and submission continues with the next batch.
func (e *Engine) submit(ctx context.Context, payloads []ynab.TransactionPayload, report *Report, log *slog.Logger) error {
	for start := 0; start < len(payloads); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(payloads))
		batch := payloads[start:end]

		var result ynab.CreateResult
		err := e.retry(ctx, func() error {
			var rerr error
			result, rerr = e.dest.CreateTransactions(ctx, batch)
			return rerr
		})
		if err != nil {
			if ledger.IsValidation(err) {
				for _, p := range batch {
					report.Failed++
					report.Failures = append(report.Failures, Failure{SourceID: p.ImportID, Reason: err.Error()})
				}
				log.Warn("Batch rejected by destination", "size", len(batch), "error", err)
				continue
			}
			return fmt.Errorf("failed to submit batch: %w", err)
		}

		report.Imported += result.Created
		report.Duplicates += len(result.DuplicateImportIDs)

		dup := make(map[string]bool, len(result.DuplicateImportIDs))
		for _, id := range result.DuplicateImportIDs {
			dup[id] = true
		}
		for _, p := range batch {
			if !dup[p.ImportID] {
				report.Created = append(report.Created, CreatedTransaction{
					ImportID: p.ImportID,
					Date:     p.Date,
					Amount:   p.Amount,
				})
			}
		}

		log.Debug("Submitted batch", "size", len(batch), "created", result.Created, "duplicates", len(result.DuplicateImportIDs))
	}

	return nil
}

func (e *Engine) retry(ctx context.Context, fn func() error) error {
	return retryTransport(ctx, e.opts.MaxAttempts, e.opts.RetryBaseDelay, fn)
}
