// Package sync implements the reconciliation-driven incremental sync
// engine: resolving each account's watermark, fetching and normalizing
// Up Bank transactions, and submitting them idempotently to YNAB.
package sync

// Failure records one transaction that could not be normalized or
// submitted, by its Up transaction id.
type Failure struct {
	SourceID string
	Reason   string
}

// Report summarizes one account's sync run. A report is produced even
// when the run fails outright, so one account's failure never
// suppresses the others' results.
type Report struct {
	Account string
	// Err is set when the run itself failed (watermark or fetch
	// transport failure after retries). Per-transaction problems go in
	// Failures instead.
	Err error

	Imported   int // created at the destination this run
	Duplicates int // already present (import_id no-ops)
	Skipped    int // unsettled, expected to settle later
	Failed     int
	Failures   []Failure

	// Created lists the transactions actually created this run, for the
	// history store.
	Created []CreatedTransaction
}

// CreatedTransaction identifies one transaction created at the
// destination.
type CreatedTransaction struct {
	ImportID string
	Date     string // YYYY-MM-DD
	Amount   int64  // milliunits
}

// Succeeded reports whether the run completed, regardless of
// per-transaction failures.
func (r Report) Succeeded() bool {
	return r.Err == nil
}
