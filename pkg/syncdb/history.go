package syncdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRecord represents one account's sync run.
type RunRecord struct {
	ID         string
	Account    string
	StartedAt  time.Time
	FinishedAt time.Time
	Imported   int
	Duplicates int
	Skipped    int
	Failed     int
	Error      string
}

// ImportRecord represents one transaction imported into YNAB.
type ImportRecord struct {
	ImportID string
	Account  string
	Date     string // YYYY-MM-DD
	Amount   int64  // milliunits
}

// Stats summarizes the whole history.
type Stats struct {
	TotalRuns     int
	TotalImported int
	TotalFailed   int
	LastRun       sql.NullString
}

// History manages sync history operations.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// RecordRun stores a run and its imported transactions in one
// transaction. It assigns and returns the run id.
func (h *History) RecordRun(run RunRecord, imports []ImportRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	err := h.conn.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO sync_runs (id, account, started_at, finished_at, imported, duplicates, skipped, failed, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''))
		`,
			run.ID,
			run.Account,
			run.StartedAt.UTC(),
			run.FinishedAt.UTC(),
			run.Imported,
			run.Duplicates,
			run.Skipped,
			run.Failed,
			run.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}

		for _, imp := range imports {
			// A resubmitted import_id is YNAB's no-op; it stays a no-op here too.
			_, err := tx.Exec(`
				INSERT INTO imported_transactions (import_id, account, txn_date, amount, run_id)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(import_id) DO NOTHING
			`,
				imp.ImportID,
				imp.Account,
				imp.Date,
				imp.Amount,
				run.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to record import %s: %w", imp.ImportID, err)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return run.ID, nil
}

// IsImported checks whether an import_id has already been recorded.
func (h *History) IsImported(importID string) (bool, error) {
	var count int
	err := h.conn.QueryRow(`
		SELECT COUNT(*) FROM imported_transactions WHERE import_id = ?
	`, importID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check import: %w", err)
	}
	return count > 0, nil
}

// RecentRuns returns the most recent runs, newest first.
func (h *History) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := h.conn.Query(`
		SELECT id, account, started_at, finished_at, imported, duplicates, skipped, failed, COALESCE(error, '')
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		if err := rows.Scan(
			&run.ID,
			&run.Account,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Imported,
			&run.Duplicates,
			&run.Skipped,
			&run.Failed,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetStats returns aggregate statistics over all runs.
func (h *History) GetStats() (Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(imported), 0), COALESCE(SUM(failed), 0), MAX(finished_at)
		FROM sync_runs
	`).Scan(&stats.TotalRuns, &stats.TotalImported, &stats.TotalFailed, &stats.LastRun)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}
