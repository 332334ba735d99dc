// Package syncdb provides SQLite storage for sync run history. It is a
// record for the stats command and for auditing, not a deduplication
// layer: duplicate suppression is YNAB's import_id contract.
package syncdb

// Schema defines the history tables. Open applies it on every start;
// CREATE IF NOT EXISTS keeps reapplication a no-op.
const Schema = `
-- Sync runs table
-- One row per account per invocation of the sync command
CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,               -- run UUID
    account TEXT NOT NULL,             -- mapping name, e.g. 'Up Spending'
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    imported INTEGER NOT NULL,
    duplicates INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    error TEXT                         -- NULL when the run completed
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_account
    ON sync_runs(account, started_at);

-- Imported transactions table
-- Tracks which Up transactions have been imported into YNAB
CREATE TABLE IF NOT EXISTS imported_transactions (
    import_id TEXT PRIMARY KEY,        -- YNAB import_id (Up id prefix)
    account TEXT NOT NULL,
    txn_date TEXT NOT NULL,            -- YYYY-MM-DD
    amount INTEGER NOT NULL,           -- milliunits
    run_id TEXT NOT NULL,
    synced_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES sync_runs(id)
);

CREATE INDEX IF NOT EXISTS idx_imported_transactions_account
    ON imported_transactions(account, txn_date);
`
