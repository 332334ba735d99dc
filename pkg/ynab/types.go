// Package ynab provides the YNAB API client and wire types.
package ynab

// Account represents a YNAB account. Balance is in milliunits.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance int64  `json:"balance"`
	Closed  bool   `json:"closed"`
	Deleted bool   `json:"deleted"`
}

// Transaction represents an existing YNAB transaction as returned by the
// transactions endpoints.
type Transaction struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo"`
	Cleared   string `json:"cleared"` // cleared, uncleared, reconciled
	Approved  bool   `json:"approved"`
	ImportID  string `json:"import_id"`
}

// Cleared states for YNAB transactions.
const (
	ClearedCleared    = "cleared"
	ClearedUncleared  = "uncleared"
	ClearedReconciled = "reconciled"
)

// TransactionPayload represents one transaction to create. Exactly one
// of PayeeID and PayeeName is set: PayeeID for transfer legs (YNAB
// derives the display name from it), PayeeName otherwise.
type TransactionPayload struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`   // YYYY-MM-DD
	Amount    int64  `json:"amount"` // milliunits
	PayeeID   string `json:"payee_id,omitempty"`
	PayeeName string `json:"payee_name,omitempty"`
	Memo      string `json:"memo,omitempty"`
	Cleared   string `json:"cleared"`
	Approved  bool   `json:"approved"`
	ImportID  string `json:"import_id"`
}

// CreateResult summarizes a create-transactions call. DuplicateImportIDs
// lists payloads the budget already held; resubmitting an import_id is a
// no-op on YNAB's side, which is what makes re-running a sync safe.
type CreateResult struct {
	Created            int
	DuplicateImportIDs []string
}

// createTransactionsRequest is the request body for creating transactions.
type createTransactionsRequest struct {
	Transactions []TransactionPayload `json:"transactions"`
}

// createTransactionsResponse is the response from creating transactions.
type createTransactionsResponse struct {
	Data struct {
		TransactionIDs     []string `json:"transaction_ids"`
		DuplicateImportIDs []string `json:"duplicate_import_ids"`
	} `json:"data"`
}

// accountsResponse is the response from the accounts endpoint.
type accountsResponse struct {
	Data struct {
		Accounts []Account `json:"accounts"`
	} `json:"data"`
}

// accountResponse is the response from the single-account endpoint.
type accountResponse struct {
	Data struct {
		Account Account `json:"account"`
	} `json:"data"`
}

// transactionsResponse is the response from the transactions endpoints.
type transactionsResponse struct {
	Data struct {
		Transactions []Transaction `json:"transactions"`
	} `json:"data"`
}

// errorResponse is YNAB's error envelope.
type errorResponse struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}
