// Package mapping loads the static account mapping between Up Bank and
// YNAB accounts from a YAML file and provides O(1) lookups in both roles:
// direct account resolution for postings and transfer-counterparty
// resolution for transfer payees.
package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Account is one physical bank account pair.
type Account struct {
	Name string `yaml:"name"`
	Up   struct {
		ID string `yaml:"id"`
	} `yaml:"up"`
	YNAB struct {
		ID string `yaml:"id"`
	} `yaml:"ynab"`
}

// file is the on-disk shape of the accounts file.
type file struct {
	Accounts []Account `yaml:"accounts"`
}

// UnmappedAccountError is returned when an Up account id has no entry in
// the accounts file. During a sync it fails only the transaction that
// referenced the id, never the batch.
type UnmappedAccountError struct {
	UpAccountID string
}

func (e *UnmappedAccountError) Error() string {
	return fmt.Sprintf("no YNAB account mapped for Up account %s", e.UpAccountID)
}

// Table is the loaded account mapping. It is read-only after Load and
// safe for concurrent use.
type Table struct {
	accounts []Account
	byUpID   map[string]Account
}

// Load reads and indexes the accounts file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Table from raw YAML.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file: %w", err)
	}

	if len(f.Accounts) == 0 {
		return nil, fmt.Errorf("accounts file contains no accounts")
	}

	t := &Table{
		accounts: f.Accounts,
		byUpID:   make(map[string]Account, len(f.Accounts)),
	}
	for _, a := range f.Accounts {
		if a.Up.ID == "" || a.YNAB.ID == "" {
			return nil, fmt.Errorf("account %q is missing an up.id or ynab.id", a.Name)
		}
		if _, dup := t.byUpID[a.Up.ID]; dup {
			return nil, fmt.Errorf("duplicate up.id %s in accounts file", a.Up.ID)
		}
		t.byUpID[a.Up.ID] = a
	}

	return t, nil
}

// Accounts returns all mapped accounts in file order.
func (t *Table) Accounts() []Account {
	out := make([]Account, len(t.accounts))
	copy(out, t.accounts)
	return out
}

// ByName returns the mapped account with the given human-readable name.
func (t *Table) ByName(name string) (Account, bool) {
	for _, a := range t.accounts {
		if a.Name == name {
			return a, true
		}
	}
	return Account{}, false
}

// ToYNABAccount resolves an Up account id to its YNAB account id.
func (t *Table) ToYNABAccount(upAccountID string) (string, error) {
	a, ok := t.byUpID[upAccountID]
	if !ok {
		return "", &UnmappedAccountError{UpAccountID: upAccountID}
	}
	return a.YNAB.ID, nil
}

// ToYNABPayeeID resolves a transfer counterparty's Up account id to the
// YNAB account id used as the transfer payee. The Up transferAccount id
// is the one that corresponds to a YNAB account; the Up payee id field
// does not, and is never consulted.
func (t *Table) ToYNABPayeeID(upCounterpartyID string) (string, error) {
	return t.ToYNABAccount(upCounterpartyID)
}
