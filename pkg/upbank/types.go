// Package upbank provides the Up Bank API client and wire types.
package upbank

import "time"

// Account represents an Up Bank account resource.
type Account struct {
	ID         string            `json:"id"`
	Attributes AccountAttributes `json:"attributes"`
}

// AccountAttributes holds the attributes of an account resource.
type AccountAttributes struct {
	DisplayName string    `json:"displayName"`
	AccountType string    `json:"accountType"` // SAVER or TRANSACTIONAL
	Balance     Money     `json:"balance"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Money is Up's money object. Value is the signed decimal amount as a
// string; it is never parsed through float64.
type Money struct {
	CurrencyCode     string `json:"currencyCode"`
	Value            string `json:"value"`
	ValueInBaseUnits int64  `json:"valueInBaseUnits"`
}

// Transaction represents an Up Bank transaction resource.
type Transaction struct {
	ID            string                `json:"id"`
	Attributes    TransactionAttributes `json:"attributes"`
	Relationships Relationships         `json:"relationships"`
}

// TransactionAttributes holds the attributes of a transaction resource.
type TransactionAttributes struct {
	Status      string     `json:"status"` // SETTLED, HELD
	RawText     *string    `json:"rawText"`
	Description string     `json:"description"`
	Amount      Money      `json:"amount"`
	CreatedAt   time.Time  `json:"createdAt"`
	SettledAt   *time.Time `json:"settledAt"`
}

// Relationships links a transaction to its owning account and, for
// transfer legs, the counterparty account.
type Relationships struct {
	Account         Relationship `json:"account"`
	TransferAccount Relationship `json:"transferAccount"`
}

// Relationship wraps a resource identifier. Data is nil when the
// relationship is absent (e.g. transferAccount on a non-transfer).
type Relationship struct {
	Data *ResourceID `json:"data"`
}

// ResourceID identifies a related resource.
type ResourceID struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// TransferAccountID returns the counterparty account id when the
// transaction is one leg of an inter-account transfer, and "" otherwise.
func (t Transaction) TransferAccountID() string {
	if t.Relationships.TransferAccount.Data == nil {
		return ""
	}
	return t.Relationships.TransferAccount.Data.ID
}

// accountsResponse is the response from the /accounts endpoint.
type accountsResponse struct {
	Data  []Account `json:"data"`
	Links pageLinks `json:"links"`
}

// transactionsResponse is one page of the /transactions endpoints.
type transactionsResponse struct {
	Data  []Transaction `json:"data"`
	Links pageLinks     `json:"links"`
}

// pageLinks carries JSON:API pagination links.
type pageLinks struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

func (l pageLinks) next() string {
	if l.Next == nil {
		return ""
	}
	return *l.Next
}

// pingResponse is the response from the utility ping endpoint.
type pingResponse struct {
	Meta struct {
		ID          string `json:"id"`
		StatusEmoji string `json:"statusEmoji"`
	} `json:"meta"`
}

// errorResponse is Up's error envelope.
type errorResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
