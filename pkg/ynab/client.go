package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ledger"
)

// ClientConfig represents the configuration for the YNAB API client.
type ClientConfig struct {
	APIURL      string
	AccessToken string
	BudgetID    string
	Timeout     time.Duration // Default: 30 seconds
	// MaxConnsPerHost caps the connection pool. Default: 4.
	MaxConnsPerHost int
}

// Client is a YNAB API client scoped to one budget. Like the Up client
// it never retries; failures are classified for the caller.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	budgetID    string
}

// NewClient creates a new YNAB API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxConns := config.MaxConnsPerHost
	if maxConns == 0 {
		maxConns = 4
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxConnsPerHost: maxConns,
			},
		},
		baseURL:     strings.TrimRight(config.APIURL, "/"),
		accessToken: config.AccessToken,
		budgetID:    config.BudgetID,
	}
}

// ListAccounts lists the budget's accounts. Balances are milliunits.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	endpoint := fmt.Sprintf("%s/budgets/%s/accounts", c.baseURL, c.budgetID)

	var resp accountsResponse
	if err := c.do(ctx, "ynab.accounts", http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Accounts, nil
}

// AccountName returns the human-readable name of one account, used for
// reporting.
func (c *Client) AccountName(ctx context.Context, accountID string) (string, error) {
	endpoint := fmt.Sprintf("%s/budgets/%s/accounts/%s", c.baseURL, c.budgetID, accountID)

	var resp accountResponse
	if err := c.do(ctx, "ynab.account", http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", err
	}
	return resp.Data.Account.Name, nil
}

// AccountTransactionsSince fetches an account's transactions on or after
// sinceDate (YYYY-MM-DD). YNAB's query granularity is date-level.
func (c *Client) AccountTransactionsSince(ctx context.Context, accountID, sinceDate string) ([]Transaction, error) {
	endpoint := fmt.Sprintf("%s/budgets/%s/accounts/%s/transactions?since_date=%s",
		c.baseURL, c.budgetID, accountID, sinceDate)

	var resp transactionsResponse
	if err := c.do(ctx, "ynab.transactions", http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Transactions, nil
}

// CreateTransactions submits a batch of transactions. YNAB silently
// deduplicates on import_id and reports the duplicates back.
func (c *Client) CreateTransactions(ctx context.Context, payloads []TransactionPayload) (CreateResult, error) {
	if len(payloads) == 0 {
		return CreateResult{}, nil
	}

	endpoint := fmt.Sprintf("%s/budgets/%s/transactions", c.baseURL, c.budgetID)
	body, err := json.Marshal(createTransactionsRequest{Transactions: payloads})
	if err != nil {
		return CreateResult{}, fmt.Errorf("failed to encode transactions: %w", err)
	}

	var resp createTransactionsResponse
	if err := c.do(ctx, "ynab.create", http.MethodPost, endpoint, body, &resp); err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		Created:            len(resp.Data.TransactionIDs),
		DuplicateImportIDs: resp.Data.DuplicateImportIDs,
	}, nil
}

// do performs an authenticated request and decodes the response into out.
func (c *Client) do(ctx context.Context, op, method, rawURL string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ledger.TransportError{Op: op, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(op, rawURL, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ledger.ValidationError{Op: op, Status: resp.StatusCode,
			Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}

	return nil
}

// parseError classifies a non-2xx response: 4xx is a validation error,
// everything else is transport.
func (c *Client) parseError(op, rawURL string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	detail := strings.TrimSpace(string(body))
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Name != "" {
		detail = errResp.Error.Name
		if errResp.Error.Detail != "" {
			detail = fmt.Sprintf("%s: %s", errResp.Error.Name, errResp.Error.Detail)
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ledger.ValidationError{Op: op, Status: resp.StatusCode, Detail: detail}
	}
	return &ledger.TransportError{Op: op, URL: rawURL, Status: resp.StatusCode}
}
