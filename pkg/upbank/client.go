package upbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ledger"
)

// ClientConfig represents the configuration for the Up Bank API client.
type ClientConfig struct {
	APIURL      string
	AccessToken string
	Timeout     time.Duration // Default: 30 seconds
	// MaxConnsPerHost caps the connection pool to stay inside Up's
	// rate limits. Default: 4.
	MaxConnsPerHost int
}

// Client is an Up Bank API client. It performs no retries of its own;
// every failure surfaces as a ledger.TransportError or
// ledger.ValidationError for the caller's retry policy.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient creates a new Up Bank API client.
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
	}
}

// FormatSince renders a timestamp for the filter[since] query parameter.
// Up requires RFC 3339 with an explicit zone designator.
func FormatSince(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Ping verifies connectivity and credentials against Up's utility ping
// endpoint. Failures carry the usual classification, so a caller can
// tell a bad token (validation) from a network problem (transport).
func (c *Client) Ping(ctx context.Context) error {
	var resp pingResponse
	return c.get(ctx, "up.ping", fmt.Sprintf("%s/util/ping", c.baseURL), &resp)
}

// ListAccounts lists all accounts, following pagination links.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account

	first := fmt.Sprintf("%s/accounts", c.baseURL)
	err := ledger.Each(ctx, first, func(ctx context.Context, pageURL string) (string, error) {
		var page accountsResponse
		if err := c.get(ctx, "up.accounts", pageURL, &page); err != nil {
			return "", err
		}
		accounts = append(accounts, page.Data...)
		return page.Links.next(), nil
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// TransactionsSince fetches all transactions for one account created at
// or after since, following links.next until exhausted. The sequence is
// consumed exactly once per sync run and restarts only from the
// beginning.
func (c *Client) TransactionsSince(ctx context.Context, accountID string, since time.Time) ([]Transaction, error) {
	var transactions []Transaction

	first := fmt.Sprintf("%s/accounts/%s/transactions?filter[since]=%s",
		c.baseURL, accountID, url.QueryEscape(FormatSince(since)))
	err := ledger.Each(ctx, first, func(ctx context.Context, pageURL string) (string, error) {
		var page transactionsResponse
		if err := c.get(ctx, "up.transactions", pageURL, &page); err != nil {
			return "", err
		}
		transactions = append(transactions, page.Data...)
		return page.Links.next(), nil
	})
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// get performs an authenticated GET and decodes the response into out.
func (c *Client) get(ctx context.Context, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
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

	if resp.StatusCode != http.StatusOK {
		return c.parseError(op, rawURL, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ledger.ValidationError{Op: op, Status: resp.StatusCode,
			Detail: fmt.Sprintf("failed to decode response: %v", err)}
	}

	return nil
}

// parseError classifies a non-200 response: 4xx is a validation error,
// everything else is transport.
func (c *Client) parseError(op, rawURL string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	detail := strings.TrimSpace(string(body))
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && len(errResp.Errors) > 0 {
		detail = errResp.Errors[0].Title
		if errResp.Errors[0].Detail != "" {
			detail = fmt.Sprintf("%s: %s", errResp.Errors[0].Title, errResp.Errors[0].Detail)
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ledger.ValidationError{Op: op, Status: resp.StatusCode, Detail: detail}
	}
	return &ledger.TransportError{Op: op, URL: rawURL, Status: resp.StatusCode}
}
