package sync

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ledger"
	"github.com/lachlanmcd/up-ynab-sync/pkg/mapping"
	"github.com/lachlanmcd/up-ynab-sync/pkg/upbank"
	"github.com/lachlanmcd/up-ynab-sync/pkg/ynab"
)

func testTable(t *testing.T) *mapping.Table {
	t.Helper()
	table, err := mapping.Parse([]byte(`
accounts:
  - name: Up Spending
    up:
      id: up-spending
    ynab:
      id: ynab-spending
  - name: Up Savings
    up:
      id: up-savings
    ynab:
      id: ynab-savings
`))
	require.NoError(t, err)
	return table
}

func settledTx(id, value string) upbank.Transaction {
	var tx upbank.Transaction
	tx.ID = id
	tx.Attributes.Status = "SETTLED"
	tx.Attributes.Description = "Coffee Supreme"
	tx.Attributes.Amount = upbank.Money{CurrencyCode: "AUD", Value: value}
	tx.Attributes.CreatedAt = time.Date(2025, 3, 15, 8, 30, 0, 0, time.FixedZone("AEST", 10*3600))
	return tx
}

func TestNormalizeSkipsUnsettled(t *testing.T) {
	n := NewNormalizer(testTable(t))

	for _, status := range []string{"HELD", "PENDING", ""} {
		t.Run("status "+status, func(t *testing.T) {
			tx := settledTx("tx-1", "-4.50")
			tx.Attributes.Status = status

			_, ok, err := n.Normalize(tx, "ynab-spending")
			require.NoError(t, err)
			assert.False(t, ok, "unsettled transaction was not skipped")
		})
	}
}

func TestNormalizeSettled(t *testing.T) {
	n := NewNormalizer(testTable(t))

	raw := "COFFEE SUPREME WELLINGTON"
	tx := settledTx("up-tx-0001", "-4.50")
	tx.Attributes.RawText = &raw

	payload, ok, err := n.Normalize(tx, "ynab-spending")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "ynab-spending", payload.AccountID)
	assert.Equal(t, "2025-03-15", payload.Date, "date keeps the local calendar day, no time component")
	assert.Equal(t, int64(-4500), payload.Amount)
	assert.Equal(t, "Coffee Supreme", payload.PayeeName)
	assert.Empty(t, payload.PayeeID)
	assert.Equal(t, "Up Bank: COFFEE SUPREME WELLINGTON", payload.Memo)
	assert.Equal(t, ynab.ClearedCleared, payload.Cleared, "imports are cleared, never reconciled")
	assert.False(t, payload.Approved)
	assert.Equal(t, "up-tx-0001", payload.ImportID)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := NewNormalizer(testTable(t))
	tx := settledTx("up-tx-0002", "12.34")

	first, ok, err := n.Normalize(tx, "ynab-spending")
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		again, ok, err := n.Normalize(tx, "ynab-spending")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestNormalizeMemoEmptyWithoutRawText(t *testing.T) {
	n := NewNormalizer(testTable(t))

	tx := settledTx("tx", "1.00")
	payload, ok, err := n.Normalize(tx, "ynab-spending")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, payload.Memo)
}

func TestNormalizeTransferLeg(t *testing.T) {
	n := NewNormalizer(testTable(t))

	tx := settledTx("transfer-leg-1", "-200.00")
	tx.Attributes.Description = "Transfer to Up Savings"
	tx.Relationships.TransferAccount.Data = &upbank.ResourceID{Type: "accounts", ID: "up-savings"}

	payload, ok, err := n.Normalize(tx, "ynab-spending")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "ynab-savings", payload.PayeeID)
	assert.Empty(t, payload.PayeeName, "transfer legs carry payee_id only")
}

func TestNormalizeUnmappedTransferCounterparty(t *testing.T) {
	n := NewNormalizer(testTable(t))

	tx := settledTx("transfer-leg-2", "-50.00")
	tx.Relationships.TransferAccount.Data = &upbank.ResourceID{Type: "accounts", ID: "up-mystery"}

	_, _, err := n.Normalize(tx, "ynab-spending")
	var unmapped *mapping.UnmappedAccountError
	require.ErrorAs(t, err, &unmapped)
	assert.Equal(t, "up-mystery", unmapped.UpAccountID)
}

func TestImportID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{"uuid fits", "0a5f2f2c-9a34-4f2e-9f6d-0e8b7c1d2e3f", "0a5f2f2c-9a34-4f2e-9f6d-0e8b7c1d2e3f"},
		{"long id truncated to prefix", strings.Repeat("a", 40), strings.Repeat("a", 36)},
		{"short id unchanged", "short", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImportID(tt.id)
			if got != tt.expected {
				t.Errorf("ImportID(%q) = %q, expected %q", tt.id, got, tt.expected)
			}
			if len(got) > 36 {
				t.Errorf("ImportID() length %d exceeds YNAB's 36-char limit", len(got))
			}
		})
	}
}

func TestMilliunits(t *testing.T) {
	tests := []struct {
		value    string
		expected int64
	}{
		{"12.34", 12340},
		{"-0.005", -5},
		{"0", 0},
		{"-4.50", -4500},
		{"1000", 1000000},
		{"0.001", 1},
		{"-123.456", -123456},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := Milliunits(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := Milliunits("12,34")
	assert.Error(t, err, "malformed amount must be rejected")
}

// Exactness over randomized decimal inputs with up to 3 fractional
// digits: the milliunit result must equal the integer the decimal
// string spells out, with no floating-point drift.
func TestMilliunitsExactOverRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 10000; i++ {
		units := rng.Int63n(2_000_000) - 1_000_000 // [-1e6, 1e6)
		frac := rng.Int63n(1000)

		value := fmt.Sprintf("%d.%03d", units, frac)
		expected := units*1000 + frac
		if units < 0 {
			expected = units*1000 - frac
		}
		if units == 0 && rng.Intn(2) == 0 {
			value = "-" + value
			expected = -frac
		}

		got, err := Milliunits(value)
		if err != nil {
			t.Fatalf("Milliunits(%q) returned error: %v", value, err)
		}
		if got != expected {
			t.Fatalf("Milliunits(%q) = %d, expected %d", value, got, expected)
		}
	}
}

func TestNormalizeMalformedAmount(t *testing.T) {
	n := NewNormalizer(testTable(t))

	tx := settledTx("tx-bad", "not-a-number")
	_, _, err := n.Normalize(tx, "ynab-spending")
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))
}
