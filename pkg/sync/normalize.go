package sync

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ledger"
	"github.com/lachlanmcd/up-ynab-sync/pkg/mapping"
	"github.com/lachlanmcd/up-ynab-sync/pkg/upbank"
	"github.com/lachlanmcd/up-ynab-sync/pkg/ynab"
)

const (
	// statusSettled is the only Up status that gets imported. Anything
	// else is skipped and expected to reappear settled in a later sync.
	statusSettled = "SETTLED"

	// memoPrefix identifies the source system in YNAB memos.
	memoPrefix = "Up Bank: "

	// maxImportIDLen is YNAB's import_id length limit.
	maxImportIDLen = 36
)

// Normalizer converts Up Bank transactions into YNAB transaction
// payloads. Normalization is pure: the same transaction always yields
// the same payload.
type Normalizer struct {
	mapper *mapping.Table
}

// NewNormalizer creates a Normalizer using the given account mapping.
func NewNormalizer(mapper *mapping.Table) *Normalizer {
	return &Normalizer{mapper: mapper}
}

// Normalize converts one Up transaction into a YNAB payload for the
// given YNAB account. ok is false when the transaction is skipped
// (not settled). A *mapping.UnmappedAccountError fails only this
// transaction, never the batch.
func (n *Normalizer) Normalize(tx upbank.Transaction, ynabAccountID string) (ynab.TransactionPayload, bool, error) {
	if tx.Attributes.Status != statusSettled {
		return ynab.TransactionPayload{}, false, nil
	}

	amount, err := Milliunits(tx.Attributes.Amount.Value)
	if err != nil {
		return ynab.TransactionPayload{}, false, err
	}

	payload := ynab.TransactionPayload{
		AccountID: ynabAccountID,
		// Calendar date only; the createdAt offset is Up's local zone,
		// so formatting keeps the local calendar day.
		Date:     tx.Attributes.CreatedAt.Format(dateLayout),
		Amount:   amount,
		Memo:     memo(tx),
		Cleared:  ynab.ClearedCleared,
		Approved: false,
		ImportID: ImportID(tx.ID),
	}

	// A transferAccount relationship marks this as one leg of an
	// inter-account transfer. YNAB resolves the display name from the
	// payee id, so payee_name stays unset.
	if counterparty := tx.TransferAccountID(); counterparty != "" {
		payeeID, err := n.mapper.ToYNABPayeeID(counterparty)
		if err != nil {
			return ynab.TransactionPayload{}, false, err
		}
		payload.PayeeID = payeeID
	} else {
		payload.PayeeName = tx.Attributes.Description
	}

	return payload, true, nil
}

// Milliunits converts a signed decimal amount string into YNAB's
// integer milliunit representation (1/1000 of the major unit). The
// conversion goes through decimal arithmetic, never float64, so it is
// exact for any amount with up to three fractional digits.
func Milliunits(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, &ledger.ValidationError{Op: "normalize",
			Detail: fmt.Sprintf("malformed amount %q: %v", value, err)}
	}
	return d.Shift(3).Round(0).IntPart(), nil
}

// ImportID derives the YNAB deduplication key from an Up transaction
// id: the first 36 characters. Up ids are UUID-prefixed, which keeps
// the prefix unique.
func ImportID(sourceID string) string {
	if len(sourceID) > maxImportIDLen {
		return sourceID[:maxImportIDLen]
	}
	return sourceID
}

func memo(tx upbank.Transaction) string {
	if tx.Attributes.RawText == nil || *tx.Attributes.RawText == "" {
		return ""
	}
	return memoPrefix + *tx.Attributes.RawText
}
