package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestEachFollowsAllPages(t *testing.T) {
	// Three pages, next link on the first two only. Every record must
	// appear exactly once, in order.
	pages := map[string]struct {
		records []string
		next    string
	}{
		"page1": {records: []string{"a", "b"}, next: "page2"},
		"page2": {records: []string{"c"}, next: "page3"},
		"page3": {records: []string{"d", "e"}, next: ""},
	}

	var got []string
	err := Each(context.Background(), "page1", func(ctx context.Context, url string) (string, error) {
		page, ok := pages[url]
		if !ok {
			t.Fatalf("fetched unknown page %q", url)
		}
		got = append(got, page.records...)
		return page.next, nil
	})
	if err != nil {
		t.Fatalf("Each() returned error: %v", err)
	}

	want := []string{"a", "b", "c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("Each() collected %d records, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %q, expected %q", i, got[i], want[i])
		}
	}
}

func TestEachStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	err := Each(context.Background(), "page1", func(ctx context.Context, url string) (string, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return fmt.Sprintf("page%d", calls+1), nil
	})

	if !errors.Is(err, boom) {
		t.Errorf("Each() error = %v, expected %v", err, boom)
	}
	if calls != 2 {
		t.Errorf("Each() made %d fetches, expected 2", calls)
	}
}

func TestEachHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Each(ctx, "page1", func(ctx context.Context, url string) (string, error) {
		calls++
		cancel()
		return "page2", nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Each() error = %v, expected context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("Each() made %d fetches after cancel, expected 1", calls)
	}
}

func TestErrorClassification(t *testing.T) {
	transport := fmt.Errorf("fetch: %w", &TransportError{Op: "up.transactions", URL: "http://x", Status: 502})
	validation := fmt.Errorf("submit: %w", &ValidationError{Op: "ynab.create", Status: 400, Detail: "bad_request"})

	if !IsTransport(transport) {
		t.Error("IsTransport() = false for wrapped TransportError")
	}
	if IsTransport(validation) {
		t.Error("IsTransport() = true for ValidationError")
	}
	if !IsValidation(validation) {
		t.Error("IsValidation() = false for wrapped ValidationError")
	}
	if IsValidation(transport) {
		t.Error("IsValidation() = true for TransportError")
	}
}
