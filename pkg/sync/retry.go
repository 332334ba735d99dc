package sync

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lachlanmcd/up-ynab-sync/pkg/ledger"
)

// retryTransport runs fn with bounded exponential backoff. Only
// transport errors (network, timeout, 5xx) are retried; validation
// errors and anything else are permanent. The wait between attempts is
// context-aware, so cancellation stops the retry loop promptly while
// any in-flight call completes or times out on its own.
func retryTransport(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = baseDelay

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxAttempts-1)), ctx)

	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if ledger.IsTransport(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
