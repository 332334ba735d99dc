package ledger

import "context"

// PageFunc fetches one page at url and returns the URL of the next page,
// or "" when there are no more pages. Accumulating the page's records is
// the closure's job.
type PageFunc func(ctx context.Context, url string) (next string, err error)

// Each follows next-page links starting at first until no next link is
// returned. Pages are fetched strictly in order because each next link is
// only known from the prior response. The walk stops early on error or
// when ctx is cancelled; it is restartable from the beginning only.
func Each(ctx context.Context, first string, fetch PageFunc) error {
	url := first
	for url != "" {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := fetch(ctx, url)
		if err != nil {
			return err
		}
		url = next
	}
	return nil
}
