package fetcher

import (
	"context"
	"fmt"
	"time"

	"go-job-harvester/internal/browser"
)

// DefaultAttempts is how many times a posting is tried before it is skipped.
const DefaultAttempts = 3

// PostingFetcher is anything that can pull one posting's text.
type PostingFetcher interface {
	Fetch(ctx context.Context, session browser.Session, url string) (string, error)
}

// FetchError reports a posting that never produced text.
type FetchError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Retrier retries a PostingFetcher a bounded number of times with a fixed
// delay between attempts.
type Retrier struct {
	Fetcher  PostingFetcher
	Attempts int
	Delay    time.Duration
}

func (r Retrier) Fetch(ctx context.Context, session browser.Session, url string) (string, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		text, err := r.Fetcher.Fetch(ctx, session, url)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if i == attempts {
			break
		}
		if ctx.Err() != nil {
			return "", &FetchError{URL: url, Attempts: i, Cause: ctx.Err()}
		}
		if r.Delay > 0 {
			select {
			case <-ctx.Done():
				return "", &FetchError{URL: url, Attempts: i, Cause: ctx.Err()}
			case <-time.After(r.Delay):
			}
		}
	}
	return "", &FetchError{URL: url, Attempts: attempts, Cause: lastErr}
}
