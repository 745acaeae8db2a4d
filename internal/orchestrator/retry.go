package orchestrator

import (
	"context"
	"time"
)

// withRetry calls fn up to maxRetries+1 times, sleeping delay*2^attempt
// between attempts, stopping early if ctx is cancelled. Placed here, not in
// internal/upsert, since retries are a call-site policy around network
// operations (§4.6/§4.8 failure semantics), never around a row transaction.
func withRetry(ctx context.Context, maxRetries int, delay time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		wait := delay << attempt
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}
