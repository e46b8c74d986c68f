package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "loyalty/internal/errors"

	"github.com/cenkalti/backoff/v4"
)

// DefaultTxAttempts is used when a Store is built without an explicit bound.
const DefaultTxAttempts = 4

// WithRetry runs fn until it succeeds, fails with a domain error, or
// maxAttempts is exhausted. Exhaustion is reported as ErrStoreFailure.
func WithRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(policy, uint64(maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	var lastErr error
	err := backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errs.IsDomain(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		lastErr = err
		return err
	}, b)
	if err == nil {
		return nil
	}
	if lastErr != nil && errors.Is(err, lastErr) {
		return fmt.Errorf("%w: %v", errs.ErrStoreFailure, err)
	}
	return err
}
