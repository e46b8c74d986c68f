package repositories

import (
	"context"
	"errors"
	"testing"

	errs "loyalty/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failure then success", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 4, func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("domain errors are not retried", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 4, func() error {
			calls++
			return errs.ErrInsufficientBalance
		})
		assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhaustion surfaces as store failure", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, func() error {
			calls++
			return errors.New("connection reset")
		})
		assert.ErrorIs(t, err, errs.ErrStoreFailure)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		err := WithRetry(cctx, 10, func() error {
			calls++
			cancel()
			return context.Canceled
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
