package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after conflicts", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, 3, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return types.ErrConflict
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, 2, func(ctx context.Context) error {
			calls++
			return types.ErrConflict
		})
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.ErrorContains(t, err, "gave up after 2 attempts")
		assert.Equal(t, 2, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryOnConflict(ctx, 5, func(ctx context.Context) error {
			calls++
			return boom
		})
		assert.Equal(t, boom, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		err := RetryOnConflict(cctx, 5, func(ctx context.Context) error {
			calls++
			cancel()
			return types.ErrConflict
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero attempts runs once", func(t *testing.T) {
		calls := 0
		assert.NoError(t, RetryOnConflict(ctx, 0, func(ctx context.Context) error {
			calls++
			return nil
		}))
		assert.Equal(t, 1, calls)
	})
}
