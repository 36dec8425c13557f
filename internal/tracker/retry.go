package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// retryBackoff is the pause before the second attempt; it doubles per attempt
const retryBackoff = 10 * time.Millisecond

// RetryOnConflict runs fn until it succeeds, fails with a non-conflict
// error, or attempts are used up. Each attempt must reload what it modifies.
func RetryOnConflict(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	wait := retryBackoff
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil || !types.IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}
