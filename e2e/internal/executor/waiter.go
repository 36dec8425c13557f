package executor

import (
	"context"
	"time"
)

// WaitUntil blocks until targetSeconds after startTime or until ctx is done
func WaitUntil(ctx context.Context, startTime time.Time, targetSeconds int) error {
	delay := time.Until(startTime.Add(time.Duration(targetSeconds) * time.Second))
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetElapsed returns elapsed seconds since start
func GetElapsed(startTime time.Time) float64 {
	return time.Since(startTime).Seconds()
}
