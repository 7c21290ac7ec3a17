package shopify

import (
	"context"
	"time"
)

// throttleWait computes how long to pause after a response whose cost budget
// is nearly drained. Shopify restores RestoreRate points per second; waiting
// until the reserve threshold is refilled keeps subsequent calls from being
// rejected with THROTTLED errors.
func throttleWait(status throttleStatus, reserve float64) time.Duration {
	if status.MaximumAvailable <= 0 || status.RestoreRate <= 0 {
		return 0
	}
	threshold := status.MaximumAvailable * reserve
	if status.CurrentlyAvailable >= threshold {
		return 0
	}
	deficit := threshold - status.CurrentlyAvailable
	wait := time.Duration(deficit/status.RestoreRate*float64(time.Second)) + time.Second
	return wait
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
