package infra

import (
	"context"
	"math"
	"time"
)

const (
	backoffBaseDelay = 1 * time.Second
	backoffMaxDelay  = 60 * time.Second
)

// CalculateBackoff returns the reconnect delay for the given attempt: 1s, 2s, 4s ... capped at 60s.
func CalculateBackoff(retryCount int) time.Duration {
	// Cap retry count to prevent overflow (2^6 = 64 seconds > max 60s)
	if retryCount > 6 {
		return backoffMaxDelay
	}
	if retryCount < 0 {
		retryCount = 0
	}
	delay := backoffBaseDelay * time.Duration(math.Pow(2, float64(retryCount)))
	if delay > backoffMaxDelay {
		delay = backoffMaxDelay
	}
	return delay
}

// SleepContext waits for d or until ctx is done. It reports false when ctx ended first.
func SleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
