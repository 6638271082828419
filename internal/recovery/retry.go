package recovery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryWithBackoff runs op up to maxRetries attempts total, doubling the
// wait after each failure starting at baseDelay. The final error is
// surfaced unchanged.
func RetryWithBackoff(ctx context.Context, op func() error, maxRetries int, baseDelay time.Duration) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	policy := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(maxRetries-1))
	return backoff.Retry(op, policy)
}
