package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = 100 * time.Millisecond
	defaultMaxDelay = 2 * time.Second
)

// Do runs fn with bounded exponential backoff. Used around upstream
// embedding calls, which fail transiently under provider rate limits.
func Do(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(defaultAttempts),
		retry.Delay(defaultDelay),
		retry.MaxDelay(defaultMaxDelay),
		retry.LastErrorOnly(true),
	)
}
