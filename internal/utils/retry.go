package utils

import (
	"context"
	"fmt"
	"time"

	"datapact/internal/logging"
)

// Retry runs fn up to maxAttempts times, sleeping delay between attempts.
// Returns nil on the first success, or the last error once attempts are
// exhausted. Context cancellation aborts the wait.
func Retry(ctx context.Context, logger *logging.Logger, maxAttempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			logger.Errorf("Attempt %d/%d failed: %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return fmt.Errorf("retry aborted after %d attempts: %w", attempt, lastErr)
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
