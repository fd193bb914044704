// ABOUTME: Generic exponential-backoff executor for transient failures.
// ABOUTME: The final error surfaces unmodified so callers can branch on it.
package retry

import "time"

// Do invokes op up to maxAttempts times, sleeping baseDelay * 2^attempt
// between failures (pure exponential backoff, no jitter). After the final
// failure the last error is returned as-is, never wrapped, so callers can
// still match on its original type or message.
func Do[T any](op func() (T, error), maxAttempts int, baseDelay time.Duration) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt < maxAttempts-1 {
			time.Sleep(baseDelay << attempt)
		}
	}

	var zero T
	return zero, lastErr
}
