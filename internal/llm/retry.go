package llm

import (
	"context"
	"time"
)

// SleepFunc waits for d or until the context is cancelled. Tests
// substitute a recording implementation.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryClassifier decides whether a failed attempt should be retried
// and how long to wait first. attempt is the 1-based attempt that just
// failed.
type RetryClassifier func(err error, attempt int) (delay time.Duration, retryable bool)

// Retry runs fn up to maxAttempts times. fn receives the 1-based
// attempt number so callers can escalate prompts per attempt. Between
// attempts the classifier picks the backoff; a non-retryable error is
// returned immediately. After the final attempt the last error is
// returned as-is — callers map it onto their own error taxonomy.
//
// This is the single retry loop shared by the roadmap planner, the
// program prober and the detail extractor; each passes its own attempt
// budget and backoff schedule.
func Retry(ctx context.Context, maxAttempts int, sleep SleepFunc, classify RetryClassifier, fn func(attempt int) error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay, retryable := classify(err, attempt)
		if !retryable {
			return err
		}
		if err := sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}
