package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("success on first attempt skips sleeping", func(t *testing.T) {
		rec := &sleepRecorder{}
		calls := 0
		err := Retry(ctx, 3, rec.sleep, func(err error, attempt int) (time.Duration, bool) {
			return time.Second, true
		}, func(attempt int) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Empty(t, rec.delays)
	})

	t.Run("retryable errors exhaust the budget", func(t *testing.T) {
		rec := &sleepRecorder{}
		boom := errors.New("boom")
		calls := 0
		err := Retry(ctx, 3, rec.sleep, func(err error, attempt int) (time.Duration, bool) {
			return time.Duration(attempt) * time.Second, true
		}, func(attempt int) error {
			calls++
			assert.Equal(t, calls, attempt)
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
		// No sleep after the final attempt.
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
	})

	t.Run("non-retryable error returns immediately", func(t *testing.T) {
		rec := &sleepRecorder{}
		terminal := errors.New("terminal")
		calls := 0
		err := Retry(ctx, 3, rec.sleep, func(err error, attempt int) (time.Duration, bool) {
			return 0, false
		}, func(attempt int) error {
			calls++
			return terminal
		})
		assert.ErrorIs(t, err, terminal)
		assert.Equal(t, 1, calls)
		assert.Empty(t, rec.delays)
	})

	t.Run("cancelled sleep stops retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		boom := errors.New("boom")
		calls := 0
		err := Retry(cancelled, 3, Sleep, func(err error, attempt int) (time.Duration, bool) {
			return time.Minute, true
		}, func(attempt int) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero attempts means one attempt", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 0, nil, func(err error, attempt int) (time.Duration, bool) {
			return 0, true
		}, func(attempt int) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestSleep(t *testing.T) {
	t.Run("returns early on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Sleep(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("non-positive delay is a no-op", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), 0))
	})
}
