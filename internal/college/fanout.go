package college

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"careerpilot/internal/llm"
	"careerpilot/internal/logging"
)

// CheckFunc is the probe primitive the fan-out runs for each college.
type CheckFunc func(ctx context.Context, collegeName, degree, branch string) bool

// ProbeResult pairs a college with its probe outcome.
type ProbeResult struct {
	College College
	Offers  bool
}

// Fanout runs probes in fixed-size batches with an inter-batch delay.
// Batch N+1 never starts before batch N has fully completed; the delay
// keeps the aggregate request rate inside the free-tier limit.
type Fanout struct {
	check      CheckFunc
	batchSize  int
	batchDelay time.Duration
	sleep      llm.SleepFunc
}

// FanoutConfig tunes the batching. Zero values fall back to batch size
// 5 and a 4s inter-batch delay.
type FanoutConfig struct {
	BatchSize  int
	BatchDelay time.Duration
	Sleep      llm.SleepFunc
}

// NewFanout creates a Fanout over the given probe function.
func NewFanout(check CheckFunc, cfg FanoutConfig) *Fanout {
	f := &Fanout{
		check:      check,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		sleep:      cfg.Sleep,
	}
	if f.batchSize <= 0 {
		f.batchSize = 5
	}
	if f.batchDelay <= 0 {
		f.batchDelay = 4 * time.Second
	}
	if f.sleep == nil {
		f.sleep = llm.Sleep
	}
	return f
}

// ProbeAll probes every college and returns results in input order.
// The delay runs between batches, never after the last one.
func (f *Fanout) ProbeAll(ctx context.Context, colleges []College, degree, branch string) []ProbeResult {
	results := make([]ProbeResult, len(colleges))
	for i, c := range colleges {
		results[i] = ProbeResult{College: c}
	}
	total := len(colleges)
	totalBatches := (total + f.batchSize - 1) / f.batchSize

	for start := 0; start < total; start += f.batchSize {
		end := start + f.batchSize
		if end > total {
			end = total
		}
		batchNum := start/f.batchSize + 1
		logging.Probe("Processing batch %d/%d (%d colleges)", batchNum, totalBatches, end-start)

		g, batchCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				c := colleges[i]
				results[i] = ProbeResult{
					College: c,
					Offers:  f.check(batchCtx, c.Name, degree, branch),
				}
				return nil
			})
		}
		// Probes never return errors; Wait only synchronizes the batch.
		_ = g.Wait()

		if end < total {
			logging.ProbeDebug("Waiting %s before next batch", f.batchDelay)
			if err := f.sleep(ctx, f.batchDelay); err != nil {
				// Cancelled mid-run: unprobed colleges keep their
				// prefilled not-offering result.
				return results
			}
		}
	}
	return results
}
