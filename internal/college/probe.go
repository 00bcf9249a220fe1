package college

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careerpilot/internal/llm"
	"careerpilot/internal/logging"
)

// Prober answers the boolean question "does this college offer this
// program". Probes never fail: every exhausted retry budget and every
// hard error degrades to false, which downstream treats as
// "not offering".
type Prober struct {
	client        llm.Client
	maxAttempts   int
	baseDelay     time.Duration
	callTimeout   time.Duration
	quotaCooldown time.Duration
	sleep         llm.SleepFunc
}

// ProberConfig tunes the probe retry loop. Zero values fall back to
// 3 attempts, 2s base delay (doubling per retry), 60s call timeout and
// 60s quota cooldown.
type ProberConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	CallTimeout   time.Duration
	QuotaCooldown time.Duration
	Sleep         llm.SleepFunc
}

// NewProber creates a Prober backed by the given generation client.
func NewProber(client llm.Client, cfg ProberConfig) *Prober {
	p := &Prober{
		client:        client,
		maxAttempts:   cfg.MaxAttempts,
		baseDelay:     cfg.BaseDelay,
		callTimeout:   cfg.CallTimeout,
		quotaCooldown: cfg.QuotaCooldown,
		sleep:         cfg.Sleep,
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = 3
	}
	if p.baseDelay <= 0 {
		p.baseDelay = 2 * time.Second
	}
	if p.callTimeout <= 0 {
		p.callTimeout = 60 * time.Second
	}
	if p.quotaCooldown <= 0 {
		p.quotaCooldown = 60 * time.Second
	}
	if p.sleep == nil {
		p.sleep = llm.Sleep
	}
	return p
}

// Check reports whether collegeName offers degree in branch. An
// affirmative answer requires the response to contain "true";
// everything else, including failure, is false.
func (p *Prober) Check(ctx context.Context, collegeName, degree, branch string) bool {
	prompt := fmt.Sprintf(`Answer ONLY true or false.
Does %s offer %s in %s?
Rules: No explanation. If unsure, return false.`, collegeName, degree, branch)

	classify := func(err error, attempt int) (time.Duration, bool) {
		switch llm.ClassifyError(err) {
		case llm.FailureTimeout:
			// Exponential backoff: 4s then 8s with the default base.
			return p.baseDelay * (1 << attempt), true
		case llm.FailureQuota:
			logging.ProbeWarn("Rate limit hit for %s, cooling down", collegeName)
			return p.quotaCooldown, true
		default:
			return 0, false
		}
	}

	var offers bool
	err := llm.Retry(ctx, p.maxAttempts, p.sleep, classify, func(attempt int) error {
		if attempt > 1 {
			logging.ProbeDebug("Retry %d for %s", attempt, collegeName)
		}

		callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
		response, err := p.client.Complete(callCtx, prompt)
		cancel()
		if err != nil {
			return err
		}

		offers = strings.Contains(strings.ToLower(strings.TrimSpace(response)), "true")
		return nil
	})
	if err != nil {
		logging.ProbeWarn("Probe degraded to false for %s (%s %s): %v", collegeName, degree, branch, err)
		return false
	}

	logging.ProbeDebug("Probe %s (%s %s) -> %v", collegeName, degree, branch, offers)
	return offers
}
