// Package llm provides single-shot clients for the external generation
// and search services, plus the shared failure taxonomy and retry
// helper used by the pipeline layers. Clients never retry on their own;
// retry policy belongs to the callers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Client defines the interface for generation providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Sentinel errors for upstream failure classes the pipeline must
// distinguish.
var (
	// ErrQuotaExhausted is returned when the provider signals a
	// rate-limit / quota condition (HTTP 429).
	ErrQuotaExhausted = errors.New("quota exhausted (429)")

	// ErrNoCompletion is returned when the provider responds 200 but
	// with no usable candidate text.
	ErrNoCompletion = errors.New("no completion returned")

	// ErrNoAPIKey is returned when a client is invoked without a
	// configured credential.
	ErrNoAPIKey = errors.New("API key not configured")
)

// APIError is a hard provider error distinct from quota exhaustion.
// It is non-retryable.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

// Failure classifies an error from a Client call.
type Failure int

const (
	FailureNone Failure = iota
	FailureTimeout
	FailureQuota
	FailureAPI
	FailureOther
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureQuota:
		return "quota"
	case FailureAPI:
		return "api"
	default:
		return "other"
	}
}

// ClassifyError maps a client error onto the failure taxonomy.
// Timeouts and quota signals are the retryable classes; APIError is
// terminal; everything else is unexpected.
func ClassifyError(err error) Failure {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return FailureQuota
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return FailureAPI
	}
	return FailureOther
}
