package roadmap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"careerpilot/internal/llm"
)

// fakeClient is a scripted llm.Client recording every call.
type fakeClient struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	respond func(call int, prompt string) (string, error)
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(call, prompt)
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.Complete(ctx, userPrompt)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNormalizer(t *testing.T) {
	ctx := context.Background()

	t.Run("short input rejected without external call", func(t *testing.T) {
		client := &fakeClient{respond: func(int, string) (string, error) {
			t.Fatal("client should not be called")
			return "", nil
		}}
		n := NewNormalizer(client)

		for _, input := range []string{"", "ab", "  a  "} {
			res := n.Normalize(ctx, input)
			assert.False(t, res.Valid)
			assert.Equal(t, "Career goal is too short. Please provide a specific career name.", res.Reason)
		}
		assert.Equal(t, 0, client.callCount())
	})

	t.Run("valid career normalized", func(t *testing.T) {
		client := &fakeClient{respond: func(int, string) (string, error) {
			return `{"is_valid": true, "normalized_career": "Software Engineer", "category": "Technology", "confidence": 0.95, "reason": null}`, nil
		}}
		res := NewNormalizer(client).Normalize(ctx, "software developer")
		assert.True(t, res.Valid)
		assert.Equal(t, "Software Engineer", res.Career)
		assert.Equal(t, "Technology", res.Category)
		assert.InDelta(t, 0.95, res.Confidence, 1e-9)
		assert.Equal(t, 1, client.callCount())
	})

	t.Run("fenced response handled", func(t *testing.T) {
		client := &fakeClient{respond: func(int, string) (string, error) {
			return "```json\n{\"is_valid\": true, \"normalized_career\": \"Medical Doctor\", \"category\": \"Healthcare\", \"confidence\": 1.0}\n```", nil
		}}
		res := NewNormalizer(client).Normalize(ctx, "doctor")
		assert.True(t, res.Valid)
		assert.Equal(t, "Medical Doctor", res.Career)
	})

	t.Run("invalid goal passes reason through", func(t *testing.T) {
		client := &fakeClient{respond: func(int, string) (string, error) {
			return `{"is_valid": false, "reason": "Not a specific career. Did you mean Software Engineer or Web Developer?"}`, nil
		}}
		res := NewNormalizer(client).Normalize(ctx, "i want to code")
		assert.False(t, res.Valid)
		assert.Contains(t, res.Reason, "Not a specific career")
	})

	t.Run("no retry on failure, class-specific reasons", func(t *testing.T) {
		cases := []struct {
			name   string
			err    error
			reason string
		}{
			{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), "Request timeout. Please try again."},
			{"quota", fmt.Errorf("gemini: %w", llm.ErrQuotaExhausted), "Service temporarily unavailable. Please try again."},
			{"api", &llm.APIError{Provider: "gemini", Status: 500, Message: "down"}, "Service temporarily unavailable. Please try again."},
			{"unexpected", errors.New("weird"), "Unexpected error. Please try again."},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				client := &fakeClient{respond: func(int, string) (string, error) {
					return "", tc.err
				}}
				res := NewNormalizer(client).Normalize(ctx, "doctor")
				assert.False(t, res.Valid)
				assert.Equal(t, tc.reason, res.Reason)
				assert.Equal(t, 1, client.callCount())
			})
		}
	})

	t.Run("unparseable response degrades to invalid", func(t *testing.T) {
		client := &fakeClient{respond: func(int, string) (string, error) {
			return "sure! here's your career", nil
		}}
		res := NewNormalizer(client).Normalize(ctx, "doctor")
		assert.False(t, res.Valid)
		assert.Equal(t, "Error processing request. Please try again.", res.Reason)
	})
}
