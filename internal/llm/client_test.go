package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, FailureNone, ClassifyError(nil))
	})

	t.Run("wrapped quota sentinel", func(t *testing.T) {
		err := fmt.Errorf("gemini: %w", ErrQuotaExhausted)
		assert.Equal(t, FailureQuota, ClassifyError(err))
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		err := fmt.Errorf("call failed: %w", context.DeadlineExceeded)
		assert.Equal(t, FailureTimeout, ClassifyError(err))
	})

	t.Run("api error", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &APIError{Provider: "gemini", Status: 500, Message: "oops"})
		assert.Equal(t, FailureAPI, ClassifyError(err))
	})

	t.Run("anything else", func(t *testing.T) {
		assert.Equal(t, FailureOther, ClassifyError(errors.New("weird")))
	})
}

func TestDetectProviders(t *testing.T) {
	t.Run("generation requires gemini key", func(t *testing.T) {
		_, err := DetectGeneration(Credentials{})
		assert.Error(t, err)

		cfg, err := DetectGeneration(Credentials{GeminiAPIKey: "g"})
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.Provider)
	})

	t.Run("search prefers perplexity", func(t *testing.T) {
		cfg, err := DetectSearch(Credentials{GeminiAPIKey: "g", PerplexityAPIKey: "p"})
		require.NoError(t, err)
		assert.Equal(t, ProviderPerplexity, cfg.Provider)
	})

	t.Run("search falls back to gemini", func(t *testing.T) {
		cfg, err := DetectSearch(Credentials{GeminiAPIKey: "g"})
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.Provider)
	})

	t.Run("search with no keys fails", func(t *testing.T) {
		_, err := DetectSearch(Credentials{})
		assert.Error(t, err)
	})
}

func TestNewClientFromConfig(t *testing.T) {
	t.Run("gemini with model override", func(t *testing.T) {
		client, err := NewClientFromConfig(&ProviderConfig{Provider: ProviderGemini, APIKey: "k", Model: "custom"})
		require.NoError(t, err)
		gc, ok := client.(*GeminiClient)
		require.True(t, ok)
		assert.Equal(t, "custom", gc.GetModel())
	})

	t.Run("perplexity", func(t *testing.T) {
		client, err := NewClientFromConfig(&ProviderConfig{Provider: ProviderPerplexity, APIKey: "k"})
		require.NoError(t, err)
		_, ok := client.(*PerplexityClient)
		assert.True(t, ok)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewClientFromConfig(&ProviderConfig{Provider: "nope"})
		assert.Error(t, err)
	})
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Provider: "perplexity", Status: 503, Message: "down"}
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "perplexity")
}
