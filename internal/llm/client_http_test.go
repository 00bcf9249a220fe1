package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiTestServer(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClientWithConfig(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gemini-2.5-flash-lite",
		Timeout: 5 * time.Second,
	})
}

func TestGeminiClient(t *testing.T) {
	ctx := context.Background()

	t.Run("successful completion", func(t *testing.T) {
		client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "gemini-2.5-flash-lite")
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"candidates": []map[string]interface{}{
					{"content": map[string]interface{}{
						"parts": []map[string]string{{"text": "hello"}},
						"role":  "model",
					}},
				},
			})
		})
		got, err := client.Complete(ctx, "hi")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("429 maps to quota sentinel", func(t *testing.T) {
		client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"code":    429,
					"message": "Resource has been exhausted",
					"status":  "RESOURCE_EXHAUSTED",
				},
			})
		})
		_, err := client.Complete(ctx, "hi")
		assert.ErrorIs(t, err, ErrQuotaExhausted)
		assert.Equal(t, FailureQuota, ClassifyError(err))
	})

	t.Run("500 maps to APIError", func(t *testing.T) {
		client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{
					"code":    500,
					"message": "internal",
					"status":  "INTERNAL",
				},
			})
		})
		_, err := client.Complete(ctx, "hi")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 500, apiErr.Status)
		assert.Equal(t, FailureAPI, ClassifyError(err))
	})

	t.Run("empty candidates maps to ErrNoCompletion", func(t *testing.T) {
		client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
		})
		_, err := client.Complete(ctx, "hi")
		assert.ErrorIs(t, err, ErrNoCompletion)
	})

	t.Run("missing api key fails before any request", func(t *testing.T) {
		client := NewGeminiClient("")
		_, err := client.Complete(ctx, "hi")
		assert.ErrorIs(t, err, ErrNoAPIKey)
	})
}

func TestPerplexityClient(t *testing.T) {
	ctx := context.Background()

	t.Run("successful completion with system prompt", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": "answer"}},
				},
			})
		}))
		defer srv.Close()

		client := NewPerplexityClientWithConfig(PerplexityConfig{
			APIKey:  "test-key",
			BaseURL: srv.URL,
			Model:   "sonar-pro",
			Timeout: 5 * time.Second,
		})
		got, err := client.CompleteWithSystem(ctx, "be precise", "question")
		require.NoError(t, err)
		assert.Equal(t, "answer", got)
	})

	t.Run("429 maps to quota sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := NewPerplexityClientWithConfig(PerplexityConfig{
			APIKey: "test-key", BaseURL: srv.URL, Timeout: 5 * time.Second,
		})
		_, err := client.Complete(ctx, "hi")
		assert.ErrorIs(t, err, ErrQuotaExhausted)
	})
}
