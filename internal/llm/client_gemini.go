package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"careerpilot/internal/logging"
)

// GeminiClient implements Client on top of the google.golang.org/genai
// SDK. The SDK client is created lazily on first use so construction
// stays cheap and error-free.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration

	mu          sync.Mutex
	lastRequest time.Time

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// GeminiConfig holds configuration for the Gemini client. BaseURL is
// only set by tests; an empty value uses the SDK default endpoint.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		Model:   "gemini-2.5-flash-lite",
		Timeout: 120 * time.Second,
	}
}

// NewGeminiClient creates a new Gemini client with default config.
func NewGeminiClient(apiKey string) *GeminiClient {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a new Gemini client with custom config.
func NewGeminiClientWithConfig(config GeminiConfig) *GeminiClient {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiClient{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   model,
		timeout: timeout,
	}
}

func (c *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	c.initOnce.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     c.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: c.timeout},
		}
		if c.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
		}
		c.client, c.initErr = genai.NewClient(ctx, cfg)
	})
	return c.client, c.initErr
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message. A single
// call, no retries; failures are mapped onto the shared taxonomy so
// callers can decide what to do with them.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[Gemini] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	// Rate limiting: minimum gap between consecutive requests
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}
	genCfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		var apiErr genai.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests:
			logging.APIError("[Gemini] rate limited after %v", time.Since(startTime))
			return "", fmt.Errorf("gemini: %w", ErrQuotaExhausted)
		case errors.As(err, &apiErr):
			logging.APIError("[Gemini] API error after %v: %v", time.Since(startTime), err)
			return "", &APIError{Provider: "gemini", Status: apiErr.Code, Message: apiErr.Message}
		default:
			logging.APIError("[Gemini] request failed after %v: %v", time.Since(startTime), err)
			return "", fmt.Errorf("request failed: %w", err)
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoCompletion
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		result.WriteString(part.Text)
	}

	response := strings.TrimSpace(result.String())
	logging.API("[Gemini] completed in %v response_len=%d", time.Since(startTime), len(response))
	return response, nil
}

// SetModel changes the model used for completions.
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *GeminiClient) GetModel() string {
	return c.model
}
