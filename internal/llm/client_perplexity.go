package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"careerpilot/internal/logging"
)

// PerplexityClient implements Client for the Perplexity Sonar API.
// Perplexity answers with live web-search grounding, which makes it the
// preferred provider for detail extraction.
type PerplexityClient struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

// PerplexityConfig holds configuration for the Perplexity client.
type PerplexityConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultPerplexityConfig returns sensible defaults.
func DefaultPerplexityConfig(apiKey string) PerplexityConfig {
	return PerplexityConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.perplexity.ai",
		Model:   "sonar-pro",
		Timeout: 60 * time.Second,
	}
}

// NewPerplexityClient creates a new Perplexity client with default config.
func NewPerplexityClient(apiKey string) *PerplexityClient {
	return NewPerplexityClientWithConfig(DefaultPerplexityConfig(apiKey))
}

// NewPerplexityClientWithConfig creates a new Perplexity client with custom config.
func NewPerplexityClientWithConfig(config PerplexityConfig) *PerplexityClient {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "sonar-pro"
	}
	return &PerplexityClient{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// perplexityMessage represents a message in the conversation.
type perplexityMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// perplexityRequest represents the API request structure.
type perplexityRequest struct {
	Model       string              `json:"model"`
	Messages    []perplexityMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// perplexityResponse represents the API response structure
// (OpenAI-compatible chat completions shape).
type perplexityResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *PerplexityClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *PerplexityClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[Perplexity] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	messages := make([]perplexityMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, perplexityMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, perplexityMessage{Role: "user", Content: userPrompt})

	reqBody := perplexityRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.1, // low temperature for structured output
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("[Perplexity] request failed after %v: %v", time.Since(startTime), err)
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		logging.APIError("[Perplexity] rate limited after %v", time.Since(startTime))
		return "", fmt.Errorf("perplexity: %w", ErrQuotaExhausted)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Provider: "perplexity", Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var pplxResp perplexityResponse
	if err := json.Unmarshal(body, &pplxResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if pplxResp.Error != nil {
		return "", &APIError{Provider: "perplexity", Message: pplxResp.Error.Message}
	}

	if len(pplxResp.Choices) == 0 {
		return "", ErrNoCompletion
	}

	response := strings.TrimSpace(pplxResp.Choices[0].Message.Content)
	logging.API("[Perplexity] completed in %v response_len=%d", time.Since(startTime), len(response))
	return response, nil
}

// SetModel changes the model used for completions.
func (c *PerplexityClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *PerplexityClient) GetModel() string {
	return c.model
}
