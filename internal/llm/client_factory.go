package llm

import (
	"fmt"
	"os"
)

// Provider represents a generation/search provider.
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderPerplexity Provider = "perplexity"
)

// ProviderConfig holds the resolved provider and API key.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	Model    string // optional model override
}

// Credentials carries the API keys available to the pipeline.
// Provider selection is a pure function of which keys are set; nothing
// here mutates after construction.
type Credentials struct {
	GeminiAPIKey     string
	PerplexityAPIKey string
}

// CredentialsFromEnv reads credentials from environment variables.
func CredentialsFromEnv() Credentials {
	return Credentials{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		PerplexityAPIKey: os.Getenv("PERPLEXITY_API_KEY"),
	}
}

// DetectGeneration picks the provider backing plain generation calls
// (normalization, roadmap planning, program probes). Gemini is the
// generation provider; Perplexity only ever backs search-style calls.
func DetectGeneration(creds Credentials) (*ProviderConfig, error) {
	if creds.GeminiAPIKey != "" {
		return &ProviderConfig{Provider: ProviderGemini, APIKey: creds.GeminiAPIKey}, nil
	}
	return nil, fmt.Errorf("no generation API key found; set GEMINI_API_KEY")
}

// DetectSearch picks the provider backing search-grounded calls
// (detail extraction). Prefers Perplexity when its credential is
// present, falls back to Gemini.
func DetectSearch(creds Credentials) (*ProviderConfig, error) {
	if creds.PerplexityAPIKey != "" {
		return &ProviderConfig{Provider: ProviderPerplexity, APIKey: creds.PerplexityAPIKey}, nil
	}
	if creds.GeminiAPIKey != "" {
		return &ProviderConfig{Provider: ProviderGemini, APIKey: creds.GeminiAPIKey}, nil
	}
	return nil, fmt.Errorf("no search API key found; set PERPLEXITY_API_KEY or GEMINI_API_KEY")
}

// NewClientFromConfig creates a client from a provider config.
func NewClientFromConfig(config *ProviderConfig) (Client, error) {
	switch config.Provider {
	case ProviderGemini:
		client := NewGeminiClient(config.APIKey)
		if config.Model != "" {
			client.SetModel(config.Model)
		}
		return client, nil

	case ProviderPerplexity:
		client := NewPerplexityClient(config.APIKey)
		if config.Model != "" {
			client.SetModel(config.Model)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", config.Provider)
	}
}
