// Package config loads careerpilot configuration from a YAML file with
// environment-variable overrides. Provider credentials resolve to a
// fixed strategy at construction time; nothing re-reads the
// environment after startup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"careerpilot/internal/logging"
)

// Config holds all careerpilot configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Cache store configuration
	Store StoreConfig `yaml:"store"`

	// Pipeline tuning
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging
	Logging logging.Config `yaml:"logging"`
}

// LLMConfig configures the external generation and search providers.
type LLMConfig struct {
	GeminiAPIKey     string `yaml:"gemini_api_key"`
	PerplexityAPIKey string `yaml:"perplexity_api_key"`
	GenerationModel  string `yaml:"generation_model"` // default gemini-2.5-flash-lite
	SearchModel      string `yaml:"search_model"`     // default sonar-pro
	Timeout          string `yaml:"timeout"`          // per-call wall clock, e.g. "120s"
}

// StoreConfig configures the SQLite cache store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// PipelineConfig tunes retry budgets and rate-limit pacing. The
// defaults match the free-tier limits of the upstream services; change
// them only if the quota changes.
type PipelineConfig struct {
	PlannerMaxAttempts int    `yaml:"planner_max_attempts"`
	PlannerBaseDelay   string `yaml:"planner_base_delay"`
	ProbeBatchSize     int    `yaml:"probe_batch_size"`
	ProbeBatchDelay    string `yaml:"probe_batch_delay"`
	QuotaCooldown      string `yaml:"quota_cooldown"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Name:    "careerpilot",
		Version: "0.1.0",
		LLM: LLMConfig{
			GenerationModel: "gemini-2.5-flash-lite",
			SearchModel:     "sonar-pro",
			Timeout:         "120s",
		},
		Store: StoreConfig{
			DatabasePath: "careerpilot.db",
		},
		Pipeline: PipelineConfig{
			PlannerMaxAttempts: 3,
			PlannerBaseDelay:   "5s",
			ProbeBatchSize:     5,
			ProbeBatchDelay:    "4s",
			QuotaCooldown:      "60s",
		},
		Logging: logging.Config{
			Level: "info",
		},
	}
}

// Load reads configuration from path. A missing file is not an error;
// defaults plus environment overrides are returned instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}
	if v := os.Getenv("PERPLEXITY_API_KEY"); v != "" {
		cfg.LLM.PerplexityAPIKey = v
	}
	if v := os.Getenv("CAREERPILOT_DB"); v != "" {
		cfg.Store.DatabasePath = v
	}
	if v := os.Getenv("CAREERPILOT_DEBUG"); v == "1" || v == "true" {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
}

// GetTimeout parses the per-call timeout, falling back to 120s.
func (c *LLMConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 120*time.Second)
}

// GetPlannerBaseDelay parses the planner base delay, falling back to 5s.
func (c *PipelineConfig) GetPlannerBaseDelay() time.Duration {
	return parseDuration(c.PlannerBaseDelay, 5*time.Second)
}

// GetProbeBatchDelay parses the inter-batch delay, falling back to 4s.
func (c *PipelineConfig) GetProbeBatchDelay() time.Duration {
	return parseDuration(c.ProbeBatchDelay, 4*time.Second)
}

// GetQuotaCooldown parses the quota cooldown, falling back to 60s.
func (c *PipelineConfig) GetQuotaCooldown() time.Duration {
	return parseDuration(c.QuotaCooldown, 60*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
