package llm

import (
	"fmt"
	"time"
)

// Provider names accepted in Backend.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderMock       = "mock"
)

// Config holds all LLM backend configuration.
type Config struct {
	// Backends lists the candidate backends in fallback order.
	Backends []Backend

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
	Rate       RateLimitConfig

	// Timeout bounds a single generation across every backend and retry.
	// Zero leaves cancellation to the caller.
	Timeout time.Duration
}

// Backend is one fallback candidate: a provider plus the model it serves.
type Backend struct {
	Provider string `yaml:"provider" validate:"required,oneof=gemini openrouter openai anthropic mock"`
	Model    string `yaml:"model"`
}

// Name identifies the backend in logs and aggregated errors.
func (b Backend) Name() string {
	if b.Model == "" {
		return b.Provider
	}
	return b.Provider + "/" + b.Model
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Default: "https://openrouter.ai/api/v1"

	// Referer and Title populate the attribution headers OpenRouter
	// shows on its dashboard.
	Referer string
	Title   string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier" validate:"gte=1"`
}

// RateLimitConfig bounds the request rate sent to each backend.
// A zero RequestsPerMinute disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// OpenRouter free-tier models tried after Gemini.
var defaultOpenRouterModels = []string{
	"minimax/minimax-m2:free",
	"deepseek/deepseek-chat-v3-0324:free",
	"meta-llama/llama-3.2-3b-instruct:free",
}

// DefaultBackends returns the standard fallback order.
func DefaultBackends() []Backend {
	out := []Backend{{Provider: ProviderGemini, Model: "gemini-2.5-flash"}}
	for _, m := range defaultOpenRouterModels {
		out = append(out, Backend{Provider: ProviderOpenRouter, Model: m})
	}
	return out
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backends: DefaultBackends(),
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model:   defaultOpenRouterModels[0],
			Referer: "https://gpteach.ai",
			Title:   "GPTeach.AI",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1200 * time.Millisecond,
			MaxWait:     15 * time.Second,
			Multiplier:  2.0,
		},
		Rate: RateLimitConfig{
			RequestsPerMinute: 30,
			Burst:             3,
		},
		Timeout: 2 * time.Minute,
	}
}

// HasKey reports whether the provider of b has credentials configured.
func (c Config) HasKey(b Backend) bool {
	switch b.Provider {
	case ProviderGemini:
		return c.Gemini.APIKey != ""
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey != ""
	case ProviderOpenAI:
		return c.OpenAI.APIKey != ""
	case ProviderAnthropic:
		return c.Anthropic.APIKey != ""
	case ProviderMock:
		return true
	}
	return false
}

// Usable returns the configured backends whose credentials are present,
// preserving order.
func (c Config) Usable() []Backend {
	var out []Backend
	for _, b := range c.Backends {
		if c.HasKey(b) {
			out = append(out, b)
		}
	}
	return out
}

// Validate checks that every backend names a known provider and at least
// one of them has an API key.
func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("no LLM backends configured")
	}
	for _, b := range c.Backends {
		switch b.Provider {
		case ProviderGemini, ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic, ProviderMock:
		default:
			return fmt.Errorf("unknown LLM provider: %q", b.Provider)
		}
	}
	if len(c.Usable()) == 0 {
		return fmt.Errorf("no API key found: set GEMINI_API_KEY or OPENROUTER_API_KEY (or GPTEACH_<PROVIDER>_API_KEY)")
	}
	return nil
}
