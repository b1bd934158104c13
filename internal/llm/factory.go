package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gpteach/gpteach/internal/store"
)

// NewProvider builds the fallback chain described by cfg. Every usable
// backend becomes one candidate wrapped, outermost first, in retry, event
// logging and rate limiting. Backends without credentials are skipped.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (*FallbackProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, b := range cfg.Usable() {
		base, err := newBackend(ctx, cfg, b)
		if err != nil {
			return nil, fmt.Errorf("initializing %s: %w", b.Name(), err)
		}

		limited := WithRateLimit(base, cfg.Rate)
		logged := WithLogging(limited, b.Provider, eventRepo, logger)
		retried := WithRetry(logged, cfg.Retry, RetryLogger(logger.With(zap.String("backend", b.Name()))))

		candidates = append(candidates, Candidate{Name: b.Name(), Provider: retried})
	}

	logger.Info("model fallback chain ready", zap.Strings("backends", candidateNames(candidates)))
	return NewFallbackProvider(logger, candidates...).WithTimeout(cfg.Timeout), nil
}

// newBackend constructs the bare provider for one backend entry, using the
// entry's model over the family default.
func newBackend(ctx context.Context, cfg Config, b Backend) (Provider, error) {
	switch b.Provider {
	case ProviderAnthropic:
		c := cfg.Anthropic
		if b.Model != "" {
			c.Model = b.Model
		}
		return NewAnthropicProvider(c)
	case ProviderOpenAI:
		c := cfg.OpenAI
		if b.Model != "" {
			c.Model = b.Model
		}
		return NewOpenAIProvider(c)
	case ProviderGemini:
		c := cfg.Gemini
		if b.Model != "" {
			c.Model = b.Model
		}
		return NewGeminiProvider(ctx, c)
	case ProviderOpenRouter:
		c := cfg.OpenRouter
		if b.Model != "" {
			c.Model = b.Model
		}
		return NewOpenRouterProvider(c)
	case ProviderMock:
		return &MockProvider{Name: b.Model}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", b.Provider)
	}
}

func candidateNames(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
