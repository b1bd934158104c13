package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewProvider_SkipsBackendsWithoutKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenRouter.APIKey = "sk-or-test"
	cfg.Rate = RateLimitConfig{}

	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := p.Names()
	if len(names) != len(defaultOpenRouterModels) {
		t.Fatalf("names = %v", names)
	}
	for i, n := range names {
		if n != "openrouter/"+defaultOpenRouterModels[i] {
			t.Errorf("names[%d] = %q", i, n)
		}
	}
	if p.ModelID() != defaultOpenRouterModels[0] {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}

func TestNewProvider_NoUsableBackends(t *testing.T) {
	_, err := NewProvider(context.Background(), DefaultConfig(), nil, nil)
	if err == nil {
		t.Fatal("expected error without keys")
	}
}

func TestNewProvider_MockChainRunsDecorators(t *testing.T) {
	cfg := Config{
		Backends: []Backend{{Provider: ProviderMock, Model: "a"}, {Provider: ProviderMock, Model: "b"}},
		Retry:    RetryConfig{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1},
		Timeout:  time.Second,
	}

	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Empty mocks report unavailable, so both candidates are exhausted.
	_, err = p.Generate(context.Background(), Request{})
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T (%v)", err, err)
	}
	if len(exhausted.Attempts) != 2 || exhausted.Attempts[0].Backend != "mock/a" {
		t.Fatalf("attempts = %+v", exhausted.Attempts)
	}
}

func TestFallback_TimeoutBoundsCall(t *testing.T) {
	slow := &blockingProvider{}
	f := NewFallbackProvider(nil, Candidate{Name: "slow", Provider: slow}).WithTimeout(10 * time.Millisecond)

	_, err := f.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// blockingProvider waits for its context to end.
type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, &ErrProviderUnavailable{Err: ctx.Err()}
}

func (blockingProvider) ModelID() string { return "slow" }
