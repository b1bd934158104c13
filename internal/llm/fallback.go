package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Candidate is one entry in a fallback chain.
type Candidate struct {
	Name     string
	Provider Provider
}

// BackendError identifies the backend that produced a failure.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every candidate failed with retryable
// errors. Attempts keeps the candidates' last errors in the order tried.
type ExhaustedError struct {
	Attempts []BackendError
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString("all models failed:")
	for _, a := range e.Attempts {
		b.WriteString("\n")
		b.WriteString(a.Error())
	}
	return b.String()
}

// Unwrap exposes each candidate's error to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	out := make([]error, len(e.Attempts))
	for i := range e.Attempts {
		out[i] = e.Attempts[i].Err
	}
	return out
}

// FallbackProvider tries candidates in order. Each candidate is expected
// to carry its own retry decorator.
type FallbackProvider struct {
	candidates []Candidate
	logger     *zap.Logger
	timeout    time.Duration
}

// NewFallbackProvider builds a fallback chain over candidates.
func NewFallbackProvider(logger *zap.Logger, candidates ...Candidate) *FallbackProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackProvider{candidates: candidates, logger: logger}
}

func (f *FallbackProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(f.candidates) == 0 {
		return nil, &ErrProviderUnavailable{Err: errors.New("no backends available")}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var attempts []BackendError
	for i, c := range f.candidates {
		resp, err := c.Provider.Generate(ctx, req)
		if err == nil {
			if i > 0 {
				f.logger.Info("fallback backend succeeded",
					zap.String("backend", c.Name),
					zap.Int("skipped", i),
				)
			}
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !IsRetryable(err) {
			f.logger.Warn("backend failed with non-retryable error",
				zap.String("backend", c.Name),
				zap.Error(err),
			)
			return nil, &BackendError{Backend: c.Name, Err: err}
		}

		f.logger.Warn("backend exhausted retries, falling back",
			zap.String("backend", c.Name),
			zap.Error(err),
		)
		attempts = append(attempts, BackendError{Backend: c.Name, Err: err})
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

// WithTimeout bounds each Generate call, across every candidate and retry.
func (f *FallbackProvider) WithTimeout(d time.Duration) *FallbackProvider {
	f.timeout = d
	return f
}

// ModelID returns the first candidate's model.
func (f *FallbackProvider) ModelID() string {
	if len(f.candidates) == 0 {
		return "none"
	}
	return f.candidates[0].Provider.ModelID()
}

// Names lists candidate names in fallback order.
func (f *FallbackProvider) Names() []string {
	out := make([]string, len(f.candidates))
	for i, c := range f.candidates {
		out[i] = c.Name
	}
	return out
}
