package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrFatal indicates a client-side failure (bad credentials, malformed
// request, unknown model). Retrying or falling back will not help.
type ErrFatal struct {
	StatusCode int
	Err        error
}

func (e *ErrFatal) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("LLM request rejected (%d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("LLM request rejected: %v", e.Err)
}

func (e *ErrFatal) Unwrap() error { return e.Err }

// IsRetryable reports whether err belongs to a transient status class
// (rate limited, temporarily unavailable, malformed output) that another
// attempt or another backend may recover from.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var fatal *ErrFatal
	if errors.As(err, &fatal) {
		return false
	}
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) {
		return true
	}
	var invResp *ErrInvalidResponse
	return errors.As(err, &invResp)
}

// retryAfter extracts a server-supplied retry delay from err, if any.
func retryAfter(err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) && unavail.RetryAfter > 0 {
		return unavail.RetryAfter
	}
	return 0
}
