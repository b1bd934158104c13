package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCanedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "field-suggestion")
	if p := PurposeFrom(ctx); p != "field-suggestion" {
		t.Fatalf("expected 'field-suggestion', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "no backends",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name:    "defaults without keys",
			cfg:     DefaultConfig(),
			wantErr: true,
		},
		{
			name: "openrouter key only",
			cfg: func() Config {
				c := DefaultConfig()
				c.OpenRouter.APIKey = "sk-or-test"
				return c
			}(),
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Backends: []Backend{{Provider: ProviderMock}}},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Backends: []Backend{{Provider: "unknown"}, {Provider: ProviderMock}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_UsablePreservesOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenRouter.APIKey = "k"

	got := cfg.Usable()
	if len(got) != len(defaultOpenRouterModels) {
		t.Fatalf("usable = %d backends, want %d", len(got), len(defaultOpenRouterModels))
	}
	for i, b := range got {
		if b.Model != defaultOpenRouterModels[i] {
			t.Errorf("usable[%d] = %s, want %s", i, b.Model, defaultOpenRouterModels[i])
		}
	}

	cfg.Gemini.APIKey = "g"
	if first := cfg.Usable()[0]; first.Name() != "gemini/gemini-2.5-flash" {
		t.Errorf("first backend = %s, want gemini first", first.Name())
	}
}

func TestResponseText(t *testing.T) {
	var nilResp *Response
	if nilResp.Text() != "" {
		t.Fatal("nil response should have empty text")
	}
	r := &Response{Content: []byte("<p>hi</p>")}
	if r.Text() != "<p>hi</p>" {
		t.Fatalf("Text() = %q", r.Text())
	}
}
