// Package generator drafts lesson-plan content with an LLM backend.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gpteach/gpteach/internal/llm"
)

// LLM purposes recorded with every request.
const (
	PurposeField    = "field-suggestion"
	PurposeRevision = "field-revision"
	PurposeDocument = "document-fill"
)

// ErrEmptyOutput is returned when the model answered with nothing usable.
var ErrEmptyOutput = errors.New("model returned empty content")

// Service generates field and document content.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates a content generation service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// GenerateFieldSuggestion drafts content for a single field.
func (s *Service) GenerateFieldSuggestion(ctx context.Context, in FieldInput) (string, error) {
	ctx = llm.WithPurpose(ctx, PurposeField)

	req := llm.Request{
		System:      fieldSystemPrompt,
		Messages:    s.messages(in.History, buildFieldUserMessage(in)),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", in.Field.Label, err)
	}
	out := Sanitize(resp.Text())
	if out == "" {
		return "", fmt.Errorf("field %q: %w", in.Field.Label, ErrEmptyOutput)
	}
	return out, nil
}

// ReviseSuggestion rewrites a pending suggestion according to feedback.
func (s *Service) ReviseSuggestion(ctx context.Context, in ReviseInput) (string, error) {
	ctx = llm.WithPurpose(ctx, PurposeRevision)

	req := llm.Request{
		System:      fieldSystemPrompt,
		Messages:    s.messages(in.History, buildReviseUserMessage(in)),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("revise %q: %w", in.Field.Label, err)
	}
	out := Sanitize(resp.Text())
	if out == "" {
		return "", fmt.Errorf("revise %q: %w", in.Field.Label, ErrEmptyOutput)
	}
	return out, nil
}

type documentOutput struct {
	Title  string `json:"title"`
	Fields []struct {
		Label   string `json:"label"`
		Content string `json:"content"`
	} `json:"fields"`
}

// GenerateDocument fills every label in one call. Structured output is
// preferred; a response that is not valid JSON is read with the plain
// TITLE:/FIELD:/CONTENT: parser instead.
func (s *Service) GenerateDocument(ctx context.Context, in DocumentInput) (*DocumentResult, error) {
	ctx = llm.WithPurpose(ctx, PurposeDocument)

	labels := uniqueLabels(in.Labels)
	req := llm.Request{
		System: documentSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildDocumentUserMessage(in)},
		},
		Schema:      DocumentSchema,
		MaxTokens:   s.cfg.DocumentMaxTokens,
		Temperature: s.cfg.Temperature,
	}

	var raw string
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		var inv *llm.ErrInvalidResponse
		if !errors.As(err, &inv) || len(inv.Content) == 0 {
			return nil, fmt.Errorf("document generation: %w", err)
		}
		raw = string(inv.Content)
	} else {
		raw = resp.Text()
	}

	res := parseDocument(raw, labels)
	res.Requested = len(labels)
	return res, nil
}

func parseDocument(raw string, labels []string) *DocumentResult {
	res := &DocumentResult{Title: defaultTitle, Fields: make(map[string]string)}

	var out documentOutput
	if err := json.Unmarshal([]byte(Sanitize(raw)), &out); err == nil && (out.Title != "" || len(out.Fields) > 0) {
		if t := strings.TrimSpace(out.Title); t != "" {
			res.Title = t
		}
		for _, f := range out.Fields {
			if c := Sanitize(f.Content); f.Label != "" && c != "" {
				res.Fields[strings.TrimSpace(f.Label)] = c
			}
		}
	} else {
		res = ParseDocumentText(raw)
	}

	// Keep only requested labels, matching case-insensitively so a model
	// that changes capitalization still lands on the right field.
	want := make(map[string]string, len(labels))
	for _, l := range labels {
		want[strings.ToLower(l)] = l
	}
	kept := make(map[string]string, len(res.Fields))
	for l, c := range res.Fields {
		if canon, ok := want[strings.ToLower(l)]; ok {
			kept[canon] = c
		}
	}
	res.Fields = kept
	return res
}

// messages appends the prompt to the transcript. With MaxHistory set, the
// opening request is kept and followed by the newest entries.
func (s *Service) messages(history []llm.Message, prompt string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	if n := s.cfg.MaxHistory; n > 0 && len(history) > n {
		out = append(out, history[0])
		history = history[len(history)-(n-1):]
	}
	out = append(out, history...)
	return append(out, llm.Message{Role: llm.RoleUser, Content: prompt})
}
