package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gpteach/gpteach/internal/curriculum"
	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/plan"
)

func newTestService(responses ...llm.MockResponse) (*Service, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return NewService(mock, DefaultConfig()), mock
}

func text(s string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(s)}
}

var objectives = plan.FieldRef{RowID: "r1", CellID: "c1", Label: "Learning Objectives"}

func TestGenerateFieldSuggestion_BuildsPrompt(t *testing.T) {
	svc, mock := newTestService(text("```html\n<p>Students will compare fractions.</p>\n```"))

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "grade 5 math on fractions"},
		{Role: llm.RoleAssistant, Content: "Step by step or all at once?"},
	}
	got, err := svc.GenerateFieldSuggestion(context.Background(), FieldInput{
		Field:   objectives,
		Brief:   Brief{Grade: "5", Subject: "Math", Topic: "fractions"},
		Context: "Date: Monday",
		History: history,
		Rule:    "Write two measurable objectives.",
		Outcomes: []curriculum.Outcome{
			{Grade: "5", ID: "5.N.7", Description: "Demonstrate an understanding of fractions"},
		},
		Constraint: "Do not mention dates.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<p>Students will compare fractions.</p>" {
		t.Fatalf("suggestion = %q", got)
	}

	req := mock.Calls[0]
	if req.System != fieldSystemPrompt {
		t.Error("expected field system prompt")
	}
	if len(req.Messages) != 3 {
		t.Fatalf("messages = %d, want history + prompt", len(req.Messages))
	}
	prompt := req.Messages[2].Content
	for _, want := range []string{
		`Field: "Learning Objectives"`,
		"- Grade: 5",
		"- Subject: Math",
		"- Topic: fractions",
		"Date: Monday",
		"5.N.7: Demonstrate an understanding of fractions",
		"Write two measurable objectives.",
		"Quote the most relevant outcomes",
		"IMPORTANT: Do not mention dates.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if req.MaxTokens != DefaultConfig().MaxTokens {
		t.Errorf("MaxTokens = %d", req.MaxTokens)
	}
	if len(history) != 2 {
		t.Error("history must not be modified")
	}
}

func TestGenerateFieldSuggestion_MissingBriefFields(t *testing.T) {
	svc, mock := newTestService(text("<p>ok</p>"))

	_, err := svc.GenerateFieldSuggestion(context.Background(), FieldInput{
		Field:         plan.FieldRef{Label: "Curriculum Outcomes"},
		QuoteOutcomes: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, "- Grade: Not specified") {
		t.Error("unset grade should read Not specified")
	}
	if !strings.Contains(prompt, "Quote the most relevant outcomes") {
		t.Error("QuoteOutcomes should add the quote instruction without outcomes")
	}
}

func TestGenerateFieldSuggestion_EmptyAndErrors(t *testing.T) {
	svc, _ := newTestService(
		text("   "),
		llm.MockResponse{Err: &llm.ErrFatal{StatusCode: 401, Err: errors.New("bad key")}},
	)

	_, err := svc.GenerateFieldSuggestion(context.Background(), FieldInput{Field: objectives})
	if !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}

	_, err = svc.GenerateFieldSuggestion(context.Background(), FieldInput{Field: objectives})
	var fatal *llm.ErrFatal
	if !errors.As(err, &fatal) {
		t.Fatalf("expected wrapped ErrFatal, got %v", err)
	}
}

func testHistory(n int) []llm.Message {
	history := make([]llm.Message, n)
	for i := range history {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		history[i] = llm.Message{Role: role, Content: string(rune('a' + i))}
	}
	return history
}

func TestGenerateFieldSuggestion_TrimmedHistoryKeepsRequest(t *testing.T) {
	mock := llm.NewMockProvider(text("<p>ok</p>"))
	svc := NewService(mock, Config{MaxTokens: 100, MaxHistory: 3})

	if _, err := svc.GenerateFieldSuggestion(context.Background(), FieldInput{Field: objectives, History: testHistory(6)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := mock.Calls[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4: %+v", len(msgs), msgs)
	}
	if msgs[0].Content != "a" || msgs[0].Role != llm.RoleUser {
		t.Errorf("first message = %+v, want the opening request", msgs[0])
	}
	if msgs[1].Content != "e" || msgs[2].Content != "f" {
		t.Errorf("tail = %+v", msgs[1:3])
	}
}

func TestGenerateFieldSuggestion_WholeHistoryByDefault(t *testing.T) {
	svc, mock := newTestService(text("<p>ok</p>"))

	if _, err := svc.GenerateFieldSuggestion(context.Background(), FieldInput{Field: objectives, History: testHistory(40)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(mock.Calls[0].Messages); got != 41 {
		t.Fatalf("got %d messages, want the whole transcript plus the prompt", got)
	}
}

func TestReviseSuggestion(t *testing.T) {
	svc, mock := newTestService(text("<p>Shorter.</p>"))

	got, err := svc.ReviseSuggestion(context.Background(), ReviseInput{
		Field:    objectives,
		Brief:    Brief{Grade: "5"},
		Previous: "<p>Long objective.</p>",
		Feedback: "make it shorter",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "<p>Shorter.</p>" {
		t.Fatalf("revision = %q", got)
	}

	prompt := mock.Calls[0].Messages[0].Content
	if !strings.Contains(prompt, "<p>Long objective.</p>") || !strings.Contains(prompt, "make it shorter") {
		t.Errorf("prompt should carry previous suggestion and feedback:\n%s", prompt)
	}
}

func TestGenerateDocument_JSON(t *testing.T) {
	svc, mock := newTestService(text(`{
		"title": "Fraction Friends",
		"fields": [
			{"label": "learning objectives", "content": "<p>Compare fractions.</p>"},
			{"label": "Materials", "content": "<ul><li>Fraction strips</li></ul>"},
			{"label": "Unrequested", "content": "<p>ignored</p>"}
		]
	}`))

	labels := []string{"Learning Objectives", "Materials", "Assessment", "Materials"}
	res, err := svc.GenerateDocument(context.Background(), DocumentInput{
		Brief:  Brief{Grade: "5", Subject: "Math", Topic: "fractions"},
		Labels: labels,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Title != "Fraction Friends" {
		t.Errorf("title = %q", res.Title)
	}
	if res.Requested != 3 {
		t.Errorf("requested = %d, want 3 distinct labels", res.Requested)
	}
	if res.Fields["Learning Objectives"] != "<p>Compare fractions.</p>" {
		t.Errorf("case-insensitive label match failed: %v", res.Fields)
	}
	if _, ok := res.Fields["Unrequested"]; ok {
		t.Error("unrequested labels must be dropped")
	}
	if missing := res.Missing(labels); len(missing) != 1 || missing[0] != "Assessment" {
		t.Errorf("missing = %v", missing)
	}

	req := mock.Calls[0]
	if req.Schema == nil || req.Schema.Name != "document-fill" {
		t.Error("document requests should carry the document-fill schema")
	}
	if req.MaxTokens != DefaultConfig().DocumentMaxTokens {
		t.Errorf("MaxTokens = %d", req.MaxTokens)
	}
}

func TestGenerateDocument_TextFallbackFromInvalidResponse(t *testing.T) {
	raw := `TITLE: Exploring Fractions
FIELD: "Learning Objectives"
CONTENT: <p>Students will order fractions.</p>
FIELD: "Materials"
CONTENT: <ul><li>Strips</li></ul>`

	svc, _ := newTestService(llm.MockResponse{Err: &llm.ExhaustedError{Attempts: []llm.BackendError{
		{Backend: "gemini/gemini-2.5-flash", Err: &llm.ErrInvalidResponse{Content: json.RawMessage(raw), Err: errors.New("invalid JSON")}},
	}}})

	res, err := svc.GenerateDocument(context.Background(), DocumentInput{
		Labels: []string{"Learning Objectives", "Materials", "Closure"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Exploring Fractions" {
		t.Errorf("title = %q", res.Title)
	}
	if len(res.Fields) != 2 {
		t.Errorf("fields = %v", res.Fields)
	}
	if res.Fields["Materials"] != "<ul><li>Strips</li></ul>" {
		t.Errorf("materials = %q", res.Fields["Materials"])
	}
}

func TestGenerateDocument_ProviderError(t *testing.T) {
	svc, _ := newTestService(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("quota")}})

	_, err := svc.GenerateDocument(context.Background(), DocumentInput{Labels: []string{"Date"}})
	var rl *llm.ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected wrapped rate limit, got %v", err)
	}
}
