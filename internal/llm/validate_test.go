package llm_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/llm"
)

const fractionPlan = `{
  "title": "Fraction Pizza Party",
  "fields": [
    {"label": "Learning Outcomes", "content": "<p>Students compare fractions with like denominators.</p>"},
    {"label": "Materials", "content": "<ul><li>Paper pizzas</li><li>Markers</li></ul>"}
  ]
}`

func TestValidate_DocumentSchema(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete plan", fractionPlan, false},
		{"no fields yet", `{"title": "Fraction Pizza Party", "fields": []}`, false},
		{"fenced plan", "```json\n" + fractionPlan + "\n```", false},
		{"missing title", `{"fields": [{"label": "Materials", "content": "<p>Pizzas</p>"}]}`, true},
		{"field without content", `{"title": "T", "fields": [{"label": "Materials"}]}`, true},
		{"extra field property", `{"title": "T", "fields": [{"label": "Materials", "content": "x", "notes": "y"}]}`, true},
		{"fields as object", `{"title": "T", "fields": {"Materials": "<p>Pizzas</p>"}}`, true},
		{"plain text reply", "TITLE: Fraction Pizza Party\nFIELD: \"Materials\"\nCONTENT: <p>Pizzas</p>", true},
		{"empty reply", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := llm.Validate(generator.DocumentSchema, json.RawMessage(tt.raw))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var inv *llm.ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
			}
			if string(inv.Content) != tt.raw {
				t.Errorf("error content = %q, want the raw reply", inv.Content)
			}
		})
	}
}

func TestValidate_ErrorNamesSchema(t *testing.T) {
	err := llm.Validate(generator.DocumentSchema, json.RawMessage(`{"fields": []}`))
	if err == nil || !strings.Contains(err.Error(), generator.DocumentSchema.Name) {
		t.Fatalf("error %v should name schema %q", err, generator.DocumentSchema.Name)
	}
}

func TestValidate_NilSchemaAcceptsText(t *testing.T) {
	if err := llm.Validate(nil, json.RawMessage("<p>Students sort fraction cards.</p>")); err != nil {
		t.Fatalf("expected no error without a schema, got %v", err)
	}
}

func TestValidate_CompiledOncePerName(t *testing.T) {
	schema := &llm.Schema{
		Name: "outcome-pick",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"grade": map[string]any{"type": "string", "enum": []any{"K", "1", "2", "3", "4", "5", "6"}},
				"ids":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []any{"grade", "ids"},
		},
	}

	if err := llm.Validate(schema, json.RawMessage(`{"grade": "5", "ids": ["5N1", "5N2"]}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := llm.Validate(schema, json.RawMessage(`{"grade": "9", "ids": []}`)); err == nil {
		t.Fatal("expected error for a grade outside the enum")
	}
	if err := llm.Validate(schema, json.RawMessage(`{"grade": "5", "ids": [1]}`)); err == nil {
		t.Fatal("expected error for a numeric outcome id")
	}
}
