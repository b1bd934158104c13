package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/wizard"
)

type scriptedGen struct{ n int }

func (g *scriptedGen) GenerateFieldSuggestion(_ context.Context, in generator.FieldInput) (string, error) {
	g.n++
	return fmt.Sprintf("<p>idea %d for %s</p>", g.n, in.Field.Label), nil
}

func (g *scriptedGen) ReviseSuggestion(_ context.Context, in generator.ReviseInput) (string, error) {
	return "<p>shorter idea</p>", nil
}

func (g *scriptedGen) GenerateDocument(_ context.Context, in generator.DocumentInput) (*generator.DocumentResult, error) {
	res := &generator.DocumentResult{Title: "Fraction Pizza", Fields: map[string]string{}, Requested: len(in.Labels)}
	for _, l := range in.Labels {
		res.Fields[l] = "all about " + l
	}
	return res, nil
}

func chatDoc(t *testing.T) *plan.Document {
	t.Helper()
	doc := plan.NewFromTemplate(plan.Template{ID: "t"}, "")
	for _, l := range []string{"Materials", "Closure"} {
		if _, err := doc.AddRow("", l); err != nil {
			t.Fatal(err)
		}
	}
	return doc
}

func runConverse(t *testing.T, doc *plan.Document, input string) (string, int) {
	t.Helper()
	wiz := wizard.New(doc, &scriptedGen{}, nil, wizard.DefaultConfig())
	var out bytes.Buffer
	saves := 0
	err := converse(context.Background(), strings.NewReader(input), &out, wiz, doc, func() error {
		saves++
		return nil
	})
	if err != nil {
		t.Fatalf("converse: %v", err)
	}
	return out.String(), saves
}

func fieldContent(doc *plan.Document, label string) string {
	for _, f := range doc.Fields() {
		if f.Label == label {
			c, _ := doc.Content(f.RowID, f.CellID)
			return c
		}
	}
	return ""
}

func TestConverseStepMode(t *testing.T) {
	doc := chatDoc(t)
	input := strings.Join([]string{
		"Create a complete lesson plan for grade 5 math on fractions",
		"maybe",
		"step",
		"make it shorter",
		"",
		"skip",
	}, "\n") + "\n"

	out, saves := runConverse(t, doc, input)
	if saves != 6 {
		t.Errorf("saves = %d, want one per line", saves)
	}
	if !strings.Contains(out, `Please answer "full" or "step".`) {
		t.Errorf("missing mode hint:\n%s", out)
	}
	if !strings.Contains(out, "[1/2] Materials") || !strings.Contains(out, "[2/2] Closure") {
		t.Errorf("missing progress headers:\n%s", out)
	}
	if got := fieldContent(doc, "Materials"); !strings.Contains(got, "shorter idea") {
		t.Errorf("Materials = %q", got)
	}
	if got := fieldContent(doc, "Closure"); got != "" {
		t.Errorf("skipped Closure = %q", got)
	}
}

func TestConverseFullModeTitles(t *testing.T) {
	doc := chatDoc(t)
	runConverse(t, doc, "Create a complete lesson plan for grade 5 math on fractions\n1\n")

	if doc.Title != "Fraction Pizza" {
		t.Errorf("title = %q", doc.Title)
	}
	if got := fieldContent(doc, "Closure"); !strings.Contains(got, "all about Closure") {
		t.Errorf("Closure = %q", got)
	}
}

func TestConverseQuitStops(t *testing.T) {
	_, saves := runConverse(t, chatDoc(t), "quit\nCreate a lesson\n")
	if saves != 0 {
		t.Errorf("saves = %d after quit", saves)
	}
}

func TestStepCancel(t *testing.T) {
	doc := chatDoc(t)
	wiz := wizard.New(doc, &scriptedGen{}, nil, wizard.DefaultConfig())
	ctx := context.Background()

	if r, err := step(ctx, wiz, "cancel"); r != nil || err != nil {
		t.Errorf("cancel while idle = %v, %v", r, err)
	}
	if _, err := step(ctx, wiz, "Create a complete lesson plan for grade 5 math on fractions"); err != nil {
		t.Fatal(err)
	}
	r, err := step(ctx, wiz, "cancel")
	if err != nil || r == nil || wiz.State() != wizard.StateIdle {
		t.Errorf("cancel = %v, %v, state %v", r, err, wiz.State())
	}
}

func TestAutofill(t *testing.T) {
	for _, mode := range []wizard.Mode{wizard.ModeFull, wizard.ModeStep} {
		t.Run(mode.String(), func(t *testing.T) {
			doc := chatDoc(t)
			wiz := wizard.New(doc, &scriptedGen{}, nil, wizard.DefaultConfig())

			n, err := autofill(context.Background(), wiz, doc, "Create a complete lesson plan for grade 5 math on fractions", mode)
			if err != nil {
				t.Fatal(err)
			}
			if n != 2 {
				t.Errorf("filled = %d, want 2", n)
			}
			if doc.Grade != "5" || doc.Subject != "Math" {
				t.Errorf("metadata = %q %q", doc.Grade, doc.Subject)
			}
			if wiz.State() != wizard.StateIdle {
				t.Errorf("state = %v", wiz.State())
			}
		})
	}
}

func TestAutofillIncompleteRequest(t *testing.T) {
	doc := chatDoc(t)
	wiz := wizard.New(doc, &scriptedGen{}, nil, wizard.DefaultConfig())
	if _, err := autofill(context.Background(), wiz, doc, "make me a lesson", wizard.ModeFull); err == nil {
		t.Fatal("expected error for missing grade, subject and topic")
	}
	if wiz.State() != wizard.StateIdle {
		t.Errorf("state = %v, want idle", wiz.State())
	}
}
