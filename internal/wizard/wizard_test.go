package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpteach/gpteach/internal/curriculum"
	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/store"
)

// fakeGen scripts generator responses and records every call.
type fakeGen struct {
	field  func(n int, in generator.FieldInput) (string, error)
	revise func(in generator.ReviseInput) (string, error)
	doc    func(in generator.DocumentInput) (*generator.DocumentResult, error)

	fieldCalls  []generator.FieldInput
	reviseCalls []generator.ReviseInput
	docCalls    []generator.DocumentInput
}

func (g *fakeGen) GenerateFieldSuggestion(_ context.Context, in generator.FieldInput) (string, error) {
	g.fieldCalls = append(g.fieldCalls, in)
	if g.field != nil {
		return g.field(len(g.fieldCalls), in)
	}
	return fmt.Sprintf("draft %d for %s", len(g.fieldCalls), in.Field.Label), nil
}

func (g *fakeGen) ReviseSuggestion(_ context.Context, in generator.ReviseInput) (string, error) {
	g.reviseCalls = append(g.reviseCalls, in)
	if g.revise != nil {
		return g.revise(in)
	}
	return "revised " + in.Previous, nil
}

func (g *fakeGen) GenerateDocument(_ context.Context, in generator.DocumentInput) (*generator.DocumentResult, error) {
	g.docCalls = append(g.docCalls, in)
	if g.doc != nil {
		return g.doc(in)
	}
	return &generator.DocumentResult{Fields: map[string]string{}}, nil
}

// countingDoc counts writes per cell.
type countingDoc struct {
	*plan.Document
	writes map[string]int
}

func (d *countingDoc) SetFieldContent(rowID, cellID, content string) error {
	if err := d.Document.SetFieldContent(rowID, cellID, content); err != nil {
		return err
	}
	d.writes[cellID]++
	return nil
}

// newDoc builds a document with one labelled cell per row. Each cell starts
// with its label in bold.
func newDoc(t *testing.T, labels ...string) *countingDoc {
	t.Helper()
	d := plan.New("Test plan")
	for _, l := range labels {
		row, err := d.AddRow("", l)
		require.NoError(t, err)
		c := row.Cells[0]
		require.NoError(t, d.SetFieldContent(row.ID, c.ID, "<p><strong>"+l+":</strong></p>"))
	}
	return &countingDoc{Document: d, writes: map[string]int{}}
}

type fakeOutcomes struct {
	outcomes []curriculum.Outcome
	grades   []string
	topics   []string
}

func (f *fakeOutcomes) OutcomesForGrade(_ context.Context, grade, topic string) ([]curriculum.Outcome, error) {
	f.grades = append(f.grades, grade)
	f.topics = append(f.topics, topic)
	return f.outcomes, nil
}

type recordedEvents struct {
	events []store.WizardEventData
}

func (r *recordedEvents) AppendWizardEvent(_ context.Context, data store.WizardEventData) error {
	r.events = append(r.events, data)
	return nil
}

func (r *recordedEvents) actions() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

const fullRequest = "Create a complete lesson plan for grade 5 math on fractions"

// stepWizard starts a session from fullRequest and enters step mode.
func stepWizard(t *testing.T, doc Document, gen Generator, outcomes OutcomeSource, opts ...Option) (*Wizard, *Reply) {
	t.Helper()
	w := New(doc, gen, outcomes, DefaultConfig(), opts...)
	_, err := w.Start(context.Background(), fullRequest)
	require.NoError(t, err)
	reply, err := w.SelectMode(context.Background(), ModeStep)
	require.NoError(t, err)
	return w, reply
}

func TestWizard_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Date", "Grade/Class", "Outcome")
	fields := doc.Fields()

	outcomes := &fakeOutcomes{outcomes: []curriculum.Outcome{
		{Grade: "5", Category: "Number", ID: "5N1", Description: "Represent fractions"},
		{Grade: "5", Category: "Number", ID: "5N2", Description: "Compare fractions"},
		{Grade: "5", Category: "Number", ID: "5N3", Description: "Order fractions"},
	}}
	gen := &fakeGen{field: func(_ int, in generator.FieldInput) (string, error) {
		switch in.Field.Label {
		case "Date":
			return "October 14, 2026", nil
		case "Outcome":
			var ids []string
			for _, o := range in.Outcomes {
				ids = append(ids, o.ID)
			}
			return "Students will meet " + strings.Join(ids, ", "), nil
		}
		return "Grade 5, Class B", nil
	}}

	w := New(doc, gen, outcomes, DefaultConfig())

	reply, err := w.Start(ctx, fullRequest)
	require.NoError(t, err)
	assert.Equal(t, StateChoosingMode, reply.State)
	req := w.Session().Request
	assert.Equal(t, "5", req.Grade)
	assert.Equal(t, "Math", req.Subject)
	assert.Equal(t, "fractions", req.Topic)

	reply, err = w.SelectMode(ctx, ModeStep)
	require.NoError(t, err)
	assert.Equal(t, fields, w.Session().Queue)
	assert.Equal(t, 0, w.Session().Cursor)
	assert.Equal(t, StateAwaitingDecision, reply.State)
	assert.Equal(t, "Date", reply.Field.Label)
	assert.Regexp(t, regexp.MustCompile(`\b\d{4}\b`), reply.Suggestion)

	reply, err = w.Approve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.writes[fields[0].CellID])
	assert.Equal(t, 1, w.Session().Cursor)
	assert.Equal(t, "Grade/Class", reply.Field.Label)

	reply, err = w.Skip(ctx)
	require.NoError(t, err)
	assert.Zero(t, doc.writes[fields[1].CellID])
	assert.Equal(t, 2, w.Session().Cursor)
	assert.Equal(t, "Outcome", reply.Field.Label)
	assert.Equal(t, 3, reply.Progress)
	assert.Equal(t, 3, reply.Total)

	assert.Equal(t, []string{"5"}, outcomes.grades)
	assert.Equal(t, []string{"fractions"}, outcomes.topics)
	grounded := false
	for _, o := range outcomes.outcomes {
		if strings.Contains(reply.Suggestion, o.ID) {
			grounded = true
		}
	}
	assert.True(t, grounded, "suggestion %q cites no outcome", reply.Suggestion)

	reply, err = w.Approve(ctx)
	require.NoError(t, err)
	assert.True(t, reply.Completed)
	assert.Equal(t, StateIdle, w.State())

	content, _ := doc.Content(fields[2].RowID, fields[2].CellID)
	assert.Contains(t, content, "5N1")
}

func TestWizard_QueueAndCursorStableAcrossRetries(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Topic", "Materials", "Closure")
	gen := &fakeGen{}

	w, _ := stepWizard(t, doc, gen, nil)
	queue := slices.Clone(w.Session().Queue)

	cursors := []int{w.Session().Cursor}
	step := func(f func(context.Context) (*Reply, error)) {
		t.Helper()
		_, err := f(ctx)
		require.NoError(t, err)
		assert.Equal(t, queue, w.Session().Queue)
		cursors = append(cursors, w.Session().Cursor)
	}
	revise := func(ctx context.Context) (*Reply, error) { return w.Revise(ctx, "shorter please") }

	step(w.Regenerate)
	step(revise)
	step(w.Regenerate)
	step(w.Approve)
	step(revise)
	step(w.Skip)
	step(w.Regenerate)

	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 2, 2}, cursors)
	assert.True(t, slices.IsSorted(cursors))
}

func TestWizard_SinglePendingSuggestion(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Topic", "Materials")
	gen := &fakeGen{}

	w, reply := stepWizard(t, doc, gen, nil)
	first := reply.Suggestion
	assert.Equal(t, first, w.Session().PendingSuggestion)

	reply, err := w.Approve(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, reply.Suggestion)
	assert.Equal(t, reply.Suggestion, w.Session().PendingSuggestion)
	assert.Equal(t, "Materials", reply.Field.Label)

	reply, err = w.Skip(ctx)
	require.NoError(t, err)
	assert.True(t, reply.Completed)
	assert.Empty(t, w.Session().PendingSuggestion)

	_, err = w.Approve(ctx)
	assert.ErrorIs(t, err, ErrSessionMisuse)
}

func TestWizard_RegenerateSendsPreviousDraft(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Topic")
	gen := &fakeGen{}

	w, reply := stepWizard(t, doc, gen, nil)
	first := reply.Suggestion

	reply, err := w.Regenerate(ctx)
	require.NoError(t, err)
	require.Len(t, gen.fieldCalls, 2)
	assert.NotEqual(t, first, reply.Suggestion)

	history := gen.fieldCalls[1].History
	var joined strings.Builder
	for _, m := range history {
		joined.WriteString(m.Content + "\n")
	}
	assert.Contains(t, joined.String(), first)
	assert.Equal(t, llm.RoleUser, history[len(history)-1].Role)
	assert.Contains(t, history[len(history)-1].Content, "different version")
}

func TestWizard_InfoCollection(t *testing.T) {
	ctx := context.Background()
	w := New(newDoc(t, "Topic"), &fakeGen{}, nil, DefaultConfig())

	reply, err := w.Start(ctx, "Help me plan a lesson")
	require.NoError(t, err)
	assert.Equal(t, StateCollectingInfo, reply.State)
	assert.Equal(t, InfoGrade.question(), reply.Message)

	reply, err = w.ProvideInfo("5")
	require.NoError(t, err)
	assert.Equal(t, "5", w.Session().Request.Grade)
	assert.Equal(t, InfoSubject.question(), reply.Message)

	// Repeating the grade does not go back to asking for it.
	reply, err = w.ProvideInfo("grade 5")
	require.NoError(t, err)
	assert.Equal(t, StateCollectingInfo, reply.State)
	assert.Equal(t, InfoSubject.question(), reply.Message)
	assert.Equal(t, "5", w.Session().Request.Grade)

	reply, err = w.ProvideInfo("science, about plant cells")
	require.NoError(t, err)
	assert.Equal(t, StateChoosingMode, reply.State)
	assert.Equal(t, "Science", w.Session().Request.Subject)
	assert.Equal(t, "plant cells", w.Session().Request.Topic)
}

func TestWizard_InfoAnswerFillsOtherKeys(t *testing.T) {
	w := New(newDoc(t, "Topic"), &fakeGen{}, nil, DefaultConfig())

	_, err := w.Start(context.Background(), "I need a lesson plan")
	require.NoError(t, err)

	reply, err := w.ProvideInfo("3rd grade music")
	require.NoError(t, err)
	assert.Equal(t, StateChoosingMode, reply.State)
	assert.Equal(t, "3", w.Session().Request.Grade)
	assert.Equal(t, "Music", w.Session().Request.Subject)
}

func TestWizard_ApproveKeepsLabel(t *testing.T) {
	tests := []struct {
		name       string
		suggestion string
	}{
		{"plain body", "Equivalent fractions"},
		{"body repeats label", "<strong>Topic:</strong> Equivalent fractions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(t, "Topic")
			f := doc.Fields()[0]
			gen := &fakeGen{field: func(int, generator.FieldInput) (string, error) { return tt.suggestion, nil }}

			w, _ := stepWizard(t, doc, gen, nil)
			_, err := w.Approve(context.Background())
			require.NoError(t, err)

			content, _ := doc.Content(f.RowID, f.CellID)
			assert.Equal(t, "<p><strong>Topic:</strong> Equivalent fractions</p>", content)
			assert.Equal(t, 1, strings.Count(content, "<strong>Topic:</strong>"))
		})
	}
}

func TestWizard_CorrectiveRegeneration(t *testing.T) {
	t.Run("one retry when the draft fails its check", func(t *testing.T) {
		doc := newDoc(t, "Grade/Class")
		gen := &fakeGen{field: func(n int, _ generator.FieldInput) (string, error) {
			// Every draft carries a date, so every draft fails the check.
			return fmt.Sprintf("Grade 5, October %d 2026", n), nil
		}}

		_, reply := stepWizard(t, doc, gen, nil)
		require.Len(t, gen.fieldCalls, 2)
		assert.Empty(t, gen.fieldCalls[0].Constraint)
		assert.NotEmpty(t, gen.fieldCalls[1].Constraint)
		assert.Equal(t, "Grade 5, October 2 2026", reply.Suggestion)
	})

	t.Run("no retry when the draft passes", func(t *testing.T) {
		doc := newDoc(t, "School")
		gen := &fakeGen{field: func(int, generator.FieldInput) (string, error) { return "Maple Elementary", nil }}

		stepWizard(t, doc, gen, nil)
		assert.Len(t, gen.fieldCalls, 1)
	})

	t.Run("failed retry keeps the first draft", func(t *testing.T) {
		doc := newDoc(t, "School")
		gen := &fakeGen{field: func(n int, _ generator.FieldInput) (string, error) {
			if n == 1 {
				return strings.Repeat("long name ", 20), nil
			}
			return "", &llm.ErrProviderUnavailable{Err: errors.New("overloaded")}
		}}

		_, reply := stepWizard(t, doc, gen, nil)
		assert.Len(t, gen.fieldCalls, 2)
		assert.Equal(t, strings.Repeat("long name ", 20), reply.Suggestion)
	})
}

func TestWizard_GenerationFailureParksOnField(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Topic", "Materials")
	f := doc.Fields()[0]

	fail := true
	gen := &fakeGen{field: func(n int, in generator.FieldInput) (string, error) {
		if fail {
			return "", &llm.ErrRateLimit{Err: errors.New("slow down")}
		}
		return "Equivalent fractions", nil
	}}

	w := New(doc, gen, nil, DefaultConfig())
	_, err := w.Start(ctx, fullRequest)
	require.NoError(t, err)

	_, err = w.SelectMode(ctx, ModeStep)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, f, genErr.Field)
	var rl *llm.ErrRateLimit
	assert.ErrorAs(t, err, &rl)

	assert.Equal(t, StateGenerating, w.State())
	assert.Equal(t, 0, w.Session().Cursor)
	assert.Zero(t, doc.writes[f.CellID])

	_, err = w.Approve(ctx)
	assert.ErrorIs(t, err, ErrSessionMisuse)

	fail = false
	reply, err := w.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDecision, reply.State)
	assert.Equal(t, "Topic", reply.Field.Label)
}

func TestWizard_Revise(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Outcome")
	outcomes := &fakeOutcomes{outcomes: []curriculum.Outcome{{Grade: "5", ID: "5N1", Description: "Represent fractions"}}}
	gen := &fakeGen{}

	w, reply := stepWizard(t, doc, gen, outcomes)
	first := reply.Suggestion

	reply, err := w.Revise(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDecision, reply.State)
	assert.Equal(t, first, reply.Suggestion)
	assert.Empty(t, gen.reviseCalls)

	reply, err = w.Revise(ctx, "make it shorter")
	require.NoError(t, err)
	require.Len(t, gen.reviseCalls, 1)
	in := gen.reviseCalls[0]
	assert.Equal(t, first, in.Previous)
	assert.Equal(t, "make it shorter", in.Feedback)
	assert.Len(t, in.Outcomes, 1)
	assert.Equal(t, "revised "+first, reply.Suggestion)
	assert.Equal(t, StateAwaitingDecision, w.State())

	gen.revise = func(generator.ReviseInput) (string, error) {
		return "", &llm.ErrFatal{StatusCode: 400, Err: errors.New("bad request")}
	}
	_, err = w.Revise(ctx, "again")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StateGenerating, w.State())
	assert.Empty(t, w.Session().PendingSuggestion)
}

func TestWizard_RetryAfterFailedRevisionKeepsFeedback(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Outcome", "Materials")
	fail := true
	gen := &fakeGen{revise: func(in generator.ReviseInput) (string, error) {
		if fail {
			return "", &llm.ErrRateLimit{Err: errors.New("slow down")}
		}
		return "revised: " + in.Feedback, nil
	}}

	w, reply := stepWizard(t, doc, gen, nil)
	first := reply.Suggestion

	_, err := w.Revise(ctx, "use pizza slices")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	require.NotNil(t, w.Session().PendingRevision)
	fieldCalls := len(gen.fieldCalls)

	fail = false
	reply, err = w.Generate(ctx)
	require.NoError(t, err)

	require.Len(t, gen.reviseCalls, 2)
	assert.Equal(t, "use pizza slices", gen.reviseCalls[1].Feedback)
	assert.Equal(t, first, gen.reviseCalls[1].Previous)
	assert.Len(t, gen.fieldCalls, fieldCalls, "retry must not fall back to a plain draft")
	assert.Equal(t, "revised: use pizza slices", reply.Suggestion)
	assert.Equal(t, "Outcome", reply.Field.Label)
	assert.Nil(t, w.Session().PendingRevision)

	_, err = w.Approve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Session().Cursor)
}

func TestWizard_CancelDropsFailedRevision(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Outcome")
	gen := &fakeGen{revise: func(generator.ReviseInput) (string, error) {
		return "", errors.New("offline")
	}}

	w, _ := stepWizard(t, doc, gen, nil)
	_, err := w.Revise(ctx, "shorter")
	require.Error(t, err)

	s := w.Cancel()
	assert.Nil(t, s.PendingRevision)
	assert.Equal(t, StateIdle, w.State())
}

func TestWizard_VanishedFields(t *testing.T) {
	ctx := context.Background()

	t.Run("queued field removed", func(t *testing.T) {
		doc := newDoc(t, "Topic", "Materials", "Closure")
		fields := doc.Fields()
		w, _ := stepWizard(t, doc, &fakeGen{}, nil)

		require.NoError(t, doc.RemoveRow(fields[1].RowID))

		reply, err := w.Approve(ctx)
		require.NoError(t, err)
		assert.Equal(t, []plan.FieldRef{fields[1]}, reply.Vanished)
		assert.Equal(t, "Closure", reply.Field.Label)
		assert.Equal(t, 2, w.Session().Cursor)
		assert.Len(t, w.Session().Queue, 3)
	})

	t.Run("current field removed before approve", func(t *testing.T) {
		doc := newDoc(t, "Topic", "Materials")
		fields := doc.Fields()
		w, _ := stepWizard(t, doc, &fakeGen{}, nil)

		require.NoError(t, doc.RemoveRow(fields[0].RowID))

		reply, err := w.Approve(ctx)
		require.NoError(t, err)
		assert.Equal(t, []plan.FieldRef{fields[0]}, reply.Vanished)
		assert.Zero(t, doc.writes[fields[0].CellID])
		assert.Equal(t, "Materials", reply.Field.Label)
	})
}

func TestWizard_FullMode(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Topic", "Materials", "Closure")
	fields := doc.Fields()
	gen := &fakeGen{doc: func(in generator.DocumentInput) (*generator.DocumentResult, error) {
		return &generator.DocumentResult{
			Title: "Fractions Fun",
			Fields: map[string]string{
				"Topic":   "Equivalent fractions",
				"Closure": "Exit ticket",
			},
			Requested: len(in.Labels),
		}, nil
	}}

	w := New(doc, gen, nil, DefaultConfig())
	_, err := w.Start(ctx, fullRequest)
	require.NoError(t, err)

	reply, err := w.SelectMode(ctx, ModeFull)
	require.NoError(t, err)
	require.Len(t, gen.docCalls, 1)
	assert.Equal(t, []string{"Topic", "Materials", "Closure"}, gen.docCalls[0].Labels)
	assert.Equal(t, "5", gen.docCalls[0].Brief.Grade)

	assert.True(t, reply.Completed)
	assert.Equal(t, 2, reply.Updated)
	assert.Equal(t, "Fractions Fun", reply.Title)
	assert.Equal(t, StateIdle, w.State())

	content, _ := doc.Content(fields[0].RowID, fields[0].CellID)
	assert.Equal(t, "<p><strong>Topic:</strong> Equivalent fractions</p>", content)
	assert.Zero(t, doc.writes[fields[1].CellID])
}

func TestWizard_FullModeFailure(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{doc: func(generator.DocumentInput) (*generator.DocumentResult, error) {
		return nil, errors.New("boom")
	}}
	w := New(newDoc(t, "Topic"), gen, nil, DefaultConfig())
	_, err := w.Start(ctx, fullRequest)
	require.NoError(t, err)

	_, err = w.SelectMode(ctx, ModeFull)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StateChoosingMode, w.State())
}

func TestWizard_Misuse(t *testing.T) {
	ctx := context.Background()
	w := New(newDoc(t, "Topic"), &fakeGen{}, nil, DefaultConfig())

	_, err := w.Approve(ctx)
	assert.ErrorIs(t, err, ErrSessionMisuse)
	_, err = w.ProvideInfo("5")
	assert.ErrorIs(t, err, ErrSessionMisuse)
	_, err = w.Generate(ctx)
	assert.ErrorIs(t, err, ErrSessionMisuse)

	_, err = w.Start(ctx, fullRequest)
	require.NoError(t, err)

	_, err = w.ProvideInfo("5")
	assert.ErrorIs(t, err, ErrSessionMisuse)
	_, err = w.Skip(ctx)
	assert.ErrorIs(t, err, ErrSessionMisuse)
	_, err = w.SelectMode(ctx, ModeUnset)
	assert.ErrorIs(t, err, ErrSessionMisuse)
	assert.Equal(t, StateChoosingMode, w.State())
}

func TestWizard_EmptyDocument(t *testing.T) {
	w := New(newDoc(t), &fakeGen{}, nil, DefaultConfig())
	_, err := w.Start(context.Background(), fullRequest)
	require.NoError(t, err)

	reply, err := w.SelectMode(context.Background(), ModeStep)
	require.NoError(t, err)
	assert.True(t, reply.Completed)
	assert.Equal(t, StateIdle, w.State())
}

func TestWizard_Cancel(t *testing.T) {
	ctx := context.Background()
	doc := newDoc(t, "Topic", "Materials")
	rec := &recordedEvents{}

	w, _ := stepWizard(t, doc, &fakeGen{}, nil, WithEvents(rec, "plan-1"))
	s := w.Cancel()
	require.NotNil(t, s)
	assert.Equal(t, StateIdle, w.State())
	assert.Empty(t, s.PendingSuggestion)
	assert.Empty(t, s.Queue)
	assert.Positive(t, s.Log.Len())

	_, err := w.Approve(ctx)
	assert.ErrorIs(t, err, ErrSessionMisuse)

	assert.Equal(t, []string{"start", "select-mode", "cancel"}, rec.actions())
	for _, e := range rec.events {
		assert.Equal(t, s.ID, e.SessionID)
		assert.Equal(t, "plan-1", e.PlanID)
	}
}

func TestWizard_StartDiscardsPreviousSession(t *testing.T) {
	ctx := context.Background()
	w, _ := stepWizard(t, newDoc(t, "Topic"), &fakeGen{}, nil)
	first := w.Session().ID

	reply, err := w.Start(ctx, "Help me plan a lesson")
	require.NoError(t, err)
	assert.Equal(t, StateCollectingInfo, reply.State)
	assert.NotEqual(t, first, w.Session().ID)
	assert.Empty(t, w.Session().Queue)
}

func TestTranscript_EntriesAreAView(t *testing.T) {
	var tr Transcript
	tr.Append(llm.RoleUser, "one")
	tr.Append(llm.RoleAssistant, "two")

	view := tr.Entries()
	_ = append(view, llm.Message{Role: llm.RoleUser, Content: "three"})
	tr.Append(llm.RoleUser, "four")

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, "four", tr.Entries()[2].Content)
	assert.Len(t, view, 2)
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"full":         ModeFull,
		"All at once":  ModeFull,
		"step-by-step": ModeStep,
		" Step ":       ModeStep,
		"maybe":        ModeUnset,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseMode(in), in)
	}
}
