// Package wizard runs the conversational loop that fills a lesson plan's
// fields with generated content, either all at once or one field at a time
// with the teacher approving each suggestion.
package wizard

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gpteach/gpteach/internal/curriculum"
	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/store"
)

// Document is the plan being filled. *plan.Document satisfies it.
type Document interface {
	Fields() []plan.FieldRef
	HasField(rowID, cellID string) bool
	Content(rowID, cellID string) (string, bool)
	SetFieldContent(rowID, cellID, content string) error
}

// Generator drafts content. *generator.Service satisfies it.
type Generator interface {
	GenerateFieldSuggestion(ctx context.Context, in generator.FieldInput) (string, error)
	ReviseSuggestion(ctx context.Context, in generator.ReviseInput) (string, error)
	GenerateDocument(ctx context.Context, in generator.DocumentInput) (*generator.DocumentResult, error)
}

// OutcomeSource looks up curriculum outcomes. *curriculum.Service
// satisfies it.
type OutcomeSource interface {
	OutcomesForGrade(ctx context.Context, grade, topicFilter string) ([]curriculum.Outcome, error)
}

// EventRecorder receives one event per wizard transition.
type EventRecorder interface {
	AppendWizardEvent(ctx context.Context, data store.WizardEventData) error
}

// Config holds wizard tunables.
type Config struct {
	// Rules is the field-type rule table; the first match applies.
	Rules []FieldRule

	// ContextFieldLimit caps each filled field quoted in the document
	// summary sent with a generation, in characters.
	ContextFieldLimit int
}

// DefaultConfig returns the default wizard configuration.
func DefaultConfig() Config {
	return Config{
		Rules:             DefaultRules(),
		ContextFieldLimit: 240,
	}
}

// Option configures optional Wizard collaborators.
type Option func(*Wizard)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Wizard) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithEvents records every transition for the plan planID.
func WithEvents(rec EventRecorder, planID string) Option {
	return func(w *Wizard) {
		w.events = rec
		w.planID = planID
	}
}

// Wizard owns one session at a time against one document. It is not safe
// for concurrent use.
type Wizard struct {
	doc      Document
	gen      Generator
	outcomes OutcomeSource
	cfg      Config

	logger *zap.Logger
	events EventRecorder
	planID string

	session *Session
}

// New creates a wizard for doc. outcomes may be nil, in which case outcome
// fields are generated without curriculum grounding.
func New(doc Document, gen Generator, outcomes OutcomeSource, cfg Config, opts ...Option) *Wizard {
	w := &Wizard{
		doc:      doc,
		gen:      gen,
		outcomes: outcomes,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state. With no session the wizard is idle.
func (w *Wizard) State() State {
	if w.session == nil {
		return StateIdle
	}
	return w.session.state
}

// Session returns the current or most recent session, or nil.
func (w *Wizard) Session() *Session {
	return w.session
}

// Start begins a new session from the teacher's request, discarding any
// previous one.
func (w *Wizard) Start(ctx context.Context, rawText string) (*Reply, error) {
	if w.session != nil && w.session.state != StateIdle {
		w.logger.Info("discarding active session", zap.String("session", w.session.ID))
	}

	s := &Session{
		ID:      uuid.NewString(),
		Log:     &Transcript{},
		Request: ExtractRequest(rawText),
		state:   StateCollectingInfo,
	}
	w.session = s

	s.Log.Append(llm.RoleUser, rawText)
	w.record(ctx, "start", "", s.Request.String())

	return w.collect(), nil
}

// ProvideInfo answers the pending follow-up question.
func (w *Wizard) ProvideInfo(value string) (*Reply, error) {
	s := w.session
	if s == nil || s.state != StateCollectingInfo || s.AwaitingInfo == nil {
		return nil, misuse("provide info", w.State())
	}

	key := *s.AwaitingInfo
	value = strings.TrimSpace(value)
	s.Log.Append(llm.RoleUser, value)

	found := ExtractRequest(value)
	if v := found.Get(key); v != "" {
		s.Request.Set(key, v)
	} else if rest := residual(value); rest != "" {
		s.Request.Set(key, rest)
	}
	s.Request.Merge(found)

	w.record(context.Background(), "provide-info", key.String(), s.Request.Get(key))
	return w.collect(), nil
}

// collect asks for the highest-priority missing key, or moves on to mode
// selection once at most one key is missing.
func (w *Wizard) collect() *Reply {
	s := w.session

	missing := s.Request.Missing()
	if len(missing) > 1 {
		k := missing[0]
		s.AwaitingInfo = &k
		s.state = StateCollectingInfo
		msg := k.question()
		s.Log.Append(llm.RoleAssistant, msg)
		return &Reply{State: s.state, Message: msg}
	}

	s.AwaitingInfo = nil
	s.state = StateChoosingMode
	msg := fmt.Sprintf("Great, a lesson for %s. Should I fill in the whole plan at once (full), or go field by field so you can review each suggestion (step)?", s.Request)
	s.Log.Append(llm.RoleAssistant, msg)
	return &Reply{State: s.state, Message: msg}
}

// SelectMode picks full or step generation.
func (w *Wizard) SelectMode(ctx context.Context, mode Mode) (*Reply, error) {
	s := w.session
	if s == nil || s.state != StateChoosingMode {
		return nil, misuse("select mode", w.State())
	}

	switch mode {
	case ModeFull, ModeStep:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrSessionMisuse, mode)
	}

	s.Mode = mode
	s.Log.Append(llm.RoleUser, mode.String())
	w.record(ctx, "select-mode", "", mode.String())

	if mode == ModeFull {
		return w.fillDocument(ctx)
	}
	return w.startStep(ctx)
}

func (w *Wizard) fillDocument(ctx context.Context) (*Reply, error) {
	s := w.session
	s.state = StateFullGeneration

	fields := w.doc.Fields()
	if len(fields) == 0 {
		return w.finish("This plan has no fields to fill in."), nil
	}

	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}

	res, err := w.gen.GenerateDocument(ctx, generator.DocumentInput{
		Brief:  s.Request.Brief(),
		Labels: labels,
	})
	if err != nil {
		s.state = StateChoosingMode
		w.logger.Warn("document generation failed", zap.Error(err))
		return nil, &GenerationError{Err: err}
	}

	updated := 0
	for _, f := range fields {
		content, ok := res.Fields[f.Label]
		if !ok {
			continue
		}
		existing, _ := w.doc.Content(f.RowID, f.CellID)
		if err := w.doc.SetFieldContent(f.RowID, f.CellID, plan.WithLabel(existing, content)); err != nil {
			w.logger.Warn("field vanished during fill", zap.String("field", f.String()), zap.Error(err))
			continue
		}
		updated++
	}

	if updated < len(fields) {
		w.logger.Info("document fill incomplete",
			zap.Int("requested", len(fields)),
			zap.Int("updated", updated),
			zap.Strings("missing", res.Missing(labels)),
		)
	}
	w.record(ctx, "fill-document", "", fmt.Sprintf("%d/%d", updated, len(fields)))

	reply := w.finish(fmt.Sprintf("Done! I filled %d of %d fields for %q.", updated, len(fields), res.Title))
	reply.Updated = updated
	reply.Title = res.Title
	return reply, nil
}

func (w *Wizard) startStep(ctx context.Context) (*Reply, error) {
	s := w.session
	s.Queue = slices.Clone(w.doc.Fields())
	s.Cursor = 0

	if len(s.Queue) == 0 {
		return w.finish("This plan has no fields to fill in."), nil
	}
	return w.generateCurrent(ctx, nil)
}

// Generate retries generation for the current field after a failure. A
// failed revision is retried with its original feedback.
func (w *Wizard) Generate(ctx context.Context) (*Reply, error) {
	s := w.session
	if s == nil || s.state != StateGenerating {
		return nil, misuse("generate", w.State())
	}
	if in := s.PendingRevision; in != nil {
		if f, ok := s.Current(); ok && f == in.Field && w.doc.HasField(f.RowID, f.CellID) {
			return w.revise(ctx, *in)
		}
		s.PendingRevision = nil
	}
	return w.generateCurrent(ctx, nil)
}

// Approve commits the pending suggestion and moves to the next field.
func (w *Wizard) Approve(ctx context.Context) (*Reply, error) {
	f, err := w.decision("approve")
	if err != nil {
		return nil, err
	}
	s := w.session

	var vanished []plan.FieldRef
	if existing, ok := w.doc.Content(f.RowID, f.CellID); ok {
		if err := w.doc.SetFieldContent(f.RowID, f.CellID, plan.WithLabel(existing, s.PendingSuggestion)); err != nil {
			vanished = append(vanished, f)
		}
	} else {
		vanished = append(vanished, f)
	}
	if len(vanished) > 0 {
		w.logger.Info("approved field no longer exists", zap.String("field", f.String()))
	}

	s.Log.Append(llm.RoleUser, fmt.Sprintf("Approved %q.", f.Label))
	w.record(ctx, "approve", f.Label, "")
	return w.advance(ctx, vanished)
}

// Skip discards the pending suggestion and moves to the next field.
func (w *Wizard) Skip(ctx context.Context) (*Reply, error) {
	f, err := w.decision("skip")
	if err != nil {
		return nil, err
	}

	w.session.Log.Append(llm.RoleUser, fmt.Sprintf("Skipped %q.", f.Label))
	w.record(ctx, "skip", f.Label, "")
	return w.advance(ctx, nil)
}

// Regenerate discards the pending suggestion and drafts the same field
// again. The earlier draft stays in the transcript so the next one differs.
func (w *Wizard) Regenerate(ctx context.Context) (*Reply, error) {
	f, err := w.decision("regenerate")
	if err != nil {
		return nil, err
	}
	s := w.session

	s.Log.Append(llm.RoleUser, fmt.Sprintf("Please write a different version of %q than the previous suggestion.", f.Label))
	s.PendingSuggestion = ""
	w.record(ctx, "regenerate", f.Label, "")
	return w.generateCurrent(ctx, nil)
}

// Revise rewrites the pending suggestion according to feedback.
func (w *Wizard) Revise(ctx context.Context, feedback string) (*Reply, error) {
	f, err := w.decision("revise")
	if err != nil {
		return nil, err
	}
	s := w.session

	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return w.suggestionReply(f, "What should I change about this suggestion?", nil), nil
	}

	previous := s.PendingSuggestion
	s.Log.Append(llm.RoleUser, feedback)
	w.record(ctx, "revise", f.Label, feedback)

	in := generator.ReviseInput{
		Field:    f,
		Brief:    s.Request.Brief(),
		Previous: previous,
		Feedback: feedback,
		History:  s.Log.Entries(),
	}
	if rule, ok := matchRule(w.cfg.Rules, f.Label); ok && rule.UseCurriculum {
		in.Outcomes = w.lookupOutcomes(ctx)
	}

	s.PendingSuggestion = ""
	return w.revise(ctx, in)
}

func (w *Wizard) revise(ctx context.Context, in generator.ReviseInput) (*Reply, error) {
	s := w.session
	s.state = StateGenerating
	s.PendingRevision = &in

	revised, err := w.gen.ReviseSuggestion(ctx, in)
	if err != nil {
		w.logger.Warn("revision failed", zap.String("field", in.Field.Label), zap.Error(err))
		return nil, &GenerationError{Field: in.Field, Err: err}
	}

	s.PendingRevision = nil
	return w.propose(in.Field, revised, nil), nil
}

// Cancel abandons the session from any state. The transcript stays
// available on the returned session.
func (w *Wizard) Cancel() *Session {
	s := w.session
	if s == nil {
		return nil
	}
	if s.state != StateIdle {
		w.record(context.Background(), "cancel", "", s.state.String())
	}
	s.PendingSuggestion = ""
	s.PendingRevision = nil
	s.Queue = nil
	s.Cursor = 0
	s.AwaitingInfo = nil
	s.state = StateIdle
	return s
}

// decision validates that a suggestion is awaiting a decision and returns
// its field.
func (w *Wizard) decision(op string) (plan.FieldRef, error) {
	s := w.session
	if s == nil || s.state != StateAwaitingDecision || s.PendingSuggestion == "" {
		return plan.FieldRef{}, misuse(op, w.State())
	}
	f, ok := s.Current()
	if !ok {
		return plan.FieldRef{}, misuse(op, w.State())
	}
	return f, nil
}

func (w *Wizard) advance(ctx context.Context, vanished []plan.FieldRef) (*Reply, error) {
	s := w.session
	s.PendingSuggestion = ""
	s.Cursor++
	return w.generateCurrent(ctx, vanished)
}

// generateCurrent drafts the field under the cursor, passing over queued
// fields that have left the document.
func (w *Wizard) generateCurrent(ctx context.Context, vanished []plan.FieldRef) (*Reply, error) {
	s := w.session

	for s.Cursor < len(s.Queue) && !w.doc.HasField(s.Queue[s.Cursor].RowID, s.Queue[s.Cursor].CellID) {
		f := s.Queue[s.Cursor]
		w.logger.Info("queued field no longer exists", zap.String("field", f.String()))
		vanished = append(vanished, f)
		s.Cursor++
	}

	if s.Cursor >= len(s.Queue) {
		reply := w.finish(fmt.Sprintf("All %d fields are done. Your lesson plan is complete!", len(s.Queue)))
		reply.Vanished = vanished
		return reply, nil
	}

	f := s.Queue[s.Cursor]
	s.state = StateGenerating

	draft, err := w.draft(ctx, f)
	if err != nil {
		w.logger.Warn("field generation failed", zap.String("field", f.Label), zap.Error(err))
		return nil, err
	}
	return w.propose(f, draft, vanished), nil
}

// draft runs one generation for f, plus at most one corrective attempt when
// the field's rule rejects the first draft.
func (w *Wizard) draft(ctx context.Context, f plan.FieldRef) (string, error) {
	s := w.session

	in := generator.FieldInput{
		Field:   f,
		Brief:   s.Request.Brief(),
		Context: w.documentContext(f),
		History: s.Log.Entries(),
	}
	if existing, ok := w.doc.Content(f.RowID, f.CellID); ok {
		in.Current = plan.StripTags(plan.StripLabel(existing))
	}

	rule, hasRule := matchRule(w.cfg.Rules, f.Label)
	if hasRule {
		in.Rule = rule.Instruction
		if rule.UseCurriculum {
			in.QuoteOutcomes = true
			in.Outcomes = w.lookupOutcomes(ctx)
		}
	}

	out, err := w.gen.GenerateFieldSuggestion(ctx, in)
	if err != nil {
		return "", &GenerationError{Field: f, Err: err}
	}
	if !hasRule || rule.Check == nil || !rule.Check(out) {
		return out, nil
	}

	w.logger.Info("corrective regeneration", zap.String("field", f.Label), zap.String("rule", rule.Name))
	in.Constraint = rule.Corrective
	fixed, err := w.gen.GenerateFieldSuggestion(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return "", &GenerationError{Field: f, Err: err}
		}
		w.logger.Warn("corrective regeneration failed, keeping first draft", zap.String("field", f.Label), zap.Error(err))
		return out, nil
	}
	return fixed, nil
}

func (w *Wizard) propose(f plan.FieldRef, suggestion string, vanished []plan.FieldRef) *Reply {
	s := w.session
	s.PendingSuggestion = suggestion
	s.state = StateAwaitingDecision
	s.Log.Append(llm.RoleAssistant, fmt.Sprintf("Suggestion for %q:\n%s", f.Label, suggestion))

	msg := fmt.Sprintf("Here's a suggestion for %q. Approve it, regenerate, skip, or tell me what to change.", f.Label)
	return w.suggestionReply(f, msg, vanished)
}

func (w *Wizard) suggestionReply(f plan.FieldRef, msg string, vanished []plan.FieldRef) *Reply {
	s := w.session
	return &Reply{
		State:      s.state,
		Message:    msg,
		Field:      &f,
		Suggestion: s.PendingSuggestion,
		Progress:   s.Cursor + 1,
		Total:      len(s.Queue),
		Vanished:   vanished,
	}
}

func (w *Wizard) finish(msg string) *Reply {
	s := w.session
	s.state = StateIdle
	s.PendingSuggestion = ""
	s.Queue = nil
	s.AwaitingInfo = nil
	s.Log.Append(llm.RoleAssistant, msg)
	return &Reply{State: StateIdle, Message: msg, Completed: true}
}

func (w *Wizard) lookupOutcomes(ctx context.Context) []curriculum.Outcome {
	s := w.session
	if w.outcomes == nil || s.Request.Grade == "" {
		return nil
	}
	out, err := w.outcomes.OutcomesForGrade(ctx, s.Request.Grade, s.Request.Topic)
	if err != nil {
		w.logger.Warn("curriculum lookup failed", zap.String("grade", s.Request.Grade), zap.Error(err))
		return nil
	}
	return out
}

// documentContext summarizes the other filled fields of the document.
func (w *Wizard) documentContext(current plan.FieldRef) string {
	var b strings.Builder
	for _, f := range w.doc.Fields() {
		if f.RowID == current.RowID && f.CellID == current.CellID {
			continue
		}
		content, _ := w.doc.Content(f.RowID, f.CellID)
		text := plan.StripTags(plan.StripLabel(content))
		if text == "" {
			continue
		}
		text = strings.Join(strings.Fields(text), " ")
		if limit := w.cfg.ContextFieldLimit; limit > 0 && len([]rune(text)) > limit {
			text = string([]rune(text)[:limit]) + "..."
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Label, text)
	}
	return strings.TrimSpace(b.String())
}

func (w *Wizard) record(ctx context.Context, action, field, detail string) {
	if w.events == nil || w.session == nil {
		return
	}
	err := w.events.AppendWizardEvent(context.WithoutCancel(ctx), store.WizardEventData{
		SessionID:  w.session.ID,
		Action:     action,
		FieldLabel: field,
		PlanID:     w.planID,
		Detail:     detail,
	})
	if err != nil {
		w.logger.Warn("failed to record wizard event", zap.String("action", action), zap.Error(err))
	}
}
