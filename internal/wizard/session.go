package wizard

import (
	"errors"
	"fmt"

	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/plan"
)

// ErrSessionMisuse reports an operation issued in a state that does not
// accept it. It signals a caller bug, not a user error.
var ErrSessionMisuse = errors.New("wizard: operation not valid in current state")

func misuse(op string, st State) error {
	return fmt.Errorf("%w: %s while %s", ErrSessionMisuse, op, st)
}

// GenerationError wraps a content generation failure for one field. The
// session stays parked on that field.
type GenerationError struct {
	Field plan.FieldRef
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Field.Label == "" {
		return fmt.Sprintf("generate lesson plan: %v", e.Err)
	}
	return fmt.Sprintf("generate %q: %v", e.Field.Label, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Mode is how the wizard fills the document.
type Mode int

const (
	ModeUnset Mode = iota
	ModeStep
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeStep:
		return "step"
	case ModeFull:
		return "full"
	}
	return "unset"
}

// ParseMode maps user wording to a Mode.
func ParseMode(s string) Mode {
	switch normalizeWord(s) {
	case "step", "steps", "step by step", "stepbystep", "one by one", "field by field":
		return ModeStep
	case "full", "all", "all at once", "whole", "complete", "everything":
		return ModeFull
	}
	return ModeUnset
}

// State is the wizard's position in the conversation.
type State int

const (
	StateIdle State = iota
	StateCollectingInfo
	StateChoosingMode
	StateGenerating
	StateAwaitingDecision
	StateFullGeneration
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollectingInfo:
		return "collecting-info"
	case StateChoosingMode:
		return "choosing-mode"
	case StateGenerating:
		return "generating"
	case StateAwaitingDecision:
		return "awaiting-decision"
	case StateFullGeneration:
		return "full-generation"
	}
	return "unknown"
}

// Transcript is the append-only conversation log of a session.
type Transcript struct {
	entries []llm.Message
}

// Append adds one turn.
func (t *Transcript) Append(role llm.Role, text string) {
	t.entries = append(t.entries, llm.Message{Role: role, Content: text})
}

// Entries returns a read-only view of the log. The view's capacity is
// clipped so appending to it never writes into the log.
func (t *Transcript) Entries() []llm.Message {
	if t == nil {
		return nil
	}
	return t.entries[:len(t.entries):len(t.entries)]
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Session is the state of one wizard run.
type Session struct {
	ID      string
	Mode    Mode
	Request LessonRequest

	// AwaitingInfo is the key being asked for while collecting info.
	AwaitingInfo *InfoKey

	// Queue is fixed when step mode starts and never reordered.
	Queue  []plan.FieldRef
	Cursor int

	PendingSuggestion string
	Log               *Transcript

	// PendingRevision holds a revision whose generation failed. Generate
	// replays it so the feedback is not lost.
	PendingRevision *generator.ReviseInput

	state State
}

// Current returns the field under the cursor.
func (s *Session) Current() (plan.FieldRef, bool) {
	if s == nil || s.Cursor < 0 || s.Cursor >= len(s.Queue) {
		return plan.FieldRef{}, false
	}
	return s.Queue[s.Cursor], true
}

// Reply is what the wizard tells the caller after a transition.
type Reply struct {
	State   State
	Message string

	// Field and Suggestion are set while a suggestion awaits a decision.
	Field      *plan.FieldRef
	Suggestion string

	// Progress is the 1-based position of Field in the queue.
	Progress int
	Total    int

	// Updated counts fields written by full generation; Title is the
	// generated plan title.
	Updated int
	Title   string

	// Vanished lists queued fields that no longer exist in the document
	// and were passed over.
	Vanished []plan.FieldRef

	Completed bool
}
