package generator

import (
	"github.com/gpteach/gpteach/internal/curriculum"
	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/plan"
)

// Brief is what the teacher asked for.
type Brief struct {
	Grade    string
	Subject  string
	Topic    string
	Duration string
	Details  string
}

// FieldInput holds everything needed to draft one field.
type FieldInput struct {
	Field plan.FieldRef
	Brief Brief

	// Context summarizes the document around the field.
	Context string

	// Current is the field's existing content, if any.
	Current string

	// History is the session transcript. It is read, never modified.
	History []llm.Message

	// Rule is an extra instruction for this kind of field.
	Rule string

	// Constraint is a corrective instruction added when a previous draft
	// failed a check.
	Constraint string

	// Outcomes ground outcome-shaped fields.
	Outcomes []curriculum.Outcome

	// QuoteOutcomes asks for a quoted outcome list even when Outcomes is
	// empty.
	QuoteOutcomes bool
}

// ReviseInput holds a rewrite request for a pending suggestion.
type ReviseInput struct {
	Field    plan.FieldRef
	Brief    Brief
	Previous string
	Feedback string
	Outcomes []curriculum.Outcome
	History  []llm.Message
}

// DocumentInput requests content for every field at once.
type DocumentInput struct {
	Brief  Brief
	Labels []string
}

// DocumentResult maps field labels to generated content. Labels the model
// did not address are absent.
type DocumentResult struct {
	Title  string
	Fields map[string]string

	// Requested is the number of distinct labels asked for.
	Requested int
}

// Missing returns requested labels absent from the result, in input order.
func (r *DocumentResult) Missing(labels []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		if _, ok := r.Fields[l]; !ok {
			out = append(out, l)
		}
	}
	return out
}
