package generator

import (
	"fmt"
	"strings"

	"github.com/gpteach/gpteach/internal/curriculum"
)

const fieldSystemPrompt = `You are an expert teacher helping a colleague complete a lesson plan one field at a time. Write only the content for the requested field. Format it with simple HTML using only <p>, <ul>, <li>, <strong> and <em>. Do not wrap the answer in code fences and do not repeat the field name.`

const documentSystemPrompt = `You are an expert teacher creating a complete lesson plan. Every field you write must be relevant to the request and formatted with simple HTML using only <p>, <ul>, <li>, <strong> and <em>.`

func writeBrief(b *strings.Builder, br Brief) {
	b.WriteString("Request:\n")
	fmt.Fprintf(b, "- Grade: %s\n", orUnset(br.Grade))
	fmt.Fprintf(b, "- Subject: %s\n", orUnset(br.Subject))
	fmt.Fprintf(b, "- Topic: %s\n", orUnset(br.Topic))
	if br.Duration != "" {
		fmt.Fprintf(b, "- Duration: %s\n", br.Duration)
	}
	if br.Details != "" {
		fmt.Fprintf(b, "- Details: %s\n", br.Details)
	}
}

func orUnset(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func writeOutcomes(b *strings.Builder, outcomes []curriculum.Outcome) {
	b.WriteString("\nCurriculum outcomes for this grade:\n")
	for _, o := range outcomes {
		fmt.Fprintf(b, "- %s\n", curriculum.Format(o))
	}
}

const quoteInstruction = `Quote the most relevant outcomes exactly, as a <ul> list where each <li> starts with the outcome identifier in <strong>.`

func buildFieldUserMessage(in FieldInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Field: %q\n\n", in.Field.Label)
	writeBrief(&b, in.Brief)

	if in.Context != "" {
		fmt.Fprintf(&b, "\nPlan so far:\n%s\n", in.Context)
	}
	if in.Current != "" {
		fmt.Fprintf(&b, "\nThe field currently contains:\n%s\n", in.Current)
	}
	if len(in.Outcomes) > 0 {
		writeOutcomes(&b, in.Outcomes)
	}

	b.WriteString("\nInstructions:\n")
	b.WriteString("- Keep it concise and classroom-ready.\n")
	b.WriteString("- If earlier drafts for this field appear in the conversation, use different wording.\n")
	if in.Rule != "" {
		fmt.Fprintf(&b, "- %s\n", in.Rule)
	}
	if len(in.Outcomes) > 0 || in.QuoteOutcomes {
		fmt.Fprintf(&b, "- %s\n", quoteInstruction)
	}
	if in.Constraint != "" {
		fmt.Fprintf(&b, "- IMPORTANT: %s\n", in.Constraint)
	}
	b.WriteString("\nWrite the content for this field now.")

	return b.String()
}

func buildReviseUserMessage(in ReviseInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Field: %q\n\n", in.Field.Label)
	writeBrief(&b, in.Brief)

	fmt.Fprintf(&b, "\nYour previous suggestion:\n%s\n", in.Previous)
	fmt.Fprintf(&b, "\nTeacher feedback:\n%s\n", in.Feedback)

	if len(in.Outcomes) > 0 {
		writeOutcomes(&b, in.Outcomes)
	}

	b.WriteString(`
Instructions:
Rewrite the suggestion so it follows the feedback. Keep whatever the feedback does not ask to change.`)
	if len(in.Outcomes) > 0 {
		fmt.Fprintf(&b, " %s", quoteInstruction)
	}

	return b.String()
}

func buildDocumentUserMessage(in DocumentInput) string {
	var b strings.Builder

	writeBrief(&b, in.Brief)

	b.WriteString("\nFields to complete (use each label exactly as written):\n")
	for _, l := range uniqueLabels(in.Labels) {
		fmt.Fprintf(&b, "- %q\n", l)
	}

	b.WriteString(`
Instructions:
1. Give the lesson a creative, appropriate title.
2. Provide content for EACH field listed above.
3. Respond as JSON with "title" and a "fields" array of {"label", "content"} objects.
If you cannot produce JSON, use this plain format instead:
TITLE: <title>
FIELD: "<label>"
CONTENT: <content>`)

	return b.String()
}

func uniqueLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
