package wizard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gpteach/gpteach/internal/plan"
)

// FieldRule adds instructions and a one-shot corrective check for a kind of
// field, recognized by its label.
type FieldRule struct {
	Name  string
	Match func(label string) bool

	// Instruction is added to every generation for matching fields.
	Instruction string

	// Check reports whether a draft needs the corrective regeneration.
	// Corrective is the instruction used for that single extra attempt.
	Check      func(draft string) bool
	Corrective string

	// UseCurriculum grounds the field in curriculum outcomes for the
	// request's grade.
	UseCurriculum bool
}

// RuleConfig holds the tunable heuristics behind DefaultRules.
type RuleConfig struct {
	// DatePattern flags drafts that look like they state a date.
	DatePattern *regexp.Regexp
	// GradePattern flags drafts that mention a grade or class.
	GradePattern *regexp.Regexp
	// SchoolMaxLen caps the plain-text length of school fields.
	SchoolMaxLen int
}

// DefaultRuleConfig returns the stock heuristics.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		DatePattern:  regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\b|\b(?:19|20)\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		GradePattern: regexp.MustCompile(`(?i)\b(?:grades?|kindergarten|class|classroom|homeroom)\b`),
		SchoolMaxLen: 120,
	}
}

// DefaultRules returns the stock rule table.
func DefaultRules() []FieldRule {
	return BuildRules(DefaultRuleConfig())
}

// BuildRules assembles the rule table from cfg. The first matching rule
// applies to a field.
func BuildRules(cfg RuleConfig) []FieldRule {
	return []FieldRule{
		{
			Name:          "outcome",
			Match:         labelHas("outcome"),
			Instruction:   "Base the answer on the curriculum outcomes for this grade.",
			UseCurriculum: true,
		},
		{
			Name:        "grade-class",
			Match:       labelHas("grade", "class"),
			Instruction: "State only the grade and class, nothing else.",
			Check:       matches(cfg.DatePattern),
			Corrective:  "Do not include any dates, months or years. Only state the grade and class.",
		},
		{
			Name: "date",
			Match: func(label string) bool {
				return labelHas("date")(label) && !labelHas("activity")(label)
			},
			Instruction: "State only the calendar date of the lesson.",
			Check:       matches(cfg.GradePattern),
			Corrective:  "Only give the date. Do not mention any grade or class.",
		},
		{
			Name:        "school",
			Match:       labelHas("school"),
			Instruction: fmt.Sprintf("Give only the school name, in under %d characters.", cfg.SchoolMaxLen),
			Check: func(draft string) bool {
				return len([]rune(plan.StripTags(draft))) > cfg.SchoolMaxLen
			},
			Corrective: fmt.Sprintf("Your answer was too long. Keep it under %d characters.", cfg.SchoolMaxLen),
		},
	}
}

func labelHas(words ...string) func(string) bool {
	return func(label string) bool {
		l := strings.ToLower(label)
		for _, w := range words {
			if !strings.Contains(l, w) {
				return false
			}
		}
		return true
	}
}

func matches(re *regexp.Regexp) func(string) bool {
	if re == nil {
		return nil
	}
	return func(draft string) bool {
		return re.MatchString(plan.StripTags(draft))
	}
}

func matchRule(rules []FieldRule, label string) (FieldRule, bool) {
	for _, r := range rules {
		if r.Match != nil && r.Match(label) {
			return r, true
		}
	}
	return FieldRule{}, false
}

func normalizeWord(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "-", " "))
	return strings.Join(strings.Fields(s), " ")
}
