// Package curriculum looks up reference curriculum outcomes by grade.
package curriculum

import (
	"fmt"
	"regexp"
	"strings"
)

// Outcome is one curriculum outcome statement.
type Outcome struct {
	Grade       string
	Category    string
	ID          string
	Description string
}

// Format renders o as "ID: description".
func Format(o Outcome) string {
	return fmt.Sprintf("%s: %s", o.ID, o.Description)
}

var digits = regexp.MustCompile(`\d+`)

// NormalizeGrade maps grade labels to their short code: "Kindergarten" and
// "K" become "K", "Grade 5" and "5th" become "5". Unrecognized labels are
// returned with whitespace removed.
func NormalizeGrade(label string) string {
	s := strings.TrimSpace(label)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "kindergarten") || lower == "k" {
		return "K"
	}
	if m := digits.FindString(s); m != "" {
		if t := strings.TrimLeft(m, "0"); t != "" {
			return t
		}
		return "0"
	}
	return strings.Join(strings.Fields(s), "")
}
