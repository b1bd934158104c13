package wizard

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gpteach/gpteach/internal/curriculum"
	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/plan"
)

// InfoKey names a piece of the lesson request the wizard may ask for.
// Keys are ordered by priority.
type InfoKey int

const (
	InfoGrade InfoKey = iota
	InfoSubject
	InfoTopic
)

var infoKeys = []InfoKey{InfoGrade, InfoSubject, InfoTopic}

func (k InfoKey) String() string {
	switch k {
	case InfoGrade:
		return "grade"
	case InfoSubject:
		return "subject"
	case InfoTopic:
		return "topic"
	}
	return "unknown"
}

func (k InfoKey) question() string {
	switch k {
	case InfoGrade:
		return "What grade level is this lesson for?"
	case InfoSubject:
		return "What subject is this lesson for?"
	default:
		return "What topic should the lesson cover?"
	}
}

// LessonRequest is what the teacher asked for, filled in incrementally.
type LessonRequest struct {
	Grade    string
	Subject  string
	Topic    string
	Duration string
}

// Get returns the value stored under k.
func (r LessonRequest) Get(k InfoKey) string {
	switch k {
	case InfoGrade:
		return r.Grade
	case InfoSubject:
		return r.Subject
	case InfoTopic:
		return r.Topic
	}
	return ""
}

// Set overwrites the value stored under k.
func (r *LessonRequest) Set(k InfoKey, v string) {
	v = strings.TrimSpace(v)
	switch k {
	case InfoGrade:
		r.Grade = curriculum.NormalizeGrade(v)
	case InfoSubject:
		r.Subject = v
	case InfoTopic:
		r.Topic = v
	}
}

// Merge fills blank fields from o. Non-empty fields are never replaced.
func (r *LessonRequest) Merge(o LessonRequest) {
	if r.Grade == "" {
		r.Grade = o.Grade
	}
	if r.Subject == "" {
		r.Subject = o.Subject
	}
	if r.Topic == "" {
		r.Topic = o.Topic
	}
	if r.Duration == "" {
		r.Duration = o.Duration
	}
}

// Missing lists unset keys in priority order.
func (r LessonRequest) Missing() []InfoKey {
	var out []InfoKey
	for _, k := range infoKeys {
		if r.Get(k) == "" {
			out = append(out, k)
		}
	}
	return out
}

// Brief converts the request into generator input.
func (r LessonRequest) Brief() generator.Brief {
	return generator.Brief{
		Grade:    r.Grade,
		Subject:  r.Subject,
		Topic:    r.Topic,
		Duration: r.Duration,
	}
}

// String renders the request the way the assistant repeats it back,
// e.g. "grade 5 Math on fractions".
func (r LessonRequest) String() string {
	var parts []string
	if r.Grade != "" {
		if r.Grade == "K" {
			parts = append(parts, "kindergarten")
		} else {
			parts = append(parts, "grade "+r.Grade)
		}
	}
	if r.Subject != "" {
		parts = append(parts, r.Subject)
	}
	if r.Topic != "" {
		parts = append(parts, "on "+r.Topic)
	}
	if r.Duration != "" {
		parts = append(parts, "("+r.Duration+")")
	}
	if len(parts) == 0 {
		return "a lesson"
	}
	return strings.Join(parts, " ")
}

// subjects maps recognized spellings to the canonical subject name.
var subjects = map[string]string{
	"math":               "Math",
	"mathematics":        "Math",
	"science":            "Science",
	"biology":            "Biology",
	"chemistry":          "Chemistry",
	"physics":            "Physics",
	"history":            "History",
	"social studies":     "Social Studies",
	"english":            "English",
	"language arts":      "English Language Arts",
	"ela":                "English Language Arts",
	"arts":               "Art",
	"art":                "Art",
	"music":              "Music",
	"geography":          "Geography",
	"french":             "French",
	"health":             "Health",
	"physical education": "Physical Education",
}

var (
	gradeNumber  = regexp.MustCompile(`(?i)\bgrade\s*(k|\d{1,2})\b`)
	gradeOrdinal = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)[\s-]*grade(?:rs)?\b`)
	kindergarten = regexp.MustCompile(`(?i)\bkindergarten\b`)
	durationExpr = regexp.MustCompile(`(?i)\b(\d{1,3})[\s-]*(minutes?|mins?|hours?|hrs?)\b`)
	topicLead    = regexp.MustCompile(`(?i)\b(?:on|about|for)\s+`)
	phraseEnd    = regexp.MustCompile(`[.,;:!?\n]`)
	leadArticle  = regexp.MustCompile(`(?i)^(?:a|an|the)\s+`)
	audienceOnly = regexp.MustCompile(`(?i)^(?:my|our|the)?\s*(?:class|students|kids|learners|lesson|lesson plan)$`)
	subjectExpr  = buildSubjectExpr()
)

func buildSubjectExpr() *regexp.Regexp {
	words := make([]string, 0, len(subjects))
	for w := range subjects {
		words = append(words, regexp.QuoteMeta(w))
	}
	// Longest first so "social studies" wins over nothing and
	// "mathematics" over "math".
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
}

// ExtractRequest pulls grade, subject, topic and duration out of free text.
// Recognized forms: "grade 5", "5th grade", "kindergarten", "grade K"; a
// subject from a fixed vocabulary; the topic from the last phrase after
// "on", "about" or "for" that is not just a grade or subject.
func ExtractRequest(text string) LessonRequest {
	var r LessonRequest

	switch {
	case gradeNumber.MatchString(text):
		r.Grade = curriculum.NormalizeGrade(gradeNumber.FindStringSubmatch(text)[1])
	case gradeOrdinal.MatchString(text):
		r.Grade = curriculum.NormalizeGrade(gradeOrdinal.FindStringSubmatch(text)[1])
	case kindergarten.MatchString(text):
		r.Grade = "K"
	}

	if m := subjectExpr.FindStringSubmatch(text); m != nil {
		r.Subject = subjects[strings.ToLower(m[1])]
	}

	if m := durationExpr.FindStringSubmatch(text); m != nil {
		r.Duration = m[1] + " " + durationUnit(m[1], m[2])
	}

	r.Topic = extractTopic(text)
	return r
}

func extractTopic(text string) string {
	leads := topicLead.FindAllStringIndex(text, -1)
	for i := len(leads) - 1; i >= 0; i-- {
		end := len(text)
		if i+1 < len(leads) {
			end = leads[i+1][0]
		}
		phrase := text[leads[i][1]:end]
		if loc := phraseEnd.FindStringIndex(phrase); loc != nil {
			phrase = phrase[:loc[0]]
		}
		if t := residual(phrase); t != "" && !audienceOnly.MatchString(t) {
			return t
		}
	}
	return ""
}

// residual strips grade, subject and duration mentions from s.
func residual(s string) string {
	for _, re := range []*regexp.Regexp{gradeNumber, gradeOrdinal, kindergarten, durationExpr, subjectExpr} {
		s = re.ReplaceAllString(s, " ")
	}
	s = strings.Join(strings.Fields(s), " ")
	s = leadArticle.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func durationUnit(n, u string) string {
	unit := "minute"
	if strings.HasPrefix(strings.ToLower(u), "h") {
		unit = "hour"
	}
	if n != "1" {
		unit += "s"
	}
	return unit
}

// ApplyTo copies the known request values into the plan's metadata.
func (r LessonRequest) ApplyTo(d *plan.Document) {
	if r.Grade != "" {
		d.Grade = r.Grade
	}
	if r.Subject != "" {
		d.Subject = r.Subject
	}
	if r.Topic != "" {
		d.Topic = r.Topic
	}
}
