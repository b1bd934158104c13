package plan

import (
	"html"
	"regexp"
	"strings"
)

// labelPattern matches a bold label fragment at the start of cell content,
// optionally inside an opening paragraph tag.
var labelPattern = regexp.MustCompile(`(?is)^\s*(<p>\s*)?<(strong|b)>.*?</(strong|b)>`)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// LabelPrefix returns the leading bold label fragment of content, or "".
func LabelPrefix(content string) string {
	return labelPattern.FindString(content)
}

// boldPattern matches a bold fragment at the very start of s.
var boldPattern = regexp.MustCompile(`(?is)^\s*<(strong|b)>.*?</(strong|b)>`)

// WithLabel places body after the leading label fragment of existing. If
// existing has no label, body is returned unchanged. A body that already
// repeats the label, in any case and with or without a wrapping paragraph,
// is not prefixed twice.
func WithLabel(existing, body string) string {
	body = strings.TrimSpace(body)
	prefix := LabelPrefix(existing)
	if prefix == "" {
		return body
	}
	opened := strings.HasPrefix(strings.ToLower(strings.TrimSpace(prefix)), "<p>")

	rest, wrapped := trimOpenParagraph(body)
	rest = dropEcho(rest, StripTags(prefix))

	switch {
	case opened && wrapped:
		// rest still carries the body's closing tag.
		return prefix + " " + rest
	case opened:
		return prefix + " " + rest + "</p>"
	case wrapped && !strings.Contains(strings.ToLower(rest), "<p>"):
		return prefix + " " + strings.TrimSpace(strings.TrimSuffix(rest, "</p>"))
	case wrapped:
		return prefix + " <p>" + rest
	}
	return prefix + " " + rest
}

func trimOpenParagraph(s string) (string, bool) {
	if len(s) >= 3 && strings.EqualFold(s[:3], "<p>") {
		return strings.TrimSpace(s[3:]), true
	}
	return s, false
}

// dropEcho removes a leading repeat of label from s, bold or plain.
func dropEcho(s, label string) string {
	if label == "" {
		return s
	}
	if m := boldPattern.FindString(s); m != "" && strings.EqualFold(StripTags(m), label) {
		return strings.TrimSpace(s[len(m):])
	}
	if len(s) >= len(label) && strings.EqualFold(s[:len(label)], label) {
		return strings.TrimSpace(s[len(label):])
	}
	return s
}

// StripLabel removes the leading label fragment from content.
func StripLabel(content string) string {
	return strings.TrimPrefix(content, LabelPrefix(content))
}

// StripTags converts the HTML subset used in cells to plain text.
func StripTags(s string) string {
	s = strings.NewReplacer("</p>", "\n", "<br>", "\n", "<br/>", "\n", "<li>", "- ", "</li>", "\n").Replace(s)
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}
