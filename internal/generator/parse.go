package generator

import (
	"regexp"
	"strings"
)

const defaultTitle = "Generated Lesson Plan"

var (
	fencePattern = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\n?(.*?)\\s*```\\s*$")
	titleLine    = regexp.MustCompile(`(?m)^\s*TITLE:\s*(.+)$`)
	fieldHeader  = regexp.MustCompile(`FIELD:\s*"([^"]+)"`)
	contentMark  = regexp.MustCompile(`CONTENT:\s*`)
)

// Sanitize strips markdown code fences and surrounding whitespace from
// model output.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(s)
}

// ParseDocumentText reads the TITLE:/FIELD:/CONTENT: plain format. Blocks
// without content are dropped; a later block for the same label wins.
func ParseDocumentText(text string) *DocumentResult {
	res := &DocumentResult{Title: defaultTitle, Fields: make(map[string]string)}

	if m := titleLine.FindStringSubmatch(text); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			res.Title = t
		}
	}

	headers := fieldHeader.FindAllStringSubmatchIndex(text, -1)
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		label := strings.TrimSpace(text[h[2]:h[3]])
		block := text[h[1]:end]

		loc := contentMark.FindStringIndex(block)
		if loc == nil {
			continue
		}
		content := Sanitize(block[loc[1]:])
		if label != "" && content != "" {
			res.Fields[label] = content
		}
	}
	return res
}
