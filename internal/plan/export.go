package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ExportJSON writes d as indented JSON.
func ExportJSON(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return nil
}

// ExportMarkdown writes d as a Markdown document: the title, a metadata
// block, then one section per header row and one subsection per field.
func ExportMarkdown(w io.Writer, d *Document) error {
	_, err := io.WriteString(w, Markdown(d))
	return err
}

// Markdown renders d as Markdown.
func Markdown(d *Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	meta := []struct{ k, v string }{
		{"Grade", d.Grade},
		{"Subject", d.Subject},
		{"Topic", d.Topic},
		{"Template", d.TemplateID},
	}
	for _, m := range meta {
		if m.v != "" {
			fmt.Fprintf(&b, "**%s:** %s  \n", m.k, m.v)
		}
	}
	b.WriteString("\n")

	for _, r := range d.Rows {
		if r.IsHeader {
			for _, c := range r.Cells {
				if t := StripTags(c.Content); t != "" {
					fmt.Fprintf(&b, "## %s\n\n", t)
				}
			}
			continue
		}
		for _, c := range r.Cells {
			if strings.TrimSpace(c.Label) == "" {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", c.Label)
			body := htmlToMarkdown(c.Content)
			if body == "" {
				body = "_None_"
			}
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "_Last updated: %s_\n", d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return b.String()
}

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	mdReplacer = strings.NewReplacer(
		"<strong>", "**", "</strong>", "**",
		"<b>", "**", "</b>", "**",
		"<em>", "_", "</em>", "_",
		"<i>", "_", "</i>", "_",
		"<ul>", "\n", "</ul>", "\n",
		"<ol>", "\n", "</ol>", "\n",
		"<li>", "- ", "</li>", "\n",
		"<p>", "", "</p>", "\n\n",
		"<br>", "\n", "<br/>", "\n",
	)
)

func htmlToMarkdown(s string) string {
	s = mdReplacer.Replace(s)
	s = StripTags(s)
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
