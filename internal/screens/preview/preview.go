// Package preview renders a lesson plan as formatted Markdown.
package preview

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/ui/layout"
	"github.com/gpteach/gpteach/internal/ui/theme"
)

// PreviewScreen is a read-only scrolling view of one plan.
type PreviewScreen struct {
	doc    *plan.Document
	offset int

	// Rendering is cached per width.
	width    int
	rendered []string
	err      error
}

var (
	_ screen.Screen          = (*PreviewScreen)(nil)
	_ screen.KeyHintProvider = (*PreviewScreen)(nil)
)

// New creates a preview of doc.
func New(doc *plan.Document) *PreviewScreen {
	return &PreviewScreen{doc: doc}
}

func (p *PreviewScreen) Init() tea.Cmd { return nil }

func (p *PreviewScreen) Title() string {
	return "Preview"
}

func (p *PreviewScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "PgUp/PgDn", Description: "Page"},
		{Key: "Esc", Description: "Back"},
	}
}

func (p *PreviewScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch kmsg.String() {
	case "up", "k":
		p.offset--
	case "down", "j":
		p.offset++
	case "pgup":
		p.offset -= 10
	case "pgdown", "space":
		p.offset += 10
	case "home", "g":
		p.offset = 0
	case "end", "G":
		p.offset = len(p.rendered)
	}
	p.clamp(0)
	return p, nil
}

func (p *PreviewScreen) View(width, height int) string {
	if width != p.width || p.rendered == nil {
		p.render(width)
	}
	if p.err != nil {
		return theme.ErrorText.Render("\n  Could not render plan: " + p.err.Error())
	}

	p.clamp(height)
	end := min(p.offset+height, len(p.rendered))
	return lipgloss.NewStyle().Width(width).Render(strings.Join(p.rendered[p.offset:end], "\n"))
}

func (p *PreviewScreen) render(width int) {
	p.width = width
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		p.err = err
		return
	}
	out, err := r.Render(plan.Markdown(p.doc))
	if err != nil {
		p.err = err
		return
	}
	p.err = nil
	p.rendered = strings.Split(strings.TrimRight(out, "\n"), "\n")
}

// clamp keeps offset within the rendered lines. A zero height only
// bounds it by the line count.
func (p *PreviewScreen) clamp(height int) {
	last := len(p.rendered) - 1
	if height > 0 {
		last = len(p.rendered) - height
	}
	if p.offset > last {
		p.offset = last
	}
	if p.offset < 0 {
		p.offset = 0
	}
}
