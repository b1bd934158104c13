package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/gpteach/gpteach/internal/ui/layout"
	"github.com/gpteach/gpteach/internal/ui/theme"
	"github.com/gpteach/gpteach/internal/wizard"
)

func (c *ChatScreen) View(width, height int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	var bottom []string
	if c.progress.Total > 0 {
		p := c.progress
		p.Width = inner
		bottom = append(bottom, p.View())
	}
	switch {
	case c.busy:
		bottom = append(bottom, theme.Hint.Render(busyText(c.busyOp)))
	case c.state == wizard.StateChoosingMode:
		bottom = append(bottom, c.choice.View())
	default:
		c.input.SetWidth(inner - 2)
		bottom = append(bottom, c.input.View())
	}
	footer := strings.Join(bottom, "\n")

	avail := height - lipgloss.Height(footer) - 1
	transcript := c.renderTranscript(inner, avail)

	return lipgloss.NewStyle().Padding(0, 2).Render(transcript + "\n\n" + footer)
}

// renderTranscript renders lines newest-last, keeping only what fits in
// height rows.
func (c *ChatScreen) renderTranscript(width, height int) string {
	var blocks []string
	used := 0
	for i := len(c.lines) - 1; i >= 0; i-- {
		b := renderLine(c.lines[i], width)
		h := lipgloss.Height(b) + 1
		if used+h > height && len(blocks) > 0 {
			break
		}
		blocks = append(blocks, b)
		used += h
	}
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	return strings.Join(blocks, "\n\n")
}

func renderLine(l line, width int) string {
	switch l.who {
	case teacher:
		return theme.TeacherLabel.Render("You") + "\n" + theme.Body.Render(layout.Wrap(l.text, width))
	case notice:
		return theme.Hint.Render(layout.Wrap(l.text, width))
	case suggestion:
		title := theme.Selected.Render(l.field)
		return theme.Suggestion.Width(width).Render(title + "\n" + l.text)
	}
	return theme.AssistantLabel.Render("Assistant") + "\n" + theme.Body.Render(layout.Wrap(l.text, width))
}

func busyText(op string) string {
	switch op {
	case "select-mode", "generate", "approve", "skip":
		return "Writing..."
	case "regenerate":
		return "Writing another version..."
	case "revise":
		return "Revising..."
	}
	return "Thinking..."
}
