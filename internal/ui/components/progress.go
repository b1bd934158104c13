package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/gpteach/gpteach/internal/ui/theme"
)

// FieldProgress shows how far the wizard is through the field queue.
type FieldProgress struct {
	Label string
	Done  int
	Total int
	Width int
}

// Percent returns the completed fraction in [0, 1].
func (p FieldProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Done) / float64(p.Total)
	return min(max(f, 0), 1)
}

// View renders the label, a bar and a "done/total" counter.
func (p FieldProgress) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	counter := fmt.Sprintf("  %d/%d", p.Done, p.Total)
	barWidth := p.Width - lipgloss.Width(result) - len(counter)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * p.Percent())
	empty := barWidth - filled

	result += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(counter)

	return result
}
