package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/gpteach/gpteach/internal/ui/theme"
)

// Choice is a small numbered selector. Pressing a digit or Enter picks an
// option; Chosen reports the pick once.
type Choice struct {
	Options  []string
	Selected int
	chosen   int
}

// NewChoice creates a selector over options.
func NewChoice(options ...string) Choice {
	return Choice{Options: options, chosen: -1}
}

// Update handles navigation and selection.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "left":
		if c.Selected > 0 {
			c.Selected--
		}
	case "down", "right", "tab":
		if c.Selected < len(c.Options)-1 {
			c.Selected++
		}
	case "enter":
		c.chosen = c.Selected
	default:
		if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(c.Options) {
			c.Selected = int(key[0] - '1')
			c.chosen = c.Selected
		}
	}
	return c, nil
}

// Chosen returns the picked index and clears it, or -1.
func (c *Choice) Chosen() int {
	i := c.chosen
	c.chosen = -1
	return i
}

// View renders the options on one line.
func (c Choice) View() string {
	parts := make([]string, len(c.Options))
	for i, opt := range c.Options {
		label := fmt.Sprintf("%d) %s", i+1, opt)
		if i == c.Selected {
			parts[i] = theme.Selected.Render("▸ " + label)
		} else {
			parts[i] = lipgloss.NewStyle().Foreground(theme.Text).Render("  " + label)
		}
	}
	return strings.Join(parts, "   ")
}
