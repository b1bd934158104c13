package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/gpteach/gpteach/internal/router"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/screens/plans"
	"github.com/gpteach/gpteach/internal/screens/templates"
	"github.com/gpteach/gpteach/internal/ui/components"
	"github.com/gpteach/gpteach/internal/ui/layout"
	"github.com/gpteach/gpteach/internal/ui/theme"
)

const banner = `  ___ ___ _____              _
 / __| _ \_   _|__ __ _ __| |_
| (_ |  _/ | |/ -_) _` + "`" + ` / _| ' \
 \___|_|   |_|\___\__,_\__|_||_|`

// planCountMsg carries the number of saved plans.
type planCountMsg struct {
	count int
	err   error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	deps      *screen.Deps
	menu      components.Menu
	planCount int
	countErr  error
}

var (
	_ screen.Screen  = (*HomeScreen)(nil)
	_ screen.Resumer = (*HomeScreen)(nil)
)

// New creates the home screen.
func New(deps *screen.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}

	push := func(s func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: s()} }
		}
	}
	h.menu = components.NewMenu([]components.MenuItem{
		{
			Label:  "NEW LESSON PLAN",
			Detail: "pick a template and fill it with the assistant",
			Action: push(func() screen.Screen { return templates.New(deps) }),
		},
		{
			Label:  "MY PLANS",
			Detail: "open, continue or delete saved plans",
			Action: push(func() screen.Screen { return plans.New(deps) }),
		},
		{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadCount()
}

// Resume refreshes the plan count after returning from another screen.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadCount()
}

func (h *HomeScreen) loadCount() tea.Cmd {
	repo := h.deps.Plans
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := repo.List(context.Background(), 0)
		return planCountMsg{count: len(list), err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(planCountMsg); ok {
		h.planCount, h.countErr = m.count, m.err
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := min(max(width-6, 20), 64)

	var sections []string
	if height >= layout.CompactHeight {
		sections = append(sections, lipgloss.NewStyle().
			Width(cw).
			Align(lipgloss.Center).
			Foreground(theme.Primary).
			Bold(true).
			Render(banner))
	} else {
		sections = append(sections, theme.Title.Width(cw).Render("G P T e a c h"))
	}
	sections = append(sections, theme.Subtitle.Width(cw).Render("AI lesson planning for teachers"))
	sections = append(sections, h.renderStatus(cw))
	sections = append(sections, h.menu.View())

	content := strings.Join(sections, "\n\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (h *HomeScreen) renderStatus(cw int) string {
	plansText := fmt.Sprintf("%d saved plans", h.planCount)
	if h.countErr != nil {
		plansText = "plans unavailable"
	}

	ai := lipgloss.NewStyle().Foreground(theme.Success).Render("assistant ready")
	if h.deps.Generator == nil {
		ai = lipgloss.NewStyle().Foreground(theme.Error).Render("assistant offline")
	}

	line := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(plansText) + "   " + ai
	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Render(line)

	if h.deps.Generator == nil && h.deps.GeneratorErr != nil {
		box += "\n" + theme.Hint.Width(cw).Render(layout.Truncate(h.deps.GeneratorErr.Error(), cw*2))
	}
	return box
}

func (h *HomeScreen) Title() string {
	return "Home"
}
