// Package plans lists saved lesson plans.
package plans

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/router"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/screens/chat"
	"github.com/gpteach/gpteach/internal/screens/preview"
	"github.com/gpteach/gpteach/internal/store"
	"github.com/gpteach/gpteach/internal/ui/layout"
	"github.com/gpteach/gpteach/internal/ui/theme"
)

const listLimit = 200

type plansLoadedMsg struct {
	plans []store.PlanSummary
	err   error
}

// planOpenedMsg carries a fully loaded plan for preview or continuing.
type planOpenedMsg struct {
	doc  *plan.Document
	edit bool
	err  error
}

type planDeletedMsg struct {
	id  string
	err error
}

// PlansScreen shows saved plans, most recently edited first.
type PlansScreen struct {
	deps       *screen.Deps
	plans      []store.PlanSummary
	selected   int
	loaded     bool
	confirming bool
	errMsg     string
}

var (
	_ screen.Screen          = (*PlansScreen)(nil)
	_ screen.KeyHintProvider = (*PlansScreen)(nil)
	_ screen.Resumer         = (*PlansScreen)(nil)
	_ screen.InputCapturer   = (*PlansScreen)(nil)
)

// New creates a new PlansScreen.
func New(deps *screen.Deps) *PlansScreen {
	return &PlansScreen{deps: deps}
}

func (s *PlansScreen) Init() tea.Cmd {
	return s.load()
}

// Resume reloads the list after a plan was edited or previewed.
func (s *PlansScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *PlansScreen) load() tea.Cmd {
	repo := s.deps.Plans
	return func() tea.Msg {
		list, err := repo.List(context.Background(), listLimit)
		return plansLoadedMsg{plans: list, err: err}
	}
}

func (s *PlansScreen) Title() string {
	return "My Plans"
}

// Capturing keeps Esc for cancelling a delete confirmation.
func (s *PlansScreen) Capturing() bool {
	return s.confirming
}

func (s *PlansScreen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{
			{Key: "y", Description: "Delete"},
			{Key: "n", Description: "Keep"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Preview"},
		{Key: "c", Description: "Continue"},
		{Key: "d", Description: "Delete"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *PlansScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case plansLoadedMsg:
		s.loaded = true
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.plans = msg.plans
		if s.selected >= len(s.plans) {
			s.selected = max(len(s.plans)-1, 0)
		}
		return s, nil

	case planOpenedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		var next screen.Screen = preview.New(msg.doc)
		if msg.edit {
			next = chat.New(s.deps, msg.doc)
		}
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case planDeletedMsg:
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		if s.deps.Logger != nil {
			s.deps.Logger.Info("plan deleted", zap.String("plan", msg.id))
		}
		return s, s.load()

	case tea.KeyMsg:
		if s.confirming {
			return s, s.confirm(msg.String())
		}
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.plans)-1 {
				s.selected++
			}
		case "enter":
			return s, s.open(false)
		case "c":
			return s, s.open(true)
		case "d":
			if len(s.plans) > 0 {
				s.confirming = true
			}
		}
	}
	return s, nil
}

func (s *PlansScreen) confirm(key string) tea.Cmd {
	s.confirming = false
	if key != "y" || len(s.plans) == 0 {
		return nil
	}
	id := s.plans[s.selected].ID
	repo := s.deps.Plans
	return func() tea.Msg {
		return planDeletedMsg{id: id, err: repo.Delete(context.Background(), id)}
	}
}

func (s *PlansScreen) open(edit bool) tea.Cmd {
	if len(s.plans) == 0 {
		return nil
	}
	id := s.plans[s.selected].ID
	repo := s.deps.Plans
	return func() tea.Msg {
		doc, err := repo.Get(context.Background(), id)
		return planOpenedMsg{doc: doc, edit: edit, err: err}
	}
}

func (s *PlansScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading plans...")
	}
	if len(s.plans) == 0 && s.errMsg == "" {
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No plans yet. Create one from the home screen!")
	}

	var b strings.Builder
	b.WriteString("\n")

	// Leave room for the confirmation and error lines.
	visible := max(height-4, 1)
	first := 0
	if s.selected >= visible {
		first = s.selected - visible + 1
	}

	for i := first; i < len(s.plans) && i < first+visible; i++ {
		p := s.plans[i]
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}

		meta := describe(p)
		title := layout.Truncate(p.Title, 36)
		row := fmt.Sprintf("%s%-36s  %-28s  %s", prefix, title, meta, p.UpdatedAt.Local().Format("Jan 02 15:04"))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(row)))
		b.WriteString("\n")
	}

	if s.confirming {
		b.WriteString("\n")
		q := fmt.Sprintf("Delete %q? (y/n)", s.plans[s.selected].Title)
		b.WriteString(center.Render(theme.ErrorText.Render(q)))
		b.WriteString("\n")
	}
	if s.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(center.Render(theme.ErrorText.Render("Error: " + s.errMsg)))
	}
	return b.String()
}

func describe(p store.PlanSummary) string {
	var parts []string
	if p.Grade != "" {
		parts = append(parts, "Gr "+p.Grade)
	}
	if p.Subject != "" {
		parts = append(parts, p.Subject)
	}
	if p.Topic != "" {
		parts = append(parts, p.Topic)
	}
	return layout.Truncate(strings.Join(parts, " · "), 28)
}
