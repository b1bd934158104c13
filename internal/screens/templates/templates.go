// Package templates lets the teacher pick the layout of a new plan.
package templates

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/router"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/screens/chat"
	"github.com/gpteach/gpteach/internal/ui/components"
	"github.com/gpteach/gpteach/internal/ui/layout"
	"github.com/gpteach/gpteach/internal/ui/theme"
)

type createdMsg struct {
	doc *plan.Document
	err error
}

// TemplatesScreen lists the available templates.
type TemplatesScreen struct {
	deps *screen.Deps
	reg  *plan.Registry
	list []plan.Template
	menu components.Menu
	err  error
	busy bool
}

var _ screen.Screen = (*TemplatesScreen)(nil)

// New creates the template picker.
func New(deps *screen.Deps) *TemplatesScreen {
	t := &TemplatesScreen{deps: deps}
	t.refresh()
	return t
}

// refresh rebuilds the menu when the registry was reloaded.
func (t *TemplatesScreen) refresh() {
	reg := t.deps.Templates()
	if reg == t.reg && t.reg != nil {
		return
	}
	t.reg = reg
	t.list = nil
	if reg != nil {
		t.list = reg.List()
	}

	items := make([]components.MenuItem, len(t.list))
	for i, tpl := range t.list {
		tpl := tpl
		items[i] = components.MenuItem{
			Label:  tpl.Name,
			Detail: fmt.Sprintf("%d fields", tpl.FieldCount()),
			Action: func() tea.Cmd { return t.create(tpl) },
		}
	}
	t.menu.SetItems(items)
}

func (t *TemplatesScreen) create(tpl plan.Template) tea.Cmd {
	if t.busy {
		return nil
	}
	t.busy = true
	repo := t.deps.Plans
	return func() tea.Msg {
		doc := plan.NewFromTemplate(tpl, "")
		if repo != nil {
			if err := repo.Save(context.Background(), doc); err != nil {
				return createdMsg{err: fmt.Errorf("save new plan: %w", err)}
			}
		}
		return createdMsg{doc: doc}
	}
}

func (t *TemplatesScreen) Init() tea.Cmd {
	return nil
}

func (t *TemplatesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	t.refresh()

	if m, ok := msg.(createdMsg); ok {
		t.busy = false
		if m.err != nil {
			t.err = m.err
			return t, nil
		}
		doc := m.doc
		return t, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: chat.New(t.deps, doc)}
		}
	}

	var cmd tea.Cmd
	t.menu, cmd = t.menu.Update(msg)
	return t, cmd
}

func (t *TemplatesScreen) View(width, height int) string {
	t.refresh()
	if len(t.list) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Hint.Render("No templates found."))
	}

	cw := min(width-6, 72)
	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render("Choose a template"))
	sections = append(sections, t.menu.View())

	if sel := t.menu.Selected; sel >= 0 && sel < len(t.list) {
		tpl := t.list[sel]
		var b strings.Builder
		b.WriteString(theme.Body.Bold(true).Render(tpl.Name))
		if tpl.Version != "" {
			b.WriteString(theme.Hint.Render("  v" + tpl.Version))
		}
		if tpl.Summary != "" {
			b.WriteString("\n" + layout.Wrap(tpl.Summary, cw-4))
		}
		b.WriteString("\n" + theme.Hint.Render("source: "+tpl.Source))
		sections = append(sections, theme.Card.Width(cw).Render(b.String()))
	}

	if t.reg != nil && len(t.reg.Warnings) > 0 {
		sections = append(sections, theme.Hint.Render(fmt.Sprintf("%d user template(s) ignored, see the log", len(t.reg.Warnings))))
	}
	if t.err != nil {
		sections = append(sections, theme.ErrorText.Render(t.err.Error()))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n\n"))
}

func (t *TemplatesScreen) Title() string {
	return "New Plan"
}

func (t *TemplatesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Create plan"},
		{Key: "Esc", Description: "Back"},
	}
}
