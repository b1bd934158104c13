package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/router"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/screens/home"
	"github.com/gpteach/gpteach/internal/ui/layout"
)

// Options configures the TUI.
type Options struct {
	Deps *screen.Deps

	// TemplatesDir is watched for template changes when set.
	TemplatesDir string
}

// templatesReloadedMsg carries a registry rebuilt after a file change.
type templatesReloadedMsg struct {
	registry *plan.Registry
	updates  <-chan *plan.Registry
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	deps    *screen.Deps
	router  *router.Router
	updates <-chan *plan.Registry
	width   int
	height  int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(deps *screen.Deps, updates <-chan *plan.Registry) AppModel {
	return AppModel{
		deps:    deps,
		router:  router.New(home.New(deps)),
		updates: updates,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), waitTemplates(m.updates))
}

// waitTemplates blocks for the next reloaded registry.
func waitTemplates(updates <-chan *plan.Registry) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		reg, ok := <-updates
		if !ok {
			return nil
		}
		return templatesReloadedMsg{registry: reg, updates: updates}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case templatesReloadedMsg:
		m.deps.SetTemplates(msg.registry)
		if m.deps.Logger != nil {
			m.deps.Logger.Info("templates reloaded", zap.Int("count", len(msg.registry.List())))
		}
		return m, waitTemplates(msg.updates)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.InputCapturer); ok && c.Capturing() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	status := "offline"
	if m.deps.Generator != nil {
		status = "assistant ready"
	}
	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var updates <-chan *plan.Registry
	if opts.TemplatesDir != "" {
		ch, err := plan.WatchTemplates(ctx, opts.TemplatesDir, 300*time.Millisecond)
		if err != nil && opts.Deps.Logger != nil {
			opts.Deps.Logger.Warn("template watch disabled", zap.Error(err))
		}
		updates = ch
	}

	p := tea.NewProgram(newAppModel(opts.Deps, updates))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
