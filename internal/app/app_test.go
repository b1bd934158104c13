package app

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/router"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/store"
	"github.com/gpteach/gpteach/internal/ui/layout"
)

type emptyPlans struct{}

func (emptyPlans) Save(context.Context, *plan.Document) error { return nil }
func (emptyPlans) Get(context.Context, string) (*plan.Document, error) {
	return nil, store.ErrNotFound
}
func (emptyPlans) List(context.Context, int) ([]store.PlanSummary, error) { return nil, nil }
func (emptyPlans) Delete(context.Context, string) error                   { return nil }

// capturingScreen reports Capturing and records the keys it receives.
type capturingScreen struct {
	capturing bool
	keys      []string
}

func (s *capturingScreen) Init() tea.Cmd             { return nil }
func (s *capturingScreen) View(int, int) string      { return "" }
func (s *capturingScreen) Title() string             { return "capture" }
func (s *capturingScreen) Capturing() bool           { return s.capturing }
func (s *capturingScreen) KeyHints() []layout.KeyHint { return nil }
func (s *capturingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		s.keys = append(s.keys, k.String())
	}
	return s, nil
}

func testModel(t *testing.T) AppModel {
	t.Helper()
	deps := &screen.Deps{Plans: emptyPlans{}}
	reg, err := plan.LoadRegistry("")
	if err != nil {
		t.Fatal(err)
	}
	deps.SetTemplates(reg)
	return newAppModel(deps, nil)
}

func TestEscPopsUnlessCapturing(t *testing.T) {
	m := testModel(t)
	top := &capturingScreen{capturing: true}
	m.router.Push(top)

	esc := tea.KeyPressMsg{Code: tea.KeyEscape}
	m.Update(esc)
	if len(top.keys) != 1 || top.keys[0] != "esc" {
		t.Fatalf("capturing screen should receive esc, got %v", top.keys)
	}

	top.capturing = false
	_, cmd := m.Update(esc)
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestTemplatesReloaded(t *testing.T) {
	m := testModel(t)
	updates := make(chan *plan.Registry, 1)
	reg, err := plan.LoadRegistry("")
	if err != nil {
		t.Fatal(err)
	}
	updates <- reg

	msg := waitTemplates(updates)()
	_, cmd := m.Update(msg)
	if m.deps.Templates() != reg {
		t.Error("registry not swapped in")
	}
	if cmd == nil {
		t.Error("expected the watch loop to continue")
	}

	close(updates)
	if waitTemplates(updates)() != nil {
		t.Error("closed channel should end the loop")
	}
}

func TestViewAfterResize(t *testing.T) {
	m := testModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	am := updated.(AppModel)
	if am.width != 100 || am.height != 30 {
		t.Fatalf("size = %dx%d", am.width, am.height)
	}
	_ = am.View()
}
