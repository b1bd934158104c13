package preview

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/gpteach/gpteach/internal/plan"
)

func testDoc(t *testing.T) *plan.Document {
	t.Helper()
	d := plan.New("Fractions Fun")
	d.Grade = "5"
	for i := 0; i < 30; i++ {
		row, err := d.AddRow("", "Step")
		if err != nil {
			t.Fatal(err)
		}
		if err := d.SetFieldContent(row.ID, row.Cells[0].ID, "<p>Do the step.</p>"); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestViewRendersTitle(t *testing.T) {
	p := New(testDoc(t))
	out := p.View(80, 200)
	if !strings.Contains(out, "Fractions") {
		t.Errorf("view missing title:\n%s", out)
	}
}

func TestScrollClamps(t *testing.T) {
	p := New(testDoc(t))
	p.View(80, 10)

	p.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if p.offset != 0 {
		t.Errorf("offset = %d, want 0", p.offset)
	}

	p.Update(tea.KeyPressMsg{Code: tea.KeyEnd})
	p.View(80, 10)
	if want := len(p.rendered) - 10; p.offset != want {
		t.Errorf("offset = %d, want %d", p.offset, want)
	}

	p.Update(tea.KeyPressMsg{Code: tea.KeyPgDown})
	p.View(80, 10)
	if want := len(p.rendered) - 10; p.offset != want {
		t.Errorf("offset past end: %d", p.offset)
	}
}
