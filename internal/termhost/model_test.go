package termhost

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
)

func TestModelUpdateRepaintMsgSetsRoot(t *testing.T) {
	m := NewModel()
	root := &Instance{Kind: "root", Children: []*Instance{{Kind: "text", Text: "hi"}}}

	newModel, cmd := m.Update(RepaintMsg{Root: root})
	updated := newModel.(Model)

	if updated.root != root {
		t.Errorf("root = %v, want %v", updated.root, root)
	}
	if cmd != nil {
		t.Error("RepaintMsg should not produce a Cmd")
	}
	if !strings.Contains(updated.viewport.View(), "text") {
		t.Errorf("viewport content should mention the committed tree, got %q", updated.viewport.View())
	}
}

func TestModelUpdateWindowSizeMsgResizesViewport(t *testing.T) {
	m := NewModel()

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	updated := newModel.(Model)

	if updated.width != 80 || updated.height != 24 {
		t.Errorf("width/height = %d/%d, want 80/24", updated.width, updated.height)
	}
	if updated.viewport.Width != 80 {
		t.Errorf("viewport.Width = %d, want 80", updated.viewport.Width)
	}
	if want := 24 - viewportHeaderHeight; updated.viewport.Height != want {
		t.Errorf("viewport.Height = %d, want %d", updated.viewport.Height, want)
	}
}

func TestModelUpdateKeyMsgQuitSetsQuitting(t *testing.T) {
	m := NewModel()

	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	updated := newModel.(Model)

	if !updated.quitting {
		t.Error("'q' should set quitting")
	}
	if cmd == nil {
		t.Error("'q' should return a quit Cmd")
	}
}

func TestModelViewQuittingIsEmpty(t *testing.T) {
	m := NewModel()
	m.quitting = true

	if got := m.View(); got != "" {
		t.Errorf("View() = %q, want empty once quitting", got)
	}
}

func TestModelViewRendersTreeIndentedByDepth(t *testing.T) {
	m := NewModel()
	root := &Instance{Kind: "root", Children: []*Instance{
		{Kind: "box", Children: []*Instance{{Kind: "text", Text: "leaf"}}},
	}}
	newModel, _ := m.Update(RepaintMsg{Root: root})
	updated := newModel.(Model)

	tree := renderTree(updated.root)
	lines := strings.Split(strings.TrimRight(tree, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3, got %q", len(lines), tree)
	}
	if strings.HasPrefix(lines[0], " ") {
		t.Errorf("root line should have no indent, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "    ") {
		t.Errorf("leaf line should be indented two levels, got %q", lines[2])
	}
}

func TestModelViewEmptyTree(t *testing.T) {
	if got := renderTree(nil); !strings.Contains(got, "empty tree") {
		t.Errorf("renderTree(nil) = %q, want a placeholder", got)
	}
}

// TestModelTeatestRepaintThenQuit drives the model through teatest the
// way the host adapter does: a RepaintMsg after every committed
// mutation batch, then a user quit.
func TestModelTeatestRepaintThenQuit(t *testing.T) {
	m := NewModel()
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	root := &Instance{Kind: "root", Children: []*Instance{{Kind: "text", Text: "hello"}}}
	tm.Send(RepaintMsg{Root: root})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if !final.quitting {
		t.Error("final model should be quitting")
	}
	if final.root != root {
		t.Errorf("final model root = %v, want %v", final.root, root)
	}
}

// TestModelTeatestCtrlCQuits mirrors the teacher's double-quit-key
// coverage: ctrl+c is the other bound quit key.
func TestModelTeatestCtrlCQuits(t *testing.T) {
	m := NewModel()
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if !final.quitting {
		t.Error("final model should be quitting after ctrl+c")
	}
}
