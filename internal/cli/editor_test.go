package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cutgraph/pkg/canvas"
	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

func newTestEditor(t *testing.T, save func(document.Document) error) *editorModel {
	t.Helper()
	tr := tree.New(config.DefaultGrid())
	cv := canvas.New(tr.Grid(), canvas.WithTree(tr), canvas.WithHistory(10))
	return newEditorModel(cv, document.Export(tr), "test.json", save)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEditorKeys(t *testing.T) {
	m := newTestEditor(t, nil)

	m.Update(keyRunes("x"))
	if m.cv.Tree().Len() != 2 || m.cv.Tree().Kind(1) != tree.Cut {
		t.Fatalf("x did not add a cut: len %d", m.cv.Tree().Len())
	}
	if !m.modified || !strings.Contains(m.status, "cut") {
		t.Errorf("after x: modified %v status %q", m.modified, m.status)
	}

	m.Update(keyRunes("P"))
	if m.cv.Tree().Len() != 3 {
		t.Fatalf("P did not add a statement: len %d", m.cv.Tree().Len())
	}
	stmt := m.cv.Highlighted()
	if m.cv.Tree().Kind(stmt) != tree.Statement || m.cv.Tree().Parent(stmt) != 1 {
		t.Errorf("statement %d kind %v parent %d", stmt, m.cv.Tree().Kind(stmt), m.cv.Tree().Parent(stmt))
	}

	// Lowercase letters are bindings, not statements.
	m.Update(keyRunes("p"))
	if m.cv.Tree().Len() != 3 {
		t.Errorf("p added a node")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cv.Highlighted() != 1 {
		t.Errorf("up: highlighted %d, want the cut", m.cv.Highlighted())
	}

	m.Update(keyRunes("u"))
	if m.cv.Tree().Len() != 2 {
		t.Errorf("undo: len %d, want 2", m.cv.Tree().Len())
	}
	m.Update(keyRunes("r"))
	if m.cv.Tree().Len() != 3 {
		t.Errorf("redo: len %d, want 3", m.cv.Tree().Len())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlB})
	if !m.cv.ShowBounds() {
		t.Error("ctrl+b did not turn on bounds")
	}
}

func TestEditorReportsErrors(t *testing.T) {
	m := newTestEditor(t, nil)

	// Dissolving the root is refused and shown on the status line.
	m.Update(keyRunes("d"))
	if m.err == nil {
		t.Fatal("dissolve on root produced no error")
	}
	if !strings.Contains(m.View(), "! ") {
		t.Error("error not shown in the view")
	}

	m.Update(keyRunes("x"))
	if m.err != nil {
		t.Errorf("error not cleared by a successful command: %v", m.err)
	}
}

func TestEditorQuit(t *testing.T) {
	m := newTestEditor(t, nil)
	if _, cmd := m.Update(keyRunes("q")); cmd == nil {
		t.Error("q on an unmodified canvas did not quit")
	}

	m.Update(keyRunes("x"))
	if _, cmd := m.Update(keyRunes("q")); cmd != nil {
		t.Error("q with unsaved changes quit without confirmation")
	}
	if !m.confirmQuit {
		t.Error("confirmQuit not set")
	}
	if _, cmd := m.Update(keyRunes("q")); cmd == nil {
		t.Error("second q did not quit")
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c did not quit")
	}
}

func TestEditorSave(t *testing.T) {
	var saved []document.Document
	m := newTestEditor(t, func(d document.Document) error {
		saved = append(saved, d)
		return nil
	})
	m.Update(keyRunes("x"))

	_, cmd := m.Update(keyRunes("w"))
	if cmd == nil {
		t.Fatal("w returned no save command")
	}
	m.Update(cmd())
	if len(saved) != 1 || len(saved[0].Nodes) != 2 {
		t.Fatalf("saved %+v", saved)
	}
	if m.modified || !strings.HasPrefix(m.status, "saved") {
		t.Errorf("after save: modified %v status %q", m.modified, m.status)
	}

	m.Update(savedMsg{err: errors.New("disk full")})
	if m.err == nil || m.status != "save failed" {
		t.Errorf("failed save: err %v status %q", m.err, m.status)
	}
}

func TestEditorReadOnly(t *testing.T) {
	m := newTestEditor(t, nil)
	if _, cmd := m.Update(keyRunes("w")); cmd != nil {
		t.Error("read-only editor returned a save command")
	}
	if m.status != "read-only" {
		t.Errorf("status = %q", m.status)
	}
}

func TestEditorMouseBandSelect(t *testing.T) {
	m := newTestEditor(t, nil)
	p := geom.Pt(32, 32)
	m.exec(canvas.Command{Op: canvas.OpAddCut, Point: &p})
	cut := m.cv.Highlighted()

	m.Update(tea.MouseMsg{X: 0, Y: 0, Shift: true, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.band == nil {
		t.Fatal("shift press did not start a band")
	}
	m.Update(tea.MouseMsg{X: 14, Y: 7, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: 14, Y: 7, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	if m.band != nil {
		t.Error("band still active after release")
	}
	if sel := m.cv.Selection(); len(sel) != 1 || sel[0] != cut {
		t.Errorf("selection = %v, want [%d]", sel, cut)
	}

	// Pressing empty canvas clears it again.
	m.Update(tea.MouseMsg{X: 30, Y: 15, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(m.cv.Selection()) != 0 {
		t.Errorf("selection after empty press = %v", m.cv.Selection())
	}
}

func TestEditorMouseIgnoresChrome(t *testing.T) {
	m := newTestEditor(t, nil)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	before := m.cv.Pointer()
	m.Update(tea.MouseMsg{X: 3, Y: 9, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.cv.Pointer() != before {
		t.Errorf("press on the status rows moved the pointer to %v", m.cv.Pointer())
	}
}

func TestEditorView(t *testing.T) {
	m := newTestEditor(t, nil)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	m.Update(keyRunes("x"))

	lines := strings.Split(m.View(), "\n")
	if len(lines) != 12 {
		t.Fatalf("view has %d lines, want 12", len(lines))
	}
	if !strings.Contains(lines[10], "test.json") {
		t.Errorf("status bar %q does not name the document", lines[10])
	}
	if !strings.Contains(lines[11], "x cut") {
		t.Errorf("help line = %q", lines[11])
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"hello", 0, "hello"},
		{"ab→cd", 3, "ab→"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
