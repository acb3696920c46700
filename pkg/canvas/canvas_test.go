package canvas

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

type recorder struct {
	calls [][]tree.NodeID
}

func (r *recorder) Repaint(ids []tree.NodeID) { r.calls = append(r.calls, ids) }

func (r *recorder) saw(id tree.NodeID) bool {
	for _, call := range r.calls {
		if slices.Contains(call, id) {
			return true
		}
	}
	return false
}

// fixture is a tree with statements A and B at the root and a Cut below
// them holding statement S.
type fixture struct {
	c            *Canvas
	a, b, cut, s tree.NodeID
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	tr := tree.New(config.DefaultGrid())
	must := func(id tree.NodeID, err error) tree.NodeID {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	f := fixture{}
	f.a = must(tr.AddStatement(tree.RootID, geom.Pt(0, 0), 'A'))
	f.b = must(tr.AddStatement(tree.RootID, geom.Pt(64, 0), 'B'))
	f.cut = must(tr.AddCut(tree.RootID, geom.Pt(0, 160)))
	f.s = must(tr.AddStatement(f.cut, geom.Pt(16, 176), 'S'))
	f.c = New(config.DefaultGrid(), append([]Option{WithTree(tr)}, opts...)...)
	return f
}

func TestNewCanvas(t *testing.T) {
	c := New(config.DefaultGrid())
	if c.Tree().Len() != 1 || c.Highlighted() != tree.RootID {
		t.Errorf("new canvas: len %d, highlight %d", c.Tree().Len(), c.Highlighted())
	}
	if !c.Tree().HasFlag(tree.RootID, tree.Highlighted) {
		t.Error("root should carry the highlight flag")
	}
	if c.CanUndo() || c.CanRedo() {
		t.Error("fresh canvas has history to walk")
	}
}

func TestInsertAtPointer(t *testing.T) {
	rec := &recorder{}
	c := New(config.DefaultGrid(), WithListener(rec))

	if err := c.PointerMoved(geom.Pt(5, 5)); err != nil {
		t.Fatal(err)
	}
	cut, err := c.AddCut()
	if err != nil {
		t.Fatalf("AddCut: %v", err)
	}
	if c.Highlighted() != cut || c.Tree().Position(cut) != geom.Pt(0, 0) {
		t.Errorf("cut %d at %v, highlight %d", cut, c.Tree().Position(cut), c.Highlighted())
	}

	// The pointer is over the new cut, so the statement goes inside it.
	if err := c.PointerMoved(geom.Pt(20, 20)); err != nil {
		t.Fatal(err)
	}
	if c.Highlighted() != cut {
		t.Fatalf("highlight after hover = %d, want %d", c.Highlighted(), cut)
	}
	s, err := c.AddStatement('A')
	if err != nil {
		t.Fatalf("AddStatement: %v", err)
	}
	tr := c.Tree()
	if tr.Parent(s) != cut || tr.Position(s) != geom.Pt(16, 16) {
		t.Errorf("statement in %d at %v", tr.Parent(s), tr.Position(s))
	}
	if got, want := tr.DrawBox(cut), geom.R(-7, -7, 71, 71); got != want {
		t.Errorf("cut box = %v, want %v", got, want)
	}
	if !rec.saw(s) || !rec.saw(cut) {
		t.Errorf("listener calls %v miss the new statement or its cut", rec.calls)
	}

	// A leaf highlight inserts into the leaf's parent.
	if err := c.PointerMoved(geom.Pt(200, 200)); err != nil {
		t.Fatal(err)
	}
	if err := c.SetHighlight(s); err != nil {
		t.Fatal(err)
	}
	p, err := c.AddPlaceholder()
	if err != nil {
		t.Fatalf("AddPlaceholder: %v", err)
	}
	if tr.Parent(p) != cut || tr.Position(p) != geom.Pt(208, 208) {
		t.Errorf("placeholder in %d at %v", tr.Parent(p), tr.Position(p))
	}
	if err := tr.Validate(); err != nil {
		t.Error(err)
	}
}

func TestInsertInvalidLabel(t *testing.T) {
	c := New(config.DefaultGrid())
	if _, err := c.AddStatement(' '); !errors.Is(err, tree.ErrInvalidLabel) {
		t.Errorf("AddStatement(' ') = %v, want ErrInvalidLabel", err)
	}
	if c.CanUndo() {
		t.Error("refused insert recorded a history state")
	}
}

func TestSelectionSharesParent(t *testing.T) {
	f := newFixture(t)
	c := f.c

	for _, id := range []tree.NodeID{f.a, f.b} {
		if err := c.Select(id); err != nil {
			t.Fatal(err)
		}
	}
	if got := c.Selection(); !reflect.DeepEqual(got, []tree.NodeID{f.a, f.b}) {
		t.Fatalf("selection = %v", got)
	}

	if err := c.Select(f.s); err != nil {
		t.Fatal(err)
	}
	if got := c.Selection(); !reflect.DeepEqual(got, []tree.NodeID{f.s}) {
		t.Errorf("selection after other parent = %v, want [%d]", got, f.s)
	}
	if c.Tree().HasFlag(f.a, tree.Selected) {
		t.Error("cleared node kept its selected flag")
	}

	if err := c.Select(tree.RootID); err != nil || len(c.Selection()) != 1 {
		t.Errorf("selecting root changed the selection: %v %v", c.Selection(), err)
	}
	if err := c.Select(99); !errors.Is(err, tree.ErrNotFound) {
		t.Errorf("Select(99) = %v, want ErrNotFound", err)
	}

	if err := c.Toggle(f.s); err != nil || len(c.Selection()) != 0 {
		t.Errorf("toggle off: %v %v", c.Selection(), err)
	}
}

func TestSelectionIncluding(t *testing.T) {
	f := newFixture(t)
	c := f.c
	_ = c.Select(f.a)
	_ = c.Select(f.b)

	got, err := c.SelectionIncluding(f.b)
	if err != nil || !reflect.DeepEqual(got, []tree.NodeID{f.a, f.b}) {
		t.Errorf("SelectionIncluding(selected) = %v %v", got, err)
	}
	got, err = c.SelectionIncluding(f.cut)
	if err != nil || !reflect.DeepEqual(got, []tree.NodeID{f.cut}) {
		t.Errorf("SelectionIncluding(unselected) = %v %v", got, err)
	}
}

func TestSelectChildren(t *testing.T) {
	f := newFixture(t)
	if err := f.c.SelectChildren(tree.RootID); err != nil {
		t.Fatal(err)
	}
	if got := f.c.Selection(); !reflect.DeepEqual(got, []tree.NodeID{f.a, f.b, f.cut}) {
		t.Errorf("SelectChildren(root) = %v", got)
	}
	f.c.ClearSelection()
	if len(f.c.Selection()) != 0 || f.c.Tree().HasFlag(f.a, tree.Selected) {
		t.Error("ClearSelection left a selection behind")
	}
}

func TestBoxSelect(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		rect geom.Rect
		want []tree.NodeID
	}{
		// A is inside; the cut only overlaps and S lies outside the box.
		{"contained and overlapping", geom.R(-10, -10, 40, 170), []tree.NodeID{f.a}},
		{"everything", geom.R(-20, -20, 200, 300), []tree.NodeID{f.a, f.b, f.cut}},
		{"nested", geom.R(10, 170, 60, 220), []tree.NodeID{f.s}},
		{"empty area", geom.R(300, 300, 400, 400), []tree.NodeID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.c.BoxSelect(tt.rect)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BoxSelect(%v) = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}

func TestHighlightNavigation(t *testing.T) {
	f := newFixture(t)
	c := f.c

	steps := []struct {
		name string
		move func()
		want tree.NodeID
	}{
		{"child of root", c.HighlightChild, f.a},
		{"right", c.HighlightRight, f.b},
		{"right again", c.HighlightRight, f.cut},
		{"right at end", c.HighlightRight, f.cut},
		{"into cut", c.HighlightChild, f.s},
		{"child of leaf", c.HighlightChild, f.s},
		{"parent", c.HighlightParent, f.cut},
		{"left", c.HighlightLeft, f.b},
		{"root", c.HighlightRoot, tree.RootID},
		{"parent of root", c.HighlightParent, tree.RootID},
	}
	for _, st := range steps {
		st.move()
		if got := c.Highlighted(); got != st.want {
			t.Fatalf("%s: highlight = %d, want %d", st.name, got, st.want)
		}
	}

	n := 0
	c.Tree().Walk(tree.RootID, func(id tree.NodeID) bool {
		if c.Tree().HasFlag(id, tree.Highlighted) {
			n++
		}
		return true
	})
	if n != 1 {
		t.Errorf("%d nodes carry the highlight flag, want 1", n)
	}
}

func TestSurroundAndDissolve(t *testing.T) {
	f := newFixture(t)
	c := f.c
	_ = c.Select(f.a)
	_ = c.Select(f.b)

	cut, err := c.SurroundSelection(geom.Pt(3, 5))
	if err != nil {
		t.Fatalf("SurroundSelection: %v", err)
	}
	tr := c.Tree()
	if tr.Parent(f.a) != cut || tr.Parent(f.b) != cut {
		t.Errorf("members not adopted: %d %d", tr.Parent(f.a), tr.Parent(f.b))
	}
	if !reflect.DeepEqual(c.Selection(), []tree.NodeID{cut}) || c.Highlighted() != cut {
		t.Errorf("selection %v, highlight %d after surround", c.Selection(), c.Highlighted())
	}

	if err := c.Dissolve(cut); err != nil {
		t.Fatalf("Dissolve: %v", err)
	}
	if tr.Exists(cut) || tr.Parent(f.a) != tree.RootID {
		t.Error("dissolve did not promote the members")
	}
	if len(c.Selection()) != 0 || c.Highlighted() != tree.RootID {
		t.Errorf("selection %v, highlight %d after dissolve", c.Selection(), c.Highlighted())
	}

	if err := c.Dissolve(f.a); !errors.Is(err, tree.ErrNotCut) {
		t.Errorf("Dissolve(statement) = %v, want ErrNotCut", err)
	}
	if _, err := c.SurroundSelection(geom.Pt(0, 0)); !errors.Is(err, tree.ErrNoNodes) {
		t.Errorf("SurroundSelection(empty) = %v, want ErrNoNodes", err)
	}
}

func TestDeleteSelection(t *testing.T) {
	f := newFixture(t)
	c := f.c

	if err := c.DeleteSelection(); !errors.Is(err, tree.ErrNoNodes) {
		t.Errorf("DeleteSelection(empty) = %v, want ErrNoNodes", err)
	}

	_ = c.SetHighlight(f.a)
	_ = c.Select(f.a)
	_ = c.Select(f.cut)
	if err := c.DeleteSelection(); err != nil {
		t.Fatalf("DeleteSelection: %v", err)
	}
	tr := c.Tree()
	if tr.Exists(f.a) || tr.Exists(f.cut) || tr.Exists(f.s) {
		t.Error("deleted nodes still exist")
	}
	if tr.Len() != 2 || len(c.Selection()) != 0 || c.Highlighted() != tree.RootID {
		t.Errorf("len %d, selection %v, highlight %d", tr.Len(), c.Selection(), c.Highlighted())
	}

	if ok, err := c.Undo(); !ok || err != nil {
		t.Fatalf("Undo = %v %v", ok, err)
	}
	if c.Tree().Len() != 5 || !c.Tree().Exists(f.s) {
		t.Errorf("undo did not restore the subtree: len %d", c.Tree().Len())
	}
}

func TestDragMovesSelection(t *testing.T) {
	f := newFixture(t)
	c := f.c

	if err := c.BeginDrag(f.a, geom.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	if !c.Dragging() || !c.Tree().HasFlag(f.a, tree.Pressed) {
		t.Fatal("drag did not start")
	}
	if err := c.PointerMoved(geom.Pt(10, 60)); err != nil {
		t.Fatalf("drag step: %v", err)
	}
	if got := c.Tree().Position(f.a); got != geom.Pt(0, 48) {
		t.Errorf("position = %v, want (0,48)", got)
	}
	c.EndDrag()
	if c.Dragging() || c.Tree().HasFlag(f.a, tree.Pressed) {
		t.Error("drag did not end cleanly")
	}

	if ok, _ := c.Undo(); !ok {
		t.Fatal("drag was not recorded in history")
	}
	if got := c.Tree().Position(f.a); got != geom.Pt(0, 0) {
		t.Errorf("position after undo = %v, want (0,0)", got)
	}
}

func TestDragBlockedAndBloom(t *testing.T) {
	f := newFixture(t)
	c := f.c
	if err := c.BeginDrag(f.a, geom.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}

	// Straight onto B: every candidate collides and A stays put.
	err := c.DragTo(geom.Pt(74, 10))
	if !errors.Is(err, tree.ErrCollision) {
		t.Fatalf("DragTo onto B = %v, want ErrCollision", err)
	}
	if got := c.Tree().Position(f.a); got != geom.Pt(0, 0) {
		t.Errorf("blocked drag moved A to %v", got)
	}

	// Half way: the target collides but its west neighbour is free.
	if err := c.DragTo(geom.Pt(42, 10)); err != nil {
		t.Fatalf("DragTo half way: %v", err)
	}
	if got := c.Tree().Position(f.a); got != geom.Pt(16, 0) {
		t.Errorf("position = %v, want (16,0)", got)
	}
	c.EndDrag()

	if err := c.DragTo(geom.Pt(0, 0)); !errors.Is(err, ErrNoGesture) {
		t.Errorf("DragTo without gesture = %v, want ErrNoGesture", err)
	}
	if err := c.BeginDrag(tree.RootID, geom.Pt(0, 0)); !errors.Is(err, tree.ErrRootOperation) {
		t.Errorf("BeginDrag(root) = %v, want ErrRootOperation", err)
	}
}

func TestGhostDrop(t *testing.T) {
	tr := tree.New(config.DefaultGrid())
	cut, _ := tr.AddCut(tree.RootID, geom.Pt(0, 0))
	a, _ := tr.AddStatement(tree.RootID, geom.Pt(160, 0), 'A')
	c := New(config.DefaultGrid(), WithTree(tr))

	if err := c.BeginGhost(a, geom.Pt(170, 10)); err != nil {
		t.Fatal(err)
	}
	if !c.Ghosting() || !tr.HasFlag(a, tree.Ghosting) {
		t.Fatal("ghost did not start")
	}
	// Ghost moves only update the pointer.
	if err := c.PointerMoved(geom.Pt(40, 40)); err != nil {
		t.Fatal(err)
	}
	if tr.Position(a) != geom.Pt(160, 0) {
		t.Error("ghost drag moved the node before the drop")
	}
	if o, ok := c.GhostOrigin(); !ok || o != geom.Pt(30, 30) {
		t.Errorf("GhostOrigin = %v %v, want (30,30)", o, ok)
	}

	if err := c.GhostDrop(geom.Pt(30, 30)); err != nil {
		t.Fatalf("GhostDrop: %v", err)
	}
	tr = c.Tree()
	if tr.Parent(a) != cut || tr.Position(a) != geom.Pt(16, 16) {
		t.Errorf("dropped into %d at %v, want %d at (16,16)", tr.Parent(a), tr.Position(a), cut)
	}
	if got, want := tr.DrawBox(cut), geom.R(-7, -7, 71, 71); got != want {
		t.Errorf("cut box = %v, want %v", got, want)
	}
	if c.Dragging() || tr.HasFlag(a, tree.Ghosting) {
		t.Error("gesture still active after drop")
	}
	if err := tr.Validate(); err != nil {
		t.Error(err)
	}

	if err := c.GhostDrop(geom.Pt(0, 0)); !errors.Is(err, ErrNoGesture) {
		t.Errorf("GhostDrop without gesture = %v, want ErrNoGesture", err)
	}
}

func TestGhostDropIntoEmptyCanvas(t *testing.T) {
	f := newFixture(t)
	c := f.c
	if err := c.BeginGhost(f.s, geom.Pt(20, 180)); err != nil {
		t.Fatal(err)
	}
	// S leaves its cut for the root; the emptied cut shrinks back.
	if err := c.GhostDrop(geom.Pt(404, 4)); err != nil {
		t.Fatalf("GhostDrop: %v", err)
	}
	tr := c.Tree()
	if tr.Parent(f.s) != tree.RootID || tr.Position(f.s) != geom.Pt(400, 0) {
		t.Errorf("S in %d at %v", tr.Parent(f.s), tr.Position(f.s))
	}
	if got, want := tr.DrawBox(f.cut), geom.R(0, 0, 64, 64); got != want {
		t.Errorf("emptied cut box = %v, want %v", got, want)
	}
}

func TestMoveSelection(t *testing.T) {
	f := newFixture(t)
	_ = f.c.Select(f.b)
	if err := f.c.MoveSelection(geom.Pt(32, 0)); err != nil {
		t.Fatal(err)
	}
	if got := f.c.Tree().Position(f.b); got != geom.Pt(96, 0) {
		t.Errorf("position = %v, want (96,0)", got)
	}
	if err := f.c.MoveSelection(geom.Pt(5, 0)); !errors.Is(err, tree.ErrOffGrid) {
		t.Errorf("off-grid move = %v, want ErrOffGrid", err)
	}
}

func TestUndoRedo(t *testing.T) {
	c := New(config.DefaultGrid())
	add := func(x, y float64) {
		t.Helper()
		if err := c.PointerMoved(geom.Pt(x, y)); err != nil {
			t.Fatal(err)
		}
		if _, err := c.AddCut(); err != nil {
			t.Fatal(err)
		}
	}
	add(5, 5)
	add(200, 5)

	for _, want := range []int{2, 1} {
		if ok, err := c.Undo(); !ok || err != nil {
			t.Fatalf("Undo = %v %v", ok, err)
		}
		if c.Tree().Len() != want {
			t.Errorf("len after undo = %d, want %d", c.Tree().Len(), want)
		}
	}
	if ok, _ := c.Undo(); ok {
		t.Error("Undo past the first state succeeded")
	}
	if ok, _ := c.Redo(); !ok || c.Tree().Len() != 2 {
		t.Errorf("Redo: ok %v len %d", ok, c.Tree().Len())
	}

	add(300, 300)
	if c.CanRedo() {
		t.Error("new edit should discard redo states")
	}
}

func TestHistoryDisabled(t *testing.T) {
	c := New(config.DefaultGrid(), WithHistory(0))
	_ = c.PointerMoved(geom.Pt(5, 5))
	if _, err := c.AddCut(); err != nil {
		t.Fatal(err)
	}
	if ok, err := c.Undo(); ok || err != nil {
		t.Errorf("Undo without history = %v %v", ok, err)
	}
}

func TestBoundsOverlay(t *testing.T) {
	f := newFixture(t)
	c := f.c
	if c.Probes() != nil {
		t.Error("probes reported with the overlay off")
	}
	if !c.ToggleBounds() {
		t.Fatal("ToggleBounds did not turn the overlay on")
	}
	_ = c.Select(f.a)
	_ = c.MoveSelection(geom.Pt(0, 16))
	if len(c.Probes()) == 0 {
		t.Error("no probes recorded while the overlay is on")
	}
	if c.ToggleBounds() || c.Probes() != nil {
		t.Error("overlay still reporting after being turned off")
	}
}

func TestStructuralEditEndsGesture(t *testing.T) {
	tests := []struct {
		name   string
		script string
		last   string
	}{
		{"delete during drag", "press 10 10\ndelete", "drag 100 100"},
		{"surround during drag", "press 10 10\nsurround 0 0", "drag 100 100"},
		{"delete during ghost", "ghost 10 10\ndelete", "drop 50 50"},
		{"add during drag", "press 10 10\nplaceholder", "drag 100 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tree.New(config.DefaultGrid())
			if _, err := tr.AddStatement(tree.RootID, geom.Pt(0, 0), 'A'); err != nil {
				t.Fatal(err)
			}
			c := New(config.DefaultGrid(), WithTree(tr), WithHistory(10))

			cmds, err := ParseScript(strings.NewReader(tt.script))
			if err != nil {
				t.Fatal(err)
			}
			for _, cmd := range cmds {
				if _, err := c.Execute(cmd); err != nil {
					t.Fatalf("%s: %v", cmd, err)
				}
			}
			if c.Dragging() {
				t.Fatal("gesture survived a structural edit")
			}
			c.Tree().Walk(tree.RootID, func(id tree.NodeID) bool {
				if c.Tree().Flags(id)&(tree.Pressed|tree.Ghosting) != 0 {
					t.Errorf("node %d still carries drag flags", id)
				}
				return true
			})

			last, err := ParseCommand(tt.last)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := c.Execute(last); !errors.Is(err, ErrNoGesture) {
				t.Errorf("%s = %v, want ErrNoGesture", tt.last, err)
			}
			if err := c.PointerMoved(geom.Pt(100, 100)); err != nil {
				t.Errorf("PointerMoved after the edit: %v", err)
			}
			if err := c.Tree().Validate(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestGestureDroppedWhenPrimaryVanishes(t *testing.T) {
	f := newFixture(t)
	c := f.c
	if err := c.BeginDrag(f.a, geom.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	// Edit the tree behind the controller's back.
	if _, err := c.Tree().Delete(f.a); err != nil {
		t.Fatal(err)
	}
	if err := c.DragTo(geom.Pt(100, 100)); !errors.Is(err, ErrNoGesture) {
		t.Errorf("DragTo = %v, want ErrNoGesture", err)
	}
	if c.Dragging() {
		t.Error("gesture still active")
	}
}

func TestGhostDropInPlaceKeepsHistory(t *testing.T) {
	f := newFixture(t, WithHistory(10))
	c := f.c
	if err := c.BeginGhost(f.a, geom.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	if err := c.GhostDrop(geom.Pt(10, 10)); err != nil {
		t.Fatalf("GhostDrop: %v", err)
	}
	if c.Tree().Position(f.a) != geom.Pt(0, 0) {
		t.Errorf("A moved to %v", c.Tree().Position(f.a))
	}
	if c.CanUndo() {
		t.Error("a drop back in place recorded a history state")
	}
}
