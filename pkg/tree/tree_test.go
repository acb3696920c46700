package tree

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/geom"
)

func newTestTree() *Tree { return New(config.DefaultGrid()) }

func mustCut(t *testing.T, tr *Tree, parent NodeID, x, y float64) NodeID {
	t.Helper()
	id, err := tr.AddCut(parent, geom.Pt(x, y))
	if err != nil {
		t.Fatalf("AddCut(%d, %v,%v) error: %v", parent, x, y, err)
	}
	return id
}

func mustStatement(t *testing.T, tr *Tree, parent NodeID, x, y float64, label rune) NodeID {
	t.Helper()
	id, err := tr.AddStatement(parent, geom.Pt(x, y), label)
	if err != nil {
		t.Fatalf("AddStatement(%d, %v,%v) error: %v", parent, x, y, err)
	}
	return id
}

func mustValid(t *testing.T, tr *Tree) {
	t.Helper()
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestNewTree(t *testing.T) {
	tr := newTestTree()
	if tr.Len() != 1 || tr.Kind(tr.Root()) != Root {
		t.Fatalf("new tree should hold only the root")
	}
	if tr.Parent(RootID) != None {
		t.Errorf("root parent = %d, want None", tr.Parent(RootID))
	}
	if !tr.DrawBox(RootID).IsEmpty() {
		t.Errorf("root should have no geometry")
	}
	mustValid(t, tr)
}

func TestKindString(t *testing.T) {
	for _, k := range []Kind{Root, Cut, Statement, Placeholder} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("blob"); err == nil {
		t.Error("ParseKind should reject unknown kinds")
	}
}

func TestInsertCutIntoRoot(t *testing.T) {
	tr := newTestTree()
	c := mustCut(t, tr, RootID, 0, 0)

	if got := tr.Position(c); got != geom.Pt(0, 0) {
		t.Errorf("Position = %v, want (0,0)", got)
	}
	if got, want := tr.DrawBox(c), geom.R(0, 0, 64, 64); got != want {
		t.Errorf("DrawBox = %v, want %v", got, want)
	}
	if got, want := tr.CollisionBox(c), geom.R(-7, -7, 71, 71); got != want {
		t.Errorf("CollisionBox = %v, want %v", got, want)
	}
	if got := tr.Children(RootID); !reflect.DeepEqual(got, []NodeID{c}) {
		t.Errorf("root children = %v", got)
	}
	mustValid(t, tr)
}

func TestInsertSnapsToGrid(t *testing.T) {
	tr := newTestTree()
	s := mustStatement(t, tr, RootID, 21, 41, 'A')
	if got := tr.Position(s); got != geom.Pt(16, 48) {
		t.Errorf("Position = %v, want (16,48)", got)
	}
	if tr.Label(s) != 'A' || tr.Kind(s) != Statement {
		t.Errorf("statement has label %q kind %s", tr.Label(s), tr.Kind(s))
	}
}

func TestInsertSearchesRing(t *testing.T) {
	tr := newTestTree()
	mustStatement(t, tr, RootID, 0, 0, 'A')
	b := mustStatement(t, tr, RootID, 32, 0, 'B')

	// (32,0) and the cells up to x=32 collide; the first clear cell in
	// row-major ring order is (48,-16).
	if got := tr.Position(b); got != geom.Pt(48, -16) {
		t.Errorf("Position = %v, want (48,-16)", got)
	}
	mustValid(t, tr)
}

func TestInsertExhausted(t *testing.T) {
	tr := newTestTree()
	mustStatement(t, tr, RootID, 0, 0, 'A')
	before := tr.Records()

	_, err := tr.AddStatement(RootID, geom.Pt(0, 0), 'B')
	if !errors.Is(err, ErrCollision) {
		t.Fatalf("AddStatement on an occupied cell = %v, want ErrCollision", err)
	}
	if !reflect.DeepEqual(tr.Records(), before) {
		t.Error("failed insert modified the tree")
	}
}

func TestInsertErrors(t *testing.T) {
	tr := newTestTree()
	s := mustStatement(t, tr, RootID, 0, 0, 'A')

	if _, err := tr.AddCut(s, geom.Pt(0, 0)); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("AddCut into statement = %v, want ErrInvalidParent", err)
	}
	if _, err := tr.AddCut(99, geom.Pt(0, 0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddCut into unknown = %v, want ErrNotFound", err)
	}
	if _, err := tr.AddStatement(RootID, geom.Pt(200, 0), ' '); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("AddStatement with space label = %v, want ErrInvalidLabel", err)
	}
}

func TestCascadingGrowth(t *testing.T) {
	tr := newTestTree()
	outer := mustCut(t, tr, RootID, 0, 0)
	inner := mustCut(t, tr, outer, 16, 16)

	if got, want := tr.DrawBox(outer), geom.R(-7, -7, 103, 103); got != want {
		t.Fatalf("outer after nesting = %v, want %v", got, want)
	}

	mustStatement(t, tr, inner, 16, 16, 'A')
	mustStatement(t, tr, inner, 64, 16, 'B')

	if got, want := tr.DrawBox(inner), geom.R(-23, -23, 103, 55); got != want {
		t.Errorf("inner = %v, want %v", got, want)
	}
	if got, want := tr.DrawBox(outer), geom.R(-30, -30, 142, 94); got != want {
		t.Errorf("outer = %v, want %v", got, want)
	}
	if tr.DrawBox(inner).Width() <= 64 || tr.DrawBox(outer).Width() <= 110 {
		t.Error("both cuts should have grown")
	}
	mustValid(t, tr)
}

func TestDetermineNewParent(t *testing.T) {
	tr := newTestTree()
	c := mustCut(t, tr, RootID, 0, 0)
	s := mustStatement(t, tr, c, 16, 16, 'A')
	box := tr.WorldDrawBox(c)

	tests := []struct {
		name string
		p    geom.Point
		want NodeID
	}{
		{"inside cut", geom.Pt(0, 0), c},
		{"inside statement resolves to its cut", tr.WorldDrawBox(s).Center(), c},
		{"on cut boundary", geom.Pt(box.Left, 0), RootID},
		{"empty canvas", geom.Pt(500, 500), RootID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.DetermineNewParent(tt.p); got != tt.want {
				t.Errorf("DetermineNewParent(%v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}

	if got := tr.NodeAt(tr.WorldDrawBox(s).Center()); got != s {
		t.Errorf("NodeAt(statement center) = %d, want %d", got, s)
	}
	skip := func(id NodeID) bool { return id == c }
	if got := tr.DetermineNewParentExcluding(geom.Pt(0, 0), skip); got != RootID {
		t.Errorf("excluded cut should not be a target, got %d", got)
	}
}

func TestFlags(t *testing.T) {
	tr := newTestTree()
	s := mustStatement(t, tr, RootID, 0, 0, 'A')

	tr.SetFlag(s, Selected|Highlighted, true)
	if !tr.HasFlag(s, Selected) || !tr.HasFlag(s, Highlighted) {
		t.Fatalf("flags = %b", tr.Flags(s))
	}
	tr.SetFlag(s, Highlighted, false)
	if tr.HasFlag(s, Highlighted) || !tr.HasFlag(s, Selected) {
		t.Errorf("flags after clearing highlight = %b", tr.Flags(s))
	}
	tr.ClearFlags(Selected)
	if tr.Flags(s) != 0 {
		t.Errorf("flags after ClearFlags = %b", tr.Flags(s))
	}
}

func TestWorldGeometry(t *testing.T) {
	tr := newTestTree()
	c := mustCut(t, tr, RootID, 32, 32)
	s := mustStatement(t, tr, c, 48, 48, 'A')

	if got := tr.Position(s); got != geom.Pt(16, 16) {
		t.Errorf("local position = %v, want (16,16)", got)
	}
	if got := tr.WorldOrigin(s); got != geom.Pt(48, 48) {
		t.Errorf("WorldOrigin = %v, want (48,48)", got)
	}
	if got, want := tr.WorldDrawBox(s), geom.R(48, 48, 80, 80); got != want {
		t.Errorf("WorldDrawBox = %v, want %v", got, want)
	}
	if tr.Depth(s) != 2 || !tr.IsAncestor(c, s) || tr.IsAncestor(s, c) {
		t.Error("depth or ancestry wrong")
	}
	if got := tr.Subtree(c); !reflect.DeepEqual(got, []NodeID{c, s}) {
		t.Errorf("Subtree = %v", got)
	}
}

func TestClone(t *testing.T) {
	tr := newTestTree()
	c := mustCut(t, tr, RootID, 0, 0)
	cp := tr.Clone()

	mustStatement(t, tr, c, 16, 16, 'A')
	if cp.Len() != 2 || len(cp.Children(c)) != 0 {
		t.Error("clone shares state with the original")
	}
}

func TestSiblings(t *testing.T) {
	tr := newTestTree()
	a := mustStatement(t, tr, RootID, 0, 0, 'A')
	b := mustStatement(t, tr, RootID, 64, 0, 'B')
	c := mustStatement(t, tr, RootID, 128, 0, 'C')

	if got := tr.Siblings(b); !reflect.DeepEqual(got, []NodeID{a, c}) {
		t.Errorf("Siblings(b) = %v, want [%d %d]", got, a, c)
	}
	if got := tr.Siblings(RootID); got != nil {
		t.Errorf("Siblings(root) = %v, want nil", got)
	}
}
