package tree

import (
	"reflect"
	"testing"

	"github.com/matzehuels/cutgraph/pkg/geom"
)

func TestBloom(t *testing.T) {
	got := Bloom(geom.Pt(48, 0), geom.Pt(48, 0), geom.Pt(1, -2), 16)
	want := []geom.Point{
		geom.Pt(-48, 0),   // exact target (0,0)
		geom.Pt(-32, 0),   // east neighbour, closest to the pre-drag spot
		geom.Pt(-48, -16), // north and south tie, original order kept
		geom.Pt(-48, 16),
		geom.Pt(-64, 0), // west, farthest
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Bloom = %v, want %v", got, want)
	}
}

func TestBloomNoop(t *testing.T) {
	if got := Bloom(geom.Pt(48, 0), geom.Pt(0, 0), geom.Pt(50, 3), 16); got != nil {
		t.Errorf("Bloom onto current cell = %v, want nil", got)
	}
}

func TestPlacements(t *testing.T) {
	got := Placements(geom.Pt(32, 32), 16)
	if len(got) != 25 {
		t.Fatalf("len = %d, want 25", len(got))
	}
	if got[0] != geom.Pt(32, 32) {
		t.Errorf("first candidate = %v, want the snapped point", got[0])
	}
	if got[1] != geom.Pt(16, 16) || got[9] != geom.Pt(0, 0) {
		t.Errorf("ring order wrong: got[1]=%v got[9]=%v", got[1], got[9])
	}
	seen := map[geom.Point]bool{}
	for i, p := range got {
		if seen[p] {
			t.Errorf("duplicate candidate %v", p)
		}
		seen[p] = true
		ring := max(abs(int(p.X-32)/16), abs(int(p.Y-32)/16))
		if (i == 0) != (ring == 0) || (i >= 1 && i <= 8) != (ring == 1) {
			t.Errorf("candidate %d at %v is in ring %d", i, p, ring)
		}
	}
}

func TestDrag(t *testing.T) {
	tr := newTestTree()
	mustStatement(t, tr, RootID, 0, 0, 'A')
	b := mustStatement(t, tr, RootID, 96, 0, 'B')

	// (32,0) is blocked by A; the east neighbour is closest to where B
	// started, so B settles at (48,0).
	d, changed, err := tr.Drag([]NodeID{b}, b, geom.Pt(96, 0), geom.Pt(30, 2))
	if err != nil {
		t.Fatalf("Drag error: %v", err)
	}
	if d != geom.Pt(-48, 0) || tr.Position(b) != geom.Pt(48, 0) {
		t.Errorf("delta %v, position %v", d, tr.Position(b))
	}
	if !reflect.DeepEqual(changed, []NodeID{b}) {
		t.Errorf("changed = %v", changed)
	}

	d, changed, err = tr.Drag([]NodeID{b}, b, geom.Pt(96, 0), geom.Pt(50, -3))
	if err != nil || !d.IsZero() || changed != nil {
		t.Errorf("drag onto current cell = %v %v %v, want no-op", d, changed, err)
	}
	mustValid(t, tr)
}
