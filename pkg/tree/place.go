package tree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/cutgraph/pkg/geom"
)

// placementRadius is the half-width, in grid cells, of the insertion search.
const placementRadius = 2

// Placements returns the insertion candidates around a snapped point: the
// point itself, then the rest of the surrounding 5x5 block of grid cells,
// inner ring before outer ring, row by row within a ring.
func Placements(snapped geom.Point, spacing float64) []geom.Point {
	out := make([]geom.Point, 0, (2*placementRadius+1)*(2*placementRadius+1))
	out = append(out, snapped)
	for ring := 1; ring <= placementRadius; ring++ {
		for dy := -ring; dy <= ring; dy++ {
			for dx := -ring; dx <= ring; dx++ {
				if max(abs(dx), abs(dy)) != ring {
					continue
				}
				out = append(out, snapped.Add(geom.Pt(float64(dx)*spacing, float64(dy)*spacing)))
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// AddCut inserts an empty Cut into parent near world point p. If no
// candidate near p can hold it the tree is unchanged and the error matches
// ErrCollision.
func (t *Tree) AddCut(parent NodeID, p geom.Point) (NodeID, error) {
	return t.insert(parent, p, &node{kind: Cut, draw: t.emptyCut()})
}

// AddStatement inserts a Statement labeled label into parent near world
// point p. Like AddCut it fails with ErrCollision when nothing fits.
func (t *Tree) AddStatement(parent NodeID, p geom.Point, label rune) (NodeID, error) {
	if !validLabel(label) {
		return None, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	s := t.leafSize()
	return t.insert(parent, p, &node{kind: Statement, label: label, draw: geom.Sized(geom.Point{}, s, s)})
}

// AddPlaceholder inserts an unlabeled statement-sized leaf into parent near
// world point p. It fails with ErrCollision when nothing fits.
func (t *Tree) AddPlaceholder(parent NodeID, p geom.Point) (NodeID, error) {
	s := t.leafSize()
	return t.insert(parent, p, &node{kind: Placeholder, draw: geom.Sized(geom.Point{}, s, s)})
}

// insert runs the placement search for proto inside parent. A candidate
// that clears every sibling and fits in the parent's current box is taken
// first. Otherwise the first candidate that survives full validation wins,
// growing the ancestors as needed. When nothing fits the tree is unchanged.
func (t *Tree) insert(parent NodeID, p geom.Point, proto *node) (NodeID, error) {
	pn, err := t.lookup(parent)
	if err != nil {
		return None, err
	}
	if !pn.kind.IsContainer() {
		return None, fmt.Errorf("%w: %s %d", ErrInvalidParent, pn.kind, parent)
	}
	t.resetProbes()

	local := geom.Snap(p.Sub(t.WorldOrigin(parent)), t.grid.Spacing)
	cands := Placements(local, t.grid.Spacing)

	for _, c := range cands {
		if t.fitsQuietly(parent, proto.draw.Translate(c)) {
			return t.tryInsert(parent, c, proto)
		}
	}

	var last error = ErrCollision
	for _, c := range cands {
		id, err := t.tryInsert(parent, c, proto)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrCollision) {
			return None, err
		}
		last = err
	}
	return None, last
}

// fitsQuietly reports whether box, in parent's frame, clears every child of
// parent and lies inside the parent's current padded bounds, so inserting
// it would not resize the parent.
func (t *Tree) fitsQuietly(parent NodeID, box geom.Rect) bool {
	off := t.grid.CollisionOffset
	coll := geom.ToCollision(box, off)
	origin := t.WorldOrigin(parent)
	t.record(ProbeCandidate, coll.Translate(origin))
	for _, k := range t.nodes[parent].kids {
		kn := t.nodes[k]
		kb := geom.ToCollision(kn.draw, off).Translate(kn.pos)
		if geom.Overlaps(coll, kb) {
			t.record(ProbeBlocked, kb.Translate(origin))
			return false
		}
	}
	if parent == RootID {
		return true
	}
	pn := t.nodes[parent]
	return len(pn.kids) > 0 && pn.draw.ContainsRect(coll.Pad(t.grid.Spacing))
}

func (t *Tree) tryInsert(parent NodeID, at geom.Point, proto *node) (NodeID, error) {
	n := *proto
	n.pos = at
	n.parent = parent
	n.kids = nil

	tx := t.begin()
	id := tx.add(&n)
	tx.kids[parent] = append(slices.Clone(tx.kidsOf(parent)), id)
	if err := tx.percolate(map[NodeID][]NodeID{parent: {id}}); err != nil {
		return None, err
	}
	tx.apply()
	return id, nil
}
