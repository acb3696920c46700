package tree

import (
	"fmt"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/geom"
)

// Record is the flat description of one node, used to save and restore a
// tree.
type Record struct {
	ID       NodeID
	Parent   NodeID
	Kind     Kind
	Label    rune
	Position geom.Point
	DrawBox  geom.Rect
}

// Records returns every live node in pre-order, Root first. Children
// appear in sibling order.
func (t *Tree) Records() []Record {
	recs := make([]Record, 0, t.live)
	t.Walk(RootID, func(id NodeID) bool {
		n := t.nodes[id]
		recs = append(recs, Record{
			ID:       id,
			Parent:   n.parent,
			Kind:     n.kind,
			Label:    n.label,
			Position: n.pos,
			DrawBox:  n.draw,
		})
		return true
	})
	return recs
}

// MaxIDGap is how many freed ids a rebuilt tree may carry beyond its live
// nodes. Record ids and next must stay below len(recs)+MaxIDGap.
const MaxIDGap = 1 << 20

// FromRecords rebuilds a tree. recs must start with the Root (id 0) and
// list every node after its parent; sibling order follows record order.
// next is the id the tree will hand out next and must exceed every record
// id. The result is checked with Validate.
func FromRecords(grid config.Grid, recs []Record, next NodeID) (*Tree, error) {
	if len(recs) == 0 || recs[0].ID != RootID || recs[0].Kind != Root {
		return nil, fmt.Errorf("%w: first record must be the root", ErrInvariant)
	}
	limit := NodeID(len(recs)) + MaxIDGap
	if next > limit {
		return nil, fmt.Errorf("%w: next id %d exceeds %d", ErrInvariant, next, limit)
	}
	maxID := NodeID(0)
	for _, r := range recs {
		if r.ID >= limit {
			return nil, fmt.Errorf("%w: id %d exceeds %d", ErrInvariant, r.ID, limit)
		}
		maxID = max(maxID, r.ID)
	}
	if next <= maxID {
		next = maxID + 1
	}

	t := &Tree{grid: grid, nodes: make([]*node, next)}
	for i, r := range recs {
		if r.ID < 0 {
			return nil, fmt.Errorf("%w: negative id %d", ErrInvariant, r.ID)
		}
		if t.nodes[r.ID] != nil {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvariant, r.ID)
		}
		n := &node{kind: r.Kind, label: r.Label, pos: r.Position, draw: r.DrawBox, parent: r.Parent}
		if i == 0 {
			n.parent, n.pos, n.draw = None, geom.Point{}, geom.Rect{}
			t.nodes[RootID] = n
			t.live++
			continue
		}
		switch r.Kind {
		case Cut, Placeholder:
		case Statement:
			if !validLabel(r.Label) {
				return nil, fmt.Errorf("%w: node %d: %q", ErrInvalidLabel, r.ID, r.Label)
			}
		default:
			return nil, fmt.Errorf("%w: node %d has kind %s", ErrInvariant, r.ID, r.Kind)
		}
		if !t.Exists(r.Parent) {
			return nil, fmt.Errorf("%w: node %d listed before its parent %d", ErrInvariant, r.ID, r.Parent)
		}
		p := t.nodes[r.Parent]
		if !p.kind.IsContainer() {
			return nil, fmt.Errorf("%w: node %d is inside %s %d", ErrInvariant, r.ID, p.kind, r.Parent)
		}
		p.kids = append(p.kids, r.ID)
		t.nodes[r.ID] = n
		t.live++
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the layout invariants over the whole tree: grid-aligned
// positions, correct leaf sizes, exact Cut boxes, and no sibling overlap.
func (t *Tree) Validate() error {
	tx := t.begin()
	s := t.leafSize()
	var err error
	t.Walk(RootID, func(id NodeID) bool {
		if err != nil {
			return false
		}
		n := t.nodes[id]
		if id != RootID && !geom.OnGrid(n.pos, t.grid.Spacing) {
			err = fmt.Errorf("%w: node %d at %v is off grid", ErrInvariant, id, n.pos)
			return false
		}
		switch n.kind {
		case Statement, Placeholder:
			if want := geom.Sized(geom.Point{}, s, s); n.draw != want {
				err = fmt.Errorf("%w: leaf %d box %v, want %v", ErrInvariant, id, n.draw, want)
			}
		case Cut:
			if want := tx.fit(id); n.draw != want {
				err = fmt.Errorf("%w: cut %d box %v, want %v", ErrInvariant, id, n.draw, want)
			}
		}
		if err != nil {
			return false
		}
		for i, a := range n.kids {
			for _, b := range n.kids[i+1:] {
				if geom.Overlaps(tx.collision(a), tx.collision(b)) {
					err = fmt.Errorf("%w: siblings %d and %d overlap in %d", ErrInvariant, a, b, id)
					return false
				}
			}
		}
		return true
	})
	return err
}
