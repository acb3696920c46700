package tree

import (
	"errors"
	"slices"

	"github.com/matzehuels/cutgraph/pkg/geom"
)

// Bloom turns a raw drag target into the ordered displacements to try.
//
// The snapped target comes first, followed by its four grid neighbours
// ordered by distance to preDrag (the node's position when the drag
// started), so a blocked drag settles on the side it came from. Every
// entry is relative to current. When the snapped target is current the
// result is empty.
func Bloom(current, preDrag, target geom.Point, spacing float64) []geom.Point {
	snapped := geom.Snap(target, spacing)
	if snapped == current {
		return nil
	}
	ring := []geom.Point{
		snapped.Add(geom.Pt(-spacing, 0)),
		snapped.Add(geom.Pt(0, -spacing)),
		snapped.Add(geom.Pt(spacing, 0)),
		snapped.Add(geom.Pt(0, spacing)),
	}
	slices.SortStableFunc(ring, func(a, b geom.Point) int {
		da, db := geom.Distance(a, preDrag), geom.Distance(b, preDrag)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})

	out := make([]geom.Point, 0, len(ring)+1)
	out = append(out, snapped.Sub(current))
	for _, p := range ring {
		out = append(out, p.Sub(current))
	}
	return out
}

// Drag moves the sibling group ids so that primary lands as close as
// possible to target, a point in primary's parent frame. preDrag is the
// primary's position when the gesture began.
//
// The Bloom candidates are tried in order and the first accepted one is
// committed. The applied displacement and the changed ids are returned. A
// target that snaps onto the current position is a no-op with a nil error.
// If every candidate collides the tree is unchanged and the error matches
// ErrCollision.
func (t *Tree) Drag(ids []NodeID, primary NodeID, preDrag, target geom.Point) (geom.Point, []NodeID, error) {
	n, err := t.lookup(primary)
	if err != nil {
		return geom.Point{}, nil, err
	}
	if !slices.Contains(ids, primary) {
		ids = append(slices.Clone(ids), primary)
	}
	var last error
	for _, d := range Bloom(n.pos, preDrag, target, t.grid.Spacing) {
		changed, err := t.Move(ids, d)
		if err == nil {
			return d, changed, nil
		}
		if !errors.Is(err, ErrCollision) {
			return geom.Point{}, nil, err
		}
		last = err
	}
	return geom.Point{}, nil, last
}
