package tree

import (
	"fmt"
	"slices"

	"github.com/matzehuels/cutgraph/pkg/geom"
)

// Adopt moves the sibling nodes ids under newParent, keeping their world
// positions. Both the old and the new ancestor chains are re-derived and
// validated in one transaction. Adopting into the current parent is a
// no-op. It returns the ids whose geometry or parent changed.
func (t *Tree) Adopt(newParent NodeID, ids ...NodeID) ([]NodeID, error) {
	return t.AdoptAt(newParent, geom.Point{}, ids...)
}

// AdoptAt is Adopt with the adopted nodes also translated by shift, a
// grid-aligned world displacement. Re-parenting and translation are
// validated together. When newParent is already the parent this is Move.
func (t *Tree) AdoptAt(newParent NodeID, shift geom.Point, ids ...NodeID) ([]NodeID, error) {
	old, ids, err := t.siblings(ids)
	if err != nil {
		return nil, err
	}
	if err := t.checkContainer(newParent, ids); err != nil {
		return nil, err
	}
	if !geom.OnGrid(shift, t.grid.Spacing) {
		return nil, fmt.Errorf("%w: %v", ErrOffGrid, shift)
	}
	if newParent == old {
		if shift.IsZero() {
			return nil, nil
		}
		return t.Move(ids, shift)
	}
	t.resetProbes()

	base := t.WorldOrigin(newParent)
	tx := t.begin()
	tx.kids[old] = tx.withoutKids(old, ids)
	tx.reparent(newParent, ids, func(id NodeID) geom.Point {
		return t.WorldOrigin(id).Add(shift).Sub(base)
	})
	if err := tx.percolate(map[NodeID][]NodeID{old: nil, newParent: ids}); err != nil {
		return nil, err
	}
	return tx.apply(), nil
}

// checkContainer verifies that target can receive ids.
func (t *Tree) checkContainer(target NodeID, ids []NodeID) error {
	n, err := t.lookup(target)
	if err != nil {
		return err
	}
	if !n.kind.IsContainer() {
		return fmt.Errorf("%w: %s %d", ErrInvalidParent, n.kind, target)
	}
	for _, id := range ids {
		if id == target || t.IsAncestor(id, target) {
			return fmt.Errorf("%w: %d into %d", ErrCycle, id, target)
		}
	}
	return nil
}

// Delete removes a node and its whole subtree. The former parent's chain
// is re-derived; this can be rejected only when a Cut loses its last child
// and its restored empty box would hit a sibling.
func (t *Tree) Delete(id NodeID) ([]NodeID, error) {
	n, err := t.lookup(id)
	if err != nil {
		return nil, err
	}
	if id == RootID {
		return nil, ErrRootOperation
	}
	t.resetProbes()

	tx := t.begin()
	tx.kids[n.parent] = tx.withoutKids(n.parent, []NodeID{id})
	tx.freed = t.Subtree(id)
	if err := tx.percolate(map[NodeID][]NodeID{n.parent: nil}); err != nil {
		return nil, err
	}
	return tx.apply(), nil
}

// Dissolve removes a Cut and promotes its children into the Cut's parent
// at the Cut's place in the sibling order, keeping their world positions.
func (t *Tree) Dissolve(cut NodeID) ([]NodeID, error) {
	n, err := t.lookup(cut)
	if err != nil {
		return nil, err
	}
	if cut == RootID {
		return nil, ErrRootOperation
	}
	if n.kind != Cut {
		return nil, fmt.Errorf("%w: %s %d", ErrNotCut, n.kind, cut)
	}
	t.resetProbes()

	g := n.parent
	kids := slices.Clone(n.kids)

	tx := t.begin()
	siblings := slices.Clone(tx.kidsOf(g))
	i := slices.Index(siblings, cut)
	tx.kids[g] = slices.Replace(siblings, i, i+1, kids...)
	for _, k := range kids {
		tx.parent[k] = g
		tx.pos[k] = n.pos.Add(t.nodes[k].pos)
	}
	tx.freed = []NodeID{cut}
	if err := tx.percolate(map[NodeID][]NodeID{g: kids}); err != nil {
		return nil, err
	}
	changed := tx.apply()
	return changed, nil
}

// Surround wraps the sibling nodes ids in a new Cut whose frame sits at the
// grid point nearest world point p. The nodes keep their world positions
// and the new Cut takes the last place among the siblings that remain.
func (t *Tree) Surround(ids []NodeID, p geom.Point) (NodeID, []NodeID, error) {
	parent, ids, err := t.siblings(ids)
	if err != nil {
		return None, nil, err
	}
	t.resetProbes()

	// keep the members in their current sibling order
	order := t.nodes[parent].kids
	slices.SortFunc(ids, func(a, b NodeID) int {
		return slices.Index(order, a) - slices.Index(order, b)
	})

	at := geom.Snap(p.Sub(t.WorldOrigin(parent)), t.grid.Spacing)
	tx := t.begin()
	cut := tx.add(&node{kind: Cut, pos: at, parent: parent, draw: t.emptyCut()})
	remaining := tx.withoutKids(parent, ids)
	tx.kids[parent] = append(remaining, cut)
	tx.reparent(cut, ids, func(id NodeID) geom.Point {
		return t.nodes[id].pos.Sub(at)
	})
	if err := tx.percolate(map[NodeID][]NodeID{cut: nil, parent: {cut}}); err != nil {
		return None, nil, err
	}
	return cut, tx.apply(), nil
}
