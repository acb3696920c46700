package tree

import (
	"fmt"
	"slices"

	"github.com/matzehuels/cutgraph/pkg/geom"
)

// Proposal is a draw box computed for one ancestor during prediction.
type Proposal struct {
	Node    NodeID
	DrawBox geom.Rect
}

// Plan is the ordered list of ancestor boxes produced by Predict, nearest
// ancestor first.
type Plan []Proposal

// Nodes returns the ids in the plan, in order.
func (p Plan) Nodes() []NodeID {
	ids := make([]NodeID, len(p))
	for i, pr := range p {
		ids[i] = pr.Node
	}
	return ids
}

// siblings checks that ids is a non-empty set of live, non-root nodes with
// one parent, and returns that parent and the ids without duplicates.
func (t *Tree) siblings(ids []NodeID) (NodeID, []NodeID, error) {
	if len(ids) == 0 {
		return None, nil, ErrNoNodes
	}
	parent := None
	uniq := make([]NodeID, 0, len(ids))
	for _, id := range ids {
		n, err := t.lookup(id)
		if err != nil {
			return None, nil, err
		}
		if id == RootID {
			return None, nil, ErrRootOperation
		}
		if parent == None {
			parent = n.parent
		} else if n.parent != parent {
			return None, nil, fmt.Errorf("%w: %d is in %d, not %d", ErrMixedParents, id, n.parent, parent)
		}
		if !slices.Contains(uniq, id) {
			uniq = append(uniq, id)
		}
	}
	return parent, uniq, nil
}

// Predict checks whether translating the sibling nodes ids by delta keeps
// every level of the tree collision-free, and computes the new draw box of
// each ancestor Cut. The tree is not modified.
//
// On rejection the returned error matches ErrCollision and carries a
// *CollisionError naming the level where it happened.
func (t *Tree) Predict(ids []NodeID, delta geom.Point) (Plan, error) {
	parent, ids, err := t.siblings(ids)
	if err != nil {
		return nil, err
	}
	if !geom.OnGrid(delta, t.grid.Spacing) {
		return nil, fmt.Errorf("%w: %v", ErrOffGrid, delta)
	}
	t.resetProbes()
	tx := t.begin()
	for _, id := range ids {
		tx.pos[id] = t.nodes[id].pos.Add(delta)
	}
	if err := tx.percolate(map[NodeID][]NodeID{parent: ids}); err != nil {
		return nil, err
	}
	return tx.plan, nil
}

// Commit writes the ancestor boxes of a plan returned by Predict on the
// current tree. Positions of the moved nodes are left alone; Move applies
// them. It returns the ids whose draw box was written.
func (t *Tree) Commit(plan Plan) []NodeID {
	for _, pr := range plan {
		t.get(pr.Node).draw = pr.DrawBox
	}
	return plan.Nodes()
}

// Move translates the sibling nodes ids by delta if Predict accepts it and
// commits the resulting plan. It returns the moved nodes followed by every
// ancestor whose box was rewritten.
func (t *Tree) Move(ids []NodeID, delta geom.Point) ([]NodeID, error) {
	plan, err := t.Predict(ids, delta)
	if err != nil {
		return nil, err
	}
	_, ids, _ = t.siblings(ids)
	for _, id := range ids {
		n := t.nodes[id]
		n.pos = n.pos.Add(delta)
	}
	return append(ids, t.Commit(plan)...), nil
}
