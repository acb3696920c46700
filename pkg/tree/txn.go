package tree

import (
	"fmt"
	"slices"

	"github.com/matzehuels/cutgraph/pkg/geom"
)

// txn is an overlay over a Tree. Reads fall through to the tree unless the
// transaction has recorded a pending value. Nothing reaches the tree until
// apply.
type txn struct {
	t *Tree

	pos    map[NodeID]geom.Point
	draw   map[NodeID]geom.Rect
	parent map[NodeID]NodeID
	kids   map[NodeID][]NodeID

	added []*node // provisional nodes, ids continue after len(t.nodes)
	freed []NodeID

	plan    Plan
	planIdx map[NodeID]int
}

func (t *Tree) begin() *txn {
	return &txn{
		t:       t,
		pos:     make(map[NodeID]geom.Point),
		draw:    make(map[NodeID]geom.Rect),
		parent:  make(map[NodeID]NodeID),
		kids:    make(map[NodeID][]NodeID),
		planIdx: make(map[NodeID]int),
	}
}

func (tx *txn) node(id NodeID) *node {
	if i := int(id) - len(tx.t.nodes); i >= 0 {
		if i >= len(tx.added) {
			panic(fmt.Sprintf("tree: unknown provisional node %d", id))
		}
		return tx.added[i]
	}
	return tx.t.get(id)
}

func (tx *txn) posOf(id NodeID) geom.Point {
	if p, ok := tx.pos[id]; ok {
		return p
	}
	return tx.node(id).pos
}

func (tx *txn) drawOf(id NodeID) geom.Rect {
	if r, ok := tx.draw[id]; ok {
		return r
	}
	return tx.node(id).draw
}

func (tx *txn) parentOf(id NodeID) NodeID {
	if p, ok := tx.parent[id]; ok {
		return p
	}
	return tx.node(id).parent
}

func (tx *txn) kidsOf(id NodeID) []NodeID {
	if k, ok := tx.kids[id]; ok {
		return k
	}
	return tx.node(id).kids
}

// collision returns the child's collision box in its parent's frame.
func (tx *txn) collision(id NodeID) geom.Rect {
	return geom.ToCollision(tx.drawOf(id), tx.t.grid.CollisionOffset).Translate(tx.posOf(id))
}

func (tx *txn) depth(id NodeID) int {
	d := 0
	for p := tx.parentOf(id); p != None; p = tx.parentOf(p) {
		d++
	}
	return d
}

func (tx *txn) worldOrigin(id NodeID) geom.Point {
	var o geom.Point
	for ; id != None; id = tx.parentOf(id) {
		o = o.Add(tx.posOf(id))
	}
	return o
}

// add creates a provisional node and returns its id.
func (tx *txn) add(n *node) NodeID {
	id := NodeID(len(tx.t.nodes) + len(tx.added))
	tx.added = append(tx.added, n)
	return id
}

// reparent moves ids from their current parent to np at the given local
// positions. The old parent's list is not touched; callers rewrite it.
func (tx *txn) reparent(np NodeID, ids []NodeID, pos func(NodeID) geom.Point) {
	kids := slices.Clone(tx.kidsOf(np))
	for _, id := range ids {
		tx.pos[id] = pos(id)
		tx.parent[id] = np
		kids = append(kids, id)
	}
	tx.kids[np] = kids
}

func (tx *txn) withoutKids(p NodeID, drop []NodeID) []NodeID {
	return slices.DeleteFunc(slices.Clone(tx.kidsOf(p)), func(k NodeID) bool {
		return slices.Contains(drop, k)
	})
}

func (tx *txn) propose(id NodeID, box geom.Rect) {
	tx.draw[id] = box
	if i, ok := tx.planIdx[id]; ok {
		tx.plan[i].DrawBox = box
		return
	}
	tx.planIdx[id] = len(tx.plan)
	tx.plan = append(tx.plan, Proposal{Node: id, DrawBox: box})
}

// fit derives a container's draw box from its children.
func (tx *txn) fit(id NodeID) geom.Rect {
	kids := tx.kidsOf(id)
	if len(kids) == 0 {
		return tx.t.emptyCut()
	}
	b := tx.collision(kids[0])
	for _, k := range kids[1:] {
		b = b.Union(tx.collision(k))
	}
	return b.Pad(tx.t.grid.Spacing)
}

// percolate validates the pending edit. groups maps each container whose
// child list or child geometry was edited to the children that moved
// together as one rigid group (possibly none). The deepest container is
// handled first: its changed children are checked against their siblings,
// its box is re-fitted, and it then counts as a changed child of its own
// parent. The Root is checked but never re-fitted.
func (tx *txn) percolate(groups map[NodeID][]NodeID) error {
	pending := make(map[NodeID]*levelChange, len(groups))
	for level, ids := range groups {
		pending[level] = &levelChange{rigid: ids}
	}

	for len(pending) > 0 {
		level := tx.deepest(pending)
		lc := pending[level]
		delete(pending, level)

		if err := tx.checkLevel(level, lc); err != nil {
			return err
		}
		if level == RootID {
			continue
		}
		if k := tx.node(level).kind; k != Cut {
			panic(fmt.Sprintf("tree: percolating through %s node %d", k, level))
		}
		tx.propose(level, tx.fit(level))

		up := tx.parentOf(level)
		if pending[up] == nil {
			pending[up] = &levelChange{}
		}
		pending[up].refit = append(pending[up].refit, level)
	}
	return nil
}

// levelChange lists the changed children of one container. Members of
// rigid kept their relative placement, so they are not tested against
// each other. Refitted children changed shape independently.
type levelChange struct {
	rigid []NodeID
	refit []NodeID
}

func (lc *levelChange) changed(id NodeID) bool {
	return slices.Contains(lc.rigid, id) || slices.Contains(lc.refit, id)
}

func (tx *txn) deepest(pending map[NodeID]*levelChange) NodeID {
	best, bestDepth := None, -1
	for level := range pending {
		d := tx.depth(level)
		if d > bestDepth || (d == bestDepth && level < best) {
			best, bestDepth = level, d
		}
	}
	return best
}

// checkLevel tests every changed child of level against its siblings.
func (tx *txn) checkLevel(level NodeID, lc *levelChange) error {
	if len(lc.rigid)+len(lc.refit) == 0 {
		return nil
	}
	kids := tx.kidsOf(level)
	var origin geom.Point
	if tx.t.trace {
		origin = tx.worldOrigin(level)
	}
	for _, m := range kids {
		if !lc.changed(m) {
			continue
		}
		mRigid := slices.Contains(lc.rigid, m)
		box := tx.collision(m)
		tx.t.record(ProbeCandidate, box.Translate(origin))
		for _, s := range kids {
			if s == m || (mRigid && slices.Contains(lc.rigid, s)) {
				continue
			}
			sb := tx.collision(s)
			if geom.Overlaps(box, sb) {
				tx.t.record(ProbeBlocked, sb.Translate(origin))
				return &CollisionError{Level: level, Node: m, Blocker: s}
			}
			tx.t.record(ProbeClear, sb.Translate(origin))
		}
	}
	return nil
}

// apply writes the transaction into the tree and returns the ids of every
// node whose geometry or parent changed.
func (tx *txn) apply() []NodeID {
	t := tx.t
	for _, n := range tx.added {
		t.nodes = append(t.nodes, n)
		t.live++
	}

	var changed []NodeID
	mark := func(id NodeID) {
		if !slices.Contains(changed, id) {
			changed = append(changed, id)
		}
	}
	for id, p := range tx.pos {
		t.nodes[id].pos = p
	}
	for id, p := range tx.parent {
		t.nodes[id].parent = p
	}
	for id, k := range tx.kids {
		t.nodes[id].kids = k
	}
	for _, pr := range tx.plan {
		t.nodes[pr.Node].draw = pr.DrawBox
	}
	for _, id := range tx.freed {
		if t.nodes[id] != nil {
			t.nodes[id] = nil
			t.live--
		}
	}

	for i := range tx.added {
		mark(NodeID(len(t.nodes) - len(tx.added) + i))
	}
	for _, id := range sortedKeys(tx.pos) {
		mark(id)
	}
	for _, pr := range tx.plan {
		mark(pr.Node)
	}
	return slices.DeleteFunc(changed, func(id NodeID) bool { return !t.Exists(id) })
}

func sortedKeys[V any](m map[NodeID]V) []NodeID {
	keys := make([]NodeID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
