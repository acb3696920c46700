package tree

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/geom"
)

// NodeID is a stable handle into a Tree. IDs are assigned in increasing
// order and never reused, even after the node is deleted.
type NodeID int

const (
	// None is the null handle, used as the Root's parent.
	None NodeID = -1

	// RootID is the id of the Root in every tree.
	RootID NodeID = 0
)

// Kind is the type of a node.
type Kind uint8

const (
	Root Kind = iota
	Cut
	Statement
	Placeholder
)

var kindNames = [...]string{"root", "cut", "statement", "placeholder"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsLeaf reports whether nodes of this kind are fixed-size and childless.
func (k Kind) IsLeaf() bool { return k == Statement || k == Placeholder }

// IsContainer reports whether nodes of this kind can hold children.
func (k Kind) IsContainer() bool { return k == Root || k == Cut }

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// Flags is presentation state carried by a node. It has no geometric meaning.
type Flags uint8

const (
	Highlighted Flags = 1 << iota
	Selected
	Pressed
	Ghosting
)

type node struct {
	kind   Kind
	label  rune
	pos    geom.Point
	draw   geom.Rect
	parent NodeID
	kids   []NodeID
	flags  Flags
}

// Tree is the node arena. The zero value is not usable; call New.
type Tree struct {
	grid  config.Grid
	nodes []*node // index is the NodeID; nil marks a deleted node
	live  int

	trace  bool
	probes []Probe
}

// New returns a tree holding only the Root.
func New(grid config.Grid) *Tree {
	return &Tree{
		grid:  grid,
		nodes: []*node{{kind: Root, parent: None}},
		live:  1,
	}
}

// Grid returns the geometry the tree was built with.
func (t *Tree) Grid() config.Grid { return t.grid }

// Root returns the Root's id.
func (t *Tree) Root() NodeID { return RootID }

// Len returns the number of live nodes, Root included.
func (t *Tree) Len() int { return t.live }

// NextID returns the id the next created node will receive.
func (t *Tree) NextID() NodeID { return NodeID(len(t.nodes)) }

// Exists reports whether id names a live node.
func (t *Tree) Exists(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes) && t.nodes[id] != nil
}

func (t *Tree) get(id NodeID) *node {
	if !t.Exists(id) {
		panic(fmt.Sprintf("tree: unknown node %d", id))
	}
	return t.nodes[id]
}

func (t *Tree) lookup(id NodeID) (*node, error) {
	if !t.Exists(id) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return t.nodes[id], nil
}

// Kind returns the node's kind.
func (t *Tree) Kind(id NodeID) Kind { return t.get(id).kind }

// Label returns a statement's label, or 0 for other kinds.
func (t *Tree) Label(id NodeID) rune { return t.get(id).label }

// Parent returns the node's parent, or None for the Root.
func (t *Tree) Parent(id NodeID) NodeID { return t.get(id).parent }

// Children returns a copy of the node's ordered child list.
func (t *Tree) Children(id NodeID) []NodeID { return slices.Clone(t.get(id).kids) }

// Index returns the node's position among its siblings, or -1 for the Root.
func (t *Tree) Index(id NodeID) int {
	p := t.get(id).parent
	if p == None {
		return -1
	}
	return slices.Index(t.nodes[p].kids, id)
}

// Siblings returns the other children of the node's parent, in order.
func (t *Tree) Siblings(id NodeID) []NodeID {
	p := t.get(id).parent
	if p == None {
		return nil
	}
	return slices.DeleteFunc(slices.Clone(t.nodes[p].kids), func(k NodeID) bool { return k == id })
}

// Position returns the node's grid-aligned offset inside its parent's frame.
func (t *Tree) Position(id NodeID) geom.Point { return t.get(id).pos }

// DrawBox returns the node's visible box in its own local frame.
// The Root has no geometry and returns the zero rectangle.
func (t *Tree) DrawBox(id NodeID) geom.Rect { return t.get(id).draw }

// CollisionBox returns the draw box grown by the collision offset.
func (t *Tree) CollisionBox(id NodeID) geom.Rect {
	return geom.ToCollision(t.get(id).draw, t.grid.CollisionOffset)
}

// WorldOrigin returns the world coordinates of the node's local frame.
func (t *Tree) WorldOrigin(id NodeID) geom.Point {
	var o geom.Point
	for n := t.get(id); ; n = t.nodes[n.parent] {
		o = o.Add(n.pos)
		if n.parent == None {
			return o
		}
	}
}

// WorldDrawBox returns the draw box in world coordinates.
func (t *Tree) WorldDrawBox(id NodeID) geom.Rect {
	return t.get(id).draw.Translate(t.WorldOrigin(id))
}

// WorldCollisionBox returns the collision box in world coordinates.
func (t *Tree) WorldCollisionBox(id NodeID) geom.Rect {
	return t.CollisionBox(id).Translate(t.WorldOrigin(id))
}

// Bounds returns the union of the world collision boxes of the Root's
// children, padded by one grid spacing. An empty tree returns an
// EmptyCutSize square at the origin.
func (t *Tree) Bounds() geom.Rect {
	kids := t.nodes[RootID].kids
	if len(kids) == 0 {
		return geom.Sized(geom.Point{}, t.grid.EmptyCutSize, t.grid.EmptyCutSize)
	}
	b := t.WorldCollisionBox(kids[0])
	for _, k := range kids[1:] {
		b = b.Union(t.WorldCollisionBox(k))
	}
	return b.Pad(t.grid.Spacing)
}

// Depth returns the number of edges between the node and the Root.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for n := t.get(id); n.parent != None; n = t.nodes[n.parent] {
		d++
	}
	return d
}

// IsAncestor reports whether a is a strict ancestor of b.
func (t *Tree) IsAncestor(a, b NodeID) bool {
	for p := t.get(b).parent; p != None; p = t.nodes[p].parent {
		if p == a {
			return true
		}
	}
	return false
}

// Walk visits the subtree rooted at id in depth-first pre-order. Returning
// false from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, k := range t.get(id).kids {
		t.Walk(k, fn)
	}
}

// Subtree returns id and all its descendants in pre-order.
func (t *Tree) Subtree(id NodeID) []NodeID {
	var out []NodeID
	t.Walk(id, func(n NodeID) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Flags returns the node's presentation flags.
func (t *Tree) Flags(id NodeID) Flags { return t.get(id).flags }

// HasFlag reports whether all bits of f are set on the node.
func (t *Tree) HasFlag(id NodeID, f Flags) bool { return t.get(id).flags&f == f }

// SetFlag sets or clears f on the node.
func (t *Tree) SetFlag(id NodeID, f Flags, on bool) {
	n := t.get(id)
	if on {
		n.flags |= f
	} else {
		n.flags &^= f
	}
}

// ClearFlags clears f on every node.
func (t *Tree) ClearFlags(f Flags) {
	for _, n := range t.nodes {
		if n != nil {
			n.flags &^= f
		}
	}
}

// NodeAt returns the deepest node whose world draw box strictly contains p,
// or the Root when p is over empty canvas.
func (t *Tree) NodeAt(p geom.Point) NodeID {
	return t.descend(p, func(NodeID) bool { return true })
}

// DetermineNewParent returns the deepest Cut whose world draw box strictly
// contains p, or the Root. It is the drop target for re-parenting.
func (t *Tree) DetermineNewParent(p geom.Point) NodeID {
	return t.DetermineNewParentExcluding(p, nil)
}

// DetermineNewParentExcluding is DetermineNewParent skipping any Cut for
// which skip returns true, together with that Cut's subtree.
func (t *Tree) DetermineNewParentExcluding(p geom.Point, skip func(NodeID) bool) NodeID {
	return t.descend(p, func(id NodeID) bool {
		return t.nodes[id].kind == Cut && (skip == nil || !skip(id))
	})
}

func (t *Tree) descend(p geom.Point, accept func(NodeID) bool) NodeID {
	cur := RootID
	origin := geom.Point{}
	for {
		next := None
		for _, k := range t.nodes[cur].kids {
			n := t.nodes[k]
			o := origin.Add(n.pos)
			if accept(k) && n.draw.Translate(o).ContainsPoint(p) {
				next, origin = k, o
				break
			}
		}
		if next == None {
			return cur
		}
		cur = next
	}
}

// Clone returns a deep copy of the tree. Tracing state is not copied.
func (t *Tree) Clone() *Tree {
	c := &Tree{grid: t.grid, nodes: make([]*node, len(t.nodes)), live: t.live}
	for i, n := range t.nodes {
		if n == nil {
			continue
		}
		cp := *n
		cp.kids = slices.Clone(n.kids)
		c.nodes[i] = &cp
	}
	return c
}

func validLabel(r rune) bool {
	return r != 0 && unicode.IsPrint(r) && !unicode.IsSpace(r)
}

func (t *Tree) leafSize() float64 { return t.grid.StatementSize }

func (t *Tree) emptyCut() geom.Rect {
	return geom.Sized(geom.Point{}, t.grid.EmptyCutSize, t.grid.EmptyCutSize)
}
