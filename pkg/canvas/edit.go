package canvas

import (
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// =============================================================================
// Pointer & highlight
// =============================================================================

// PointerMoved records the pointer position. During a live drag it moves
// the dragged nodes; otherwise the deepest node under p becomes the
// highlight.
func (c *Canvas) PointerMoved(p geom.Point) error {
	c.pointer = p
	if g := c.live(); g != nil {
		if g.ghost {
			return nil
		}
		return c.DragTo(p)
	}
	c.setHighlight(c.tree.NodeAt(p))
	return nil
}

// SetHighlight makes id the highlighted node.
func (c *Canvas) SetHighlight(id tree.NodeID) error {
	if !c.tree.Exists(id) {
		return fmt.Errorf("%w: %d", tree.ErrNotFound, id)
	}
	c.setHighlight(id)
	return nil
}

func (c *Canvas) setHighlight(id tree.NodeID) {
	if id == c.highlighted {
		return
	}
	ids := []tree.NodeID{id}
	if old := c.highlighted; c.tree.Exists(old) {
		c.tree.SetFlag(old, tree.Highlighted, false)
		ids = append(ids, old)
	}
	c.highlighted = id
	c.tree.SetFlag(id, tree.Highlighted, true)
	c.notify(ids)
}

// HighlightRoot highlights the Root.
func (c *Canvas) HighlightRoot() { c.setHighlight(tree.RootID) }

// HighlightParent moves the highlight one level up.
func (c *Canvas) HighlightParent() {
	if p := c.tree.Parent(c.highlighted); p != tree.None {
		c.setHighlight(p)
	}
}

// HighlightChild moves the highlight to the first child.
func (c *Canvas) HighlightChild() {
	if kids := c.tree.Children(c.highlighted); len(kids) > 0 {
		c.setHighlight(kids[0])
	}
}

// HighlightLeft moves the highlight to the previous sibling.
func (c *Canvas) HighlightLeft() { c.highlightSibling(-1) }

// HighlightRight moves the highlight to the next sibling.
func (c *Canvas) HighlightRight() { c.highlightSibling(1) }

func (c *Canvas) highlightSibling(step int) {
	p := c.tree.Parent(c.highlighted)
	if p == tree.None {
		return
	}
	kids := c.tree.Children(p)
	i := slices.Index(kids, c.highlighted) + step
	if i >= 0 && i < len(kids) {
		c.setHighlight(kids[i])
	}
}

// =============================================================================
// Insertion
// =============================================================================

// insertParent is the highlighted node, or its parent when the highlight
// is a leaf.
func (c *Canvas) insertParent() tree.NodeID {
	h := c.highlighted
	if c.tree.Kind(h).IsContainer() {
		return h
	}
	return c.tree.Parent(h)
}

// AddCut inserts an empty Cut at the pointer inside the highlighted node.
// The new node becomes the highlight. A crowded spot fails with an error
// matching tree.ErrCollision and creates nothing.
func (c *Canvas) AddCut() (tree.NodeID, error) {
	return c.add("add-cut", func(parent tree.NodeID) (tree.NodeID, error) {
		return c.tree.AddCut(parent, c.pointer)
	})
}

// AddStatement inserts a Statement labeled label at the pointer.
func (c *Canvas) AddStatement(label rune) (tree.NodeID, error) {
	return c.add("add-statement", func(parent tree.NodeID) (tree.NodeID, error) {
		return c.tree.AddStatement(parent, c.pointer, label)
	})
}

// AddPlaceholder inserts an unlabeled leaf at the pointer.
func (c *Canvas) AddPlaceholder() (tree.NodeID, error) {
	return c.add("add-placeholder", func(parent tree.NodeID) (tree.NodeID, error) {
		return c.tree.AddPlaceholder(parent, c.pointer)
	})
}

func (c *Canvas) add(op string, fn func(tree.NodeID) (tree.NodeID, error)) (tree.NodeID, error) {
	c.EndDrag()
	start := time.Now()
	id, err := fn(c.insertParent())
	if err != nil {
		return tree.None, c.finish(op, start, nil, err)
	}
	c.setHighlight(id)
	return id, c.finish(op, start, c.ancestry(id), nil)
}

// =============================================================================
// Structure
// =============================================================================

// Structural edits end any active drag gesture before they run.

// SurroundSelection wraps the selection in a new Cut placed at world point
// p. The new Cut becomes the selection and the highlight.
func (c *Canvas) SurroundSelection(p geom.Point) (tree.NodeID, error) {
	c.EndDrag()
	start := time.Now()
	cut, changed, err := c.tree.Surround(c.selection, p)
	if err != nil {
		return tree.None, c.finish("surround", start, nil, err)
	}
	c.ClearSelection()
	_ = c.Select(cut)
	c.setHighlight(cut)
	return cut, c.finish("surround", start, changed, nil)
}

// Dissolve removes the Cut id and promotes its children.
func (c *Canvas) Dissolve(id tree.NodeID) error {
	c.EndDrag()
	start := time.Now()
	var parent tree.NodeID
	if c.tree.Exists(id) {
		parent = c.tree.Parent(id)
	}
	changed, err := c.tree.Dissolve(id)
	if err != nil {
		return c.finish("dissolve", start, nil, err)
	}
	if c.highlighted == id {
		c.highlighted = tree.None
		c.setHighlight(parent)
	}
	c.prune()
	return c.finish("dissolve", start, append(changed, id), nil)
}

// DissolveHighlighted dissolves the highlighted Cut.
func (c *Canvas) DissolveHighlighted() error { return c.Dissolve(c.highlighted) }

// Delete removes id and its subtree.
func (c *Canvas) Delete(id tree.NodeID) error {
	return c.deleteAll("delete", []tree.NodeID{id})
}

// DeleteSelection removes every selected node and its subtree. Either all
// of them go or, if one removal is refused, none do.
func (c *Canvas) DeleteSelection() error {
	return c.deleteAll("delete-selection", c.Selection())
}

func (c *Canvas) deleteAll(op string, ids []tree.NodeID) error {
	c.EndDrag()
	start := time.Now()
	if len(ids) == 0 {
		return c.finish(op, start, nil, tree.ErrNoNodes)
	}
	var parent tree.NodeID = tree.RootID
	if c.tree.Exists(ids[0]) && ids[0] != tree.RootID {
		parent = c.tree.Parent(ids[0])
	}

	backup := c.tree.Clone()
	var changed []tree.NodeID
	for _, id := range ids {
		ch, err := c.tree.Delete(id)
		if err != nil {
			backup.SetTracing(c.bounds)
			c.tree = backup
			return c.finish(op, start, nil, err)
		}
		changed = append(changed, ch...)
	}
	if !c.tree.Exists(c.highlighted) {
		c.highlighted = tree.None
		c.setHighlight(parent)
	}
	c.prune()
	changed = slices.DeleteFunc(changed, func(id tree.NodeID) bool { return !c.tree.Exists(id) })
	return c.finish(op, start, append(changed, ids...), nil)
}

// MoveSelection translates the selection by a grid-aligned delta.
func (c *Canvas) MoveSelection(delta geom.Point) error {
	c.EndDrag()
	start := time.Now()
	changed, err := c.tree.Move(c.selection, delta)
	return c.finish("move", start, changed, err)
}
