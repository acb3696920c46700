package canvas

import (
	"fmt"
	"slices"

	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/observability"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// Selection returns the selected nodes in selection order.
func (c *Canvas) Selection() []tree.NodeID { return slices.Clone(c.selection) }

// IsSelected reports whether id is selected.
func (c *Canvas) IsSelected(id tree.NodeID) bool { return slices.Contains(c.selection, id) }

// Select adds id to the selection. If the selection holds nodes with a
// different parent it is cleared first. Selecting the Root does nothing.
func (c *Canvas) Select(id tree.NodeID) error {
	if !c.tree.Exists(id) {
		return fmt.Errorf("%w: %d", tree.ErrNotFound, id)
	}
	if id == tree.RootID || c.IsSelected(id) {
		return nil
	}
	if len(c.selection) > 0 && c.tree.Parent(c.selection[0]) != c.tree.Parent(id) {
		c.ClearSelection()
	}
	c.tree.SetFlag(id, tree.Selected, true)
	c.selection = append(c.selection, id)
	observability.Edit().OnSelection(len(c.selection))
	c.notify([]tree.NodeID{id})
	return nil
}

// Deselect removes id from the selection.
func (c *Canvas) Deselect(id tree.NodeID) {
	i := slices.Index(c.selection, id)
	if i < 0 {
		return
	}
	c.selection = slices.Delete(c.selection, i, i+1)
	if c.tree.Exists(id) {
		c.tree.SetFlag(id, tree.Selected, false)
	}
	observability.Edit().OnSelection(len(c.selection))
	c.notify([]tree.NodeID{id})
}

// Toggle selects id if it is not selected and deselects it otherwise.
func (c *Canvas) Toggle(id tree.NodeID) error {
	if c.IsSelected(id) {
		c.Deselect(id)
		return nil
	}
	return c.Select(id)
}

// ClearSelection deselects everything.
func (c *Canvas) ClearSelection() {
	if len(c.selection) == 0 {
		return
	}
	old := c.selection
	c.selection = nil
	for _, id := range old {
		if c.tree.Exists(id) {
			c.tree.SetFlag(id, tree.Selected, false)
		}
	}
	observability.Edit().OnSelection(0)
	c.notify(old)
}

// SelectionIncluding returns the selection if id is part of it. Otherwise
// the selection is replaced by id alone.
func (c *Canvas) SelectionIncluding(id tree.NodeID) ([]tree.NodeID, error) {
	if c.IsSelected(id) {
		return c.Selection(), nil
	}
	if !c.tree.Exists(id) {
		return nil, fmt.Errorf("%w: %d", tree.ErrNotFound, id)
	}
	c.ClearSelection()
	if err := c.Select(id); err != nil {
		return nil, err
	}
	return c.Selection(), nil
}

// SelectChildren replaces the selection with the children of id.
func (c *Canvas) SelectChildren(id tree.NodeID) error {
	if !c.tree.Exists(id) {
		return fmt.Errorf("%w: %d", tree.ErrNotFound, id)
	}
	c.ClearSelection()
	for _, k := range c.tree.Children(id) {
		if err := c.Select(k); err != nil {
			return err
		}
	}
	return nil
}

// BoxSelect replaces the selection with the nodes whose world draw box
// lies inside r. Nodes that only overlap r are searched for contained
// descendants; disjoint subtrees are skipped. Because selection keeps a
// single parent, a later match under another parent replaces earlier ones.
func (c *Canvas) BoxSelect(r geom.Rect) []tree.NodeID {
	c.ClearSelection()
	c.boxSelect(tree.RootID, r)
	c.logger.Debug("box select", "rect", r, "selected", len(c.selection))
	return c.Selection()
}

func (c *Canvas) boxSelect(id tree.NodeID, r geom.Rect) {
	for _, k := range c.tree.Children(id) {
		box := c.tree.WorldDrawBox(k)
		switch {
		case r.ContainsRect(box):
			_ = c.Select(k)
		case geom.Overlaps(r, box):
			c.boxSelect(k, r)
		}
	}
}
