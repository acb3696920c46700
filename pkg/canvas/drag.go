package canvas

import (
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// gesture is an in-progress drag of the selection.
type gesture struct {
	primary tree.NodeID // node under the pointer at press
	grab    geom.Point  // pointer minus the primary's world origin at press
	preDrag geom.Point  // primary's local position at press
	ghost   bool
	moved   bool
}

// Dragging reports whether a drag gesture is active.
func (c *Canvas) Dragging() bool { return c.gesture != nil }

// Ghosting reports whether the active gesture is a ghost drag.
func (c *Canvas) Ghosting() bool { return c.gesture != nil && c.gesture.ghost }

// GhostOrigin returns where the primary node's top-left would land if the
// ghost were dropped at the current pointer. ok is false without a ghost.
func (c *Canvas) GhostOrigin() (p geom.Point, ok bool) {
	if !c.Ghosting() {
		return geom.Point{}, false
	}
	return c.pointer.Sub(c.gesture.grab), true
}

// BeginDrag starts a live drag of the selection including id, grabbed at
// world point p.
func (c *Canvas) BeginDrag(id tree.NodeID, p geom.Point) error {
	return c.begin(id, p, false)
}

// BeginGhost starts a ghost drag of the selection including id. Nothing
// moves until GhostDrop.
func (c *Canvas) BeginGhost(id tree.NodeID, p geom.Point) error {
	return c.begin(id, p, true)
}

func (c *Canvas) begin(id tree.NodeID, p geom.Point, ghost bool) error {
	if !c.tree.Exists(id) {
		return fmt.Errorf("%w: %d", tree.ErrNotFound, id)
	}
	if id == tree.RootID {
		return tree.ErrRootOperation
	}
	if c.gesture != nil {
		c.EndDrag()
	}
	ids, err := c.SelectionIncluding(id)
	if err != nil {
		return err
	}
	c.pointer = p
	c.gesture = &gesture{
		primary: id,
		grab:    p.Sub(c.tree.WorldOrigin(id)),
		preDrag: c.tree.Position(id),
		ghost:   ghost,
	}
	flag := tree.Pressed
	if ghost {
		flag |= tree.Ghosting
	}
	for _, s := range ids {
		c.tree.SetFlag(s, flag, true)
	}
	c.logger.Debug("drag start", "primary", id, "nodes", len(ids), "ghost", ghost)
	c.notify(ids)
	return nil
}

// DragTo moves the dragged nodes so the grabbed point follows p as closely
// as the layout allows. A refused step leaves every node where it was and
// returns an error matching tree.ErrCollision; the drag stays active.
// During a ghost drag only the pointer is updated. The whole gesture
// becomes a single undo state when it ends.
func (c *Canvas) DragTo(p geom.Point) error {
	g := c.live()
	if g == nil {
		return ErrNoGesture
	}
	c.pointer = p
	if g.ghost {
		return nil
	}
	start := time.Now()
	base := c.tree.WorldOrigin(c.tree.Parent(g.primary))
	target := p.Sub(g.grab).Sub(base)
	_, changed, err := c.tree.Drag(c.selection, g.primary, g.preDrag, target)
	if err != nil {
		c.logEdit("drag", start, nil, err)
		return err
	}
	if len(changed) == 0 {
		return nil
	}
	g.moved = true
	c.logEdit("drag", start, changed, nil)
	c.notify(changed)
	return nil
}

// EndDrag finishes a live drag, or cancels a ghost drag without moving
// anything.
func (c *Canvas) EndDrag() {
	g := c.gesture
	if g == nil {
		return
	}
	c.gesture = nil
	var ids []tree.NodeID
	c.tree.Walk(tree.RootID, func(id tree.NodeID) bool {
		if c.tree.Flags(id)&(tree.Pressed|tree.Ghosting) != 0 {
			ids = append(ids, id)
		}
		return true
	})
	c.tree.ClearFlags(tree.Pressed | tree.Ghosting)
	c.notify(ids)
	if g.moved {
		c.checkpoint()
	}
	c.logger.Debug("drag end", "moved", g.moved)
}

// live returns the active gesture, dropping it first if its primary node
// no longer exists.
func (c *Canvas) live() *gesture {
	g := c.gesture
	if g != nil && !c.tree.Exists(g.primary) {
		c.EndDrag()
		return nil
	}
	return g
}

// GhostDrop ends a ghost drag at world point p. The dragged nodes are
// moved under the deepest Cut beneath p that is not one of them, with the
// primary's top-left at the grid point nearest the drop, or the nearest
// free neighbour of it. If no candidate fits nothing changes and the error
// matches tree.ErrCollision.
func (c *Canvas) GhostDrop(p geom.Point) error {
	g := c.live()
	if g == nil || !g.ghost {
		return ErrNoGesture
	}
	defer c.EndDrag()
	c.pointer = p

	start := time.Now()
	ids := c.Selection()
	target := c.tree.DetermineNewParentExcluding(p, c.IsSelected)
	current := c.tree.WorldOrigin(g.primary)
	preDrag := c.tree.WorldOrigin(c.tree.Parent(g.primary)).Add(g.preDrag)

	shifts := tree.Bloom(current, preDrag, p.Sub(g.grab), c.tree.Grid().Spacing)
	if len(shifts) == 0 {
		shifts = []geom.Point{{}}
	}
	var err error
	for _, d := range shifts {
		var changed []tree.NodeID
		changed, err = c.tree.AdoptAt(target, d, ids...)
		if err == nil {
			c.logger.Debug("ghost drop", "target", target, "shift", d)
			if len(changed) > 0 {
				changed = append(changed, ids...)
			}
			return c.finish("ghost-drop", start, changed, nil)
		}
		if !errors.Is(err, tree.ErrCollision) {
			break
		}
	}
	return c.finish("ghost-drop", start, nil, err)
}
