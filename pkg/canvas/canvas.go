package canvas

import (
	"errors"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/observability"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// ErrNoGesture is returned by gesture operations when no drag is active.
var ErrNoGesture = errors.New("no drag in progress")

// Listener is told which nodes need repainting after a change. The ids
// may include nodes that the change removed.
type Listener interface {
	Repaint(ids []tree.NodeID)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ids []tree.NodeID)

func (f ListenerFunc) Repaint(ids []tree.NodeID) { f(ids) }

// Option configures a Canvas.
type Option func(*Canvas)

// WithLogger sets the logger used for debug output of edits.
func WithLogger(l *log.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithListener registers the repaint listener.
func WithListener(l Listener) Option {
	return func(c *Canvas) { c.listener = l }
}

// WithHistory sets how many states undo can go back through. Zero or a
// negative capacity disables undo.
func WithHistory(capacity int) Option {
	return func(c *Canvas) {
		if capacity <= 0 {
			c.history = nil
			return
		}
		c.history = NewHistory(capacity)
	}
}

// WithTree starts the canvas from an existing tree instead of an empty one.
func WithTree(t *tree.Tree) Option {
	return func(c *Canvas) {
		if t != nil {
			c.tree = t
		}
	}
}

// Canvas is the editing controller for one tree.
type Canvas struct {
	tree     *tree.Tree
	logger   *log.Logger
	listener Listener
	history  *History

	selection   []tree.NodeID
	highlighted tree.NodeID
	pointer     geom.Point
	gesture     *gesture
	bounds      bool
}

// New returns a canvas over an empty tree with the given grid. Undo keeps
// config.Default().History.Capacity states unless WithHistory says otherwise.
func New(grid config.Grid, opts ...Option) *Canvas {
	c := &Canvas{
		tree:        tree.New(grid),
		logger:      log.New(io.Discard),
		history:     NewHistory(config.Default().History.Capacity),
		highlighted: tree.RootID,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tree.SetFlag(tree.RootID, tree.Highlighted, true)
	c.checkpoint()
	return c
}

// Tree returns the edited tree. Callers must treat it as read-only; edits
// made through it bypass history and notifications.
func (c *Canvas) Tree() *tree.Tree { return c.tree }

// Pointer returns the last pointer position in world coordinates.
func (c *Canvas) Pointer() geom.Point { return c.pointer }

// Highlighted returns the highlighted node, the target of insertions.
func (c *Canvas) Highlighted() tree.NodeID { return c.highlighted }

// ShowBounds reports whether the debug bounds overlay is on.
func (c *Canvas) ShowBounds() bool { return c.bounds }

// ToggleBounds switches the debug bounds overlay and returns the new state.
// While it is on, every search records the boxes it examined; see Probes.
func (c *Canvas) ToggleBounds() bool {
	c.bounds = !c.bounds
	c.tree.SetTracing(c.bounds)
	c.logger.Debug("bounds overlay", "on", c.bounds)
	c.repaintAll()
	return c.bounds
}

// Probes returns the boxes examined by the last search while the bounds
// overlay is on, and nil otherwise.
func (c *Canvas) Probes() []tree.Probe {
	if !c.bounds {
		return nil
	}
	return c.tree.Probes()
}

// =============================================================================
// Bookkeeping
// =============================================================================

func (c *Canvas) notify(ids []tree.NodeID) {
	if c.listener == nil || len(ids) == 0 {
		return
	}
	out := make([]tree.NodeID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	c.listener.Repaint(out)
}

func (c *Canvas) repaintAll() {
	var ids []tree.NodeID
	c.tree.Walk(tree.RootID, func(id tree.NodeID) bool {
		ids = append(ids, id)
		return true
	})
	c.notify(ids)
}

// finish reports an edit to the hooks and the log. A successful edit that
// changed something is repainted and recorded as a history state.
func (c *Canvas) finish(op string, start time.Time, changed []tree.NodeID, err error) error {
	c.logEdit(op, start, changed, err)
	if err != nil || len(changed) == 0 {
		return err
	}
	c.notify(changed)
	c.checkpoint()
	return nil
}

func (c *Canvas) logEdit(op string, start time.Time, changed []tree.NodeID, err error) {
	observability.Edit().OnEdit(op, len(changed), time.Since(start), Classify(err))
	if err != nil {
		c.logger.Debug("edit refused", "op", op, "err", err)
		return
	}
	c.logger.Debug("edit", "op", op, "changed", len(changed))
}

// ancestry returns id followed by its ancestors up to and including Root.
func (c *Canvas) ancestry(id tree.NodeID) []tree.NodeID {
	var ids []tree.NodeID
	for ; id != tree.None; id = c.tree.Parent(id) {
		ids = append(ids, id)
	}
	return ids
}

// prune drops selected and highlighted ids that no longer exist.
func (c *Canvas) prune() {
	c.selection = slices.DeleteFunc(c.selection, func(id tree.NodeID) bool {
		return !c.tree.Exists(id)
	})
	if !c.tree.Exists(c.highlighted) {
		c.highlighted = tree.RootID
		c.tree.SetFlag(tree.RootID, tree.Highlighted, true)
	}
}

// =============================================================================
// History
// =============================================================================

func (c *Canvas) checkpoint() {
	if c.history == nil {
		return
	}
	data, err := document.Marshal(document.Export(c.tree))
	if err != nil {
		c.logger.Error("snapshot failed", "err", err)
		return
	}
	c.history.Save(data)
}

// CanUndo reports whether Undo has a state to return to.
func (c *Canvas) CanUndo() bool { return c.history != nil && c.history.CanUndo() }

// CanRedo reports whether Redo has a state to return to.
func (c *Canvas) CanRedo() bool { return c.history != nil && c.history.CanRedo() }

// Undo restores the state before the last committed change. It reports
// false when there is nothing to undo. Selection, highlight and any active
// gesture are reset.
func (c *Canvas) Undo() (bool, error) {
	if !c.CanUndo() {
		return false, nil
	}
	return true, c.restore("undo", c.history.Undo())
}

// Redo reapplies the change most recently undone.
func (c *Canvas) Redo() (bool, error) {
	if !c.CanRedo() {
		return false, nil
	}
	return true, c.restore("redo", c.history.Redo())
}

func (c *Canvas) restore(op string, data []byte) error {
	start := time.Now()
	d, err := document.Unmarshal(data)
	if err != nil {
		return err
	}
	t, err := document.Import(d)
	if err != nil {
		return err
	}
	t.SetTracing(c.bounds)
	c.tree = t
	c.selection = nil
	c.gesture = nil
	c.highlighted = tree.RootID
	t.SetFlag(tree.RootID, tree.Highlighted, true)

	observability.Edit().OnEdit(op, t.Len(), time.Since(start), nil)
	c.logger.Debug("history", "op", op, "nodes", t.Len())
	c.repaintAll()
	return nil
}
