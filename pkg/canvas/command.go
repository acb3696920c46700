package canvas

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	errs "github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// Op names a canvas command. The names double as the first word of the
// script form parsed by ParseCommand.
type Op string

const (
	OpPointer        Op = "pointer"     // pointer X Y
	OpAddCut         Op = "cut"         // cut [X Y]
	OpAddStatement   Op = "statement"   // statement LABEL [X Y]
	OpAddPlaceholder Op = "placeholder" // placeholder [X Y]
	OpPress          Op = "press"       // press X Y
	OpDrag           Op = "drag"        // drag X Y
	OpRelease        Op = "release"     // release
	OpGhost          Op = "ghost"       // ghost X Y
	OpDrop           Op = "drop"        // drop X Y
	OpMove           Op = "move"        // move DX DY
	OpSelect         Op = "select"      // select ID...
	OpDeselect       Op = "deselect"    // deselect ID...
	OpToggle         Op = "toggle"      // toggle ID...
	OpClear          Op = "clear"       // clear
	OpSelectChildren Op = "children"    // children [ID]
	OpBoxSelect      Op = "box"         // box X0 Y0 X1 Y1
	OpSurround       Op = "surround"    // surround [X Y]
	OpDissolve       Op = "dissolve"    // dissolve [ID]
	OpDelete         Op = "delete"      // delete [ID...]
	OpHighlight      Op = "highlight"   // highlight root|parent|child|left|right|ID
	OpUndo           Op = "undo"        // undo
	OpRedo           Op = "redo"        // redo
	OpBounds         Op = "bounds"      // bounds
)

// Highlight directions.
const (
	DirRoot   = "root"
	DirParent = "parent"
	DirChild  = "child"
	DirLeft   = "left"
	DirRight  = "right"
)

// Command is one editing request. Which fields are used depends on Op.
// Point is a world position, or a displacement for OpMove.
type Command struct {
	Op    Op            `json:"op"`
	Label string        `json:"label,omitempty"`
	Point *geom.Point   `json:"point,omitempty"`
	Rect  *geom.Rect    `json:"rect,omitempty"`
	IDs   []tree.NodeID `json:"ids,omitempty"`
	Dir   string        `json:"dir,omitempty"`
}

// Result describes the outcome of Execute.
type Result struct {
	Op        Op            `json:"op"`
	Node      tree.NodeID   `json:"node"` // node created by the command, or -1
	Selection []tree.NodeID `json:"selection"`
	Changed   bool          `json:"changed"` // for undo and redo: whether a state was restored
}

// Execute runs cmd against the canvas. The selection after the command is
// always reported, even when the command fails.
func (c *Canvas) Execute(cmd Command) (Result, error) {
	res := Result{Op: cmd.Op, Node: tree.None}
	err := c.execute(cmd, &res)
	res.Selection = c.Selection()
	if res.Selection == nil {
		res.Selection = []tree.NodeID{}
	}
	return res, err
}

func (c *Canvas) execute(cmd Command, res *Result) error {
	point := func() (geom.Point, error) {
		if cmd.Point == nil {
			return geom.Point{}, errs.New(errs.ErrCodeInvalidInput, "%s needs a point", cmd.Op)
		}
		return *cmd.Point, nil
	}
	target := func() tree.NodeID {
		if len(cmd.IDs) > 0 {
			return cmd.IDs[0]
		}
		return c.highlighted
	}

	switch cmd.Op {
	case OpPointer, OpDrag, OpDrop, OpMove, OpPress, OpGhost:
		p, err := point()
		if err != nil {
			return err
		}
		switch cmd.Op {
		case OpPointer:
			return c.PointerMoved(p)
		case OpDrag:
			return c.DragTo(p)
		case OpDrop:
			return c.GhostDrop(p)
		case OpMove:
			return c.MoveSelection(p)
		}
		id := c.tree.NodeAt(p)
		if len(cmd.IDs) > 0 {
			id = cmd.IDs[0]
		}
		if cmd.Op == OpGhost {
			return c.BeginGhost(id, p)
		}
		return c.BeginDrag(id, p)

	case OpRelease:
		c.EndDrag()

	case OpAddCut, OpAddStatement, OpAddPlaceholder:
		if cmd.Point != nil {
			if err := c.PointerMoved(*cmd.Point); err != nil {
				return err
			}
		}
		var err error
		switch cmd.Op {
		case OpAddCut:
			res.Node, err = c.AddCut()
		case OpAddPlaceholder:
			res.Node, err = c.AddPlaceholder()
		default:
			label, lerr := errs.ValidateLabel(cmd.Label)
			if lerr != nil {
				return lerr
			}
			res.Node, err = c.AddStatement(label)
		}
		return err

	case OpSelect, OpDeselect, OpToggle:
		if len(cmd.IDs) == 0 {
			return errs.New(errs.ErrCodeInvalidInput, "%s needs at least one node id", cmd.Op)
		}
		for _, id := range cmd.IDs {
			var err error
			switch cmd.Op {
			case OpSelect:
				err = c.Select(id)
			case OpToggle:
				err = c.Toggle(id)
			default:
				c.Deselect(id)
			}
			if err != nil {
				return err
			}
		}

	case OpClear:
		c.ClearSelection()

	case OpSelectChildren:
		return c.SelectChildren(target())

	case OpBoxSelect:
		if cmd.Rect == nil {
			return errs.New(errs.ErrCodeInvalidInput, "box needs a rectangle")
		}
		c.BoxSelect(*cmd.Rect)

	case OpSurround:
		if err := c.selectOnly(cmd.IDs); err != nil {
			return err
		}
		p := c.pointer
		if cmd.Point != nil {
			p = *cmd.Point
		}
		var err error
		res.Node, err = c.SurroundSelection(p)
		return err

	case OpDissolve:
		return c.Dissolve(target())

	case OpDelete:
		if err := c.selectOnly(cmd.IDs); err != nil {
			return err
		}
		return c.DeleteSelection()

	case OpHighlight:
		return c.highlight(cmd)

	case OpUndo, OpRedo:
		var err error
		if cmd.Op == OpUndo {
			res.Changed, err = c.Undo()
		} else {
			res.Changed, err = c.Redo()
		}
		return err

	case OpBounds:
		c.ToggleBounds()

	default:
		return errs.New(errs.ErrCodeInvalidInput, "unknown command %q", cmd.Op)
	}
	return nil
}

// selectOnly replaces the selection with ids. An empty list keeps the
// current selection.
func (c *Canvas) selectOnly(ids []tree.NodeID) error {
	if len(ids) == 0 {
		return nil
	}
	c.ClearSelection()
	for _, id := range ids {
		if err := c.Select(id); err != nil {
			return err
		}
	}
	return nil
}

func (c *Canvas) highlight(cmd Command) error {
	if len(cmd.IDs) > 0 {
		return c.SetHighlight(cmd.IDs[0])
	}
	switch cmd.Dir {
	case DirRoot:
		c.HighlightRoot()
	case DirParent:
		c.HighlightParent()
	case DirChild:
		c.HighlightChild()
	case DirLeft:
		c.HighlightLeft()
	case DirRight:
		c.HighlightRight()
	default:
		return errs.New(errs.ErrCodeInvalidInput, "unknown highlight direction %q", cmd.Dir)
	}
	return nil
}

// =============================================================================
// Script form
// =============================================================================

// ParseCommand parses one line of the script form, for example
//
//	statement A 48 16
//	box 0 0 200 120
//	highlight parent
//
// Text after '#' is ignored. A blank line is an INVALID_INPUT error; use
// ParseScript to read whole scripts.
func ParseCommand(line string) (Command, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, errs.New(errs.ErrCodeInvalidInput, "empty command")
	}
	cmd := Command{Op: Op(strings.ToLower(f[0]))}
	args := f[1:]

	switch cmd.Op {
	case OpPointer, OpPress, OpGhost, OpDrag, OpDrop, OpMove:
		p, err := parsePoint(cmd.Op, args, true)
		if err != nil {
			return Command{}, err
		}
		cmd.Point = p

	case OpAddCut, OpAddPlaceholder, OpSurround:
		p, err := parsePoint(cmd.Op, args, false)
		if err != nil {
			return Command{}, err
		}
		cmd.Point = p

	case OpAddStatement:
		if len(args) == 0 {
			return Command{}, errs.New(errs.ErrCodeInvalidInput, "statement needs a label")
		}
		if _, err := errs.ValidateLabel(args[0]); err != nil {
			return Command{}, err
		}
		cmd.Label = args[0]
		p, err := parsePoint(cmd.Op, args[1:], false)
		if err != nil {
			return Command{}, err
		}
		cmd.Point = p

	case OpBoxSelect:
		v, err := parseNumbers(cmd.Op, args, 4)
		if err != nil {
			return Command{}, err
		}
		r := geom.R(v[0], v[1], v[2], v[3])
		cmd.Rect = &r

	case OpSelect, OpDeselect, OpToggle, OpDelete, OpSelectChildren, OpDissolve:
		ids, err := parseIDs(args)
		if err != nil {
			return Command{}, err
		}
		switch {
		case len(ids) == 0 && (cmd.Op == OpSelect || cmd.Op == OpDeselect || cmd.Op == OpToggle):
			return Command{}, errs.New(errs.ErrCodeInvalidInput, "%s needs at least one node id", cmd.Op)
		case len(ids) > 1 && (cmd.Op == OpSelectChildren || cmd.Op == OpDissolve):
			return Command{}, errs.New(errs.ErrCodeInvalidInput, "%s takes at most one node id", cmd.Op)
		}
		if len(ids) > 0 {
			cmd.IDs = ids
		}

	case OpHighlight:
		if len(args) != 1 {
			return Command{}, errs.New(errs.ErrCodeInvalidInput, "highlight takes one argument")
		}
		switch arg := strings.ToLower(args[0]); arg {
		case DirRoot, DirParent, DirChild, DirLeft, DirRight:
			cmd.Dir = arg
		default:
			ids, err := parseIDs(args)
			if err != nil {
				return Command{}, errs.New(errs.ErrCodeInvalidInput, "unknown highlight direction %q", args[0])
			}
			cmd.IDs = ids
		}

	case OpRelease, OpClear, OpUndo, OpRedo, OpBounds:
		if len(args) != 0 {
			return Command{}, errs.New(errs.ErrCodeInvalidInput, "%s takes no arguments", cmd.Op)
		}

	default:
		return Command{}, errs.New(errs.ErrCodeInvalidInput, "unknown command %q", f[0])
	}
	return cmd, nil
}

// ParseScript reads one command per line, skipping blank lines and
// comments. Errors name the offending line.
func ParseScript(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "line %d", n)
		}
		cmds = append(cmds, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return cmds, nil
}

// String formats the command in script form.
func (cmd Command) String() string {
	var b strings.Builder
	b.WriteString(string(cmd.Op))
	if cmd.Label != "" {
		b.WriteString(" " + cmd.Label)
	}
	if cmd.Dir != "" {
		b.WriteString(" " + cmd.Dir)
	}
	if cmd.Rect != nil {
		fmt.Fprintf(&b, " %g %g %g %g", cmd.Rect.Left, cmd.Rect.Top, cmd.Rect.Right, cmd.Rect.Bottom)
	}
	if cmd.Point != nil {
		fmt.Fprintf(&b, " %g %g", cmd.Point.X, cmd.Point.Y)
	}
	for _, id := range cmd.IDs {
		fmt.Fprintf(&b, " %d", id)
	}
	return b.String()
}

func parsePoint(op Op, args []string, required bool) (*geom.Point, error) {
	if len(args) == 0 && !required {
		return nil, nil
	}
	v, err := parseNumbers(op, args, 2)
	if err != nil {
		return nil, err
	}
	p := geom.Pt(v[0], v[1])
	return &p, nil
}

func parseNumbers(op Op, args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, errs.New(errs.ErrCodeInvalidInput, "%s takes %d numbers, got %d", op, n, len(args))
	}
	v := make([]float64, n)
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, errs.New(errs.ErrCodeInvalidInput, "%s: %q is not a number", op, a)
		}
		v[i] = f
	}
	return v, nil
}

func parseIDs(args []string) ([]tree.NodeID, error) {
	ids := make([]tree.NodeID, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			return nil, errs.New(errs.ErrCodeInvalidInput, "%q is not a node id", a)
		}
		ids = append(ids, tree.NodeID(n))
	}
	return ids, nil
}
