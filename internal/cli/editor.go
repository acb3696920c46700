package cli

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cutgraph/pkg/canvas"
	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/render"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// Editor styles
var (
	editorSelectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorHighlightStyle = lipgloss.NewStyle().Foreground(colorYellow)
	editorPressedStyle   = lipgloss.NewStyle().Foreground(colorDim)
	editorBandStyle      = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	editorStatusStyle    = lipgloss.NewStyle().Foreground(colorWhite).Background(lipgloss.Color("236"))
	editorHelpStyle      = lipgloss.NewStyle().Foreground(colorDim)

	editorProbeStyles = map[tree.ProbeKind]lipgloss.Style{
		tree.ProbeCandidate: lipgloss.NewStyle().Background(lipgloss.Color("24")),
		tree.ProbeBlocked:   lipgloss.NewStyle().Background(lipgloss.Color("52")),
		tree.ProbeClear:     lipgloss.NewStyle().Background(lipgloss.Color("235")),
	}
)

const (
	editorChromeRows = 2 // status bar and help line
	editorHelp       = "x cut  A-Z statement  4 placeholder  s surround  d dissolve  del delete  u/r undo/redo  arrows highlight  w save  q quit"
)

// savedMsg reports the end of an asynchronous save.
type savedMsg struct{ err error }

// editorModel is the bubbletea model of the terminal editor. Every input
// is turned into a canvas.Command, so the editor exercises exactly the
// operations scripts and the HTTP API do.
type editorModel struct {
	cv   *canvas.Canvas
	doc  document.Document
	name string
	save func(document.Document) error

	width, height int
	origin        geom.Point // world point at the top-left cell
	raster        render.Raster

	band      *geom.Point // box-select anchor while shift-dragging
	bandEnd   geom.Point
	bandMoved bool

	status      string
	err         error
	modified    bool
	confirmQuit bool
}

func newEditorModel(cv *canvas.Canvas, doc document.Document, name string, save func(document.Document) error) *editorModel {
	m := &editorModel{
		cv:     cv,
		doc:    doc,
		name:   name,
		save:   save,
		width:  80,
		height: 24,
	}
	m.fit()
	return m
}

func (m *editorModel) Init() tea.Cmd {
	return nil
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.redraw()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "save failed"
			return m, nil
		}
		m.modified = false
		m.err = nil
		m.status = "saved " + m.name
	}
	return m, nil
}

// =============================================================================
// Input
// =============================================================================

func (m *editorModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key != "q" && key != "esc" {
		m.confirmQuit = false
	}

	switch key {
	case "ctrl+c":
		return tea.Quit
	case "q", "esc":
		if m.modified && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "unsaved changes: q again to quit, w to save"
			return nil
		}
		return tea.Quit
	case "w", "ctrl+s":
		return m.saveCmd()

	case "x":
		m.exec(canvas.Command{Op: canvas.OpAddCut})
	case "4":
		m.exec(canvas.Command{Op: canvas.OpAddPlaceholder})
	case "s":
		m.exec(canvas.Command{Op: canvas.OpSurround})
	case "d":
		m.exec(canvas.Command{Op: canvas.OpDissolve})
	case "delete", "backspace":
		m.exec(canvas.Command{Op: canvas.OpDelete})
	case "u", "ctrl+z":
		m.exec(canvas.Command{Op: canvas.OpUndo})
	case "r", "ctrl+y":
		m.exec(canvas.Command{Op: canvas.OpRedo})
	case " ":
		if id := m.cv.Highlighted(); id != tree.RootID {
			m.exec(canvas.Command{Op: canvas.OpToggle, IDs: []tree.NodeID{id}})
		}

	case "ctrl+a":
		m.exec(canvas.Command{Op: canvas.OpSelectChildren})
	case "ctrl+b":
		m.exec(canvas.Command{Op: canvas.OpBounds})
	case "ctrl+d":
		m.exec(canvas.Command{Op: canvas.OpClear})

	case "up":
		m.exec(canvas.Command{Op: canvas.OpHighlight, Dir: canvas.DirParent})
	case "down":
		m.exec(canvas.Command{Op: canvas.OpHighlight, Dir: canvas.DirChild})
	case "left":
		m.exec(canvas.Command{Op: canvas.OpHighlight, Dir: canvas.DirLeft})
	case "right":
		m.exec(canvas.Command{Op: canvas.OpHighlight, Dir: canvas.DirRight})
	case "home":
		m.exec(canvas.Command{Op: canvas.OpHighlight, Dir: canvas.DirRoot})

	case "0":
		m.fit()
	case "pgup":
		m.scroll(0, -1)
	case "pgdown":
		m.scroll(0, 1)

	default:
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && unicode.IsUpper(msg.Runes[0]) {
			m.exec(canvas.Command{Op: canvas.OpAddStatement, Label: string(msg.Runes[0])})
		}
	}
	return nil
}

func (m *editorModel) handleMouse(msg tea.MouseMsg) {
	if msg.Action == tea.MouseActionPress && msg.Y >= m.canvasRows() {
		return
	}
	p := m.worldAt(max(msg.X, 0), min(max(msg.Y, 0), m.canvasRows()-1))

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll(0, -1)
		case tea.MouseButtonWheelDown:
			m.scroll(0, 1)
		case tea.MouseButtonWheelLeft:
			m.scroll(-1, 0)
		case tea.MouseButtonWheelRight:
			m.scroll(1, 0)
		case tea.MouseButtonLeft:
			if msg.Shift {
				m.band, m.bandEnd, m.bandMoved = &p, p, false
				m.redraw()
				return
			}
			m.press(p, false)
		case tea.MouseButtonRight:
			m.press(p, true)
		}

	case tea.MouseActionMotion:
		if m.band != nil {
			m.bandEnd = p
			if geom.Distance(*m.band, p) > m.cv.Tree().Grid().Spacing/2 {
				m.bandMoved = true
			}
			m.redraw()
			return
		}
		if m.cv.Dragging() && !m.cv.Ghosting() {
			m.exec(canvas.Command{Op: canvas.OpDrag, Point: &p})
			return
		}
		m.exec(canvas.Command{Op: canvas.OpPointer, Point: &p})

	case tea.MouseActionRelease:
		switch {
		case m.band != nil:
			m.finishBand()
		case m.cv.Ghosting():
			m.exec(canvas.Command{Op: canvas.OpDrop, Point: &p})
		case m.cv.Dragging():
			m.exec(canvas.Command{Op: canvas.OpRelease})
		}
	}
}

// press grabs the node under p. Pressing empty canvas clears the selection.
func (m *editorModel) press(p geom.Point, ghost bool) {
	m.exec(canvas.Command{Op: canvas.OpPointer, Point: &p})
	id := m.cv.Tree().NodeAt(p)
	if id == tree.RootID {
		m.exec(canvas.Command{Op: canvas.OpClear})
		return
	}
	op := canvas.OpPress
	if ghost {
		op = canvas.OpGhost
	}
	m.exec(canvas.Command{Op: op, Point: &p, IDs: []tree.NodeID{id}})
}

// finishBand ends a shift-drag. Without movement it is a shift-click that
// toggles the highlighted node.
func (m *editorModel) finishBand() {
	anchor := *m.band
	m.band = nil
	if !m.bandMoved {
		if id := m.cv.Highlighted(); id != tree.RootID {
			m.exec(canvas.Command{Op: canvas.OpToggle, IDs: []tree.NodeID{id}})
			return
		}
		m.redraw()
		return
	}
	r := geom.R(anchor.X, anchor.Y, m.bandEnd.X, m.bandEnd.Y)
	m.exec(canvas.Command{Op: canvas.OpBoxSelect, Rect: &r})
}

// exec runs cmd and updates the status line. Pointer traffic only reports
// failures.
func (m *editorModel) exec(cmd canvas.Command) {
	res, err := m.cv.Execute(cmd)
	err = canvas.Classify(err)
	if err == nil && mutates(cmd.Op, res) {
		m.modified = true
	}
	quiet := cmd.Op == canvas.OpPointer || cmd.Op == canvas.OpDrag
	switch {
	case err != nil:
		m.err = err
		m.status = ""
	case !quiet:
		m.err = nil
		m.status = describe(cmd, res)
	}
	m.redraw()
}

func mutates(op canvas.Op, res canvas.Result) bool {
	switch op {
	case canvas.OpAddCut, canvas.OpAddStatement, canvas.OpAddPlaceholder,
		canvas.OpDrag, canvas.OpDrop, canvas.OpMove,
		canvas.OpSurround, canvas.OpDissolve, canvas.OpDelete:
		return true
	case canvas.OpUndo, canvas.OpRedo:
		return res.Changed
	}
	return false
}

func describe(cmd canvas.Command, res canvas.Result) string {
	switch {
	case res.Node != tree.None:
		return fmt.Sprintf("%s → #%d", cmd.Op, res.Node)
	case (cmd.Op == canvas.OpUndo || cmd.Op == canvas.OpRedo) && !res.Changed:
		return "nothing to " + string(cmd.Op)
	}
	return string(cmd.Op)
}

func (m *editorModel) saveCmd() tea.Cmd {
	if m.save == nil {
		m.status = "read-only"
		return nil
	}
	d := withTree(m.doc, m.cv.Tree())
	save := m.save
	return func() tea.Msg {
		return savedMsg{err: save(d)}
	}
}

// =============================================================================
// Viewport
// =============================================================================

func (m *editorModel) canvasRows() int {
	return max(m.height-editorChromeRows, 1)
}

// worldAt returns the world point at the centre of a cell.
func (m *editorModel) worldAt(col, row int) geom.Point {
	cw, ch := render.CellSize(m.cv.Tree().Grid())
	return m.raster.World(col, row).Add(geom.Pt(cw/2, ch/2))
}

// fit scrolls so the drawing starts at the top-left cell.
func (m *editorModel) fit() {
	cw, ch := render.CellSize(m.cv.Tree().Grid())
	b := m.cv.Tree().Bounds()
	m.origin = geom.Pt(math.Floor(b.Left/cw)*cw, math.Floor(b.Top/ch)*ch)
	m.redraw()
}

func (m *editorModel) scroll(dcol, drow int) {
	cw, ch := render.CellSize(m.cv.Tree().Grid())
	m.origin = m.origin.Add(geom.Pt(float64(4*dcol)*cw, float64(2*drow)*ch))
	m.redraw()
}

func (m *editorModel) redraw() {
	cw, ch := render.CellSize(m.cv.Tree().Grid())
	cols, rows := max(m.width, 1), m.canvasRows()
	m.raster = render.Rasterize(m.cv.Tree(), geom.Sized(m.origin, float64(cols)*cw, float64(rows)*ch))
}

// =============================================================================
// View
// =============================================================================

func (m *editorModel) View() string {
	var b strings.Builder
	for row, runes := range m.raster.Runes {
		m.writeRow(&b, row, runes)
		b.WriteByte('\n')
	}
	b.WriteString(m.statusBar())
	b.WriteByte('\n')
	b.WriteString(editorHelpStyle.Render(truncate(editorHelp, m.width)))
	return b.String()
}

// writeRow renders one raster row, grouping runs of equally styled cells.
func (m *editorModel) writeRow(b *strings.Builder, row int, runes []rune) {
	start := 0
	cur, ok := m.cellStyle(0, row)
	for col := 1; col <= len(runes); col++ {
		var next lipgloss.Style
		var nextOK bool
		if col < len(runes) {
			next, nextOK = m.cellStyle(col, row)
			if nextOK == ok && (!ok || sameStyle(next, cur)) {
				continue
			}
		}
		run := string(runes[start:col])
		if ok {
			run = cur.Render(run)
		}
		b.WriteString(run)
		start, cur, ok = col, next, nextOK
	}
}

// cellStyle returns the style of a cell and whether it has one.
func (m *editorModel) cellStyle(col, row int) (lipgloss.Style, bool) {
	if row >= len(m.raster.Owner) || col >= len(m.raster.Owner[row]) {
		return lipgloss.Style{}, false
	}
	center := m.worldAt(col, row)

	if m.band != nil && geom.R(m.band.X, m.band.Y, m.bandEnd.X, m.bandEnd.Y).ContainsPoint(center) {
		return editorBandStyle, true
	}
	for _, p := range m.cv.Probes() {
		if p.Box.ContainsPoint(center) {
			return editorProbeStyles[p.Kind], true
		}
	}

	t := m.cv.Tree()
	id := m.raster.Owner[row][col]
	if id == tree.RootID || !t.Exists(id) {
		return lipgloss.Style{}, false
	}
	switch f := t.Flags(id); {
	case f&(tree.Pressed|tree.Ghosting) != 0:
		return editorPressedStyle, true
	case f&tree.Selected != 0:
		return editorSelectedStyle, true
	case f&tree.Highlighted != 0:
		return editorHighlightStyle, true
	}
	return lipgloss.Style{}, false
}

func sameStyle(a, b lipgloss.Style) bool {
	return a.GetForeground() == b.GetForeground() &&
		a.GetBackground() == b.GetBackground() &&
		a.GetBold() == b.GetBold()
}

func (m *editorModel) statusBar() string {
	t := m.cv.Tree()
	name := m.name
	if m.modified {
		name += " ●"
	}
	h := m.cv.Highlighted()
	info := fmt.Sprintf("%s  #%d %s  sel %d  %s", name, h, t.Kind(h), len(m.cv.Selection()), m.cv.Pointer())
	if m.cv.ShowBounds() {
		info += "  bounds"
	}

	msg := m.status
	if m.err != nil {
		msg = "! " + errors.UserMessage(m.err)
	}
	line := info
	if msg != "" {
		line += "  │ " + msg
	}
	return editorStatusStyle.Width(max(m.width, 1)).Render(truncate(line, m.width))
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width {
		r = r[:width]
	}
	return string(r)
}
