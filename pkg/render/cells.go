package render

import (
	"math"
	"strings"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// Box-drawing runes used for cuts.
const (
	cornerTL    = '╭'
	cornerTR    = '╮'
	cornerBL    = '╰'
	cornerBR    = '╯'
	edgeH       = '─'
	edgeV       = '│'
	placeholder = '□'
)

// CellSize returns the world size of one terminal cell for grid g.
func CellSize(g config.Grid) (w, h float64) {
	return g.Spacing / 2, g.Spacing
}

// Raster is a tree drawn onto terminal cells.
type Raster struct {
	Viewport geom.Rect
	Runes    [][]rune
	Owner    [][]tree.NodeID // deepest node covering each cell, or the Root
	cw, ch   float64
}

// Cells draws the part of t inside viewport, a world rectangle, and
// returns one rune slice per row.
func Cells(t *tree.Tree, viewport geom.Rect) [][]rune {
	return Rasterize(t, viewport).Runes
}

// Text draws the whole tree and returns the rows joined by newlines, with
// trailing blanks removed.
func Text(t *tree.Tree) string {
	var b strings.Builder
	for _, row := range Cells(t, t.Bounds()) {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Rasterize draws t into a Raster covering viewport.
func Rasterize(t *tree.Tree, viewport geom.Rect) Raster {
	cw, ch := CellSize(t.Grid())
	cols := int(math.Ceil(viewport.Width() / cw))
	rows := int(math.Ceil(viewport.Height() / ch))
	r := Raster{
		Viewport: viewport,
		Runes:    make([][]rune, max(rows, 0)),
		Owner:    make([][]tree.NodeID, max(rows, 0)),
		cw:       cw,
		ch:       ch,
	}
	for y := range r.Runes {
		r.Runes[y] = []rune(strings.Repeat(" ", max(cols, 0)))
		r.Owner[y] = make([]tree.NodeID, max(cols, 0))
	}

	for _, s := range Shapes(t) {
		c0, r0, c1, r1 := r.span(s.Box)
		r.own(s.ID, c0, r0, c1, r1)
		switch s.Kind {
		case tree.Cut:
			r.frame(c0, r0, c1, r1)
		case tree.Statement:
			r.center(s.Box, []rune(s.Label)[0])
		case tree.Placeholder:
			r.center(s.Box, placeholder)
		}
	}
	return r
}

// At returns the cell covering world point p.
func (r Raster) At(p geom.Point) (col, row int) {
	return int(math.Floor((p.X - r.Viewport.Left) / r.cw)), int(math.Floor((p.Y - r.Viewport.Top) / r.ch))
}

// World returns the world point at the top-left corner of a cell.
func (r Raster) World(col, row int) geom.Point {
	return geom.Pt(r.Viewport.Left+float64(col)*r.cw, r.Viewport.Top+float64(row)*r.ch)
}

// span returns the inclusive cell range covered by a world box.
func (r Raster) span(b geom.Rect) (c0, r0, c1, r1 int) {
	c0, r0 = r.At(b.Min())
	c1 = int(math.Ceil((b.Right-r.Viewport.Left)/r.cw)) - 1
	r1 = int(math.Ceil((b.Bottom-r.Viewport.Top)/r.ch)) - 1
	return c0, r0, c1, r1
}

func (r Raster) set(col, row int, ch rune) {
	if row >= 0 && row < len(r.Runes) && col >= 0 && col < len(r.Runes[row]) {
		r.Runes[row][col] = ch
	}
}

func (r Raster) own(id tree.NodeID, c0, r0, c1, r1 int) {
	for y := max(r0, 0); y <= r1 && y < len(r.Owner); y++ {
		for x := max(c0, 0); x <= c1 && x < len(r.Owner[y]); x++ {
			r.Owner[y][x] = id
		}
	}
}

func (r Raster) frame(c0, r0, c1, r1 int) {
	for x := c0 + 1; x < c1; x++ {
		r.set(x, r0, edgeH)
		r.set(x, r1, edgeH)
	}
	for y := r0 + 1; y < r1; y++ {
		r.set(c0, y, edgeV)
		r.set(c1, y, edgeV)
	}
	r.set(c0, r0, cornerTL)
	r.set(c1, r0, cornerTR)
	r.set(c0, r1, cornerBL)
	r.set(c1, r1, cornerBR)
}

func (r Raster) center(b geom.Rect, ch rune) {
	col, row := r.At(b.Center())
	r.set(col, row, ch)
}
