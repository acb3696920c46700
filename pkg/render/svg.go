package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style   Style
	probes  []tree.Probe
	margin  float64
	flags   bool
	bounded bool
	view    geom.Rect
}

// WithStyle sets the drawing style. The default is Simple.
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithProbes overlays the boxes recorded by the last layout search.
func WithProbes(p []tree.Probe) SVGOption { return func(r *svgRenderer) { r.probes = p } }

// WithMargin grows the viewBox by m on every side.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// WithoutFlags drops highlight, selection and ghost styling.
func WithoutFlags() SVGOption { return func(r *svgRenderer) { r.flags = false } }

// WithViewport fixes the viewBox instead of fitting the tree.
func WithViewport(v geom.Rect) SVGOption {
	return func(r *svgRenderer) { r.view, r.bounded = v, true }
}

// RenderSVG draws every node of t, parents before children, followed by
// any probes.
func RenderSVG(t *tree.Tree, opts ...SVGOption) []byte {
	r := svgRenderer{style: Simple{}, flags: true}
	for _, opt := range opts {
		opt(&r)
	}
	view := t.Bounds()
	if r.bounded {
		view = r.view
	}
	view = view.Pad(r.margin)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%g %g %g %g" width="%g" height="%g">`+"\n",
		view.Left, view.Top, view.Width(), view.Height(), view.Width(), view.Height())
	r.style.RenderDefs(&buf)
	for _, s := range Shapes(t) {
		if !r.flags {
			s.Flags = 0
		}
		r.style.RenderShape(&buf, s)
	}
	for _, p := range r.probes {
		r.style.RenderProbe(&buf, p)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// Shapes lists the non-root nodes of t in pre-order with their world boxes.
func Shapes(t *tree.Tree) []Shape {
	shapes := make([]Shape, 0, t.Len()-1)
	var visit func(id tree.NodeID, origin geom.Point, cuts int)
	visit = func(id tree.NodeID, origin geom.Point, cuts int) {
		for _, k := range t.Children(id) {
			o := origin.Add(t.Position(k))
			s := Shape{
				ID:    k,
				Kind:  t.Kind(k),
				Box:   t.DrawBox(k).Translate(o),
				Cuts:  cuts,
				Flags: t.Flags(k),
			}
			if s.Kind == tree.Cut {
				s.Cuts++
			}
			if s.Kind == tree.Statement {
				s.Label = string(t.Label(k))
			}
			shapes = append(shapes, s)
			visit(k, o, s.Cuts)
		}
	}
	visit(tree.RootID, t.Position(tree.RootID), 0)
	return shapes
}
