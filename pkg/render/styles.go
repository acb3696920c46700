package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// Style controls how shapes and probes are drawn.
type Style interface {
	// RenderDefs writes SVG <defs> and <style> content.
	RenderDefs(buf *bytes.Buffer)
	// RenderShape writes one node.
	RenderShape(buf *bytes.Buffer, s Shape)
	// RenderProbe writes one debug probe box.
	RenderProbe(buf *bytes.Buffer, p tree.Probe)
}

// Shape is a node prepared for drawing.
type Shape struct {
	ID    tree.NodeID
	Kind  tree.Kind
	Label string
	Box   geom.Rect // world draw box
	Cuts  int       // number of cuts enclosing the node, itself included
	Flags tree.Flags
}

// Simple is the default style: shaded cuts and coloured selection state.
type Simple struct{}

const simpleCSS = `
    .cut { stroke: #222; stroke-width: 2; }
    .cut.even { fill: #ffffff; }
    .cut.odd { fill: #e6e6e6; }
    .statement { fill: none; stroke: none; }
    .placeholder { fill: none; stroke: #888; stroke-dasharray: 4 3; }
    .highlighted { stroke: #1f6feb; stroke-width: 3; }
    .selected { stroke: #d29922; stroke-width: 3; }
    .ghosting { opacity: 0.4; }
    .label { font-family: serif; font-style: italic; text-anchor: middle; dominant-baseline: central; }
    .probe { fill: none; stroke-width: 1; stroke-dasharray: 2 2; }
    .probe.candidate { stroke: #1f6feb; }
    .probe.blocked { stroke: #cf222e; }
    .probe.clear { stroke: #000000; }`

func (Simple) RenderDefs(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", simpleCSS)
}

func (Simple) RenderShape(buf *bytes.Buffer, s Shape) {
	classes := s.Kind.String()
	if s.Kind == tree.Cut {
		classes += parity(s.Cuts)
	}
	for _, f := range []struct {
		flag tree.Flags
		name string
	}{
		{tree.Highlighted, " highlighted"},
		{tree.Selected, " selected"},
		{tree.Ghosting, " ghosting"},
	} {
		if s.Flags&f.flag != 0 {
			classes += f.name
		}
	}
	writeRect(buf, s, classes)
	writeLabel(buf, s)
}

func (Simple) RenderProbe(buf *bytes.Buffer, p tree.Probe) {
	fmt.Fprintf(buf, `  <rect class="probe %s" x="%g" y="%g" width="%g" height="%g"/>`+"\n",
		p.Kind, p.Box.Left, p.Box.Top, p.Box.Width(), p.Box.Height())
}

// Mono draws black outlines on white, with no selection state. It suits
// printing and documents.
type Mono struct{}

func (Mono) RenderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <style>\n" +
		"    .cut { fill: none; stroke: #000; stroke-width: 1.5; }\n" +
		"    .statement { fill: none; stroke: none; }\n" +
		"    .placeholder { fill: none; stroke: #000; stroke-dasharray: 4 3; }\n" +
		"    .label { font-family: serif; text-anchor: middle; dominant-baseline: central; }\n" +
		"  </style>\n")
}

func (Mono) RenderShape(buf *bytes.Buffer, s Shape) {
	writeRect(buf, s, s.Kind.String())
	writeLabel(buf, s)
}

func (Mono) RenderProbe(*bytes.Buffer, tree.Probe) {}

func parity(n int) string {
	if n%2 == 1 {
		return " odd"
	}
	return " even"
}

func writeRect(buf *bytes.Buffer, s Shape, classes string) {
	rx := 0.0
	if s.Kind == tree.Cut {
		rx = cornerRadius(s.Box)
	}
	fmt.Fprintf(buf, `  <rect id="node-%d" class="%s" x="%g" y="%g" width="%g" height="%g" rx="%g"/>`+"\n",
		s.ID, classes, s.Box.Left, s.Box.Top, s.Box.Width(), s.Box.Height(), rx)
}

func writeLabel(buf *bytes.Buffer, s Shape) {
	if s.Label == "" {
		return
	}
	c := s.Box.Center()
	fmt.Fprintf(buf, `  <text class="label" x="%g" y="%g" font-size="%g">%s</text>`+"\n",
		c.X, c.Y, s.Box.Height()*0.7, escapeXML(s.Label))
}

func cornerRadius(r geom.Rect) float64 {
	return min(r.Width(), r.Height()) / 4
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
