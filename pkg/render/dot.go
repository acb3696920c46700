package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cutgraph/pkg/tree"
)

// ToDOT converts t to Graphviz DOT. Each cut becomes a cluster nested in
// its parent's cluster and each leaf a plain node; there are no edges.
// Empty cuts get an invisible point so Graphviz still draws them.
func ToDOT(t *tree.Tree) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=plaintext, fontname=\"serif\", fontsize=24];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
	for _, k := range t.Children(tree.RootID) {
		writeDOTNode(&buf, t, k, 1)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeDOTNode(buf *bytes.Buffer, t *tree.Tree, id tree.NodeID, depth int) {
	indent := bytes.Repeat([]byte("  "), depth)
	switch t.Kind(id) {
	case tree.Cut:
		fill := "white"
		if depth%2 == 1 {
			fill = "lightgrey"
		}
		fmt.Fprintf(buf, "%ssubgraph cluster_%d {\n", indent, id)
		fmt.Fprintf(buf, "%s  label=\"\"; style=\"rounded,filled\"; fillcolor=%s;\n", indent, fill)
		kids := t.Children(id)
		if len(kids) == 0 {
			fmt.Fprintf(buf, "%s  n%d [shape=point, style=invis];\n", indent, id)
		}
		for _, k := range kids {
			writeDOTNode(buf, t, k, depth+1)
		}
		fmt.Fprintf(buf, "%s}\n", indent)
	case tree.Statement:
		fmt.Fprintf(buf, "%sn%d [label=%q];\n", indent, id, string(t.Label(id)))
	default:
		fmt.Fprintf(buf, "%sn%d [label=\"\", shape=box, style=dashed, width=0.3, height=0.3];\n", indent, id)
	}
}

// RenderGraphvizSVG renders a DOT graph to SVG using Graphviz.
func RenderGraphvizSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized <svg> header with a
// plain one at origin 0 so the output scales like RenderSVG's.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
