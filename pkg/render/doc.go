// Package render draws a diagram tree for people.
//
// # Overview
//
// Every renderer reads the tree and never changes it. Four outputs are
// provided:
//
//   - [RenderSVG]: the native drawing, cuts as rounded boxes shaded by
//     nesting depth, statements as letters, optional debug probes
//   - [ToDOT]: Graphviz DOT with every cut as a nested cluster
//   - [RenderGraphvizSVG]: the DOT text laid out and drawn by Graphviz
//   - [Cells]: a character grid for terminals, used by the edit command
//
// [Render] picks one of them by [Format] and reports the work to the
// registered [observability.RenderHooks].
//
// # SVG
//
//	svg := render.RenderSVG(t,
//	    render.WithStyle(render.Mono{}),
//	    render.WithProbes(c.Probes()),
//	)
//
// Coordinates in the SVG are world coordinates; the viewBox is the
// tree's [tree.Tree.Bounds].
//
// # Terminal cells
//
// One cell covers half a grid spacing horizontally and a full grid spacing
// vertically, which keeps squares roughly square in common terminal fonts.
// [CellSize] returns the factor and [Raster] records which node owns each
// cell so callers can colour selections and highlights.
//
// [observability.RenderHooks]: github.com/matzehuels/cutgraph/pkg/observability#RenderHooks
// [tree.Tree.Bounds]: github.com/matzehuels/cutgraph/pkg/tree#Tree.Bounds
package render
