// Package geom provides the axis-aligned geometry used by the cut editor.
//
// Coordinates are float64 with the y axis pointing down, matching screen and
// SVG conventions. A [Rect] is described by its four edges; rectangles are
// always normalized (Left <= Right, Top <= Bottom).
//
// # Overlap and containment
//
// Two different tests are used throughout the editor:
//
//   - [Overlaps] treats rectangle edges as open intervals, so two boxes that
//     share an edge do not overlap. Sibling collision checks rely on this.
//   - [Rect.ContainsPoint] is a strict interior test: a point on the boundary
//     is outside. Re-parent target resolution relies on this.
//
// [Rect.ContainsRect] is a closed test used for box selection and for the
// "fits without growing the parent" placement rule.
//
// # Grid
//
// [Snap] rounds a point to the nearest multiple of the grid spacing on each
// axis. Negative coordinates are handled by rounding the magnitude and
// restoring the sign, so the grid is symmetric around the origin.
package geom
