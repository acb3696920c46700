// Package tree is the layout engine of the cut editor: a strictly nested
// tree of axis-aligned boxes kept collision-free and grid-aligned under
// every edit.
//
// # Model
//
// A [Tree] is an arena of nodes addressed by [NodeID]. Node 0 is the Root,
// which has no geometry. Every other node is a Cut (a container), a
// Statement (a fixed-size leaf with a one-character label) or a Placeholder
// (an unlabeled statement-sized leaf).
//
// Each node has a position, which is the grid-aligned offset of its local
// frame inside its parent's frame, and a draw box expressed in that local
// frame. The collision box is the draw box grown by the configured
// collision offset; it is computed on demand and never stored.
//
// # Invariants
//
// After every successful mutation:
//
//  1. the collision boxes of two siblings never overlap (touching is fine);
//  2. a Cut's draw box is exactly the union of its children's collision
//     boxes padded by one grid spacing, or an EmptyCutSize square at its
//     origin when it has no children;
//  3. every position is a multiple of the grid spacing;
//  4. the Root is never collision or containment checked.
//
// [Tree.Validate] checks all four and is used when importing documents.
//
// # Percolation
//
// Every edit is run as a transaction. The changed nodes are checked against
// their unchanged siblings, the parent's box is re-derived from its
// children, and the parent then becomes the changed node one level up. This
// repeats until the Root is reached. Nothing is written unless every level
// clears, so a rejected edit leaves the tree exactly as it was.
//
// [Tree.Predict] exposes the protocol for a plain move and returns a [Plan]
// of ancestor boxes; [Tree.Commit] writes it. [Tree.Move] does both and
// translates the moved nodes.
//
// # Concurrency
//
// A Tree is not safe for concurrent use. All operations run to completion
// synchronously.
package tree
