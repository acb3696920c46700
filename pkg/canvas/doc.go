// Package canvas is the editing controller that sits between input devices
// and the layout tree.
//
// A [Canvas] owns one [tree.Tree] together with the interaction state the
// tree itself does not model: the pointer position, the highlighted node,
// the ordered selection, an in-progress drag or ghost gesture, the debug
// bounds overlay, and an undo history. Every input surface (the terminal
// editor, scripts, the HTTP API) drives the same methods, either directly
// or through [Command] values passed to [Canvas.Execute].
//
// # Selection
//
// The selection is an ordered set of sibling nodes. Selecting a node whose
// parent differs from the current selection's parent clears the selection
// first, so group operations (drag, surround, delete) always act on
// siblings. The Root is never selectable.
//
// # Drags
//
// A live drag ([Canvas.BeginDrag], [Canvas.DragTo], [Canvas.EndDrag]) moves
// the selection inside its current parent, trying the bloom candidates of
// the pointer target in order. A ghost drag ([Canvas.BeginGhost],
// [Canvas.GhostDrop]) leaves the nodes in place until the drop and then
// re-parents them under the Cut beneath the pointer.
//
// # Notifications
//
// After every committed change the [Listener] receives the ids whose
// geometry or presentation flags changed. Refused edits leave the tree
// untouched and are reported as errors matching the tree sentinels; use
// [Classify] to turn them into coded errors for users and HTTP clients.
//
// A Canvas is not safe for concurrent use.
package canvas
