// Package document defines the on-disk and wire format of an edited
// diagram.
//
// A [Document] is a flat, versioned JSON description of a layout tree:
// the grid geometry it was drawn with plus one [Node] per live node in
// pre-order. Node ids are kept as they are, so references held by clients
// (selections, scripted commands) stay valid across a save and reload.
//
//	{
//	  "version": 1,
//	  "id": "3f8e2a44-1b7c-4c1a-9f5e-0d7b9e6a1c22",
//	  "grid": {"spacing": 16, "collision_offset": 7, ...},
//	  "next_id": 3,
//	  "nodes": [
//	    {"id": 0, "parent": -1, "kind": "root", ...},
//	    {"id": 1, "parent": 0, "kind": "cut", "x": 0, "y": 0, "box": {...}},
//	    {"id": 2, "parent": 1, "kind": "statement", "label": "A", ...}
//	  ]
//	}
//
// Use [Export] and [Import] to convert between a [tree.Tree] and a
// Document, and [Marshal], [Unmarshal], [ReadFile], [WriteFile] for the
// JSON encoding. Import re-validates every layout invariant, so a hand
// edited file with overlapping siblings is rejected rather than loaded.
package document
