package tree

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by tree operations.
// A failed operation never modifies the tree.
var (
	// ErrCollision is returned when an edit would make two siblings overlap
	// at some level of the ancestor chain.
	ErrCollision = errors.New("collision")

	// ErrNotFound is returned for an unknown or deleted node id.
	ErrNotFound = errors.New("node not found")

	// ErrRootOperation is returned when an edit targets the Root itself.
	ErrRootOperation = errors.New("operation not allowed on root")

	// ErrNotCut is returned when dissolving a node that is not a Cut.
	ErrNotCut = errors.New("node is not a cut")

	// ErrInvalidParent is returned when a leaf is used as a container.
	ErrInvalidParent = errors.New("node cannot contain children")

	// ErrMixedParents is returned when a group of nodes does not share one parent.
	ErrMixedParents = errors.New("nodes do not share a parent")

	// ErrCycle is returned when a node would be moved into its own subtree.
	ErrCycle = errors.New("node cannot be moved into its own subtree")

	// ErrInvalidLabel is returned for a statement label that is not a
	// single printable character.
	ErrInvalidLabel = errors.New("invalid statement label")

	// ErrOffGrid is returned for a displacement that is not a multiple of
	// the grid spacing.
	ErrOffGrid = errors.New("displacement is not grid aligned")

	// ErrNoNodes is returned when an operation is given an empty node list.
	ErrNoNodes = errors.New("no nodes given")

	// ErrInvariant is returned by Validate and FromRecords when a layout
	// breaks one of the tree invariants.
	ErrInvariant = errors.New("layout invariant violated")
)

// CollisionError reports where a transaction was rejected.
// It matches ErrCollision with errors.Is.
type CollisionError struct {
	Level   NodeID // container whose children collided
	Node    NodeID // changed node
	Blocker NodeID // unchanged sibling it ran into
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("collision: node %d blocked by %d inside %d", e.Node, e.Blocker, e.Level)
}

func (e *CollisionError) Unwrap() error { return ErrCollision }
