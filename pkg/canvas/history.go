package canvas

import "slices"

// History is a bounded undo/redo buffer of serialized canvas states.
// Saving after an undo discards the states that could have been redone;
// once full, the oldest state is dropped.
type History struct {
	states   [][]byte
	current  int
	capacity int
}

// NewHistory creates a history holding at most capacity states. A
// non-positive capacity defaults to 50.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 50
	}
	return &History{current: -1, capacity: capacity}
}

// Save records state as the newest entry.
func (h *History) Save(state []byte) {
	h.states = append(h.states[:h.current+1], slices.Clone(state))
	if len(h.states) > h.capacity {
		h.states[0] = nil
		h.states = h.states[1:]
	}
	h.current = len(h.states) - 1
}

// CanUndo returns true if undo is possible.
func (h *History) CanUndo() bool { return h.current > 0 }

// CanRedo returns true if redo is possible.
func (h *History) CanRedo() bool { return h.current >= 0 && h.current < len(h.states)-1 }

// Undo steps back and returns that state, or nil at the oldest state.
func (h *History) Undo() []byte {
	if !h.CanUndo() {
		return nil
	}
	h.current--
	return h.states[h.current]
}

// Redo steps forward and returns that state, or nil at the newest state.
func (h *History) Redo() []byte {
	if !h.CanRedo() {
		return nil
	}
	h.current++
	return h.states[h.current]
}

// Clear drops every state.
func (h *History) Clear() {
	h.states = nil
	h.current = -1
}

// Stats returns the 1-based position of the current state and the number
// of states stored.
func (h *History) Stats() (current, total int) {
	return h.current + 1, len(h.states)
}
