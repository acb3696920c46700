package tree

import (
	"slices"

	"github.com/matzehuels/cutgraph/pkg/geom"
)

// ProbeKind classifies a box examined during the last search.
type ProbeKind uint8

const (
	ProbeCandidate ProbeKind = iota // a proposed box for a changed node
	ProbeBlocked                    // a sibling that rejected the candidate
	ProbeClear                      // a sibling that did not collide
)

func (k ProbeKind) String() string {
	switch k {
	case ProbeCandidate:
		return "candidate"
	case ProbeBlocked:
		return "blocked"
	default:
		return "clear"
	}
}

// Probe is a collision box, in world coordinates, looked at by the most
// recent operation.
type Probe struct {
	Kind ProbeKind
	Box  geom.Rect
}

// SetTracing turns probe recording on or off. Turning it off drops the
// recorded probes.
func (t *Tree) SetTracing(on bool) {
	t.trace = on
	if !on {
		t.probes = nil
	}
}

// Tracing reports whether probes are being recorded.
func (t *Tree) Tracing() bool { return t.trace }

// Probes returns the boxes examined by the most recent operation.
func (t *Tree) Probes() []Probe { return slices.Clone(t.probes) }

func (t *Tree) record(k ProbeKind, box geom.Rect) {
	if t.trace {
		t.probes = append(t.probes, Probe{Kind: k, Box: box})
	}
}

func (t *Tree) resetProbes() {
	if t.trace {
		t.probes = t.probes[:0]
	}
}
