package canvas

import (
	"errors"
	"fmt"
	"testing"

	errs "github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

func TestClassify(t *testing.T) {
	collision := fmt.Errorf("move: %w", &tree.CollisionError{Level: 0, Node: 1, Blocker: 2})
	stored := errs.New(errs.ErrCodeStore, "disk full")

	tests := []struct {
		name string
		err  error
		want errs.Code
	}{
		{"collision", collision, errs.ErrCodeCollision},
		{"not found", fmt.Errorf("%w: 7", tree.ErrNotFound), errs.ErrCodeNotFound},
		{"root", tree.ErrRootOperation, errs.ErrCodeInvalidOperation},
		{"not cut", tree.ErrNotCut, errs.ErrCodeInvalidOperation},
		{"cycle", tree.ErrCycle, errs.ErrCodeInvalidOperation},
		{"no gesture", ErrNoGesture, errs.ErrCodeInvalidOperation},
		{"label", tree.ErrInvalidLabel, errs.ErrCodeInvalidInput},
		{"off grid", tree.ErrOffGrid, errs.ErrCodeInvalidInput},
		{"invariant", tree.ErrInvariant, errs.ErrCodeInvalidDocument},
		{"already coded", stored, errs.ErrCodeStore},
		{"plain", errors.New("boom"), errs.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if code := errs.GetCode(got); code != tt.want {
				t.Errorf("code = %q, want %q", code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error lost the original")
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) != nil")
	}
	if !errors.Is(Classify(collision), tree.ErrCollision) {
		t.Error("classified collision no longer matches tree.ErrCollision")
	}
}
