package canvas

import (
	"errors"

	errs "github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// Classify maps editing errors onto coded errors for display and HTTP
// responses. The original error stays in the chain, so errors.Is against
// the tree sentinels keeps working. Errors that already carry a code are
// returned unchanged, and nil stays nil.
func Classify(err error) error {
	if err == nil || errs.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, tree.ErrCollision):
		return errs.Wrap(errs.ErrCodeCollision, err, "edit refused: nodes would overlap")
	case errors.Is(err, tree.ErrNotFound):
		return errs.Wrap(errs.ErrCodeNotFound, err, "no such node")
	case errors.Is(err, tree.ErrInvalidLabel), errors.Is(err, tree.ErrOffGrid):
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid argument")
	case errors.Is(err, tree.ErrInvariant):
		return errs.Wrap(errs.ErrCodeInvalidDocument, err, "layout is inconsistent")
	case errors.Is(err, tree.ErrRootOperation),
		errors.Is(err, tree.ErrNotCut),
		errors.Is(err, tree.ErrInvalidParent),
		errors.Is(err, tree.ErrMixedParents),
		errors.Is(err, tree.ErrCycle),
		errors.Is(err, tree.ErrNoNodes),
		errors.Is(err, ErrNoGesture):
		return errs.Wrap(errs.ErrCodeInvalidOperation, err, "operation not allowed")
	default:
		return errs.Wrap(errs.ErrCodeInternal, err, "internal error")
	}
}
