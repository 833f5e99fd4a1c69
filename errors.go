package corelgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/internal/fairness"
	"github.com/hupe1980/corelgo/internal/pmap"
	"github.com/hupe1980/corelgo/internal/queue"
	"github.com/hupe1980/corelgo/internal/search"
	"github.com/hupe1980/corelgo/internal/tree"
)

var (
	// ErrInvalidConfig is returned for unusable search settings. It is
	// detected before the search starts.
	ErrInvalidConfig = errors.New("corelgo: invalid configuration")
	// ErrInvalidDataset is returned for malformed or inconsistent datasets.
	ErrInvalidDataset = dataset.ErrInvalidDataset
)

// ErrWidthMismatch indicates a truth table whose width differs from the
// number of samples.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrWidthMismatch struct {
	What     string
	Expected int
	Actual   int
	cause    error
}

func (e *ErrWidthMismatch) Error() string {
	return fmt.Sprintf("corelgo: %s has %d samples, expected %d", e.What, e.Actual, e.Expected)
}

func (e *ErrWidthMismatch) Unwrap() []error { return []error{ErrInvalidConfig, e.cause} }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var wm *tree.ErrWidthMismatch
	if errors.As(err, &wm) {
		return &ErrWidthMismatch{What: wm.What, Expected: wm.Expected, Actual: wm.Actual, cause: err}
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidDataset):
		return err
	case errors.Is(err, tree.ErrInvalidConfig),
		errors.Is(err, search.ErrInvalidConfig),
		errors.Is(err, queue.ErrUnknownOrdering),
		errors.Is(err, pmap.ErrUnknownKind),
		errors.Is(err, search.ErrUnknownCuriosity),
		errors.Is(err, fairness.ErrUnknownMetric),
		errors.Is(err, fairness.ErrInvalidGroups),
		errors.Is(err, fairness.ErrInvalidPolicy):
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return err
}
