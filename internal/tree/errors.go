package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrBudgetExhausted is returned when creating a node would exceed the node
	// budget or the memory limit.
	ErrBudgetExhausted = errors.New("tree: node budget exhausted")

	// ErrInvalidConfig is returned when a tree configuration is rejected.
	ErrInvalidConfig = errors.New("tree: invalid configuration")
)

// ErrWidthMismatch indicates a truth table whose width differs from the sample count.
type ErrWidthMismatch struct {
	What     string
	Expected int
	Actual   int
}

func (e *ErrWidthMismatch) Error() string {
	return fmt.Sprintf("tree: %s has width %d, expected %d", e.What, e.Actual, e.Expected)
}

func (e *ErrWidthMismatch) Unwrap() error { return ErrInvalidConfig }
