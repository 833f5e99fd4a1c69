package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/corelgo/internal/tree"
)

// ErrUnknownOrdering is returned when an ordering name is not recognized.
var ErrUnknownOrdering = errors.New("queue: unknown ordering")

// Ordering selects which frontier node is expanded next.
type Ordering uint8

const (
	// BFS expands the shallowest node first.
	BFS Ordering = iota
	// Curiosity expands the node with the smallest curiosity first.
	// Curiosity is a cost: a low bound over a large captured share.
	Curiosity
	// LowerBound expands the node with the smallest lower bound first (best-first).
	LowerBound
	// Objective expands the node with the smallest objective first.
	Objective
	// DFS expands the deepest node first.
	DFS
)

// Orderings lists every ordering.
var Orderings = []Ordering{BFS, Curiosity, LowerBound, Objective, DFS}

// ParseOrdering parses an ordering name as used in configuration files.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bfs", "":
		return BFS, nil
	case "curious", "curiosity":
		return Curiosity, nil
	case "lower_bound", "lower-bound", "lb":
		return LowerBound, nil
	case "objective", "obj":
		return Objective, nil
	case "dfs":
		return DFS, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOrdering, s)
	}
}

func (o Ordering) String() string {
	switch o {
	case BFS:
		return "bfs"
	case Curiosity:
		return "curious"
	case LowerBound:
		return "lower_bound"
	case Objective:
		return "objective"
	case DFS:
		return "dfs"
	default:
		return fmt.Sprintf("ordering(%d)", uint8(o))
	}
}

// Valid reports whether o is a known ordering.
func (o Ordering) Valid() bool {
	return o <= DFS
}

// priority extracts the metric o sorts on. Node metrics never change after
// creation, so the value is captured once at push time.
func (o Ordering) priority(n *tree.Node) float64 {
	switch o {
	case BFS, DFS:
		return float64(n.Depth)
	case Curiosity:
		return n.Curiosity
	case LowerBound:
		return n.LowerBound
	case Objective:
		return n.Objective
	default:
		panic(fmt.Sprintf("queue: unknown ordering %d", uint8(o)))
	}
}

// maxFirst reports whether the largest priority is on top.
func (o Ordering) maxFirst() bool {
	return o == DFS
}
