package tree

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/corelgo/model"
)

// Handle is a stable reference to a node in the tree arena.
// Gen 0 is never issued, so the zero Handle is nil.
type Handle struct {
	Index uint32
	Gen   uint32
}

// Nil is the zero Handle.
var Nil = Handle{}

// IsNil reports whether h is the zero Handle.
func (h Handle) IsNil() bool { return h.Gen == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("H(%d@%d)", h.Index, h.Gen)
}

// Node is one vertex of the search tree: a prefix of a rule list together
// with its bounds.
type Node struct {
	RuleID model.RuleID
	Parent Handle
	Depth  int

	// LowerBound is a lower bound on the objective of every rule list that
	// starts with this prefix. It includes EquivalentMinority.
	LowerBound float64
	// Objective of the prefix closed with its default prediction.
	Objective float64
	// EquivalentMinority is the equivalent points bound over the samples the
	// prefix does not capture.
	EquivalentMinority float64
	Curiosity          float64

	// NumCaptured is the number of samples the last rule captures;
	// CapturedNegative and CapturedPositive split it by label.
	NumCaptured       int
	CapturedNegative  int
	CapturedPositive  int
	Prediction        bool
	DefaultPrediction bool

	// Deleted marks the node (and its subtree) for lazy removal.
	Deleted bool
	// Done is set once the node has been expanded.
	Done bool

	children int
	gen      uint32
	live     bool
}

// NumChildren returns the number of live children.
func (n *Node) NumChildren() int { return n.children }

// NodeBytes is the memory charged per live node.
const NodeBytes = int64(unsafe.Sizeof(Node{}))
