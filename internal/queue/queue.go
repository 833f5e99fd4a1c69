package queue

import (
	"slices"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// Item is a frontier entry.
// Optimized: value-based, the priority is snapshotted at push time.
type Item struct {
	Handle   tree.Handle
	Priority float64
	seq      uint64
}

// Stats reports frontier activity.
type Stats struct {
	Pushed    uint64
	Popped    uint64
	Discarded uint64
	MaxLen    int
}

// Frontier is a priority queue of tree handles. It is NOT thread-safe.
type Frontier struct {
	ordering Ordering
	items    []Item
	seq      uint64
	stats    Stats

	lastLowerBound float64
}

// New creates a frontier with the given ordering.
func New(ordering Ordering, capacity int) *Frontier {
	if !ordering.Valid() {
		panic("queue: invalid ordering")
	}
	return &Frontier{
		ordering: ordering,
		items:    make([]Item, 0, capacity),
	}
}

// Ordering returns the active ordering.
func (f *Frontier) Ordering() Ordering { return f.ordering }

// Len returns the number of entries, including ones awaiting lazy deletion.
func (f *Frontier) Len() int { return len(f.items) }

// Empty reports whether the frontier has no entries.
func (f *Frontier) Empty() bool { return len(f.items) == 0 }

// Stats returns a snapshot of the frontier counters.
func (f *Frontier) Stats() Stats { return f.stats }

// LastLowerBound returns the adjusted lower bound of the most recently popped node.
func (f *Frontier) LastLowerBound() float64 { return f.lastLowerBound }

// Push inserts h. n supplies the metric the ordering sorts on.
func (f *Frontier) Push(h tree.Handle, n *tree.Node) {
	f.seq++
	f.items = append(f.items, Item{Handle: h, Priority: f.ordering.priority(n), seq: f.seq})
	f.siftUp(len(f.items) - 1)
	f.stats.Pushed++
	if len(f.items) > f.stats.MaxLen {
		f.stats.MaxLen = len(f.items)
	}
}

// Top returns the entry that Pop would return.
func (f *Frontier) Top() (Item, bool) {
	if len(f.items) == 0 {
		return Item{}, false
	}
	return f.items[0], true
}

// Pop removes and returns the top entry.
func (f *Frontier) Pop() (Item, bool) {
	n := len(f.items)
	if n == 0 {
		return Item{}, false
	}
	top := f.items[0]
	last := f.items[n-1]
	f.items[n-1] = Item{}
	f.items = f.items[:n-1]
	if n-1 > 0 {
		f.items[0] = last
		f.siftDown(0)
	}
	f.stats.Popped++
	return top, true
}

// Select pops entries until it finds one worth expanding.
//
// An entry is discarded, and its node destroyed through t, when the node is
// tombstoned, when one of its ancestors is tombstoned, or when its adjusted
// lower bound is not below the incumbent objective. The adjusted bound adds
// the regularization constant unless the lookahead bound is ablated.
//
// For the selected node, captured is overwritten with the union of the truth
// tables of its prefix and the prefix is returned in root-to-node order.
// When the frontier runs dry, ok is false.
func (f *Frontier) Select(t *tree.Tree, captured *bitset.Bitset) (h tree.Handle, prefix []model.RuleID, ok bool) {
	for {
		item, popped := f.Pop()
		if !popped {
			return tree.Nil, nil, false
		}
		h = item.Handle
		n := t.Node(h)
		if n == nil {
			f.stats.Discarded++
			continue
		}

		lb := n.LowerBound
		if t.Ablation() != tree.AblationLookahead {
			lb += t.C()
		}
		f.lastLowerBound = lb

		if n.Deleted || lb >= t.MinObjective() {
			f.discard(t, h)
			continue
		}

		captured.Clear()
		prefix = prefix[:0]
		dominated := false
		t.Walk(h, func(_ tree.Handle, an *tree.Node) bool {
			if an.Deleted {
				dominated = true
				return false
			}
			captured.Or(t.Rule(an.RuleID).Truth)
			prefix = append(prefix, an.RuleID)
			return true
		})
		if dominated {
			f.discard(t, h)
			continue
		}
		slices.Reverse(prefix)
		return h, prefix, true
	}
}

func (f *Frontier) discard(t *tree.Tree, h tree.Handle) {
	f.stats.Discarded++
	t.Destroy(h)
}

func (f *Frontier) less(i, j int) bool {
	a, b := f.items[i], f.items[j]
	if a.Priority != b.Priority {
		if f.ordering.maxFirst() {
			return a.Priority > b.Priority
		}
		return a.Priority < b.Priority
	}
	return a.seq < b.seq
}

func (f *Frontier) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !f.less(i, p) {
			return
		}
		f.items[i], f.items[p] = f.items[p], f.items[i]
		i = p
	}
}

func (f *Frontier) siftDown(i int) {
	n := len(f.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && f.less(r, l) {
			best = r
		}
		if !f.less(best, i) {
			return
		}
		f.items[i], f.items[best] = f.items[best], f.items[i]
		i = best
	}
}
