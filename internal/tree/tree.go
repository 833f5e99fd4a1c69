package tree

import (
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
)

// MemoryAcquirer is charged NodeBytes for every live node.
type MemoryAcquirer interface {
	TryAcquireMemory(amount int64) bool
	ReleaseMemory(amount int64)
}

// Observer is notified when nodes are created and destroyed.
type Observer interface {
	OnCreate(h Handle, n *Node)
	OnDestroy(h Handle, n *Node)
}

// Config describes the dataset and the bound parameters of a search.
type Config struct {
	NSamples int
	Rules    []model.Rule
	// Labels[0] marks the negative samples, Labels[1] the positive ones.
	Labels [2]*bitset.Bitset
	// Minority marks the samples that no rule list can classify correctly
	// (the minority of every equivalence class). Optional.
	Minority *bitset.Bitset
	// C is the regularization constant charged per rule.
	C float64
	// MaxNodes caps the number of live nodes. 0 means unlimited.
	MaxNodes int
	Ablation Ablation
}

// Validate checks the configuration once, before any node is created.
func (c *Config) Validate() error {
	if c.NSamples <= 0 {
		return fmt.Errorf("%w: nsamples must be positive, got %d", ErrInvalidConfig, c.NSamples)
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("%w: empty rule set", ErrInvalidConfig)
	}
	if c.C < 0 {
		return fmt.Errorf("%w: negative regularization %g", ErrInvalidConfig, c.C)
	}
	if math.IsNaN(c.C) || math.IsInf(c.C, 0) {
		return fmt.Errorf("%w: regularization must be finite, got %g", ErrInvalidConfig, c.C)
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("%w: negative node budget %d", ErrInvalidConfig, c.MaxNodes)
	}
	if !c.Ablation.Valid() {
		return fmt.Errorf("%w: unknown ablation mode %d", ErrInvalidConfig, c.Ablation)
	}
	for i, r := range c.Rules {
		if r.ID != model.RuleID(i) {
			return fmt.Errorf("%w: rule at index %d has id %d", ErrInvalidConfig, i, r.ID)
		}
		if r.Truth == nil {
			return fmt.Errorf("%w: rule %d has no truth table", ErrInvalidConfig, i)
		}
		if r.Truth.Len() != c.NSamples {
			return &ErrWidthMismatch{What: fmt.Sprintf("rule %d", i), Expected: c.NSamples, Actual: r.Truth.Len()}
		}
	}
	for v, l := range c.Labels {
		if l == nil {
			return fmt.Errorf("%w: missing label %d", ErrInvalidConfig, v)
		}
		if l.Len() != c.NSamples {
			return &ErrWidthMismatch{What: fmt.Sprintf("label %d", v), Expected: c.NSamples, Actual: l.Len()}
		}
	}
	if c.Minority != nil && c.Minority.Len() != c.NSamples {
		return &ErrWidthMismatch{What: "minority", Expected: c.NSamples, Actual: c.Minority.Len()}
	}
	return nil
}

// Incumbent is the best rule list found so far.
type Incumbent struct {
	MinObjective float64
	RuleList     model.RuleList
}

// Option configures a Tree.
type Option func(*Tree)

// WithObserver installs a create/destroy observer.
func WithObserver(o Observer) Option {
	return func(t *Tree) {
		t.observer = o
	}
}

// WithMemoryAcquirer charges node memory to m.
func WithMemoryAcquirer(m MemoryAcquirer) Option {
	return func(t *Tree) {
		t.mem = m
	}
}

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.nodes = make([]Node, 0, n)
		}
	}
}

// Tree is the search tree. It is NOT thread-safe: the driver loop owns it.
type Tree struct {
	cfg Config

	nodes []Node
	free  []uint32
	root  Handle

	numNodes  int
	created   uint64
	destroyed uint64

	incumbent Incumbent

	observer Observer
	mem      MemoryAcquirer
}

// New validates cfg and creates an empty tree. Call InsertRoot before searching.
func New(cfg Config, opts ...Option) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{cfg: cfg}
	for _, opt := range opts {
		opt(t)
	}
	if t.nodes == nil {
		t.nodes = make([]Node, 0, 1024)
	}
	return t, nil
}

// InsertRoot creates the root node (the empty prefix) and seeds the incumbent
// with the empty rule list.
func (t *Tree) InsertRoot() Handle {
	if !t.root.IsNil() {
		panic("tree: root already inserted")
	}
	n := t.cfg.NSamples
	d0 := t.cfg.Labels[0].Count()
	d1 := t.cfg.Labels[1].Count()
	defaultPrediction := d1 >= d0
	correct := max(d0, d1)
	objective := float64(n-correct) / float64(n)

	var eq float64
	if m := t.Minority(); m != nil {
		eq = float64(m.Count()) / float64(n)
	}

	h := t.alloc()
	node := t.at(h)
	*node = Node{
		RuleID:             model.NoRule,
		LowerBound:         eq,
		Objective:          objective,
		EquivalentMinority: eq,
		DefaultPrediction:  defaultPrediction,
		gen:                node.gen,
		live:               true,
	}
	t.root = h
	t.account(h, node)

	t.incumbent = Incumbent{
		MinObjective: objective,
		RuleList:     model.RuleList{Default: defaultPrediction, Objective: objective},
	}
	return h
}

// Root returns the handle of the root node.
func (t *Tree) Root() Handle { return t.root }

// NSamples returns the number of samples.
func (t *Tree) NSamples() int { return t.cfg.NSamples }

// C returns the regularization constant.
func (t *Tree) C() float64 { return t.cfg.C }

// Ablation returns the ablation mode.
func (t *Tree) Ablation() Ablation { return t.cfg.Ablation }

// NumRules returns the size of the rule collection.
func (t *Tree) NumRules() int { return len(t.cfg.Rules) }

// Rule returns the rule with the given id.
func (t *Tree) Rule(id model.RuleID) model.Rule { return t.cfg.Rules[id] }

// Rules returns the rule collection, indexed by RuleID.
func (t *Tree) Rules() []model.Rule { return t.cfg.Rules }

// Label returns the samples carrying label v.
func (t *Tree) Label(v bool) *bitset.Bitset {
	if v {
		return t.cfg.Labels[1]
	}
	return t.cfg.Labels[0]
}

// Minority returns the equivalent points minority set, or nil when there is
// none or the bound is ablated.
func (t *Tree) Minority() *bitset.Bitset {
	if t.cfg.Ablation == AblationEquivalentPoints {
		return nil
	}
	return t.cfg.Minority
}

// NumNodes returns the number of live nodes.
func (t *Tree) NumNodes() int { return t.numNodes }

// MaxNodes returns the node budget (0 = unlimited).
func (t *Tree) MaxNodes() int { return t.cfg.MaxNodes }

// Created returns the number of nodes ever created.
func (t *Tree) Created() uint64 { return t.created }

// Destroyed returns the number of nodes ever destroyed.
func (t *Tree) Destroyed() uint64 { return t.destroyed }

// CanAllocate reports whether one more node fits in the node budget.
func (t *Tree) CanAllocate() bool {
	return t.cfg.MaxNodes == 0 || t.numNodes < t.cfg.MaxNodes
}

// MinObjective returns the incumbent objective.
func (t *Tree) MinObjective() float64 { return t.incumbent.MinObjective }

// SetMinObjective lowers the incumbent objective. Raising it panics.
func (t *Tree) SetMinObjective(v float64) {
	if v > t.incumbent.MinObjective {
		panic(fmt.Sprintf("tree: min objective must not increase (%g -> %g)", t.incumbent.MinObjective, v))
	}
	t.incumbent.MinObjective = v
}

// SeedIncumbent replaces the objective of the empty rule list seeded by
// InsertRoot, for objectives that add penalties to the misclassification
// rate. +Inf marks the empty list as infeasible. It panics once any node
// other than the root exists.
func (t *Tree) SeedIncumbent(objective float64) {
	if t.root.IsNil() || t.created != 1 {
		panic("tree: incumbent can only be seeded right after InsertRoot")
	}
	t.incumbent.MinObjective = objective
	t.incumbent.RuleList.Objective = objective
	t.at(t.root).Objective = objective
}

// Incumbent returns a copy of the best rule list found so far.
func (t *Tree) Incumbent() Incumbent {
	return Incumbent{
		MinObjective: t.incumbent.MinObjective,
		RuleList:     t.incumbent.RuleList.Clone(),
	}
}

// UpdateIncumbent records the rule list formed by the prefix of parent,
// followed by rule with the given prediction, closed with def. It returns false
// and changes nothing unless objective improves the incumbent.
func (t *Tree) UpdateIncumbent(objective float64, parent Handle, rule model.RuleID, prediction, def bool) bool {
	if objective >= t.incumbent.MinObjective {
		return false
	}
	t.SetMinObjective(objective)
	rules := append(t.Prefix(parent), rule)
	preds := append(t.Predictions(parent), prediction)
	t.incumbent.RuleList = model.RuleList{
		Rules:       rules,
		Predictions: preds,
		Default:     def,
		Objective:   objective,
	}
	return true
}

// Node resolves h. It returns nil for nil and stale handles.
func (t *Tree) Node(h Handle) *Node {
	if h.IsNil() || int(h.Index) >= len(t.nodes) {
		return nil
	}
	n := &t.nodes[h.Index]
	if !n.live || n.gen != h.Gen {
		return nil
	}
	return n
}

// NewNode creates a child of n.Parent. Depth is derived from the parent.
// It returns ErrBudgetExhausted when the node budget or the memory limit
// does not allow another node.
func (t *Tree) NewNode(n Node) (Handle, error) {
	parent := t.Node(n.Parent)
	if parent == nil {
		panic(fmt.Sprintf("tree: parent %s is not live", n.Parent))
	}
	if !t.CanAllocate() {
		return Nil, ErrBudgetExhausted
	}
	if t.mem != nil && !t.mem.TryAcquireMemory(NodeBytes) {
		return Nil, ErrBudgetExhausted
	}
	parentDepth := parent.Depth

	h := t.alloc() // may move the arena; parent must not be used after this
	node := t.at(h)
	n.Depth = parentDepth + 1
	n.Deleted = false
	n.Done = false
	n.children = 0
	n.gen = node.gen
	n.live = true
	*node = n

	t.at(n.Parent).children++
	t.account(h, node)
	return h, nil
}

// Tombstone marks a node for lazy deletion. A tombstoned node, and every
// descendant of it, is discarded the next time the frontier selects it.
func (t *Tree) Tombstone(h Handle) bool {
	n := t.Node(h)
	if n == nil || h == t.root {
		return false
	}
	n.Deleted = true
	return true
}

// MarkDone records that h has been expanded.
func (t *Tree) MarkDone(h Handle) {
	if n := t.Node(h); n != nil {
		n.Done = true
	}
}

// Destroy frees h and prunes up through expanded ancestors left without
// children. Stale handles and the root are ignored; the return value reports
// whether h itself was freed.
func (t *Tree) Destroy(h Handle) bool {
	n := t.Node(h)
	if n == nil || h == t.root {
		return false
	}
	for {
		parent := n.Parent
		t.release(h, n)

		p := t.Node(parent)
		if p == nil {
			return true
		}
		p.children--
		if p.children < 0 {
			panic(fmt.Sprintf("tree: negative child count at %s", parent))
		}
		if parent == t.root || !p.Done || p.children > 0 {
			return true
		}
		h, n = parent, p
	}
}

// PruneUp frees an expanded node that ended up without children.
func (t *Tree) PruneUp(h Handle) {
	n := t.Node(h)
	if n == nil || h == t.root || n.children > 0 {
		return
	}
	t.Destroy(h)
}

// Prefix returns the rule ids from the root down to h.
func (t *Tree) Prefix(h Handle) []model.RuleID {
	var prefix []model.RuleID
	t.Walk(h, func(_ Handle, n *Node) bool {
		prefix = append(prefix, n.RuleID)
		return true
	})
	slices.Reverse(prefix)
	return prefix
}

// Predictions returns the per-rule predictions from the root down to h.
func (t *Tree) Predictions(h Handle) []bool {
	var preds []bool
	t.Walk(h, func(_ Handle, n *Node) bool {
		preds = append(preds, n.Prediction)
		return true
	})
	slices.Reverse(preds)
	return preds
}

// Walk visits h and its ancestors, excluding the root, from h upwards until fn
// returns false.
func (t *Tree) Walk(h Handle, fn func(h Handle, n *Node) bool) {
	for h != t.root {
		n := t.Node(h)
		if n == nil {
			return
		}
		if !fn(h, n) {
			return
		}
		h = n.Parent
	}
}

// Dominated reports whether h or one of its ancestors is tombstoned.
func (t *Tree) Dominated(h Handle) bool {
	dominated := false
	t.Walk(h, func(_ Handle, n *Node) bool {
		dominated = n.Deleted
		return !dominated
	})
	return dominated
}

// Close returns the memory charged for live nodes. Nodes and the incumbent
// stay readable.
func (t *Tree) Close() {
	if t.mem != nil && t.numNodes > 1 {
		t.mem.ReleaseMemory(int64(t.numNodes-1) * NodeBytes)
	}
	t.mem = nil
}

func (t *Tree) alloc() Handle {
	if k := len(t.free); k > 0 {
		idx := t.free[k-1]
		t.free = t.free[:k-1]
		n := &t.nodes[idx]
		return Handle{Index: idx, Gen: n.gen}
	}
	t.nodes = append(t.nodes, Node{gen: 1})
	return Handle{Index: uint32(len(t.nodes) - 1), Gen: 1}
}

func (t *Tree) at(h Handle) *Node { return &t.nodes[h.Index] }

func (t *Tree) account(h Handle, n *Node) {
	t.numNodes++
	t.created++
	if t.observer != nil {
		t.observer.OnCreate(h, n)
	}
}

func (t *Tree) release(h Handle, n *Node) {
	if t.observer != nil {
		t.observer.OnDestroy(h, n)
	}
	gen := n.gen + 1
	if gen == 0 {
		gen = 1
	}
	*n = Node{gen: gen}
	t.free = append(t.free, h.Index)

	t.numNodes--
	t.destroyed++
	if t.numNodes < 0 {
		panic("tree: negative node count")
	}
	if t.mem != nil {
		t.mem.ReleaseMemory(NodeBytes)
	}
}
