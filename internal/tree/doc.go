// Package tree implements the search tree of the branch-and-bound engine.
//
// # Ownership
//
// The Tree owns every Node ever created. Nodes live in an arena (a slice of
// slots plus a free list) and are addressed by Handle, a slot index paired with
// a generation. Children refer to their parent by Handle only, so there is no
// cyclic ownership: the frontier and the permutation cache hold Handles, and a
// Handle whose slot has since been freed and reused resolves to nil.
//
// # Node Budget
//
// The Tree counts live nodes against MaxNodes. NewNode returns
// ErrBudgetExhausted instead of growing past the budget; callers treat this as
// "stop and report the incumbent", never as a failure. An optional
// MemoryAcquirer is charged NodeBytes per live node.
//
// # Prune Up
//
// Destroy frees a node and walks up: an expanded, non-root parent left without
// children is freed as well. The root is never freed.
//
// # Incumbent
//
// The best objective and rule list found so far live in the Tree. The minimum
// objective never increases; an attempt to raise it panics, because it means a
// bound computation is wrong and optimality certificates would be invalid.
package tree
