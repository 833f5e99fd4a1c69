// Package queue implements the search frontier: a binary heap of tree handles
// ordered by one of five closed orderings, with lazy deletion at selection
// time.
//
// The frontier never owns nodes. Stale or dominated entries are left in the
// heap when they become prunable and are only discarded (and freed through the
// tree) when Select pops them. This avoids O(n) arbitrary removal from the heap
// at the cost of a bounded amount of wasted memory.
package queue
