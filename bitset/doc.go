// Package bitset provides the fixed-width sample set used throughout corelgo.
//
// A Bitset represents a subset of the samples of a dataset: the samples a rule
// matches (its truth table), the samples a prefix captures, or the samples of
// one label. It wraps a Roaring bitmap, so sparse rules and dense labels are
// both stored compactly, and the operations needed by the search engine
// (AND, OR, AND NOT, clear, popcount) run container by container.
//
// The width of a Bitset is fixed at construction. Operations between bitsets
// of different widths panic: mixing sample universes is a programming error.
package bitset
