// Package pmap implements the permutation cache of the search engine.
//
// Two prefixes that capture the same samples leave the same samples to be
// classified by any completion, so only the one with the better lower bound
// can lead to the optimum. The cache maps a canonical key of that
// equivalence class to the best lower bound recorded for it, and to the node
// that achieved it.
//
// # Strategies
//
//   - Captured: keyed by the captured sample set. Exact symmetry detection.
//   - Prefix: keyed by the unordered set of rule ids. Cheaper keys, but only
//     detects permutations of the same rules.
//   - None: always misses. Used when memory is tight or symmetry pruning is
//     disabled.
//
// Captured and Prefix caches are unbounded by default. WithMaxBytes turns
// them into an LRU cache; evicting an entry only forfeits pruning, it never
// makes the search unsound.
package pmap
