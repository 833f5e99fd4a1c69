// Package search implements the branch-and-bound driver and its expansion
// step.
//
// The Searcher repeatedly selects the most promising live prefix from the
// frontier, extends it by every rule not yet in it, bounds each extension and
// keeps only those that can still beat the incumbent. Bounds are taken from
// CORELS:
//
//   - hierarchical objective bound: the lower bound of a prefix grows by the
//     errors on newly captured samples plus c for the added rule;
//   - support bounds: a rule must capture, and correctly classify, at least
//     c*n samples to pay for itself;
//   - equivalent points bound: samples sharing a rule signature but not a
//     label cannot all be classified correctly;
//   - one-step lookahead: any extension costs at least another c;
//   - permutation bound: prefixes capturing the same samples are
//     interchangeable, only the best is kept.
//
// A Searcher is single-threaded and owns its tree, frontier and cache for the
// duration of Run.
package search
