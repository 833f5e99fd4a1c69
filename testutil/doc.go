// Package testutil provides testing utilities for corelgo.
//
// This package is intended for use in tests and benchmarks only.
// It generates reproducible synthetic datasets and computes exact optima by
// exhaustive enumeration, which the branch-and-bound results are checked
// against.
//
// # Synthetic Data
//
//	rng := testutil.NewRNG(seed)
//	ds := rng.Dataset(32, 6, 0.4)
//
// # Ground Truth
//
//	best := testutil.BruteForce(ds.Rules, ds.Labels, c, depth, nil)
package testutil
