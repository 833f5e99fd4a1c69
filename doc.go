// Package corelgo learns certifiably optimal rule lists.
//
// A rule list is an ordered sequence of if/then rules over binary features,
// closed by a default prediction:
//
//	if (priors:>3) then (1)
//	else if (age:18-23) then (1)
//	else (0)
//
// Learn runs a branch-and-bound search over all such lists built from a
// dataset's rules and returns the one minimizing
//
//	misclassification rate + c * length
//
// optionally plus a fairness penalty over two protected groups. When the
// search space is exhausted the result is certified optimal; when a node
// budget, time limit or iteration cap stops it first, the best list found so
// far is returned together with the reason.
//
// # Quick Start
//
//	ctx := context.Background()
//	ds, _ := dataset.LoadDir(ctx, "./data", dataset.Files{
//	    Rules:  "compas.out",
//	    Labels: "compas.label",
//	})
//	res, _ := corelgo.Learn(ctx, ds,
//	    corelgo.WithRegularization(0.005),
//	    corelgo.WithOrdering(corelgo.OrderingCurious),
//	    corelgo.WithMaxNodes(1_000_000),
//	)
//	fmt.Println(res)
//
// Datasets may also be read from object storage through blobstore/s3 or
// blobstore/minio.
//
// # Pruning
//
// The search applies the CORELS bounds: the hierarchical objective bound,
// the minimum and accurate support bounds, one-step lookahead, the
// equivalent points bound and a permutation map that keeps only the best
// ordering of every set of rules. WithAblation switches single bounds off to
// measure their contribution.
//
// # Fairness
//
// WithFairness adds Beta times a group disparity metric (statistical
// parity, equal opportunity, ...) to the objective and can reject lists whose
// disparity exceeds Epsilon.
package corelgo
