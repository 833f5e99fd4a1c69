// Package fairness computes group confusion matrices and the disparity
// metrics used to penalize or constrain rule lists.
//
// Samples are split into a majority and a minority protected group. For a
// closed rule list (prefix plus default) every sample receives a prediction;
// comparing predictions with labels per group yields one ConfusionMatrix per
// group, from which Metrics derives six disparity measures. Each measure is
// an absolute gap in [0, 1]; 0 is perfectly fair.
package fairness
