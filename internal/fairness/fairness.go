package fairness

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
)

var (
	// ErrUnknownMetric is returned for metric ids or names that are not recognized.
	ErrUnknownMetric = errors.New("fairness: unknown metric")
	// ErrInvalidGroups is returned when protected groups are missing or malformed.
	ErrInvalidGroups = errors.New("fairness: invalid groups")
	// ErrInvalidPolicy is returned for a beta or epsilon outside its range.
	ErrInvalidPolicy = errors.New("fairness: invalid policy")
)

// Metric selects the disparity measure. The numbering matches the command
// line convention of FairCORELS.
type Metric uint8

const (
	StatisticalParity Metric = iota + 1
	PredictiveParity
	PredictiveEquality
	EqualOpportunity
	EqualizedOdds
	ConditionalUseAccuracyEquality
)

// ParseMetric accepts a metric number ("1".."6") or a snake_case name.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "statistical_parity", "sp":
		return StatisticalParity, nil
	case "2", "predictive_parity", "pp":
		return PredictiveParity, nil
	case "3", "predictive_equality", "pe":
		return PredictiveEquality, nil
	case "4", "equal_opportunity", "eo":
		return EqualOpportunity, nil
	case "5", "equalized_odds":
		return EqualizedOdds, nil
	case "6", "conditional_use_accuracy_equality", "cuae":
		return ConditionalUseAccuracyEquality, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Valid reports whether m is one of the six metrics.
func (m Metric) Valid() bool {
	return m >= StatisticalParity && m <= ConditionalUseAccuracyEquality
}

func (m Metric) String() string {
	switch m {
	case StatisticalParity:
		return "statistical_parity"
	case PredictiveParity:
		return "predictive_parity"
	case PredictiveEquality:
		return "predictive_equality"
	case EqualOpportunity:
		return "equal_opportunity"
	case EqualizedOdds:
		return "equalized_odds"
	case ConditionalUseAccuracyEquality:
		return "conditional_use_accuracy_equality"
	default:
		return fmt.Sprintf("metric(%d)", uint8(m))
	}
}

// Groups are the protected groups. They need not cover every sample.
type Groups struct {
	Majority *bitset.Bitset
	Minority *bitset.Bitset
}

// GroupsFromRules uses the truth tables of two rules as the protected groups.
func GroupsFromRules(rules []model.Rule, majority, minority model.RuleID) (Groups, error) {
	for _, id := range []model.RuleID{majority, minority} {
		if id < 0 || int(id) >= len(rules) {
			return Groups{}, fmt.Errorf("%w: rule %d out of range [0,%d)", ErrInvalidGroups, id, len(rules))
		}
	}
	if majority == minority {
		return Groups{}, fmt.Errorf("%w: majority and minority are the same rule %d", ErrInvalidGroups, majority)
	}
	return Groups{Majority: rules[majority].Truth, Minority: rules[minority].Truth}, nil
}

// Validate checks that both groups are present, have width n and are not empty.
func (g Groups) Validate(n int) error {
	if g.Majority == nil || g.Minority == nil {
		return fmt.Errorf("%w: both groups are required", ErrInvalidGroups)
	}
	if g.Majority.Len() != n || g.Minority.Len() != n {
		return fmt.Errorf("%w: width %d/%d, want %d", ErrInvalidGroups, g.Majority.Len(), g.Minority.Len(), n)
	}
	if g.Majority.IsEmpty() || g.Minority.IsEmpty() {
		return fmt.Errorf("%w: empty group", ErrInvalidGroups)
	}
	return nil
}

// ConfusionMatrix holds prediction outcome counts for one group.
type ConfusionMatrix struct {
	TP, FP, TN, FN int
}

// Total returns the group size.
func (c ConfusionMatrix) Total() int { return c.TP + c.FP + c.TN + c.FN }

// PositiveRate is P(pred = 1).
func (c ConfusionMatrix) PositiveRate() float64 { return ratio(c.TP+c.FP, c.Total()) }

// PPV is the precision TP / (TP + FP).
func (c ConfusionMatrix) PPV() float64 { return ratio(c.TP, c.TP+c.FP) }

// NPV is TN / (TN + FN).
func (c ConfusionMatrix) NPV() float64 { return ratio(c.TN, c.TN+c.FN) }

// FPR is FP / (FP + TN).
func (c ConfusionMatrix) FPR() float64 { return ratio(c.FP, c.FP+c.TN) }

// FNR is FN / (FN + TP).
func (c ConfusionMatrix) FNR() float64 { return ratio(c.FN, c.FN+c.TP) }

// Empty denominators count as rate 0.
func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// GroupMatrices are the confusion matrices of both groups.
type GroupMatrices struct {
	Majority ConfusionMatrix
	Minority ConfusionMatrix
}

// Compute derives the group confusion matrices from the set of samples
// predicted positive and the set of samples labeled positive.
func Compute(positives, label1 *bitset.Bitset, g Groups) GroupMatrices {
	return GroupMatrices{
		Majority: matrix(positives, label1, g.Majority),
		Minority: matrix(positives, label1, g.Minority),
	}
}

func matrix(positives, label1, group *bitset.Bitset) ConfusionMatrix {
	size := group.Count()
	predPos := positives.AndCount(group)
	actualPos := label1.AndCount(group)

	tp := positives.Clone()
	tp.And(label1)
	nTP := tp.AndCount(group)

	fp := predPos - nTP
	fn := actualPos - nTP
	return ConfusionMatrix{
		TP: nTP,
		FP: fp,
		FN: fn,
		TN: size - nTP - fp - fn,
	}
}

// Metrics are the six disparity measures between the groups.
type Metrics struct {
	StatisticalParity              float64
	PredictiveParity               float64
	PredictiveEquality             float64
	EqualOpportunity               float64
	EqualizedOdds                  float64
	ConditionalUseAccuracyEquality float64
}

// Metrics computes all disparity measures.
func (m GroupMatrices) Metrics() Metrics {
	a, b := m.Majority, m.Minority
	pe := gap(a.FPR(), b.FPR())
	eo := gap(a.FNR(), b.FNR())
	pp := gap(a.PPV(), b.PPV())
	return Metrics{
		StatisticalParity:              gap(a.PositiveRate(), b.PositiveRate()),
		PredictiveParity:               pp,
		PredictiveEquality:             pe,
		EqualOpportunity:               eo,
		EqualizedOdds:                  math.Max(pe, eo),
		ConditionalUseAccuracyEquality: math.Max(pp, gap(a.NPV(), b.NPV())),
	}
}

func gap(x, y float64) float64 { return math.Abs(x - y) }

// Value returns the measure selected by metric.
func (m Metrics) Value(metric Metric) float64 {
	switch metric {
	case StatisticalParity:
		return m.StatisticalParity
	case PredictiveParity:
		return m.PredictiveParity
	case PredictiveEquality:
		return m.PredictiveEquality
	case EqualOpportunity:
		return m.EqualOpportunity
	case EqualizedOdds:
		return m.EqualizedOdds
	case ConditionalUseAccuracyEquality:
		return m.ConditionalUseAccuracyEquality
	default:
		panic(fmt.Sprintf("fairness: invalid metric %d", metric))
	}
}

// Policy folds a metric into the search objective.
type Policy struct {
	Metric Metric
	// Beta weighs the unfairness penalty added to the objective.
	Beta float64
	// Epsilon is the largest unfairness a rule list may have to become the
	// incumbent. Zero or negative disables the constraint.
	Epsilon float64
}

// Validate checks the policy.
func (p Policy) Validate() error {
	if !p.Metric.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMetric, p.Metric)
	}
	if p.Beta < 0 || math.IsNaN(p.Beta) || math.IsInf(p.Beta, 0) {
		return fmt.Errorf("%w: beta must be finite and non-negative, got %g", ErrInvalidPolicy, p.Beta)
	}
	if p.Epsilon > 1 || math.IsNaN(p.Epsilon) || math.IsInf(p.Epsilon, 0) {
		return fmt.Errorf("%w: epsilon must be finite and at most 1, got %g", ErrInvalidPolicy, p.Epsilon)
	}
	return nil
}

// Unfairness returns the selected metric.
func (p Policy) Unfairness(m Metrics) float64 { return m.Value(p.Metric) }

// Penalty returns Beta times the selected metric.
func (p Policy) Penalty(m Metrics) float64 { return p.Beta * m.Value(p.Metric) }

// Acceptable reports whether the unfairness is within the tolerance.
func (p Policy) Acceptable(m Metrics) bool {
	return p.Epsilon <= 0 || m.Value(p.Metric) <= p.Epsilon
}
