package corelgo

import (
	"github.com/hupe1980/corelgo/internal/fairness"
	"github.com/hupe1980/corelgo/internal/pmap"
	"github.com/hupe1980/corelgo/internal/queue"
	"github.com/hupe1980/corelgo/internal/search"
	"github.com/hupe1980/corelgo/internal/tree"
)

// Ordering selects which frontier node is expanded next.
type Ordering = queue.Ordering

const (
	OrderingBFS        = queue.BFS
	OrderingCurious    = queue.Curiosity
	OrderingLowerBound = queue.LowerBound
	OrderingObjective  = queue.Objective
	OrderingDFS        = queue.DFS
)

// ParseOrdering parses bfs, curious, lower_bound, objective or dfs.
func ParseOrdering(s string) (Ordering, error) {
	o, err := queue.ParseOrdering(s)
	return o, translateError(err)
}

// Ablation disables one family of bounds.
type Ablation = tree.Ablation

const (
	AblationNone             = tree.AblationNone
	AblationSupport          = tree.AblationSupport
	AblationLookahead        = tree.AblationLookahead
	AblationEquivalentPoints = tree.AblationEquivalentPoints
)

// ParseAblation converts the integer selector 0..3.
func ParseAblation(v int) (Ablation, error) {
	a, err := tree.ParseAblation(v)
	return a, translateError(err)
}

// CacheKind selects the permutation map.
type CacheKind = pmap.Kind

const (
	// CacheNone disables symmetry pruning.
	CacheNone = pmap.None
	// CacheCaptured merges prefixes that capture the same samples.
	CacheCaptured = pmap.Captured
	// CachePrefix merges prefixes made of the same rules.
	CachePrefix = pmap.Prefix
)

// ParseCacheKind parses none, captured or prefix.
func ParseCacheKind(s string) (CacheKind, error) {
	k, err := pmap.ParseKind(s)
	return k, translateError(err)
}

// CuriosityPolicy computes the priority of the curious ordering.
type CuriosityPolicy = search.CuriosityPolicy

const (
	CuriosityCaptured   = search.CuriosityCaptured
	CuriosityLowerBound = search.CuriosityLowerBound
	CuriosityObjective  = search.CuriosityObjective
)

// ParseCuriosityPolicy parses captured, lower_bound or objective.
func ParseCuriosityPolicy(s string) (CuriosityPolicy, error) {
	p, err := search.ParseCuriosityPolicy(s)
	return p, translateError(err)
}

// FairnessMetric is a group disparity measure.
type FairnessMetric = fairness.Metric

const (
	StatisticalParity              = fairness.StatisticalParity
	PredictiveParity               = fairness.PredictiveParity
	PredictiveEquality             = fairness.PredictiveEquality
	EqualOpportunity               = fairness.EqualOpportunity
	EqualizedOdds                  = fairness.EqualizedOdds
	ConditionalUseAccuracyEquality = fairness.ConditionalUseAccuracyEquality
)

// ParseFairnessMetric accepts a metric number 1..6 or its snake_case name.
func ParseFairnessMetric(s string) (FairnessMetric, error) {
	m, err := fairness.ParseMetric(s)
	return m, translateError(err)
}

// Reason tells why a run stopped.
type Reason = search.Reason

const (
	ReasonExhausted  = search.ReasonExhausted
	ReasonBudget     = search.ReasonBudget
	ReasonCanceled   = search.ReasonCanceled
	ReasonDeadline   = search.ReasonDeadline
	ReasonIterations = search.ReasonIterations
)

// Stats are the counters of a run.
type Stats = search.Stats
