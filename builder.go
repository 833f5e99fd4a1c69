package corelgo

import (
	"context"
	"slices"
	"time"

	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/resource"
)

// Builder is an immutable fluent front end to Learn.
// Each method returns a new builder with the updated configuration.
//
// Example:
//
//	res, err := corelgo.New(ds).
//	    Curious().
//	    Regularization(0.005).
//	    MaxNodes(1_000_000).
//	    Cache(corelgo.CacheCaptured, 0).
//	    Learn(ctx)
type Builder struct {
	ds   *dataset.Dataset
	opts []Option
}

// New creates a builder for ds.
func New(ds *dataset.Dataset) Builder {
	return Builder{ds: ds}
}

func (b Builder) with(o Option) Builder {
	b.opts = append(slices.Clip(b.opts), o)
	return b
}

// BFS expands the shallowest node first.
func (b Builder) BFS() Builder { return b.with(WithOrdering(OrderingBFS)) }

// DFS expands the deepest node first.
func (b Builder) DFS() Builder { return b.with(WithOrdering(OrderingDFS)) }

// Curious expands the least curious node first.
func (b Builder) Curious() Builder { return b.with(WithOrdering(OrderingCurious)) }

// BestFirst expands the node with the smallest lower bound first.
func (b Builder) BestFirst() Builder { return b.with(WithOrdering(OrderingLowerBound)) }

// ObjectiveFirst expands the node with the smallest objective first.
func (b Builder) ObjectiveFirst() Builder { return b.with(WithOrdering(OrderingObjective)) }

// CuriosityPolicy sets how the curious ordering scores nodes.
func (b Builder) CuriosityPolicy(p CuriosityPolicy) Builder {
	return b.with(WithCuriosityPolicy(p))
}

// Regularization sets the per-rule penalty c.
func (b Builder) Regularization(c float64) Builder { return b.with(WithRegularization(c)) }

// MaxNodes caps the number of live search nodes.
func (b Builder) MaxNodes(n int) Builder { return b.with(WithMaxNodes(n)) }

// Ablate disables one family of bounds.
func (b Builder) Ablate(a Ablation) Builder { return b.with(WithAblation(a)) }

// Cache selects the permutation map.
func (b Builder) Cache(kind CacheKind, maxBytes int64) Builder {
	return b.with(WithCache(kind, maxBytes))
}

// Fair enables the fairness-aware objective.
func (b Builder) Fair(f Fairness) Builder { return b.with(WithFairness(&f)) }

// TimeLimit stops the search after d.
func (b Builder) TimeLimit(d time.Duration) Builder { return b.with(WithTimeLimit(d)) }

// MaxIterations caps the number of expansions.
func (b Builder) MaxIterations(n uint64) Builder { return b.with(WithMaxIterations(n)) }

// Logger sets the structured logger.
func (b Builder) Logger(l *Logger) Builder { return b.with(WithLogger(l)) }

// Metrics sets the metrics collector.
func (b Builder) Metrics(mc MetricsCollector) Builder { return b.with(WithMetricsCollector(mc)) }

// Resources charges memory to rc.
func (b Builder) Resources(rc *resource.Controller) Builder {
	return b.with(WithResourceController(rc))
}

// Options returns the accumulated options.
func (b Builder) Options() []Option { return slices.Clone(b.opts) }

// Learn runs the search.
func (b Builder) Learn(ctx context.Context) (*Result, error) {
	return Learn(ctx, b.ds, b.opts...)
}
