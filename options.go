package corelgo

import (
	"log/slog"
	"time"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/resource"
)

// Defaults used when an option is not given.
const (
	DefaultRegularization   = 0.01
	DefaultMaxNodes         = 100_000
	DefaultOrdering         = OrderingLowerBound
	DefaultCacheKind        = CachePrefix
	DefaultProgressInterval = 10_000
)

// Fairness configures the fairness-aware objective.
type Fairness struct {
	Metric FairnessMetric
	// Beta weighs the unfairness penalty added to the objective.
	Beta float64
	// Epsilon is the largest unfairness the returned list may have. Zero
	// disables the constraint.
	Epsilon float64
	// MajorityRule and MinorityRule name the rules whose truth tables are
	// the protected groups.
	MajorityRule string
	MinorityRule string
	// Majority and Minority set the groups explicitly and take precedence
	// over the rule names.
	Majority *bitset.Bitset
	Minority *bitset.Bitset
}

type options struct {
	ordering         Ordering
	curiosity        CuriosityPolicy
	c                float64
	maxNodes         int
	ablation         Ablation
	cacheKind        CacheKind
	cacheSet         bool
	cacheMaxBytes    int64
	fairness         *Fairness
	timeLimit        time.Duration
	maxIterations    uint64
	progressInterval uint64
	logger           *Logger
	metricsCollector MetricsCollector
	resource         *resource.Controller
}

// Option configures Learn.
type Option func(*options)

// WithOrdering sets the frontier ordering. Default: lower bound first.
func WithOrdering(o Ordering) Option {
	return func(opts *options) {
		opts.ordering = o
	}
}

// WithCuriosityPolicy sets how the curious ordering scores nodes.
func WithCuriosityPolicy(p CuriosityPolicy) Option {
	return func(opts *options) {
		opts.curiosity = p
	}
}

// WithRegularization sets the penalty c charged per rule. Larger values
// favor shorter lists and prune more. Default: 0.01.
func WithRegularization(c float64) Option {
	return func(opts *options) {
		opts.c = c
	}
}

// WithMaxNodes caps the number of live search nodes. 0 means unlimited.
// Default: 100000.
func WithMaxNodes(n int) Option {
	return func(opts *options) {
		opts.maxNodes = n
	}
}

// WithAblation disables one family of bounds.
func WithAblation(a Ablation) Option {
	return func(opts *options) {
		opts.ablation = a
	}
}

// WithCache selects the permutation map. maxBytes bounds its size with LRU
// eviction; 0 means unbounded.
//
// Without this option the prefix map is used, or no map at all when
// fairness is enabled: the map compares accuracy bounds only, so under a
// fairness penalty it may drop the optimal ordering of a prefix.
func WithCache(kind CacheKind, maxBytes int64) Option {
	return func(opts *options) {
		opts.cacheKind = kind
		opts.cacheMaxBytes = maxBytes
		opts.cacheSet = true
	}
}

// WithFairness enables the fairness-aware objective. Pass nil to disable.
func WithFairness(f *Fairness) Option {
	return func(opts *options) {
		opts.fairness = f
	}
}

// WithTimeLimit stops the search after d. The best list found so far is
// returned with ReasonDeadline.
func WithTimeLimit(d time.Duration) Option {
	return func(opts *options) {
		opts.timeLimit = d
	}
}

// WithMaxIterations caps the number of node expansions. 0 means unlimited.
func WithMaxIterations(n uint64) Option {
	return func(opts *options) {
		opts.maxIterations = n
	}
}

// WithProgressInterval sets how many expansions pass between progress
// reports. 0 disables them.
func WithProgressInterval(n uint64) Option {
	return func(opts *options) {
		opts.progressInterval = n
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := corelgo.NewJSONLogger(slog.LevelDebug)
//	res, _ := corelgo.Learn(ctx, ds, corelgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(opts *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		opts.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(opts *options) {
		opts.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &corelgo.BasicMetricsCollector{}
//	res, _ := corelgo.Learn(ctx, ds, corelgo.WithMetricsCollector(metrics))
//	fmt.Println(metrics.GetStats().IncumbentCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(opts *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		opts.metricsCollector = mc
	}
}

// WithResourceController charges search nodes and permutation map entries
// to rc. A memory refusal ends the run like the node budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(opts *options) {
		opts.resource = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		ordering:         DefaultOrdering,
		curiosity:        CuriosityCaptured,
		c:                DefaultRegularization,
		maxNodes:         DefaultMaxNodes,
		cacheKind:        DefaultCacheKind,
		progressInterval: DefaultProgressInterval,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.fairness != nil && !o.cacheSet {
		o.cacheKind = CacheNone
	}
	return o
}
