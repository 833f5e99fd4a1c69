package corelgo

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/internal/fairness"
	"github.com/hupe1980/corelgo/internal/pmap"
	"github.com/hupe1980/corelgo/internal/search"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// Learn searches for the rule list over ds that minimizes the regularized
// objective. Stopping early because of the node budget, the time limit, the
// iteration cap or ctx is not an error: the result carries the best list
// found and the reason.
//
// ds is not modified. When it carries no minority, the equivalent points
// minority is computed unless that bound is ablated.
func Learn(ctx context.Context, ds *dataset.Dataset, opts ...Option) (*Result, error) {
	o := applyOptions(opts)
	start := time.Now()

	res, err := learn(ctx, ds, &o)
	if err != nil {
		err = translateError(err)
		o.metricsCollector.RecordRun(0, time.Since(start), err)
		o.logger.LogRun(ctx, nil, err)
		return nil, err
	}
	o.metricsCollector.RecordRun(res.Reason, time.Since(start), nil)
	o.logger.LogRun(ctx, res, nil)
	return res, nil
}

func learn(ctx context.Context, ds *dataset.Dataset, o *options) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", ErrInvalidDataset)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	minority := ds.Minority
	if o.ablation == AblationEquivalentPoints {
		minority = nil
	} else if minority == nil {
		m, err := dataset.ComputeMinority(ds.Rules, ds.Labels)
		if err != nil {
			return nil, err
		}
		minority = m
	}

	var fair *search.Fairness
	if o.fairness != nil {
		f, err := o.fairness.resolve(ds)
		if err != nil {
			return nil, err
		}
		fair = f
	}

	var treeOpts []tree.Option
	cacheOpts := []pmap.Option{pmap.WithMaxBytes(o.cacheMaxBytes)}
	if o.resource != nil {
		treeOpts = append(treeOpts, tree.WithMemoryAcquirer(o.resource))
		cacheOpts = append(cacheOpts, pmap.WithMemoryAcquirer(o.resource))
	}
	t, err := tree.New(tree.Config{
		NSamples: ds.NSamples(),
		Rules:    ds.Rules,
		Labels:   ds.Labels,
		Minority: minority,
		C:        o.c,
		MaxNodes: o.maxNodes,
		Ablation: o.ablation,
	}, treeOpts...)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	cache, err := pmap.New(o.cacheKind, cacheOpts...)
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	s, err := search.New(t, cache, search.Config{
		Ordering:         o.ordering,
		Curiosity:        o.curiosity,
		Fairness:         fair,
		MaxIterations:    o.maxIterations,
		ProgressInterval: o.progressInterval,
	},
		search.WithLogger(o.logger.Logger),
		search.WithListener(&runListener{ctx: ctx, logger: o.logger, metrics: o.metricsCollector}),
	)
	if err != nil {
		return nil, err
	}

	if o.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeLimit)
		defer cancel()
	}
	sr, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}
	return newResult(ds, sr, fair), nil
}

// resolve turns the public fairness settings into search settings.
func (f *Fairness) resolve(ds *dataset.Dataset) (*search.Fairness, error) {
	groups := fairness.Groups{Majority: f.Majority, Minority: f.Minority}
	if groups.Majority == nil || groups.Minority == nil {
		majID, ok := ds.RuleByName(f.MajorityRule)
		if !ok {
			return nil, fmt.Errorf("%w: unknown majority group rule %q", ErrInvalidConfig, f.MajorityRule)
		}
		minID, ok := ds.RuleByName(f.MinorityRule)
		if !ok {
			return nil, fmt.Errorf("%w: unknown minority group rule %q", ErrInvalidConfig, f.MinorityRule)
		}
		g, err := fairness.GroupsFromRules(ds.Rules, majID, minID)
		if err != nil {
			return nil, err
		}
		groups = g
	}
	return &search.Fairness{
		Policy: fairness.Policy{Metric: f.Metric, Beta: f.Beta, Epsilon: f.Epsilon},
		Groups: groups,
	}, nil
}

// runListener forwards search events to the logger and the metrics collector.
type runListener struct {
	ctx     context.Context
	logger  *Logger
	metrics MetricsCollector
}

func (l *runListener) OnIncumbent(rl model.RuleList, st Stats) {
	l.logger.LogIncumbent(l.ctx, rl.Objective, rl.Len(), st)
	l.metrics.RecordIncumbent(rl.Objective, rl.Len())
}

func (l *runListener) OnProgress(st Stats) {
	l.logger.LogProgress(l.ctx, st)
	l.metrics.RecordProgress(st)
}

// Unfairness evaluates a metric of l over the samples of ds.
func Unfairness(ds *dataset.Dataset, l model.RuleList, metric FairnessMetric, majority, minority *bitset.Bitset) (float64, error) {
	if !metric.Valid() {
		return 0, fmt.Errorf("%w: %w: %d", ErrInvalidConfig, fairness.ErrUnknownMetric, metric)
	}
	g := fairness.Groups{Majority: majority, Minority: minority}
	if err := g.Validate(ds.NSamples()); err != nil {
		return 0, translateError(err)
	}
	positives := l.Predict(ds.Rules, ds.NSamples())
	return fairness.Compute(positives, ds.Labels[1], g).Metrics().Value(metric), nil
}
