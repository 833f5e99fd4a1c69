package corelgo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/codec"
	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/internal/fairness"
	"github.com/hupe1980/corelgo/model"
	"github.com/hupe1980/corelgo/resource"
	"github.com/hupe1980/corelgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromSynthetic(td testutil.Dataset) *dataset.Dataset {
	rules := make([]model.Rule, len(td.Rules))
	for i, r := range td.Rules {
		rules[i] = model.NewRule(r.ID, fmt.Sprintf("f%d", i), r.Truth)
	}
	return &dataset.Dataset{Rules: rules, Labels: td.Labels}
}

func paperDataset() *dataset.Dataset {
	label1 := bitset.MustParse("110100")
	return &dataset.Dataset{
		Rules: []model.Rule{
			model.NewRule(0, "r0", bitset.MustParse("110100")),
			model.NewRule(1, "r1", bitset.MustParse("001011")),
			model.NewRule(2, "r2", bitset.MustParse("010010")),
		},
		Labels: [2]*bitset.Bitset{label1.Not(), label1},
	}
}

func TestLearn_PerfectRule(t *testing.T) {
	res, err := Learn(context.Background(), paperDataset(), WithRegularization(0.05))
	require.NoError(t, err)
	assert.True(t, res.Optimal)
	assert.Equal(t, ReasonExhausted, res.Reason)
	assert.Equal(t, []model.RuleID{0}, res.RuleList.Rules)
	assert.InDelta(t, 0.05, res.Objective, 1e-12)
	assert.InDelta(t, 1.0, res.Accuracy, 1e-12)
	assert.Equal(t, "if (r0) then (1)\nelse (0)", res.String())
}

func TestLearn_MatchesBruteForce(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		for _, c := range []float64{0.01, 0.03} {
			for _, ordering := range []Ordering{OrderingBFS, OrderingCurious, OrderingDFS} {
				t.Run(fmt.Sprintf("seed=%d/c=%g/%s", seed, c, ordering), func(t *testing.T) {
					td := testutil.NewRNG(seed).Dataset(40, 6, 0.3)
					ds := fromSynthetic(td)
					want := testutil.BruteForce(td.Rules, td.Labels, c, len(td.Rules), nil)

					res, err := Learn(context.Background(), ds,
						WithRegularization(c),
						WithOrdering(ordering),
						WithMaxNodes(0),
					)
					require.NoError(t, err)
					require.True(t, res.Optimal)
					assert.InDelta(t, want.Objective, res.Objective, 1e-9)

					// Objective is the training error plus the length penalty.
					assert.InDelta(t, res.Objective, 1-res.Accuracy+c*float64(res.RuleList.Len()), 1e-9)
					assert.Nil(t, ds.Minority, "dataset is not modified")
				})
			}
		}
	}
}

func TestLearn_CacheKinds(t *testing.T) {
	td := testutil.NewRNG(7).Dataset(60, 7, 0.3)
	ds := fromSynthetic(td)
	want := testutil.BruteForce(td.Rules, td.Labels, 0.01, len(td.Rules), nil)

	for _, kind := range []CacheKind{CacheNone, CacheCaptured, CachePrefix} {
		t.Run(kind.String(), func(t *testing.T) {
			res, err := Learn(context.Background(), ds, WithCache(kind, 0), WithMaxNodes(0))
			require.NoError(t, err)
			require.True(t, res.Optimal)
			assert.InDelta(t, want.Objective, res.Objective, 1e-9)
			if kind == CacheNone {
				assert.Zero(t, res.Stats.CacheEntries)
			}
		})
	}
}

func TestLearn_StopsEarly(t *testing.T) {
	td := testutil.NewRNG(5).Dataset(80, 10, 0.3)
	ds := fromSynthetic(td)

	t.Run("budget", func(t *testing.T) {
		res, err := Learn(context.Background(), ds, WithMaxNodes(3), WithRegularization(0.001))
		require.NoError(t, err)
		assert.Equal(t, ReasonBudget, res.Reason)
		assert.False(t, res.Optimal)
		assert.True(t, res.Feasible())
	})

	t.Run("iterations", func(t *testing.T) {
		res, err := Learn(context.Background(), ds, WithMaxIterations(1), WithRegularization(0.001))
		require.NoError(t, err)
		assert.Equal(t, ReasonIterations, res.Reason)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := Learn(ctx, ds)
		require.NoError(t, err)
		assert.Equal(t, ReasonCanceled, res.Reason)
		assert.Empty(t, res.RuleList.Rules)
	})

	t.Run("memory", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1})
		res, err := Learn(context.Background(), ds, WithResourceController(rc), WithRegularization(0.001))
		require.NoError(t, err)
		assert.Equal(t, ReasonBudget, res.Reason)
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("memory released", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
		res, err := Learn(context.Background(), ds, WithResourceController(rc), WithMaxNodes(200))
		require.NoError(t, err)
		assert.True(t, res.Feasible())
		assert.Zero(t, rc.MemoryUsage(), "tree and cache charges are returned")
	})
}

func TestLearn_Invalid(t *testing.T) {
	ds := paperDataset()
	ctx := context.Background()

	_, err := Learn(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidDataset)

	_, err = Learn(ctx, ds, WithRegularization(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	for _, c := range []float64{math.NaN(), math.Inf(1)} {
		_, err = Learn(ctx, ds, WithRegularization(c))
		assert.ErrorIs(t, err, ErrInvalidConfig, "regularization %g", c)
	}

	_, err = Learn(ctx, ds, WithFairness(&Fairness{Metric: StatisticalParity, MajorityRule: "r0", MinorityRule: "r1", Epsilon: math.NaN()}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Learn(ctx, ds, WithOrdering(Ordering(42)))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Learn(ctx, ds, WithFairness(&Fairness{Metric: StatisticalParity, MajorityRule: "r0", MinorityRule: "nope"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Learn(ctx, ds, WithFairness(&Fairness{Metric: 0, MajorityRule: "r0", MinorityRule: "r1"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	bad := paperDataset()
	bad.Rules[1].Truth = bitset.New(5)
	_, err = Learn(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidDataset)
}

func TestLearn_Fairness(t *testing.T) {
	td := testutil.NewRNG(21).Dataset(40, 5, 0.35)
	ds := fromSynthetic(td)
	majority := bitset.New(40)
	for i := range 24 {
		majority.Set(i)
	}
	minority := majority.Not()
	groups := fairness.Groups{Majority: majority, Minority: minority}

	for _, f := range []Fairness{
		{Metric: StatisticalParity, Beta: 0.5},
		{Metric: EqualOpportunity, Beta: 1},
		{Metric: StatisticalParity, Epsilon: 0.05},
	} {
		t.Run(fmt.Sprintf("%s/beta=%g/eps=%g", f.Metric, f.Beta, f.Epsilon), func(t *testing.T) {
			policy := fairness.Policy{Metric: f.Metric, Beta: f.Beta, Epsilon: f.Epsilon}
			scorer := func(pos *bitset.Bitset) (float64, bool) {
				m := fairness.Compute(pos, ds.Labels[1], groups).Metrics()
				return policy.Penalty(m), policy.Acceptable(m)
			}
			want := testutil.BruteForce(td.Rules, td.Labels, 0.01, len(td.Rules), scorer)

			f.Majority, f.Minority = majority, minority
			res, err := Learn(context.Background(), ds, WithFairness(&f), WithMaxNodes(0))
			require.NoError(t, err)
			require.True(t, res.Optimal)
			if math.IsInf(want.Objective, 1) {
				assert.False(t, res.Feasible())
				return
			}
			require.True(t, res.Feasible())
			assert.InDelta(t, want.Objective, res.Objective, 1e-9)

			u, err := Unfairness(ds, res.RuleList, f.Metric, majority, minority)
			require.NoError(t, err)
			assert.InDelta(t, u, res.Unfairness, 1e-12)
			if f.Epsilon > 0 {
				assert.LessOrEqual(t, res.Unfairness, f.Epsilon)
			}
		})
	}
}

func TestLearn_FairnessByRuleName(t *testing.T) {
	ds := paperDataset()
	res, err := Learn(context.Background(), ds, WithFairness(&Fairness{
		Metric:       StatisticalParity,
		Beta:         1,
		MajorityRule: "r1",
		MinorityRule: "r2",
	}))
	require.NoError(t, err)
	assert.True(t, res.Optimal)

	u, err := Unfairness(ds, res.RuleList, StatisticalParity, ds.Rules[1].Truth, ds.Rules[2].Truth)
	require.NoError(t, err)
	assert.InDelta(t, u, res.Unfairness, 1e-12)
}

func TestUnfairness_Invalid(t *testing.T) {
	ds := paperDataset()
	_, err := Unfairness(ds, model.RuleList{}, 0, ds.Rules[0].Truth, ds.Rules[1].Truth)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = Unfairness(ds, model.RuleList{}, StatisticalParity, nil, ds.Rules[1].Truth)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLearn_MetricsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &BasicMetricsCollector{}

	td := testutil.NewRNG(3).Dataset(50, 6, 0.3)
	res, err := Learn(context.Background(), fromSynthetic(td),
		WithLogger(logger),
		WithMetricsCollector(metrics),
		WithProgressInterval(1),
	)
	require.NoError(t, err)

	st := metrics.GetStats()
	assert.Equal(t, int64(1), st.RunCount)
	assert.Equal(t, int64(1), st.OptimalRuns)
	assert.Zero(t, st.RunErrors)
	assert.Equal(t, int64(res.Stats.Incumbents), st.IncumbentCount)
	if st.IncumbentCount > 0 {
		assert.InDelta(t, res.Objective, st.LastObjective, 1e-12)
	}
	assert.Equal(t, int64(res.Stats.Iterations), st.ProgressReports)

	out := buf.String()
	assert.Contains(t, out, `"msg":"learn completed"`)
	assert.Contains(t, out, `"msg":"search progress"`)

	_, err = Learn(context.Background(), nil, WithMetricsCollector(metrics), WithLogger(logger))
	require.Error(t, err)
	assert.Equal(t, int64(1), metrics.GetStats().RunErrors)
	assert.Contains(t, buf.String(), `"msg":"learn failed"`)
}

func TestResult_Report(t *testing.T) {
	res, err := Learn(context.Background(), paperDataset(), WithRegularization(0.05))
	require.NoError(t, err)

	rep := res.Report()
	require.Len(t, rep.Rules, 1)
	assert.Equal(t, ReportRule{Rule: "r0", Prediction: true}, rep.Rules[0])
	assert.False(t, rep.Default)
	require.NotNil(t, rep.Objective)
	assert.InDelta(t, 0.05, *rep.Objective, 1e-12)
	assert.Equal(t, "exhausted", rep.Reason)

	var decoded Report
	require.NoError(t, codec.GoJSON{}.Unmarshal(codec.MustMarshal(codec.GoJSON{}, rep), &decoded))
	assert.Equal(t, rep.Rules, decoded.Rules)

	res.Objective = math.Inf(1)
	rep = res.Report()
	assert.Nil(t, rep.Objective)
	assert.False(t, rep.Feasible)
	_, err = codec.JSON{}.Marshal(rep)
	assert.NoError(t, err)
}

func TestBuilder(t *testing.T) {
	ds := paperDataset()
	base := New(ds).BFS()
	a := base.Regularization(0.05)
	b := base.Regularization(0.2).MaxNodes(10)

	assert.Len(t, base.Options(), 1)
	assert.Len(t, a.Options(), 2)
	assert.Len(t, b.Options(), 3)

	res, err := a.Learn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.RuleID{0}, res.RuleList.Rules)

	// 0.2 for one perfect rule still beats the empty list at 0.5.
	res, err = b.Learn(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.2, res.Objective, 1e-12)

	res, err = New(ds).Regularization(0.6).Learn(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.RuleList.Rules)
	assert.InDelta(t, 0.5, res.Objective, 1e-12)

	_, err = New(ds).Curious().Cache(CacheCaptured, 1<<20).Ablate(AblationLookahead).Learn(context.Background())
	assert.NoError(t, err)
}

func TestOptions_FairnessDisablesDefaultCache(t *testing.T) {
	o := applyOptions([]Option{WithFairness(&Fairness{})})
	assert.Equal(t, CacheNone, o.cacheKind)

	o = applyOptions([]Option{WithFairness(&Fairness{}), WithCache(CacheCaptured, 0)})
	assert.Equal(t, CacheCaptured, o.cacheKind)

	o = applyOptions(nil)
	assert.Equal(t, DefaultCacheKind, o.cacheKind)
	assert.Equal(t, DefaultRegularization, o.c)

	o = applyOptions([]Option{WithLogger(nil), WithMetricsCollector(nil), nil})
	assert.NotNil(t, o.logger)
	assert.NotNil(t, o.metricsCollector)
}

func TestErrWidthMismatch(t *testing.T) {
	ds := paperDataset()
	ds.Labels[1] = bitset.New(5)
	ds.Labels[0] = bitset.Ones(5)
	_, err := Learn(context.Background(), ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDataset))
}
