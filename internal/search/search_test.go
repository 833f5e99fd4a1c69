package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/internal/fairness"
	"github.com/hupe1980/corelgo/internal/pmap"
	"github.com/hupe1980/corelgo/internal/queue"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
	"github.com/hupe1980/corelgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// auditor checks tree invariants as nodes come and go.
type auditor struct {
	t       *testing.T
	tree    *tree.Tree
	created int
	freed   int
}

func (a *auditor) OnCreate(_ tree.Handle, n *tree.Node) {
	a.created++
	if n.RuleID == model.NoRule {
		return
	}
	p := a.tree.Node(n.Parent)
	require.NotNil(a.t, p)
	assert.GreaterOrEqual(a.t, n.LowerBound, p.LowerBound, "child bound below parent bound")
	assert.LessOrEqual(a.t, n.LowerBound, n.Objective+1e-12+n.EquivalentMinority)
	assert.Equal(a.t, n.NumCaptured, n.CapturedNegative+n.CapturedPositive)
	assert.Equal(a.t, n.CapturedPositive >= n.CapturedNegative, n.Prediction)
}

func (a *auditor) OnDestroy(h tree.Handle, n *tree.Node) {
	a.freed++
	lb := n.LowerBound
	if a.tree.Ablation() != tree.AblationLookahead {
		lb += a.tree.C()
	}
	sound := n.Done || a.tree.Dominated(h) || lb >= a.tree.MinObjective()
	assert.True(a.t, sound, "node with bound %g discarded below incumbent %g", lb, a.tree.MinObjective())
}

type recorder struct {
	objectives []float64
	progress   int
}

func (r *recorder) OnIncumbent(l model.RuleList, _ Stats) {
	r.objectives = append(r.objectives, l.Objective)
}
func (r *recorder) OnProgress(Stats) { r.progress++ }

type run struct {
	ds       testutil.Dataset
	c        float64
	maxNodes int
	ablation tree.Ablation
	minority bool
	kind     pmap.Kind
	cfg      Config
	opts     []Option
}

func (r run) exec(t *testing.T, ctx context.Context) (Result, *auditor) {
	t.Helper()
	cfg := tree.Config{
		NSamples: r.ds.NSamples,
		Rules:    r.ds.Rules,
		Labels:   r.ds.Labels,
		C:        r.c,
		MaxNodes: r.maxNodes,
		Ablation: r.ablation,
	}
	if r.minority {
		m, err := dataset.ComputeMinority(r.ds.Rules, r.ds.Labels)
		require.NoError(t, err)
		cfg.Minority = m
	}
	a := &auditor{t: t}
	tr, err := tree.New(cfg, tree.WithObserver(a))
	require.NoError(t, err)
	a.tree = tr

	cache, err := pmap.New(r.kind)
	require.NoError(t, err)
	s, err := New(tr, cache, r.cfg, r.opts...)
	require.NoError(t, err)
	res, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, a.created-a.freed, tr.NumNodes())
	assert.Equal(t, tr.NumNodes(), res.Stats.NodesLive)
	assert.Equal(t, uint64(a.created), res.Stats.NodesCreated)
	assert.Equal(t, uint64(a.freed), res.Stats.NodesDestroyed)
	return res, a
}

func paperDataset(labels string) testutil.Dataset {
	label1 := bitset.MustParse(labels)
	return testutil.Dataset{
		NSamples: 6,
		Rules: []model.Rule{
			model.NewRule(0, "", bitset.MustParse("110100")),
			model.NewRule(1, "", bitset.MustParse("001011")),
			model.NewRule(2, "", bitset.MustParse("010010")),
		},
		Labels: [2]*bitset.Bitset{label1.Not(), label1},
	}
}

// checkPartition verifies that the rules of l, followed by the default,
// classify every sample exactly once.
func checkPartition(t *testing.T, l model.RuleList, ds testutil.Dataset) {
	t.Helper()
	seen := bitset.New(ds.NSamples)
	total := 0
	for _, id := range l.Rules {
		newly := ds.Rules[id].Truth.Clone()
		newly.AndNot(seen)
		total += newly.Count()
		seen.Or(newly)
	}
	rest := seen.Not()
	total += rest.Count()
	assert.Equal(t, ds.NSamples, total)
	assert.Equal(t, len(l.Rules), len(l.Predictions))
}

func TestRun_EndToEnd(t *testing.T) {
	for _, labels := range []string{"110100", "101010", "011011", "000001"} {
		t.Run(labels, func(t *testing.T) {
			ds := paperDataset(labels)
			res, _ := run{ds: ds, c: 0.05, maxNodes: 1000, kind: pmap.Captured, cfg: Config{Ordering: queue.BFS}}.exec(t, context.Background())

			assert.Equal(t, ReasonExhausted, res.Reason)
			assert.True(t, res.Reason.Optimal())
			oneRule := testutil.BruteForce(ds.Rules, ds.Labels, 0.05, 1, nil)
			assert.LessOrEqual(t, res.Objective, oneRule.Objective+1e-12)

			best := testutil.BruteForce(ds.Rules, ds.Labels, 0.05, 3, nil)
			assert.InDelta(t, best.Objective, res.Objective, 1e-9)
			assert.InDelta(t, res.Objective, testutil.Objective(res.RuleList, ds.Rules, ds.Labels, 0.05), 1e-9)
			checkPartition(t, res.RuleList, ds)
			assert.Zero(t, res.Stats.FrontierSize)
		})
	}
}

func TestRun_PerfectRule(t *testing.T) {
	ds := paperDataset("110100")
	res, _ := run{ds: ds, c: 0.05, kind: pmap.Captured, cfg: Config{Ordering: queue.BFS}}.exec(t, context.Background())
	assert.Equal(t, []model.RuleID{0}, res.RuleList.Rules)
	assert.Equal(t, []bool{true}, res.RuleList.Predictions)
	assert.False(t, res.RuleList.Default)
	assert.InDelta(t, 0.05, res.Objective, 1e-12)
	assert.Equal(t, uint64(1), res.Stats.Iterations)
	assert.Equal(t, uint64(3), res.Stats.Evaluated)
}

// topLevel records the nodes created directly below the root.
type topLevel struct {
	root  tree.Handle
	nodes map[model.RuleID]tree.Node
}

func (o *topLevel) OnCreate(h tree.Handle, n *tree.Node) {
	if n.RuleID == model.NoRule {
		o.root = h
		return
	}
	if n.Parent == o.root {
		o.nodes[n.RuleID] = *n
	}
}

func (o *topLevel) OnDestroy(tree.Handle, *tree.Node) {}

func TestRun_CapturedCountsByLabel(t *testing.T) {
	ds := paperDataset("101010")
	obs := &topLevel{nodes: map[model.RuleID]tree.Node{}}
	tr, err := tree.New(tree.Config{
		NSamples: ds.NSamples,
		Rules:    ds.Rules,
		Labels:   ds.Labels,
		C:        0.01,
		MaxNodes: 100,
	}, tree.WithObserver(obs))
	require.NoError(t, err)
	s, err := New(tr, nil, Config{Ordering: queue.BFS})
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, obs.nodes, len(ds.Rules))
	for _, r := range ds.Rules {
		n := obs.nodes[r.ID]
		assert.Equal(t, r.Truth.AndCount(ds.Labels[0]), n.CapturedNegative, "rule %d", r.ID)
		assert.Equal(t, r.Truth.AndCount(ds.Labels[1]), n.CapturedPositive, "rule %d", r.ID)
		assert.Equal(t, r.Truth.Count(), n.NumCaptured, "rule %d", r.ID)
	}
	// 110100 captures labels 1,0,0 at samples 0,1,3.
	assert.Equal(t, 2, obs.nodes[0].CapturedNegative)
	assert.Equal(t, 1, obs.nodes[0].CapturedPositive)
	assert.False(t, obs.nodes[0].Prediction)
}

func TestRun_MatchesBruteForce(t *testing.T) {
	kinds := []pmap.Kind{pmap.None, pmap.Captured, pmap.Prefix}
	ablations := []tree.Ablation{tree.AblationNone, tree.AblationSupport, tree.AblationLookahead, tree.AblationEquivalentPoints}

	for seed := int64(1); seed <= 3; seed++ {
		ds := testutil.NewRNG(seed).Dataset(40, 6, 0.35)
		for _, c := range []float64{0.01, 0.03} {
			want := testutil.BruteForce(ds.Rules, ds.Labels, c, len(ds.Rules), nil)
			for _, ordering := range queue.Orderings {
				for _, kind := range kinds {
					for _, ablation := range ablations {
						name := fmt.Sprintf("seed=%d/c=%g/%s/%s/%s", seed, c, ordering, kind, ablation)
						t.Run(name, func(t *testing.T) {
							res, _ := run{
								ds:       ds,
								c:        c,
								ablation: ablation,
								minority: true,
								kind:     kind,
								cfg:      Config{Ordering: ordering},
							}.exec(t, context.Background())
							require.Equal(t, ReasonExhausted, res.Reason)
							assert.InDelta(t, want.Objective, res.Objective, 1e-9)
							assert.InDelta(t, res.Objective, testutil.Objective(res.RuleList, ds.Rules, ds.Labels, c), 1e-9)
						})
					}
				}
			}
		}
	}
}

func TestRun_CuriosityPolicies(t *testing.T) {
	ds := testutil.NewRNG(7).Dataset(50, 6, 0.3)
	want := testutil.BruteForce(ds.Rules, ds.Labels, 0.02, len(ds.Rules), nil)
	for _, p := range []CuriosityPolicy{CuriosityCaptured, CuriosityLowerBound, CuriosityObjective} {
		t.Run(p.String(), func(t *testing.T) {
			res, _ := run{ds: ds, c: 0.02, minority: true, kind: pmap.Captured, cfg: Config{Ordering: queue.Curiosity, Curiosity: p}}.exec(t, context.Background())
			assert.InDelta(t, want.Objective, res.Objective, 1e-9)
		})
	}
}

func TestRun_IncumbentIsMonotone(t *testing.T) {
	ds := testutil.NewRNG(11).Dataset(60, 7, 0.3)
	rec := &recorder{}
	res, _ := run{
		ds:   ds,
		c:    0.005,
		kind: pmap.Captured,
		cfg:  Config{Ordering: queue.DFS, ProgressInterval: 1},
		opts: []Option{WithListener(rec)},
	}.exec(t, context.Background())

	require.NotEmpty(t, rec.objectives)
	for i := 1; i < len(rec.objectives); i++ {
		assert.Less(t, rec.objectives[i], rec.objectives[i-1])
	}
	assert.InDelta(t, res.Objective, rec.objectives[len(rec.objectives)-1], 1e-12)
	assert.Equal(t, uint64(len(rec.objectives)), res.Stats.Incumbents)
	assert.Equal(t, int(res.Stats.Iterations), rec.progress)
}

func TestRun_PermutationCachePrunes(t *testing.T) {
	ds := testutil.NewRNG(3).Dataset(40, 6, 0.35)
	with, _ := run{ds: ds, c: 0.005, kind: pmap.Captured, cfg: Config{Ordering: queue.BFS}}.exec(t, context.Background())
	without, _ := run{ds: ds, c: 0.005, kind: pmap.None, cfg: Config{Ordering: queue.BFS}}.exec(t, context.Background())

	assert.Positive(t, with.Stats.CachePruned)
	assert.Positive(t, with.Stats.CacheEntries)
	assert.Zero(t, without.Stats.CachePruned)
	assert.InDelta(t, without.Objective, with.Objective, 1e-9)
}

func TestRun_Budget(t *testing.T) {
	ds := testutil.NewRNG(5).Dataset(60, 8, 0.3)
	want := testutil.BruteForce(ds.Rules, ds.Labels, 0.001, 3, nil)

	res, a := run{ds: ds, c: 0.001, maxNodes: 10, kind: pmap.None, cfg: Config{Ordering: queue.BFS}}.exec(t, context.Background())
	assert.Equal(t, ReasonBudget, res.Reason)
	assert.False(t, res.Reason.Optimal())
	assert.LessOrEqual(t, a.tree.NumNodes(), 10)
	assert.InDelta(t, res.Objective, testutil.Objective(res.RuleList, ds.Rules, ds.Labels, 0.001), 1e-9)
	assert.GreaterOrEqual(t, res.Objective, want.Objective-1e-9)
}

func TestRun_StopSignals(t *testing.T) {
	ds := testutil.NewRNG(9).Dataset(60, 8, 0.3)

	t.Run("iterations", func(t *testing.T) {
		res, _ := run{ds: ds, c: 0.001, kind: pmap.None, cfg: Config{Ordering: queue.BFS, MaxIterations: 2}}.exec(t, context.Background())
		assert.Equal(t, ReasonIterations, res.Reason)
		assert.Equal(t, uint64(2), res.Stats.Iterations)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, _ := run{ds: ds, c: 0.001, kind: pmap.None, cfg: Config{Ordering: queue.BFS}}.exec(t, ctx)
		assert.Equal(t, ReasonCanceled, res.Reason)
		assert.Zero(t, res.Stats.Iterations)
		assert.Empty(t, res.RuleList.Rules, "the empty list is the incumbent")
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		res, _ := run{ds: ds, c: 0.001, kind: pmap.None, cfg: Config{Ordering: queue.BFS}}.exec(t, ctx)
		assert.Equal(t, ReasonDeadline, res.Reason)
	})
}

func TestRun_Fairness(t *testing.T) {
	rng := testutil.NewRNG(21)
	ds := rng.Dataset(40, 5, 0.35)
	majority := rng.Bitset(40, 0.6)
	groups := fairness.Groups{Majority: majority, Minority: majority.Not()}
	require.NoError(t, groups.Validate(40))

	for _, policy := range []fairness.Policy{
		{Metric: fairness.StatisticalParity, Beta: 0.5},
		{Metric: fairness.PredictiveEquality, Beta: 1},
		{Metric: fairness.StatisticalParity, Beta: 0, Epsilon: 0.05},
	} {
		t.Run(fmt.Sprintf("%s/beta=%g/eps=%g", policy.Metric, policy.Beta, policy.Epsilon), func(t *testing.T) {
			scorer := func(pos *bitset.Bitset) (float64, bool) {
				m := fairness.Compute(pos, ds.Labels[1], groups).Metrics()
				return policy.Penalty(m), policy.Acceptable(m)
			}
			want := testutil.BruteForce(ds.Rules, ds.Labels, 0.01, len(ds.Rules), scorer)

			res, _ := run{
				ds:   ds,
				c:    0.01,
				kind: pmap.None,
				cfg:  Config{Ordering: queue.LowerBound, Fairness: &Fairness{Policy: policy, Groups: groups}},
			}.exec(t, context.Background())
			require.Equal(t, ReasonExhausted, res.Reason)
			require.True(t, res.Feasible())
			assert.InDelta(t, want.Objective, res.Objective, 1e-9)

			penalty, ok := scorer(res.RuleList.Predict(ds.Rules, ds.NSamples))
			assert.True(t, ok)
			assert.InDelta(t, res.Objective, testutil.Objective(res.RuleList, ds.Rules, ds.Labels, 0.01)+penalty, 1e-9)
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	ds := paperDataset("110100")
	tr, err := tree.New(tree.Config{NSamples: 6, Rules: ds.Rules, Labels: ds.Labels, C: 0.01})
	require.NoError(t, err)

	_, err = New(tr, nil, Config{Ordering: queue.Ordering(42)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, queue.ErrUnknownOrdering)

	_, err = New(tr, nil, Config{Curiosity: CuriosityPolicy(9)})
	assert.ErrorIs(t, err, ErrUnknownCuriosity)

	_, err = New(tr, nil, Config{Fairness: &Fairness{Policy: fairness.Policy{Metric: 0}}})
	assert.ErrorIs(t, err, fairness.ErrUnknownMetric)

	_, err = New(tr, nil, Config{Fairness: &Fairness{Policy: fairness.Policy{Metric: fairness.EqualOpportunity}}})
	assert.ErrorIs(t, err, fairness.ErrInvalidGroups)
}

func TestRun_Once(t *testing.T) {
	ds := paperDataset("110100")
	tr, err := tree.New(tree.Config{NSamples: 6, Rules: ds.Rules, Labels: ds.Labels, C: 0.01})
	require.NoError(t, err)
	s, err := New(tr, nil, Config{})
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	assert.Error(t, err)
}
