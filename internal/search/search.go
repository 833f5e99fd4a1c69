package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/internal/fairness"
	"github.com/hupe1980/corelgo/internal/pmap"
	"github.com/hupe1980/corelgo/internal/queue"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// ErrInvalidConfig is returned by New for unusable search settings.
var ErrInvalidConfig = errors.New("search: invalid config")

// Reason tells why a run terminated.
type Reason uint8

const (
	// ReasonExhausted means the frontier ran dry: the incumbent is optimal.
	ReasonExhausted Reason = iota
	// ReasonBudget means the node budget or the memory limit was reached.
	ReasonBudget
	// ReasonCanceled means the context was canceled.
	ReasonCanceled
	// ReasonDeadline means the context deadline passed.
	ReasonDeadline
	// ReasonIterations means the iteration cap was reached.
	ReasonIterations
)

func (r Reason) String() string {
	switch r {
	case ReasonExhausted:
		return "exhausted"
	case ReasonBudget:
		return "budget"
	case ReasonCanceled:
		return "canceled"
	case ReasonDeadline:
		return "deadline"
	case ReasonIterations:
		return "iterations"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// Optimal reports whether the result is certified optimal.
func (r Reason) Optimal() bool { return r == ReasonExhausted }

// Fairness enables the fairness-aware objective.
type Fairness struct {
	Policy fairness.Policy
	Groups fairness.Groups
}

// Config holds the search settings.
type Config struct {
	Ordering  queue.Ordering
	Curiosity CuriosityPolicy
	// Fairness is nil for plain accuracy runs.
	Fairness *Fairness
	// MaxIterations caps the number of expansions. 0 means unlimited.
	MaxIterations uint64
	// ProgressInterval is the number of iterations between progress
	// reports. 0 disables them.
	ProgressInterval uint64
}

// Stats reports run statistics.
type Stats struct {
	Iterations     uint64
	Evaluated      uint64
	Incumbents     uint64
	NodesCreated   uint64
	NodesDestroyed uint64
	NodesLive      int
	CachePruned    uint64
	CacheEntries   int
	FrontierSize   int
	FrontierMax    int
	Discarded      uint64
	LowerBound     float64
	Elapsed        time.Duration
}

// Result is the outcome of a run.
type Result struct {
	RuleList  model.RuleList
	Objective float64
	Reason    Reason
	Stats     Stats
}

// Feasible reports whether an admissible rule list was found. Runs with a
// fairness tolerance may end without one.
func (r Result) Feasible() bool { return !math.IsInf(r.Objective, 1) }

// Listener observes a run. Calls happen on the search goroutine.
type Listener interface {
	OnIncumbent(l model.RuleList, st Stats)
	OnProgress(st Stats)
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithListener installs a run listener.
func WithListener(l Listener) Option {
	return func(s *Searcher) {
		s.listener = l
	}
}

// Searcher runs branch-and-bound over a tree. It is single-use.
type Searcher struct {
	cfg      Config
	tree     *tree.Tree
	frontier *queue.Frontier
	cache    pmap.Cache
	terms    boundTerms

	logger   *slog.Logger
	listener Listener

	stats Stats
	start time.Time
	ran   bool

	// scratch, sized to the sample count
	ones             *bitset.Bitset
	prefixCaptured   *bitset.Bitset
	notCaptured      *bitset.Bitset
	childCaptured    *bitset.Bitset
	childNotCaptured *bitset.Bitset
	childTotal       *bitset.Bitset
	parentPositives  *bitset.Bitset
	positives        *bitset.Bitset
	inPrefix         []bool
	childPrefix      []model.RuleID
}

// New creates a Searcher over t, which must not have a root yet.
func New(t *tree.Tree, cache pmap.Cache, cfg Config, opts ...Option) (*Searcher, error) {
	if !cfg.Ordering.Valid() {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidConfig, queue.ErrUnknownOrdering, cfg.Ordering)
	}
	if !cfg.Curiosity.Valid() {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrUnknownCuriosity, cfg.Curiosity)
	}
	if f := cfg.Fairness; f != nil {
		if err := f.Policy.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if err := f.Groups.Validate(t.NSamples()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if cache == nil {
		cache = pmap.Noop{}
	}

	n := t.NSamples()
	s := &Searcher{
		cfg:              cfg,
		tree:             t,
		frontier:         queue.New(cfg.Ordering, 1024),
		cache:            cache,
		terms:            termsFor(t.Ablation()),
		logger:           slog.New(slog.DiscardHandler),
		ones:             bitset.Ones(n),
		prefixCaptured:   bitset.New(n),
		notCaptured:      bitset.New(n),
		childCaptured:    bitset.New(n),
		childNotCaptured: bitset.New(n),
		childTotal:       bitset.New(n),
		parentPositives:  bitset.New(n),
		positives:        bitset.New(n),
		inPrefix:         make([]bool, t.NumRules()),
	}
	// The support bounds assume the objective is accuracy plus c per rule.
	if cfg.Fairness != nil {
		s.terms.support = false
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tree returns the search tree.
func (s *Searcher) Tree() *tree.Tree { return s.tree }

// Run searches until the frontier is exhausted, the budget is reached, or
// ctx is done. Stopping early is not an error: the result carries the best
// rule list found and the reason.
func (s *Searcher) Run(ctx context.Context) (Result, error) {
	if s.ran {
		return Result{}, errors.New("search: searcher already ran")
	}
	s.ran = true

	s.start = time.Now()
	t := s.tree
	root := t.InsertRoot()
	if s.cfg.Fairness != nil {
		s.seedFairIncumbent()
	}
	s.frontier.Push(root, t.Node(root))

	s.logger.Debug("search started",
		slog.String("ordering", s.cfg.Ordering.String()),
		slog.String("cache", s.cache.Kind().String()),
		slog.String("ablation", t.Ablation().String()),
		slog.Int("rules", t.NumRules()),
		slog.Int("samples", t.NSamples()),
		slog.Float64("c", t.C()),
	)

	reason := ReasonExhausted
	for {
		h, prefix, ok := s.frontier.Select(t, s.prefixCaptured)
		if !ok {
			break
		}
		if r, stop := s.shouldStop(ctx); stop {
			reason = r
			break
		}
		s.stats.Iterations++

		s.notCaptured.CopyFrom(s.ones)
		s.notCaptured.AndNot(s.prefixCaptured)
		if err := s.evaluateChildren(h, prefix, s.notCaptured); err != nil {
			if errors.Is(err, tree.ErrBudgetExhausted) {
				reason = ReasonBudget
				break
			}
			return Result{}, err
		}

		if iv := s.cfg.ProgressInterval; iv > 0 && s.stats.Iterations%iv == 0 {
			st := s.snapshot()
			s.logger.Debug("search progress",
				slog.Uint64("iterations", st.Iterations),
				slog.Int("frontier", st.FrontierSize),
				slog.Int("live_nodes", st.NodesLive),
				slog.Float64("lower_bound", st.LowerBound),
				slog.Float64("min_objective", t.MinObjective()),
			)
			if s.listener != nil {
				s.listener.OnProgress(st)
			}
		}
	}

	inc := t.Incumbent()
	res := Result{
		RuleList:  inc.RuleList,
		Objective: inc.MinObjective,
		Reason:    reason,
		Stats:     s.snapshot(),
	}
	s.logger.Info("search finished",
		slog.String("reason", reason.String()),
		slog.Float64("objective", res.Objective),
		slog.Int("length", res.RuleList.Len()),
		slog.Uint64("iterations", res.Stats.Iterations),
		slog.Uint64("nodes_created", res.Stats.NodesCreated),
		slog.Duration("elapsed", res.Stats.Elapsed),
	)
	return res, nil
}

func (s *Searcher) shouldStop(ctx context.Context) (Reason, bool) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ReasonDeadline, true
		}
		return ReasonCanceled, true
	}
	if s.cfg.MaxIterations > 0 && s.stats.Iterations >= s.cfg.MaxIterations {
		return ReasonIterations, true
	}
	return 0, false
}

// seedFairIncumbent scores the empty rule list with the fairness penalty.
func (s *Searcher) seedFairIncumbent() {
	t := s.tree
	rl := t.Incumbent().RuleList
	positives := bitset.New(t.NSamples())
	if rl.Default {
		positives = bitset.Ones(t.NSamples())
	}
	scored, ok := s.score(t.MinObjective(), positives)
	if !ok {
		scored = math.Inf(1)
	}
	t.SeedIncumbent(scored)
}

// score adds the fairness penalty to objective and reports whether the list
// is within the tolerance.
func (s *Searcher) score(objective float64, positives *bitset.Bitset) (float64, bool) {
	f := s.cfg.Fairness
	m := fairness.Compute(positives, s.tree.Label(true), f.Groups).Metrics()
	return objective + f.Policy.Penalty(m), f.Policy.Acceptable(m)
}

func (s *Searcher) snapshot() Stats {
	st := s.stats
	t := s.tree
	fs := s.frontier.Stats()
	st.NodesCreated = t.Created()
	st.NodesDestroyed = t.Destroyed()
	st.NodesLive = t.NumNodes()
	st.CacheEntries = s.cache.Len()
	st.FrontierSize = s.frontier.Len()
	st.FrontierMax = fs.MaxLen
	st.Discarded = fs.Discarded
	st.LowerBound = s.frontier.LastLowerBound()
	st.Elapsed = time.Since(s.start)
	return st
}
