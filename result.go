package corelgo

import (
	"math"
	"time"

	"github.com/hupe1980/corelgo/dataset"
	"github.com/hupe1980/corelgo/internal/fairness"
	"github.com/hupe1980/corelgo/internal/search"
	"github.com/hupe1980/corelgo/model"
)

// Result is the outcome of Learn.
type Result struct {
	RuleList model.RuleList
	// Rules is the rule collection the list indexes into.
	Rules []model.Rule
	// Objective is the minimized objective, fairness penalty included.
	// It is +Inf when a fairness tolerance rejected every list.
	Objective float64
	// Accuracy is the training accuracy of RuleList.
	Accuracy float64
	// Unfairness is the selected fairness metric of RuleList, 0 without
	// fairness.
	Unfairness float64
	Reason     Reason
	// Optimal reports whether the search space was exhausted.
	Optimal bool
	Stats   Stats
}

func newResult(ds *dataset.Dataset, sr search.Result, fair *search.Fairness) *Result {
	n := ds.NSamples()
	positives := sr.RuleList.Predict(ds.Rules, n)
	tp := positives.AndCount(ds.Labels[1])
	tn := n - positives.Count() - ds.Labels[1].Count() + tp

	res := &Result{
		RuleList:  sr.RuleList.Clone(),
		Rules:     ds.Rules,
		Objective: sr.Objective,
		Accuracy:  float64(tp+tn) / float64(n),
		Reason:    sr.Reason,
		Optimal:   sr.Reason.Optimal(),
		Stats:     sr.Stats,
	}
	if fair != nil {
		m := fairness.Compute(positives, ds.Labels[1], fair.Groups).Metrics()
		res.Unfairness = fair.Policy.Unfairness(m)
	}
	return res
}

// Feasible reports whether a rule list satisfying the fairness tolerance
// was found. It is always true without a tolerance.
func (r *Result) Feasible() bool { return !math.IsInf(r.Objective, 1) }

// String renders the rule list in if/else-if form.
func (r *Result) String() string { return r.RuleList.Format(r.Rules) }

// Report is the serializable summary of a Result.
type Report struct {
	Rules      []ReportRule `json:"rules" yaml:"rules"`
	Default    bool         `json:"default" yaml:"default"`
	Length     int          `json:"length" yaml:"length"`
	Objective  *float64     `json:"objective,omitempty" yaml:"objective,omitempty"`
	Accuracy   float64      `json:"accuracy" yaml:"accuracy"`
	Unfairness float64      `json:"unfairness,omitempty" yaml:"unfairness,omitempty"`
	Feasible   bool         `json:"feasible" yaml:"feasible"`
	Optimal    bool         `json:"optimal" yaml:"optimal"`
	Reason     string       `json:"reason" yaml:"reason"`
	Stats      ReportStats  `json:"stats" yaml:"stats"`
}

// ReportRule is one line of a reported rule list.
type ReportRule struct {
	Rule       string `json:"rule" yaml:"rule"`
	Prediction bool   `json:"prediction" yaml:"prediction"`
}

// ReportStats are the run counters of a Report.
type ReportStats struct {
	Iterations     uint64        `json:"iterations" yaml:"iterations"`
	Evaluated      uint64        `json:"evaluated" yaml:"evaluated"`
	Incumbents     uint64        `json:"incumbents" yaml:"incumbents"`
	NodesCreated   uint64        `json:"nodes_created" yaml:"nodes_created"`
	NodesDestroyed uint64        `json:"nodes_destroyed" yaml:"nodes_destroyed"`
	CachePruned    uint64        `json:"cache_pruned" yaml:"cache_pruned"`
	FrontierMax    int           `json:"frontier_max" yaml:"frontier_max"`
	Elapsed        time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
}

// Report summarizes r for serialization.
func (r *Result) Report() Report {
	rep := Report{
		Rules:      make([]ReportRule, r.RuleList.Len()),
		Default:    r.RuleList.Default,
		Length:     r.RuleList.Len(),
		Accuracy:   r.Accuracy,
		Unfairness: r.Unfairness,
		Feasible:   r.Feasible(),
		Optimal:    r.Optimal,
		Reason:     r.Reason.String(),
		Stats: ReportStats{
			Iterations:     r.Stats.Iterations,
			Evaluated:      r.Stats.Evaluated,
			Incumbents:     r.Stats.Incumbents,
			NodesCreated:   r.Stats.NodesCreated,
			NodesDestroyed: r.Stats.NodesDestroyed,
			CachePruned:    r.Stats.CachePruned,
			FrontierMax:    r.Stats.FrontierMax,
			Elapsed:        r.Stats.Elapsed,
		},
	}
	for i, id := range r.RuleList.Rules {
		rep.Rules[i] = ReportRule{Rule: r.Rules[id].String(), Prediction: r.RuleList.Predictions[i]}
	}
	if rep.Feasible {
		obj := r.Objective
		rep.Objective = &obj
	}
	return rep
}
