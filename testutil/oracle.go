package testutil

import (
	"math"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
)

// Scorer adds a penalty to the objective of a closed rule list given the set
// of samples it predicts positive. ok=false rejects the list.
type Scorer func(positives *bitset.Bitset) (penalty float64, ok bool)

// Objective evaluates a rule list directly: misclassification rate plus c per
// rule.
func Objective(l model.RuleList, rules []model.Rule, labels [2]*bitset.Bitset, c float64) float64 {
	n := labels[0].Len()
	pred := l.Predict(rules, n)
	wrong := pred.Clone()
	wrong.And(labels[0])
	errs := wrong.Count()
	missed := labels[1].Clone()
	missed.AndNot(pred)
	errs += missed.Count()
	return float64(errs)/float64(n) + c*float64(len(l.Rules))
}

// BruteForce enumerates every rule list of length at most maxDepth, with
// majority predictions (ties predict 1), and returns the one with the least
// objective. Lists are visited in lexicographic order of their prefixes and
// only strict improvements are kept.
func BruteForce(rules []model.Rule, labels [2]*bitset.Bitset, c float64, maxDepth int, score Scorer) model.RuleList {
	n := labels[0].Len()
	best := model.RuleList{Objective: math.Inf(1)}

	used := make([]bool, len(rules))
	var prefix []model.RuleID
	var preds []bool

	var visit func(captured, positives *bitset.Bitset, wrong int)
	visit = func(captured, positives *bitset.Bitset, wrong int) {
		rest := captured.Not()
		d1 := rest.AndCount(labels[1])
		d0 := rest.Count() - d1
		def := d1 >= d0
		closed := positives.Clone()
		errs := wrong + d1
		if def {
			closed.Or(rest)
			errs = wrong + d0
		}
		obj := float64(errs)/float64(n) + c*float64(len(prefix))
		ok := true
		if score != nil {
			var p float64
			p, ok = score(closed)
			obj += p
		}
		if ok && obj < best.Objective {
			best = model.RuleList{
				Rules:       append([]model.RuleID(nil), prefix...),
				Predictions: append([]bool(nil), preds...),
				Default:     def,
				Objective:   obj,
			}
		}
		if len(prefix) == maxDepth {
			return
		}
		for i, r := range rules {
			if used[i] {
				continue
			}
			newly := r.Truth.Clone()
			newly.AndNot(captured)
			c1 := newly.AndCount(labels[1])
			c0 := newly.Count() - c1
			pred := c1 >= c0

			nextCaptured := captured.Clone()
			nextCaptured.Or(newly)
			nextPositives := positives
			nextWrong := wrong + c1
			if pred {
				nextPositives = positives.Clone()
				nextPositives.Or(newly)
				nextWrong = wrong + c0
			}

			used[i] = true
			prefix = append(prefix, r.ID)
			preds = append(preds, pred)
			visit(nextCaptured, nextPositives, nextWrong)
			prefix = prefix[:len(prefix)-1]
			preds = preds[:len(preds)-1]
			used[i] = false
		}
	}
	visit(bitset.New(n), bitset.New(n), 0)
	return best
}
