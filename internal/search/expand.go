package search

import (
	"log/slog"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/internal/pmap"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// evaluateChildren extends parent by every rule not in prefix. notCaptured
// is the set of samples prefix leaves to the default rule.
//
// It returns tree.ErrBudgetExhausted when a surviving child cannot be
// allocated; children created up to that point stay in the frontier.
func (s *Searcher) evaluateChildren(parent tree.Handle, prefix []model.RuleID, notCaptured *bitset.Bitset) error {
	t := s.tree
	p := t.Node(parent)
	parentLB := p.LowerBound
	parentEq := p.EquivalentMinority
	depth := p.Depth + 1

	n := float64(t.NSamples())
	c := t.C()
	threshold := c * n
	label0 := t.Label(false)
	var minority *bitset.Bitset
	if s.terms.equivalentPoints {
		minority = t.Minority()
	}
	fair := s.cfg.Fairness != nil
	if fair {
		s.preparePositives(parent)
	}

	for i := range s.inPrefix {
		s.inPrefix[i] = false
	}
	for _, id := range prefix {
		s.inPrefix[id] = true
	}
	s.childPrefix = append(s.childPrefix[:0], prefix...)
	s.childPrefix = append(s.childPrefix, model.NoRule)

	for _, rule := range t.Rules() {
		if s.inPrefix[rule.ID] {
			continue
		}
		s.stats.Evaluated++

		s.childCaptured.CopyFrom(notCaptured)
		numCaptured := s.childCaptured.And(rule.Truth)
		if s.terms.support && float64(numCaptured) < threshold {
			continue
		}

		c0 := s.childCaptured.AndCount(label0)
		c1 := numCaptured - c0
		prediction := c1 >= c0
		correct := max(c0, c1)
		if s.terms.support && float64(correct) < threshold {
			continue
		}

		lb := parentLB - parentEq + float64(numCaptured-correct)/n + c
		if lb >= t.MinObjective() {
			continue
		}

		s.childNotCaptured.CopyFrom(notCaptured)
		remaining := s.childNotCaptured.AndNot(s.childCaptured)
		d0 := s.childNotCaptured.AndCount(label0)
		d1 := remaining - d0
		def := d1 >= d0
		objective := lb + float64(remaining-max(d0, d1))/n

		if fair {
			s.positives.CopyFrom(s.parentPositives)
			if prediction {
				s.positives.Or(s.childCaptured)
			}
			if def {
				s.positives.Or(s.childNotCaptured)
			}
			var acceptable bool
			objective, acceptable = s.score(objective, s.positives)
			if acceptable && objective < t.MinObjective() {
				s.improve(objective, parent, rule.ID, prediction, def)
			}
		} else if objective < t.MinObjective() {
			s.improve(objective, parent, rule.ID, prediction, def)
		}

		var eq float64
		if minority != nil {
			eq = float64(s.childNotCaptured.AndCount(minority)) / n
		}
		nodeLB := lb + eq
		if !s.terms.admissible(nodeLB, c, t.MinObjective()) {
			continue
		}

		s.childTotal.CopyFrom(s.ones)
		s.childTotal.AndNot(s.childNotCaptured)
		s.childPrefix[len(s.childPrefix)-1] = rule.ID
		key := s.cache.Key(s.childPrefix, s.childTotal)
		if e, ok := s.cache.Lookup(key); ok && e.Covers(nodeLB) {
			s.stats.CachePruned++
			continue
		}

		curiosity := s.cfg.Curiosity.curiosity(curiosityInput{
			lowerBound: nodeLB,
			objective:  objective,
			c:          c,
			depth:      depth,
			captured:   t.NSamples() - remaining,
			nsamples:   t.NSamples(),
		})
		h, err := t.NewNode(tree.Node{
			RuleID:             rule.ID,
			Parent:             parent,
			LowerBound:         nodeLB,
			Objective:          objective,
			EquivalentMinority: eq,
			Curiosity:          curiosity,
			NumCaptured:        numCaptured,
			CapturedNegative:   c0,
			CapturedPositive:   c1,
			Prediction:         prediction,
			DefaultPrediction:  def,
		})
		if err != nil {
			return err
		}
		pmap.Admit(s.cache, t, key, nodeLB, h)
		s.frontier.Push(h, t.Node(h))
	}

	t.MarkDone(parent)
	t.PruneUp(parent)
	return nil
}

func (s *Searcher) improve(objective float64, parent tree.Handle, rule model.RuleID, prediction, def bool) {
	t := s.tree
	t.UpdateIncumbent(objective, parent, rule, prediction, def)
	s.stats.Incumbents++
	rl := t.Incumbent().RuleList
	s.logger.Debug("incumbent improved",
		slog.Float64("objective", objective),
		slog.Int("length", rl.Len()),
		slog.Uint64("iterations", s.stats.Iterations),
	)
	if s.listener != nil {
		s.listener.OnIncumbent(rl, s.snapshot())
	}
}

// preparePositives fills parentPositives with the samples the prefix of
// parent predicts positive.
func (s *Searcher) preparePositives(parent tree.Handle) {
	t := s.tree
	s.parentPositives.Clear()
	s.childTotal.Clear()
	prefix := t.Prefix(parent)
	preds := t.Predictions(parent)
	for i, id := range prefix {
		s.childCaptured.CopyFrom(t.Rule(id).Truth)
		s.childCaptured.AndNot(s.childTotal)
		if preds[i] {
			s.parentPositives.Or(s.childCaptured)
		}
		s.childTotal.Or(s.childCaptured)
	}
}
