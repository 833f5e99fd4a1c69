package search

import "github.com/hupe1980/corelgo/internal/tree"

// boundTerms lists the bound terms that are active under an ablation mode.
type boundTerms struct {
	support          bool
	lookahead        bool
	equivalentPoints bool
}

func termsFor(a tree.Ablation) boundTerms {
	t := boundTerms{support: true, lookahead: true, equivalentPoints: true}
	switch a {
	case tree.AblationNone:
	case tree.AblationSupport:
		t.support = false
	case tree.AblationLookahead:
		t.lookahead = false
	case tree.AblationEquivalentPoints:
		t.equivalentPoints = false
	default:
		panic("search: unknown ablation mode")
	}
	return t
}

// admissible applies the one-step lookahead to a node bound.
func (b boundTerms) admissible(lb, c, minObjective float64) bool {
	if b.lookahead {
		lb += c
	}
	return lb < minObjective
}
