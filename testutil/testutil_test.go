package testutil

import (
	"testing"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetIsReproducible(t *testing.T) {
	a := NewRNG(4711).Dataset(40, 5, 0.3)
	b := NewRNG(4711).Dataset(40, 5, 0.3)

	require.Len(t, a.Rules, 5)
	for i := range a.Rules {
		assert.True(t, a.Rules[i].Truth.Equal(b.Rules[i].Truth))
		assert.Equal(t, model.RuleID(i), a.Rules[i].ID)
	}
	assert.True(t, a.Labels[1].Equal(b.Labels[1]))
	assert.Equal(t, 40, a.Labels[0].Count()+a.Labels[1].Count())
}

func TestBruteForce(t *testing.T) {
	rules := []model.Rule{
		model.NewRule(0, "", bitset.MustParse("110100")),
		model.NewRule(1, "", bitset.MustParse("001011")),
		model.NewRule(2, "", bitset.MustParse("010010")),
	}
	label1 := bitset.MustParse("110100")
	labels := [2]*bitset.Bitset{label1.Not(), label1}

	// Rule 0 alone classifies everything.
	best := BruteForce(rules, labels, 0.05, 3, nil)
	assert.Equal(t, []model.RuleID{0}, best.Rules)
	assert.Equal(t, []bool{true}, best.Predictions)
	assert.False(t, best.Default)
	assert.InDelta(t, 0.05, best.Objective, 1e-12)
	assert.InDelta(t, best.Objective, Objective(best, rules, labels, 0.05), 1e-12)

	// Depth 0 is the constant classifier.
	best = BruteForce(rules, labels, 0.05, 0, nil)
	assert.Empty(t, best.Rules)
	assert.InDelta(t, 0.5, best.Objective, 1e-12)

	// A scorer that rejects everything leaves no list.
	best = BruteForce(rules, labels, 0.05, 2, func(*bitset.Bitset) (float64, bool) { return 0, false })
	assert.True(t, best.Objective > 1)
}
