package search

import (
	"math"
	"testing"

	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermsFor(t *testing.T) {
	tests := []struct {
		ablation tree.Ablation
		want     boundTerms
	}{
		{tree.AblationNone, boundTerms{support: true, lookahead: true, equivalentPoints: true}},
		{tree.AblationSupport, boundTerms{support: false, lookahead: true, equivalentPoints: true}},
		{tree.AblationLookahead, boundTerms{support: true, lookahead: false, equivalentPoints: true}},
		{tree.AblationEquivalentPoints, boundTerms{support: true, lookahead: true, equivalentPoints: false}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, termsFor(tt.ablation), tt.ablation.String())
	}
	assert.Panics(t, func() { termsFor(tree.Ablation(9)) })
}

func TestBoundTerms_Admissible(t *testing.T) {
	full := termsFor(tree.AblationNone)
	assert.True(t, full.admissible(0.2, 0.05, 0.3))
	assert.False(t, full.admissible(0.25, 0.05, 0.3))

	noLookahead := termsFor(tree.AblationLookahead)
	assert.True(t, noLookahead.admissible(0.25, 0.05, 0.3))
	assert.False(t, noLookahead.admissible(0.3, 0.05, 0.3))
}

func TestCuriosity(t *testing.T) {
	in := curiosityInput{lowerBound: 0.3, objective: 0.4, c: 0.05, depth: 2, captured: 25, nsamples: 100}

	assert.InDelta(t, (0.3-0.1+0.05)*4, CuriosityCaptured.curiosity(in), 1e-12)
	assert.InDelta(t, 0.3, CuriosityLowerBound.curiosity(in), 1e-12)
	assert.InDelta(t, 0.4, CuriosityObjective.curiosity(in), 1e-12)

	in.captured = 0
	assert.True(t, math.IsInf(CuriosityCaptured.curiosity(in), 1))

	for _, p := range []CuriosityPolicy{CuriosityCaptured, CuriosityLowerBound, CuriosityObjective} {
		got, err := ParseCuriosityPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseCuriosityPolicy("random")
	assert.ErrorIs(t, err, ErrUnknownCuriosity)
}
