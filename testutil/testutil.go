package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
)

// RNG is a seeded, thread-safe random source.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bitset returns a random set over n samples where each sample is a member
// with probability density.
func (r *RNG) Bitset(n int, density float64) *bitset.Bitset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bitsetLocked(n, density)
}

func (r *RNG) bitsetLocked(n int, density float64) *bitset.Bitset {
	b := bitset.New(n)
	for i := range n {
		if r.rand.Float64() < density {
			b.Set(i)
		}
	}
	return b
}

// Dataset is a synthetic rule set with labels.
type Dataset struct {
	NSamples int
	Rules    []model.Rule
	Labels   [2]*bitset.Bitset
}

// Dataset generates nrules random rules over nsamples samples. Labels are
// derived from the first two rules plus noise so that short rule lists fit
// well and the search has real structure to find.
func (r *RNG) Dataset(nsamples, nrules int, density float64) Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()

	rules := make([]model.Rule, nrules)
	for i := range rules {
		rules[i] = model.NewRule(model.RuleID(i), "", r.bitsetLocked(nsamples, density))
	}
	label1 := bitset.New(nsamples)
	for i := range nsamples {
		v := rules[0].Truth.Test(i)
		if nrules > 1 && !v {
			v = rules[1].Truth.Test(i) && r.rand.Float64() < 0.7
		}
		if r.rand.Float64() < 0.1 {
			v = !v
		}
		if v {
			label1.Set(i)
		}
	}
	return Dataset{
		NSamples: nsamples,
		Rules:    rules,
		Labels:   [2]*bitset.Bitset{label1.Not(), label1},
	}
}
