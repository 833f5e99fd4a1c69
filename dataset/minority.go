package dataset

import (
	"fmt"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
)

// ComputeMinority returns the equivalent points minority: samples are grouped
// by the set of rules they satisfy, and within each group the samples that
// do not carry the group's majority label are marked. No rule list can tell
// the samples of a group apart, so it misclassifies at least the minority.
// Ties count the negative samples as the minority.
func ComputeMinority(rules []model.Rule, labels [2]*bitset.Bitset) (*bitset.Bitset, error) {
	if labels[0] == nil || labels[1] == nil {
		return nil, fmt.Errorf("%w: missing labels", ErrInvalidDataset)
	}
	n := labels[1].Len()
	words := (len(rules) + 63) / 64
	sig := make([]uint64, n*words)
	for r, rule := range rules {
		if rule.Truth.Len() != n {
			return nil, fmt.Errorf("%w: rule %d has %d samples, want %d", ErrInvalidDataset, r, rule.Truth.Len(), n)
		}
		w, bit := r/64, uint64(1)<<(r%64)
		rule.Truth.ForEach(func(i int) bool {
			sig[i*words+w] |= bit
			return true
		})
	}

	type group struct {
		members []int
		pos     int
	}
	groups := make(map[string]*group)
	key := make([]byte, 8*words)
	for i := range n {
		for w := range words {
			v := sig[i*words+w]
			for b := range 8 {
				key[w*8+b] = byte(v >> (8 * b))
			}
		}
		g, ok := groups[string(key)]
		if !ok {
			g = &group{}
			groups[string(key)] = g
		}
		g.members = append(g.members, i)
		if labels[1].Test(i) {
			g.pos++
		}
	}

	minority := bitset.New(n)
	for _, g := range groups {
		neg := len(g.members) - g.pos
		majority := g.pos >= neg
		for _, i := range g.members {
			if labels[1].Test(i) != majority {
				minority.Set(i)
			}
		}
	}
	return minority, nil
}
