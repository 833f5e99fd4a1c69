package dataset

import (
	"testing"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMinority(t *testing.T) {
	// Samples 0-2 share signature {r0}, samples 3-4 share {r1}, 5 is alone.
	rules := []model.Rule{
		model.NewRule(0, "r0", bitset.MustParse("111000")),
		model.NewRule(1, "r1", bitset.MustParse("000110")),
	}
	pos := bitset.MustParse("110100")
	m, err := ComputeMinority(rules, [2]*bitset.Bitset{pos.Not(), pos})
	require.NoError(t, err)
	// Group {0,1,2}: majority positive, sample 2 is minority.
	// Group {3,4}: tie, the negative sample 4 is minority.
	assert.Equal(t, "001010", m.String())
}

func TestComputeMinority_Errors(t *testing.T) {
	pos := bitset.MustParse("1100")
	_, err := ComputeMinority(nil, [2]*bitset.Bitset{nil, pos})
	assert.ErrorIs(t, err, ErrInvalidDataset)

	rules := []model.Rule{model.NewRule(0, "r0", bitset.MustParse("11"))}
	_, err = ComputeMinority(rules, [2]*bitset.Bitset{pos.Not(), pos})
	assert.ErrorIs(t, err, ErrInvalidDataset)
}
