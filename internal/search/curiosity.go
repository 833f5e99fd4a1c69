package search

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownCuriosity is returned for unrecognized curiosity policy names.
var ErrUnknownCuriosity = errors.New("search: unknown curiosity policy")

// CuriosityPolicy computes the curiosity of a new node. Curiosity is a cost:
// the curiosity ordering expands the least curious node first.
type CuriosityPolicy uint8

const (
	// CuriosityCaptured normalizes the bound, minus the rule penalties, by the
	// fraction of samples the prefix captures. Prefixes that reach a low bound
	// while still leaving many samples to the default are preferred.
	CuriosityCaptured CuriosityPolicy = iota
	// CuriosityLowerBound uses the lower bound itself.
	CuriosityLowerBound
	// CuriosityObjective uses the objective of the closed list.
	CuriosityObjective
)

// ParseCuriosityPolicy parses a policy name.
func ParseCuriosityPolicy(s string) (CuriosityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "captured", "":
		return CuriosityCaptured, nil
	case "lower_bound", "lb":
		return CuriosityLowerBound, nil
	case "objective":
		return CuriosityObjective, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCuriosity, s)
	}
}

// Valid reports whether p is a known policy.
func (p CuriosityPolicy) Valid() bool { return p <= CuriosityObjective }

func (p CuriosityPolicy) String() string {
	switch p {
	case CuriosityCaptured:
		return "captured"
	case CuriosityLowerBound:
		return "lower_bound"
	case CuriosityObjective:
		return "objective"
	default:
		return fmt.Sprintf("curiosity(%d)", uint8(p))
	}
}

// curiosityInput carries the node metrics a policy may use.
type curiosityInput struct {
	lowerBound float64
	objective  float64
	c          float64
	depth      int
	captured   int // samples captured by the whole prefix
	nsamples   int
}

func (p CuriosityPolicy) curiosity(in curiosityInput) float64 {
	switch p {
	case CuriosityCaptured:
		if in.captured == 0 {
			return math.Inf(1)
		}
		return (in.lowerBound - in.c*float64(in.depth) + in.c) * float64(in.nsamples) / float64(in.captured)
	case CuriosityLowerBound:
		return in.lowerBound
	case CuriosityObjective:
		return in.objective
	default:
		panic(fmt.Sprintf("search: invalid curiosity policy %d", p))
	}
}
