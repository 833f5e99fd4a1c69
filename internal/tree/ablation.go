package tree

import "fmt"

// Ablation selects which bound terms are disabled, for studying their
// individual pruning contribution.
type Ablation uint8

const (
	// AblationNone keeps every bound active.
	AblationNone Ablation = 0
	// AblationSupport disables the minimum support and accurate support bounds.
	AblationSupport Ablation = 1
	// AblationLookahead disables the one-step lookahead term (+c) used when
	// filtering the frontier and admitting children.
	AblationLookahead Ablation = 2
	// AblationEquivalentPoints disables the equivalent points bound.
	AblationEquivalentPoints Ablation = 3
)

// ParseAblation converts the integer selector used by configuration files.
func ParseAblation(v int) (Ablation, error) {
	a := Ablation(v)
	if v < 0 || !a.Valid() {
		return 0, fmt.Errorf("%w: unknown ablation mode %d", ErrInvalidConfig, v)
	}
	return a, nil
}

// Valid reports whether a is a known mode.
func (a Ablation) Valid() bool {
	switch a {
	case AblationNone, AblationSupport, AblationLookahead, AblationEquivalentPoints:
		return true
	default:
		return false
	}
}

func (a Ablation) String() string {
	switch a {
	case AblationNone:
		return "none"
	case AblationSupport:
		return "support"
	case AblationLookahead:
		return "lookahead"
	case AblationEquivalentPoints:
		return "equivalent-points"
	default:
		return fmt.Sprintf("ablation(%d)", uint8(a))
	}
}
