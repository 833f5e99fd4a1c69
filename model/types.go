package model

import (
	"fmt"
	"strings"

	"github.com/hupe1980/corelgo/bitset"
)

// RuleID is the stable index of a rule in the rule collection.
type RuleID int32

// NoRule is the RuleID of the root of the search tree.
const NoRule RuleID = -1

// Rule is an antecedent together with the samples it matches.
// Rules are read-only inputs; the engine never mutates them.
type Rule struct {
	ID      RuleID
	Name    string
	Truth   *bitset.Bitset
	Support int
}

// NewRule builds a rule and derives its support from the truth table.
func NewRule(id RuleID, name string, truth *bitset.Bitset) Rule {
	return Rule{
		ID:      id,
		Name:    name,
		Truth:   truth,
		Support: truth.Count(),
	}
}

// String returns the rule name, or its id if the rule is unnamed.
func (r Rule) String() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("rule-%d", r.ID)
}

// RuleList is an ordered sequence of rules, each with its prediction,
// terminated by a default prediction.
type RuleList struct {
	Rules       []RuleID
	Predictions []bool
	Default     bool
	Objective   float64
}

// Len returns the number of rules, not counting the default.
func (l RuleList) Len() int { return len(l.Rules) }

// Clone returns a deep copy.
func (l RuleList) Clone() RuleList {
	return RuleList{
		Rules:       append([]RuleID(nil), l.Rules...),
		Predictions: append([]bool(nil), l.Predictions...),
		Default:     l.Default,
		Objective:   l.Objective,
	}
}

// Predict returns the prediction of the rule list for every sample.
// rules is indexed by RuleID.
func (l RuleList) Predict(rules []Rule, nsamples int) *bitset.Bitset {
	positives := bitset.New(nsamples)
	remaining := bitset.Ones(nsamples)
	for i, id := range l.Rules {
		captured := remaining.Clone()
		captured.And(rules[id].Truth)
		if l.Predictions[i] {
			positives.Or(captured)
		}
		remaining.AndNot(captured)
	}
	if l.Default {
		positives.Or(remaining)
	}
	return positives
}

// Format renders the rule list in the usual if/else-if form.
func (l RuleList) Format(rules []Rule) string {
	var sb strings.Builder
	for i, id := range l.Rules {
		if i == 0 {
			sb.WriteString("if (")
		} else {
			sb.WriteString("else if (")
		}
		fmt.Fprintf(&sb, "%s) then (%s)\n", rules[id], predictionString(l.Predictions[i]))
	}
	fmt.Fprintf(&sb, "else (%s)", predictionString(l.Default))
	return sb.String()
}

func predictionString(p bool) string {
	if p {
		return "1"
	}
	return "0"
}
