package dataset

import (
	"fmt"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/model"
)

// MaxRules is the largest number of rules a dataset may hold.
const MaxRules = 1 << 16

// Label names of the two lines of a labels file.
const (
	LabelNegative = "label=0"
	LabelPositive = "label=1"
)

// Dataset is a validated set of rules and labels over the same samples.
type Dataset struct {
	Rules  []model.Rule
	Labels [2]*bitset.Bitset
	// Minority is the equivalent points minority, nil if not provided.
	Minority *bitset.Bitset
}

// NSamples returns the number of samples.
func (d *Dataset) NSamples() int { return d.Labels[1].Len() }

// RuleByName returns the id of the named rule.
func (d *Dataset) RuleByName(name string) (model.RuleID, bool) {
	for _, r := range d.Rules {
		if r.Name == name {
			return r.ID, true
		}
	}
	return model.NoRule, false
}

// FromRecords assembles a dataset. minority may be nil.
func FromRecords(rules, labels, minority []Record) (*Dataset, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrInvalidDataset)
	}
	if len(rules) > MaxRules {
		return nil, fmt.Errorf("%w: %d rules exceed the limit of %d", ErrInvalidDataset, len(rules), MaxRules)
	}
	if len(labels) != 2 {
		return nil, fmt.Errorf("%w: labels file has %d lines, want 2", ErrInvalidDataset, len(labels))
	}
	if labels[0].Name == LabelPositive && labels[1].Name == LabelNegative {
		labels[0], labels[1] = labels[1], labels[0]
	}

	d := &Dataset{
		Rules:  make([]model.Rule, len(rules)),
		Labels: [2]*bitset.Bitset{labels[0].Truth, labels[1].Truth},
	}
	for i, rec := range rules {
		d.Rules[i] = model.NewRule(model.RuleID(i), rec.Name, rec.Truth)
	}
	switch len(minority) {
	case 0:
	case 1:
		d.Minority = minority[0].Truth
	default:
		return nil, fmt.Errorf("%w: minority file has %d lines, want 1", ErrInvalidDataset, len(minority))
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks widths and that the labels partition the samples.
func (d *Dataset) Validate() error {
	if d.Labels[0] == nil || d.Labels[1] == nil {
		return fmt.Errorf("%w: missing labels", ErrInvalidDataset)
	}
	n := d.Labels[1].Len()
	if n == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidDataset)
	}
	if d.Labels[0].Len() != n {
		return fmt.Errorf("%w: label widths differ (%d, %d)", ErrInvalidDataset, d.Labels[0].Len(), n)
	}
	if d.Labels[0].AndCount(d.Labels[1]) != 0 || d.Labels[0].Count()+d.Labels[1].Count() != n {
		return fmt.Errorf("%w: labels do not partition the samples", ErrInvalidDataset)
	}
	if len(d.Rules) == 0 {
		return fmt.Errorf("%w: no rules", ErrInvalidDataset)
	}
	for i, r := range d.Rules {
		if r.ID != model.RuleID(i) {
			return fmt.Errorf("%w: rule %d has id %d", ErrInvalidDataset, i, r.ID)
		}
		if r.Truth == nil || r.Truth.Len() != n {
			return fmt.Errorf("%w: rule %q does not cover %d samples", ErrInvalidDataset, r.Name, n)
		}
	}
	if d.Minority != nil && d.Minority.Len() != n {
		return fmt.Errorf("%w: minority has %d samples, want %d", ErrInvalidDataset, d.Minority.Len(), n)
	}
	return nil
}

// EnsureMinority computes the minority when none was loaded.
func (d *Dataset) EnsureMinority() error {
	if d.Minority != nil {
		return nil
	}
	m, err := ComputeMinority(d.Rules, d.Labels)
	if err != nil {
		return err
	}
	d.Minority = m
	return nil
}

// Records returns the rules, labels and minority as file records.
func (d *Dataset) Records() (rules, labels, minority []Record) {
	rules = make([]Record, len(d.Rules))
	for i, r := range d.Rules {
		rules[i] = Record{Name: r.String(), Truth: r.Truth}
	}
	labels = []Record{
		{Name: LabelNegative, Truth: d.Labels[0]},
		{Name: LabelPositive, Truth: d.Labels[1]},
	}
	if d.Minority != nil {
		minority = []Record{{Name: "minority", Truth: d.Minority}}
	}
	return rules, labels, minority
}
