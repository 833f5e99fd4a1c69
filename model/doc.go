// Package model defines core types used throughout corelgo.
//
// # Identity Types
//
//   - RuleID: stable index of a rule in the rule collection
//   - NoRule: sentinel RuleID carried by the root of the search tree
//
// # Data Types
//
//   - Rule: an immutable boolean predicate with its truth table over the samples
//   - RuleList: an ordered prefix of rules, one prediction per rule, and a default
//
// A rule list classifies a sample with the prediction of the first rule that
// matches it; samples no rule matches receive the default prediction.
package model
