package pmap

import (
	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// Noop is a disabled cache: every lookup misses and nothing is stored.
type Noop struct{}

func (Noop) Kind() Kind                             { return None }
func (Noop) Key([]model.RuleID, *bitset.Bitset) Key { return "" }
func (Noop) Lookup(Key) (Entry, bool)               { return Entry{}, false }
func (Noop) Len() int                               { return 0 }
func (Noop) Stats() Stats                           { return Stats{} }
func (Noop) Close()                                 {}
func (Noop) InsertOrImprove(Key, float64, tree.Handle) (bool, tree.Handle) {
	return true, tree.Nil
}
