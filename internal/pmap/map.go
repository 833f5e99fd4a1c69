package pmap

import (
	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// mapCache is an unbounded hash cache.
type mapCache struct {
	kind    Kind
	keyFn   keyFunc
	entries map[Key]Entry
	size    int64
	mem     tree.MemoryAcquirer
	stats   Stats
}

func newMapCache(kind Kind, keyFn keyFunc, mem tree.MemoryAcquirer) *mapCache {
	return &mapCache{
		kind:    kind,
		keyFn:   keyFn,
		entries: make(map[Key]Entry),
		mem:     mem,
	}
}

func (c *mapCache) Kind() Kind { return c.kind }

func (c *mapCache) Key(prefix []model.RuleID, captured *bitset.Bitset) Key {
	return c.keyFn(prefix, captured)
}

func (c *mapCache) Lookup(key Key) (Entry, bool) {
	c.stats.Lookups++
	e, ok := c.entries[key]
	if ok {
		c.stats.Hits++
	}
	return e, ok
}

func (c *mapCache) InsertOrImprove(key Key, lb float64, h tree.Handle) (bool, tree.Handle) {
	if old, ok := c.entries[key]; ok {
		if old.Covers(lb) {
			c.stats.Rejections++
			return false, tree.Nil
		}
		c.entries[key] = Entry{LowerBound: lb, Handle: h}
		c.stats.Improvements++
		return true, old.Handle
	}
	size := entryBytes(key)
	if c.mem != nil && !c.mem.TryAcquireMemory(size) {
		return true, tree.Nil
	}
	c.entries[key] = Entry{LowerBound: lb, Handle: h}
	c.size += size
	c.stats.Inserts++
	return true, tree.Nil
}

func (c *mapCache) Len() int { return len(c.entries) }

func (c *mapCache) Stats() Stats { return c.stats }

func (c *mapCache) Close() {
	if c.mem != nil {
		c.mem.ReleaseMemory(c.size)
	}
	c.entries = make(map[Key]Entry)
	c.size = 0
}
