package pmap

import (
	"container/list"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// lruCache is a byte-bounded cache that evicts the least recently used entry.
type lruCache struct {
	kind      Kind
	keyFn     keyFunc
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List
	mem       tree.MemoryAcquirer
	stats     Stats
}

type lruEntry struct {
	key   Key
	entry Entry
}

func newLRU(kind Kind, keyFn keyFunc, capacity int64, mem tree.MemoryAcquirer) *lruCache {
	return &lruCache{
		kind:      kind,
		keyFn:     keyFn,
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
		mem:       mem,
	}
}

func (c *lruCache) Kind() Kind { return c.kind }

func (c *lruCache) Key(prefix []model.RuleID, captured *bitset.Bitset) Key {
	return c.keyFn(prefix, captured)
}

func (c *lruCache) Lookup(key Key) (Entry, bool) {
	c.stats.Lookups++
	if el, ok := c.items[key]; ok {
		c.stats.Hits++
		c.evictList.MoveToFront(el)
		return el.Value.(*lruEntry).entry, true
	}
	return Entry{}, false
}

func (c *lruCache) InsertOrImprove(key Key, lb float64, h tree.Handle) (bool, tree.Handle) {
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*lruEntry)
		c.evictList.MoveToFront(el)
		if ent.entry.Covers(lb) {
			c.stats.Rejections++
			return false, tree.Nil
		}
		old := ent.entry.Handle
		ent.entry = Entry{LowerBound: lb, Handle: h}
		c.stats.Improvements++
		return true, old
	}

	itemSize := entryBytes(key)
	if itemSize > c.capacity {
		return true, tree.Nil
	}
	// Evict locally first so memory flows back before we ask for more.
	for c.size+itemSize > c.capacity {
		el := c.evictList.Back()
		if el == nil {
			break
		}
		c.removeElement(el)
	}
	if c.mem != nil && !c.mem.TryAcquireMemory(itemSize) {
		return true, tree.Nil
	}

	el := c.evictList.PushFront(&lruEntry{key: key, entry: Entry{LowerBound: lb, Handle: h}})
	c.items[key] = el
	c.size += itemSize
	c.stats.Inserts++
	return true, tree.Nil
}

func (c *lruCache) Len() int { return len(c.items) }

func (c *lruCache) Stats() Stats { return c.stats }

func (c *lruCache) Close() {
	if c.mem != nil {
		c.mem.ReleaseMemory(c.size)
	}
	c.items = make(map[Key]*list.Element)
	c.evictList.Init()
	c.size = 0
}

// Size returns the accounted size in bytes.
func (c *lruCache) Size() int64 { return c.size }

func (c *lruCache) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	ent := el.Value.(*lruEntry)
	delete(c.items, ent.key)
	itemSize := entryBytes(ent.key)
	c.size -= itemSize
	c.stats.Evictions++
	if c.mem != nil {
		c.mem.ReleaseMemory(itemSize)
	}
}
