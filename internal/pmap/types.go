package pmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/corelgo/bitset"
	"github.com/hupe1980/corelgo/internal/tree"
	"github.com/hupe1980/corelgo/model"
)

// ErrUnknownKind is returned when a cache kind name is not recognized.
var ErrUnknownKind = errors.New("pmap: unknown cache kind")

// Kind selects the cache strategy.
type Kind uint8

const (
	// None disables symmetry pruning.
	None Kind = iota
	// Captured keys entries by captured sample set.
	Captured
	// Prefix keys entries by the unordered set of rule ids.
	Prefix
)

// ParseKind parses a cache kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "":
		return None, nil
	case "captured":
		return Captured, nil
	case "prefix":
		return Prefix, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Captured:
		return "captured"
	case Prefix:
		return "prefix"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tolerance absorbs rounding differences between bounds that are equal in
// exact arithmetic but were summed along different prefixes.
const Tolerance = 1e-12

// Covers reports whether an entry with bound e makes a candidate with bound
// lb redundant.
func (e Entry) Covers(lb float64) bool { return e.LowerBound <= lb+Tolerance }

// Key identifies an equivalence class of prefixes.
type Key string

// Entry is the best bound recorded for a key.
type Entry struct {
	LowerBound float64
	Handle     tree.Handle
}

// Stats reports cache activity.
type Stats struct {
	Lookups      uint64
	Hits         uint64
	Inserts      uint64
	Improvements uint64
	Rejections   uint64
	Evictions    uint64
}

// Misses returns the number of lookups that found nothing.
func (s Stats) Misses() uint64 { return s.Lookups - s.Hits }

// Cache is a permutation cache. Implementations are NOT thread-safe.
type Cache interface {
	// Kind returns the strategy.
	Kind() Kind
	// Key derives the key of the prefix (rule ids, new rule last) that
	// captures the given samples.
	Key(prefix []model.RuleID, captured *bitset.Bitset) Key
	// Lookup returns the best entry recorded for key.
	Lookup(key Key) (Entry, bool)
	// InsertOrImprove records lb for key unless an equal or better bound is
	// already recorded. On improvement it returns the handle of the node that
	// held the previous entry.
	InsertOrImprove(key Key, lb float64, h tree.Handle) (improved bool, displaced tree.Handle)
	// Len returns the number of entries.
	Len() int
	// Stats returns a snapshot of the counters.
	Stats() Stats
	// Close drops every entry and returns the memory charged for them.
	Close()
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	maxBytes int64
	mem      tree.MemoryAcquirer
}

// WithMaxBytes bounds the cache; least recently used entries are evicted.
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		o.maxBytes = n
	}
}

// WithMemoryAcquirer charges entry memory to m. Entries that m refuses are
// not recorded.
func WithMemoryAcquirer(m tree.MemoryAcquirer) Option {
	return func(o *options) {
		o.mem = m
	}
}

// New creates a cache of the given kind.
func New(kind Kind, opts ...Option) (Cache, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var key keyFunc
	switch kind {
	case None:
		return Noop{}, nil
	case Captured:
		key = capturedKey
	case Prefix:
		key = prefixKey
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	if o.maxBytes > 0 {
		return newLRU(kind, key, o.maxBytes, o.mem), nil
	}
	return newMapCache(kind, key, o.mem), nil
}

// Admit records the bound of a freshly created node and tombstones the node
// it displaces, so that the dominated subtree is dropped lazily. It returns
// false when an equal or better bound is already recorded.
func Admit(c Cache, t *tree.Tree, key Key, lb float64, h tree.Handle) bool {
	improved, displaced := c.InsertOrImprove(key, lb, h)
	if improved && !displaced.IsNil() && displaced != h {
		t.Tombstone(displaced)
	}
	return improved
}

type keyFunc func(prefix []model.RuleID, captured *bitset.Bitset) Key

func capturedKey(_ []model.RuleID, captured *bitset.Bitset) Key {
	return Key(captured.Key())
}

func prefixKey(prefix []model.RuleID, _ *bitset.Bitset) Key {
	ids := slices.Clone(prefix)
	slices.Sort(ids)
	buf := make([]byte, 0, 4*len(ids))
	for _, id := range ids {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	}
	return Key(buf)
}

// entryOverhead approximates the per-entry bookkeeping cost beyond the key.
const entryOverhead = 64

func entryBytes(key Key) int64 {
	return int64(len(key)) + entryOverhead
}
