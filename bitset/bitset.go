package bitset

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitset is a fixed-width set of sample indices backed by a Roaring bitmap.
//
// Bitset is NOT thread-safe.
type Bitset struct {
	rb *roaring.Bitmap
	n  int
}

// New creates an empty Bitset over n samples.
func New(n int) *Bitset {
	if n < 0 {
		panic(fmt.Sprintf("bitset: negative width %d", n))
	}
	return &Bitset{rb: roaring.New(), n: n}
}

// Ones creates a Bitset over n samples with every bit set.
func Ones(n int) *Bitset {
	b := New(n)
	b.rb.AddRange(0, uint64(n))
	return b
}

// FromIndices creates a Bitset over n samples with the given bits set.
func FromIndices(n int, idx ...int) *Bitset {
	b := New(n)
	for _, i := range idx {
		b.Set(i)
	}
	return b
}

// Parse parses a bit string such as "110100" where character i is the
// membership of sample i. Spaces are ignored, so "1 1 0 1 0 0" is accepted too.
func Parse(s string) (*Bitset, error) {
	s = strings.ReplaceAll(s, " ", "")
	b := New(len(s))
	for i, ch := range s {
		switch ch {
		case '1':
			b.rb.Add(uint32(i))
		case '0':
		default:
			return nil, fmt.Errorf("bitset: invalid character %q at position %d", ch, i)
		}
	}
	return b, nil
}

// MustParse is like Parse but panics on error. Intended for tests.
func MustParse(s string) *Bitset {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the width of the bitset in samples.
func (b *Bitset) Len() int { return b.n }

// Set sets bit i. Out of range indices are ignored.
func (b *Bitset) Set(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.rb.Add(uint32(i))
}

// Unset clears bit i.
func (b *Bitset) Unset(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.rb.Remove(uint32(i))
}

// Test reports whether bit i is set.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.rb.Contains(uint32(i))
}

// Clear removes every bit.
func (b *Bitset) Clear() {
	b.rb.Clear()
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	return int(b.rb.GetCardinality())
}

// IsEmpty reports whether no bit is set.
func (b *Bitset) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Clone returns a deep copy.
func (b *Bitset) Clone() *Bitset {
	return &Bitset{rb: b.rb.Clone(), n: b.n}
}

// CopyFrom overwrites b with the contents of other.
func (b *Bitset) CopyFrom(other *Bitset) {
	b.check(other)
	b.rb.Clear()
	b.rb.Or(other.rb)
}

// And intersects b with other in place and returns the resulting popcount.
func (b *Bitset) And(other *Bitset) int {
	b.check(other)
	b.rb.And(other.rb)
	return b.Count()
}

// Or unions other into b in place and returns the resulting popcount.
func (b *Bitset) Or(other *Bitset) int {
	b.check(other)
	b.rb.Or(other.rb)
	return b.Count()
}

// AndNot removes the bits of other from b in place and returns the resulting popcount.
func (b *Bitset) AndNot(other *Bitset) int {
	b.check(other)
	b.rb.AndNot(other.rb)
	return b.Count()
}

// Not returns the complement of b within its width.
func (b *Bitset) Not() *Bitset {
	c := b.Clone()
	c.rb.Flip(0, uint64(b.n))
	return c
}

// AndCount returns |b AND other| without materializing the intersection.
func (b *Bitset) AndCount(other *Bitset) int {
	b.check(other)
	return int(b.rb.AndCardinality(other.rb))
}

// Equal reports whether b and other have the same width and bits.
func (b *Bitset) Equal(other *Bitset) bool {
	if other == nil || b.n != other.n {
		return false
	}
	return b.rb.Equals(other.rb)
}

// ForEach calls fn for every set bit in ascending order until fn returns false.
func (b *Bitset) ForEach(fn func(i int) bool) {
	b.rb.Iterate(func(x uint32) bool {
		return fn(int(x))
	})
}

// Indices returns the set bits in ascending order.
func (b *Bitset) Indices() []int {
	out := make([]int, 0, b.Count())
	b.ForEach(func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

// Key returns a canonical string key for the contents of b.
//
// Two bitsets of the same width have the same key iff they hold the same bits,
// regardless of the container layout Roaring picked for them.
func (b *Bitset) Key() string {
	words := make([]uint64, (b.n+63)/64)
	b.rb.Iterate(func(x uint32) bool {
		words[x>>6] |= 1 << (x & 63)
		return true
	})
	buf := make([]byte, 0, len(words)*8)
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	return string(buf)
}

// SizeInBytes returns the in-memory size of the underlying bitmap.
func (b *Bitset) SizeInBytes() uint64 {
	return b.rb.GetSizeInBytes()
}

// String renders b as a bit string, sample 0 first.
func (b *Bitset) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.rb.Contains(uint32(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (b *Bitset) check(other *Bitset) {
	if b.n != other.n {
		panic(fmt.Sprintf("bitset: width mismatch %d != %d", b.n, other.n))
	}
}
