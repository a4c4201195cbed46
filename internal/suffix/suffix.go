// Package suffix allocates the per-instance name suffix slots of a device
// node family and renders slot indexes as numeric or letter suffixes.
package suffix

import (
	"errors"
	"strconv"

	"github.com/bits-and-blooms/bitset"
)

// DefaultCapacity is the number of suffix slots a family starts with.
// Exhaustion is reported, not resized away.
const DefaultCapacity = 1024

// ErrExhausted reports that every suffix slot of the family is in use.
var ErrExhausted = errors.New("suffix: allocation map exhausted")

// Allocator hands out suffix slot indexes from a fixed-capacity bitmap.
//
// Allocation is two-phase: Allocate scans for a free index without claiming
// it, and Commit marks it used once the caller has fully materialized the
// node behind it. A set bit therefore always corresponds to a durably
// registered node. The zero phase gap means an abandoned index stays free
// and may be returned by the next Allocate.
type Allocator struct {
	bits *bitset.BitSet
}

// NewAllocator creates an allocator with capacity slots, all free.
func NewAllocator(capacity uint) *Allocator {
	return &Allocator{bits: bitset.New(capacity)}
}

// Allocate returns the lowest free slot index without claiming it.
// Returns ErrExhausted when the bitmap is saturated.
func (a *Allocator) Allocate() (uint, error) {
	idx, ok := a.bits.NextClear(0)
	if !ok || idx >= a.bits.Len() {
		return 0, ErrExhausted
	}
	return idx, nil
}

// Commit marks the slot index as used.
func (a *Allocator) Commit(index uint) {
	a.bits.Set(index)
}

// Release frees the slot index. Must only be called after the node named by
// the index has been removed.
func (a *Allocator) Release(index uint) {
	a.bits.Clear(index)
}

// Allocated reports whether the slot index is in use.
func (a *Allocator) Allocated(index uint) bool {
	return a.bits.Test(index)
}

// Capacity returns the total number of slots.
func (a *Allocator) Capacity() uint {
	return a.bits.Len()
}

// Numeric renders a slot index as its decimal suffix.
func Numeric(index uint) string {
	return strconv.FormatUint(uint64(index), 10)
}

// Letters renders a slot index in bijective base-26: 0 is "a", 25 is "z",
// 26 is "aa". This matches the usual disk letter sequence, not standard
// positional base-26.
func Letters(index uint) string {
	var out []byte
	for {
		out = append([]byte{byte('a' + index%26)}, out...)
		index /= 26
		if index == 0 {
			break
		}
		index--
	}
	return string(out)
}
