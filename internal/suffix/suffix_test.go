package suffix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetters_Sequence(t *testing.T) {
	cases := map[uint]string{
		0:  "a",
		1:  "b",
		25: "z",
		26: "aa",
		27: "ab",
		51: "az",
		52: "ba",
		77: "bz",
	}
	for index, want := range cases {
		assert.Equal(t, want, Letters(index), "index %d", index)
	}
}

func TestLetters_OrderPreserving(t *testing.T) {
	// Same-length suffixes must sort in index order.
	prev := Letters(26)
	for i := uint(27); i < 26+26*26; i++ {
		cur := Letters(i)
		require.Len(t, cur, 2)
		assert.Less(t, prev, cur, "index %d", i)
		prev = cur
	}
}

func TestNumeric(t *testing.T) {
	assert.Equal(t, "0", Numeric(0))
	assert.Equal(t, "7", Numeric(7))
	assert.Equal(t, "1023", Numeric(1023))
}

func TestAllocator_ScanDoesNotClaim(t *testing.T) {
	a := NewAllocator(8)

	idx, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint(0), idx)
	assert.False(t, a.Allocated(idx))

	// Without a commit the same index is handed out again.
	idx2, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, idx, idx2)
}

func TestAllocator_CommitAdvancesScan(t *testing.T) {
	a := NewAllocator(8)

	first, err := a.Allocate()
	require.NoError(t, err)
	a.Commit(first)

	second, err := a.Allocate()
	require.NoError(t, err)
	a.Commit(second)

	assert.Equal(t, uint(0), first)
	assert.Equal(t, uint(1), second)
	assert.True(t, a.Allocated(first))
	assert.True(t, a.Allocated(second))
}

func TestAllocator_Release(t *testing.T) {
	a := NewAllocator(4)
	for i := uint(0); i < 3; i++ {
		idx, err := a.Allocate()
		require.NoError(t, err)
		a.Commit(idx)
	}

	a.Release(1)
	assert.False(t, a.Allocated(1))

	idx, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, uint(1), idx, "released slot is the lowest free one")
	// Slot 0 and 2 were untouched by the release.
	assert.True(t, a.Allocated(0))
	assert.True(t, a.Allocated(2))
}

func TestAllocator_Exhaustion(t *testing.T) {
	a := NewAllocator(DefaultCapacity)
	for i := uint(0); i < DefaultCapacity; i++ {
		idx, err := a.Allocate()
		require.NoError(t, err)
		require.Equal(t, i, idx)
		a.Commit(idx)
	}

	_, err := a.Allocate()
	assert.ErrorIs(t, err, ErrExhausted)
}
