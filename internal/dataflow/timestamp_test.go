package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_LatticeOrder(t *testing.T) {
	bottom := BottomTimestamp()
	top := TopTimestamp()
	v1 := NewVectorTimestamp(1)
	v2 := NewVectorTimestamp(2)

	assert.True(t, bottom.Less(v1))
	assert.True(t, v1.Less(top))
	assert.True(t, bottom.Less(top))
	assert.True(t, v1.Less(v2))
	assert.False(t, v2.Less(v1))
	assert.True(t, v1.Equal(NewVectorTimestamp(1)))
}

func TestTimestamp_LexicographicVectorOrder(t *testing.T) {
	a := NewVectorTimestamp(1, 5)
	b := NewVectorTimestamp(1, 6)
	c := NewVectorTimestamp(2, 0)

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.True(t, a.Less(c))
}

func TestTimestamp_ShorterPrefixSortsFirst(t *testing.T) {
	short := NewVectorTimestamp(1)
	long := NewVectorTimestamp(1, 0)
	assert.True(t, short.Less(long))
}

func TestTimestamp_Clone_NotAliased(t *testing.T) {
	original := NewVectorTimestamp(1, 2, 3)
	clone := original.Clone()
	v := clone.Vector()
	v[0] = 99
	require.Equal(t, []uint64{1, 2, 3}, original.Vector())
}

func TestTimestamp_Key_DeterministicAndDistinct(t *testing.T) {
	a := NewVectorTimestamp(1, 2)
	b := NewVectorTimestamp(1, 2)
	c := NewVectorTimestamp(1, 3)

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.NotEqual(t, BottomTimestamp().Key(), TopTimestamp().Key())
}
