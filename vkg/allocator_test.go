package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.Equal(t, uint64(12), makeAlignUp(12, 3))
	assert.Equal(t, uint64(12), makeAlignUp(10, 3))
	assert.Equal(t, uint64(7), makeAlignUp(7, 0))
	assert.Equal(t, uint64(256), makeAlignUp(1, 256))
}

func TestAllocator(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	assert.Nil(t, a.Allocate(2048, 1), "larger than the pool")
	assert.Nil(t, a.Allocate(0, 1))

	first := a.Allocate(512, 1)
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.Offset)

	assert.Nil(t, a.Allocate(768, 1))

	second := a.Allocate(500, 1)
	require.NotNil(t, second)
	assert.Equal(t, uint64(512), second.Offset)

	assert.Nil(t, a.Allocate(50, 1))
	require.NotNil(t, a.Allocate(5, 1))
	assert.Nil(t, a.Allocate(20, 1))

	a.Free(second)
	require.NotNil(t, a.Allocate(500, 1), "freed range is reused")

	a.Free(first)
	head := a.Allocate(20, 1)
	require.NotNil(t, head)
	assert.Equal(t, uint64(0), head.Offset, "gap at the head is used first")
	require.NotNil(t, a.Allocate(40, 1))
	require.NotNil(t, a.Allocate(12, 1))
	assert.Nil(t, a.Allocate(500, 1))
	require.NotNil(t, a.Allocate(5, 1))
}

func TestAllocatorAlignment(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	require.NotNil(t, a.Allocate(12, 256))
	b := a.Allocate(64, 256)
	require.NotNil(t, b)
	assert.Equal(t, uint64(256), b.Offset)

	c := a.Allocate(700, 256)
	require.NotNil(t, c)
	assert.Equal(t, uint64(512), c.Offset)
	assert.Nil(t, a.Allocate(1, 256), "no aligned room left")
	assert.Equal(t, uint64(1212), a.Used())

	a.Free(b)
	a.Free(c)
	assert.Equal(t, uint64(12), a.Used())
}
