package vkg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

func TestVKFormat(t *testing.T) {
	f, err := VKFormat(graphics.FormatB8G8R8A8Unorm)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f)

	_, err = VKFormat(graphics.Format(999))
	assert.ErrorIs(t, err, graphics.ResultErrorFormatNotSupported)

	it, err := VKIndexType(graphics.FormatR16Uint)
	require.NoError(t, err)
	assert.Equal(t, vk.IndexTypeUint16, it)
	_, err = VKIndexType(graphics.FormatR32G32Float)
	assert.ErrorIs(t, err, graphics.ResultErrorFormatNotSupported)
}

func TestVertexInputOffsets(t *testing.T) {
	elems := []graphics.InputElement{
		{SemanticName: "Position", Format: graphics.FormatR32G32Float},
		{SemanticName: "Color", Format: graphics.FormatR8G8B8A8Unorm, AlignedByteOffset: graphics.AppendAligned},
		{SemanticName: "Normal", Format: graphics.FormatR32G32B32Float, AlignedByteOffset: 16},
		{SemanticName: "Weight", Format: graphics.FormatR32Uint, AlignedByteOffset: graphics.AppendAligned},
	}
	bindings, attrs, err := vertexInput(elems, 32)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, uint32(32), bindings[0].Stride)

	var offsets, locations []uint32
	for _, a := range attrs {
		offsets = append(offsets, a.Offset)
		locations = append(locations, a.Location)
	}
	assert.Equal(t, []uint32{0, 8, 16, 28}, offsets)
	assert.Equal(t, []uint32{0, 1, 2, 3}, locations)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, attrs[1].Format)

	_, _, err = vertexInput([]graphics.InputElement{{SemanticName: "Bad", Format: graphics.Format(999)}}, 4)
	assert.ErrorIs(t, err, graphics.ResultErrorFormatNotSupported)
	assert.Contains(t, err.Error(), "Bad0")
}

func TestVKError(t *testing.T) {
	assert.NoError(t, vkError(vk.Success))
	assert.NoError(t, vkError(vk.Incomplete))

	err := vkError(vk.ErrorDeviceLost)
	assert.True(t, errors.Is(err, graphics.ResultErrorDeviceLost))
	assert.Equal(t, "VK_ERROR_DEVICE_LOST", err.Error()[:len("VK_ERROR_DEVICE_LOST")])
}

func TestBufferUsage(t *testing.T) {
	assert.Equal(t, vk.BufferUsageVertexBufferBit, bufferUsage(graphics.BindVertexBuffer))
	assert.Equal(t, vk.BufferUsageIndexBufferBit|vk.BufferUsageUniformBufferBit,
		bufferUsage(graphics.BindIndexBuffer|graphics.BindConstantBuffer))
	assert.Zero(t, bufferUsage(0))
}

func TestCompareAndTopology(t *testing.T) {
	assert.Equal(t, vk.CompareOpLess, vkCompareOp(graphics.ComparisonLess))
	assert.Equal(t, vk.CompareOpLessOrEqual, vkCompareOp(graphics.ComparisonLessEqual))
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, vkTopology(graphics.TopologyTriangleList))
	assert.Equal(t, vk.PrimitiveTopologyLineList, vkTopology(graphics.TopologyLineList))
}
