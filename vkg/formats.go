package vkg

import (
	"fmt"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

var vkFormats = map[graphics.Format]vk.Format{
	graphics.FormatB8G8R8A8Unorm:     vk.FormatB8g8r8a8Unorm,
	graphics.FormatR8G8B8A8Unorm:     vk.FormatR8g8b8a8Unorm,
	graphics.FormatR32G32Float:       vk.FormatR32g32Sfloat,
	graphics.FormatR32G32B32Float:    vk.FormatR32g32b32Sfloat,
	graphics.FormatR32G32B32A32Float: vk.FormatR32g32b32a32Sfloat,
	graphics.FormatR16Uint:           vk.FormatR16Uint,
	graphics.FormatR32Uint:           vk.FormatR32Uint,
	graphics.FormatD32Float:          vk.FormatD32Sfloat,
}

// VKFormat maps a graphics format to its Vulkan equivalent.
func VKFormat(f graphics.Format) (vk.Format, error) {
	if vf, ok := vkFormats[f]; ok {
		return vf, nil
	}
	return vk.FormatUndefined, fmt.Errorf("format %d: %w", f, graphics.ResultErrorFormatNotSupported)
}

// VKIndexType maps an index buffer format to a Vulkan index type.
func VKIndexType(f graphics.Format) (vk.IndexType, error) {
	switch f {
	case graphics.FormatR16Uint:
		return vk.IndexTypeUint16, nil
	case graphics.FormatR32Uint:
		return vk.IndexTypeUint32, nil
	}
	return 0, fmt.Errorf("index format %d: %w", f, graphics.ResultErrorFormatNotSupported)
}

func vkTopology(t graphics.Topology) vk.PrimitiveTopology {
	switch t {
	case graphics.TopologyTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	case graphics.TopologyLineList:
		return vk.PrimitiveTopologyLineList
	}
	return vk.PrimitiveTopologyTriangleList
}

func vkCompareOp(c graphics.ComparisonFunc) vk.CompareOp {
	switch c {
	case graphics.ComparisonLessEqual:
		return vk.CompareOpLessOrEqual
	case graphics.ComparisonAlways:
		return vk.CompareOpAlways
	}
	return vk.CompareOpLess
}

// vertexInput lays elems out as attributes of binding 0, resolving
// AppendAligned offsets. The location of an attribute is its index.
func vertexInput(elems []graphics.InputElement, stride uint32) ([]vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription, error) {
	attrs := make([]vk.VertexInputAttributeDescription, len(elems))
	var offset uint32
	for i, e := range elems {
		f, err := VKFormat(e.Format)
		if err != nil {
			return nil, nil, fmt.Errorf("input element %s%d: %w", e.SemanticName, e.SemanticIndex, err)
		}
		if e.AlignedByteOffset != graphics.AppendAligned {
			offset = e.AlignedByteOffset
		}
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  e.InputSlot,
			Format:   f,
			Offset:   offset,
		}
		offset += e.Format.Size()
	}
	bindings := []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    stride,
		InputRate: vk.VertexInputRateVertex,
	}}
	return bindings, attrs, nil
}
