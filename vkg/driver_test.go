package vkg

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

func TestChoosePresentMode(t *testing.T) {
	all := VKPresentModes{vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate}
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(all, 1))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(all, 2))
	assert.Equal(t, vk.PresentModeImmediate, ChoosePresentMode(all, 0))
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode(VKPresentModes{vk.PresentModeFifo, vk.PresentModeMailbox}, 0))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(VKPresentModes{vk.PresentModeFifo}, 0))
}

func TestChooseExtent(t *testing.T) {
	fixed := &vk.SurfaceCapabilities{CurrentExtent: vk.Extent2D{Width: 640, Height: 480}}
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, ChooseExtent(fixed, vk.Extent2D{Width: 800, Height: 600}))

	free := &vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 16, Height: 16},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 768},
	}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, ChooseExtent(free, vk.Extent2D{Width: 800, Height: 600}))
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 16}, ChooseExtent(free, vk.Extent2D{Width: 4096, Height: 1}))
}

func TestBGRAToRGBA(t *testing.T) {
	pix := []byte{1, 2, 3, 4, 10, 20, 30, 40, 9}
	bgraToRGBA(pix)
	assert.Equal(t, []byte{3, 2, 1, 4, 30, 20, 10, 40, 9}, pix)
}

func TestPipelineKey(t *testing.T) {
	base := pipelineKey(1, 2, 3, 12, graphics.TopologyTriangleList, nil)
	assert.Equal(t, base, pipelineKey(1, 2, 3, 12, graphics.TopologyTriangleList, nil))

	depth := defaultDepthState
	withDepth := pipelineKey(1, 2, 3, 12, graphics.TopologyTriangleList, &depth)
	lessEqual := depth
	lessEqual.DepthFunc = graphics.ComparisonLessEqual

	keys := map[uint64]string{base: "base"}
	for name, k := range map[string]uint64{
		"vertex shader": pipelineKey(9, 2, 3, 12, graphics.TopologyTriangleList, nil),
		"pixel shader":  pipelineKey(1, 9, 3, 12, graphics.TopologyTriangleList, nil),
		"layout":        pipelineKey(1, 2, 9, 12, graphics.TopologyTriangleList, nil),
		"stride":        pipelineKey(1, 2, 3, 16, graphics.TopologyTriangleList, nil),
		"topology":      pipelineKey(1, 2, 3, 12, graphics.TopologyLineList, nil),
		"depth":         withDepth,
		"depth func":    pipelineKey(1, 2, 3, 12, graphics.TopologyTriangleList, &lessEqual),
	} {
		other, dup := keys[k]
		require.False(t, dup, "%s collides with %s", name, other)
		keys[k] = name
	}
}

func TestPipelineSet(t *testing.T) {
	var released []*GraphicsPipeline
	s, err := NewPipelineSet(2, func(p *GraphicsPipeline) { released = append(released, p) })
	require.NoError(t, err)

	created := 0
	create := func() (*GraphicsPipeline, error) {
		created++
		return &GraphicsPipeline{}, nil
	}

	a, err := s.Get(1, create)
	require.NoError(t, err)
	again, err := s.Get(1, create)
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, 1, created)

	_, err = s.Get(2, create)
	require.NoError(t, err)
	_, err = s.Get(1, create) // 1 is now the most recently used
	require.NoError(t, err)
	_, err = s.Get(3, create)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Equal(t, 2, s.Len())
	require.Len(t, released, 1, "least recently used pipeline evicted")

	_, err = s.Get(4, func() (*GraphicsPipeline, error) { return nil, graphics.ResultErrorInvalidShader })
	assert.ErrorIs(t, err, graphics.ResultErrorInvalidShader)
	assert.Equal(t, 2, s.Len())

	s.Purge()
	assert.Zero(t, s.Len())
	assert.Len(t, released, 3)
	assert.Contains(t, released, a)
}

func TestViewportIsFlipped(t *testing.T) {
	vp := vkViewport(graphics.Viewport{TopLeftX: 10, TopLeftY: 20, Width: 800, Height: 600, MaxDepth: 1})
	assert.Equal(t, float32(10), vp.X)
	assert.Equal(t, float32(620), vp.Y)
	assert.Equal(t, float32(800), vp.Width)
	assert.Equal(t, float32(-600), vp.Height)
	assert.Equal(t, float32(1), vp.MaxDepth)
}

func TestRendererErrors(t *testing.T) {
	r := &renderer{}
	assert.NoError(t, r.takeErr())

	r.setErr(graphics.ResultErrorOutOfHostMemory)
	r.setErr(graphics.ResultErrorSurfaceLost)
	assert.ErrorIs(t, r.takeErr(), graphics.ResultErrorOutOfHostMemory, "first error wins")
	assert.NoError(t, r.takeErr())

	r.setErr(graphics.ResultErrorDeviceLost)
	assert.ErrorIs(t, r.takeErr(), graphics.ResultErrorDeviceLost)
	assert.ErrorIs(t, r.takeErr(), graphics.ResultErrorDeviceLost, "a lost device stays lost")
	assert.True(t, r.removed)
}

func TestDeviceLossNotHiddenByEarlierError(t *testing.T) {
	r := &renderer{}
	r.setErr(&graphics.OpError{Op: "DrawIndexed", Err: fmt.Errorf("creating pipeline: %w", graphics.ResultErrorOutOfDeviceMemory)})
	r.setErr(graphics.ResultErrorDeviceLost)

	err := r.takeErr()
	assert.ErrorIs(t, err, graphics.ResultErrorDeviceLost)
	assert.ErrorIs(t, err, graphics.ResultErrorOutOfDeviceMemory)
	var oe *graphics.OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "DrawIndexed", oe.Op)

	assert.Equal(t, graphics.ResultErrorDeviceLost, r.takeErr())
}

func TestReleaseDeferredWhileRecording(t *testing.T) {
	r := &renderer{}
	ran := 0
	r.release(func() { ran++ })
	assert.Equal(t, 1, ran)

	r.frame.recording = true
	r.release(func() { ran++ })
	assert.Equal(t, 1, ran)
	require.Len(t, r.garbage, 1)

	r.frame = frameState{}
	r.flush()
	assert.Equal(t, 2, ran)
	assert.Empty(t, r.garbage)
}
