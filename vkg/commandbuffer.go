package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffers describe a sequence of commands that will be executed
// upon being sent to a device queue. Not all available vulkan commands
// are wrapped by this package. It is expected that the calling application
// must call the native vulkan command APIs.
type CommandBuffer struct {
	VKCommandBuffer vk.CommandBuffer
}

// Reset this command buffer
func (c *CommandBuffer) Reset() error {
	return vkError(vk.ResetCommandBuffer(c.VKCommandBuffer, 0))
}

// VK is a utility function for accessing the native vulkan command buffer
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

// BeginOneTime begins capturing work for this command buffer, with the
// stipulation that it will be submitted once before being reset.
func (c *CommandBuffer) BeginOneTime() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return vkError(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo))
}

// End describing work for this command buffer
func (c *CommandBuffer) End() error {
	return vkError(vk.EndCommandBuffer(c.VKCommandBuffer))
}

// CmdBeginRenderPass begins rp over the whole of extent. None of the
// render passes in this package clear on load, so no clear values are
// passed.
func (c *CommandBuffer) CmdBeginRenderPass(rp vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D) {
	vk.CmdBeginRenderPass(c.VKCommandBuffer, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
	}, vk.SubpassContentsInline)
}

func (c *CommandBuffer) CmdEndRenderPass() {
	vk.CmdEndRenderPass(c.VKCommandBuffer)
}

func (c *CommandBuffer) CmdBindGraphicsPipeline(p *GraphicsPipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointGraphics, p.VKPipeline)
}

func (c *CommandBuffer) CmdBindDescriptorSets(bindPoint vk.PipelineBindPoint, layout *PipelineLayout, firstSet int, descriptorSets ...*DescriptorSet) {
	sets := make([]vk.DescriptorSet, len(descriptorSets))
	for i := range descriptorSets {
		sets[i] = descriptorSets[i].VKDescriptorSet
	}
	vk.CmdBindDescriptorSets(c.VKCommandBuffer, bindPoint,
		layout.VKPipelineLayout, uint32(firstSet), uint32(len(descriptorSets)), sets, 0, nil)
}

func (c *CommandBuffer) CmdSetViewport(vp vk.Viewport) {
	vk.CmdSetViewport(c.VKCommandBuffer, 0, 1, []vk.Viewport{vp})
}

func (c *CommandBuffer) CmdSetScissor(extent vk.Extent2D) {
	vk.CmdSetScissor(c.VKCommandBuffer, 0, 1, []vk.Rect2D{{Extent: extent}})
}

func (c *CommandBuffer) CmdBindVertexBuffer(b vk.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(c.VKCommandBuffer, 0, 1, []vk.Buffer{b}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (c *CommandBuffer) CmdBindIndexBuffer(b vk.Buffer, offset uint64, t vk.IndexType) {
	vk.CmdBindIndexBuffer(c.VKCommandBuffer, b, vk.DeviceSize(offset), t)
}

func (c *CommandBuffer) CmdDraw(vertexCount, firstVertex uint32) {
	vk.CmdDraw(c.VKCommandBuffer, vertexCount, 1, firstVertex, 0)
}

func (c *CommandBuffer) CmdDrawIndexed(indexCount, firstIndex uint32, vertexOffset int32) {
	vk.CmdDrawIndexed(c.VKCommandBuffer, indexCount, 1, firstIndex, vertexOffset, 0)
}

// CmdClearColorAttachment clears colour attachment 0 of the active render
// pass.
func (c *CommandBuffer) CmdClearColorAttachment(rgba [4]float32, extent vk.Extent2D) {
	c.clearAttachment(vk.ClearAttachment{
		AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
		ColorAttachment: 0,
		ClearValue:      vk.NewClearValue(rgba[:]),
	}, extent)
}

// CmdClearDepthAttachment clears the depth attachment of the active
// render pass.
func (c *CommandBuffer) CmdClearDepthAttachment(depth float32, extent vk.Extent2D) {
	c.clearAttachment(vk.ClearAttachment{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
		ClearValue: vk.NewClearDepthStencil(depth, 0),
	}, extent)
}

func (c *CommandBuffer) clearAttachment(a vk.ClearAttachment, extent vk.Extent2D) {
	vk.CmdClearAttachments(c.VKCommandBuffer, 1, []vk.ClearAttachment{a}, 1, []vk.ClearRect{{
		Rect:       vk.Rect2D{Extent: extent},
		LayerCount: 1,
	}})
}
