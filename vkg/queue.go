package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return vkError(vk.QueueWaitIdle(q.VKQueue))
}

// SubmitWaitIdle submits buffers without synchronization objects and
// waits for the queue to drain.
func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(b)),
		PCommandBuffers:    b,
	}
	if err := vkError(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence)); err != nil {
		return err
	}
	return q.WaitIdle()
}

// SubmitFrame submits cb waiting on wait at the colour output stage,
// signalling signal and fence when done.
func (q *Queue) SubmitFrame(cb *CommandBuffer, wait, signal vk.Semaphore, fence *Fence) error {
	submitInfo := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.VKCommandBuffer},
	}}
	return vkError(vk.QueueSubmit(q.VKQueue, 1, submitInfo, fence.VKFence))
}

// Present queues image index of sc for presentation once wait is
// signalled. The raw result is returned so callers can react to
// out-of-date and suboptimal swapchains.
func (q *Queue) Present(sc *Swapchain, index uint32, wait vk.Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.VKSwapchain},
		PImageIndices:      []uint32{index},
	}
	return vk.QueuePresent(q.VKQueue, &presentInfo)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device, q.QueueFamily)
}
