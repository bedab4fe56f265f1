package vkg

import (
	"unsafe"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

var end = "\x00"
var endChar byte = '\x00'

// vkError converts a Vulkan result into a graphics.Result error so callers
// can classify it with errors.Is. Success and Incomplete are not errors.
func vkError(res vk.Result) error {
	switch res {
	case vk.Success, vk.Incomplete:
		return nil
	}
	return graphics.Result(res)
}

// DestroyAny is a utility function which given an item will try to figure
// out how to destroy it.
func (d *Device) DestroyAny(i interface{}) {
	switch t := i.(type) {
	case vk.ImageView:
		vk.DestroyImageView(d.VKDevice, t, nil)
	case vk.Buffer:
		vk.DestroyBuffer(d.VKDevice, t, nil)
	case vk.Image:
		vk.DestroyImage(d.VKDevice, t, nil)
	case vk.Pipeline:
		vk.DestroyPipeline(d.VKDevice, t, nil)
	case vk.Framebuffer:
		vk.DestroyFramebuffer(d.VKDevice, t, nil)
	case vk.RenderPass:
		vk.DestroyRenderPass(d.VKDevice, t, nil)
	case vk.Fence:
		vk.DestroyFence(d.VKDevice, t, nil)
	case vk.Semaphore:
		vk.DestroySemaphore(d.VKDevice, t, nil)
	case IDestructable:
		t.Destroy()
	}
}

// ToBytes will take an unsafe.Pointer and length in bytes and convert it
// to a byte slice
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	return unsafe.Slice((*byte)(ptr), lenInBytes)
}

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}
