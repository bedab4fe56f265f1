package vkg

import (
	"time"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vkError(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence)); err != nil {
		return nil, err
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

func (d *Device) WaitForFences(waitForAll bool, ts time.Duration, fences ...*Fence) error {
	f := make([]vk.Fence, len(fences))
	for i := range fences {
		f[i] = fences[i].VKFence
	}
	wait := vk.Bool32(vk.False)
	if waitForAll {
		wait = vk.True
	}
	res := vk.WaitForFences(d.VKDevice, uint32(len(fences)), f, wait, uint64(ts.Nanoseconds()))
	if res == vk.Timeout {
		return graphics.Result(res)
	}
	return vkError(res)
}

func (f *Fence) Reset() error {
	return vkError(vk.ResetFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}))
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}

// CreateSemaphore creates a binary semaphore ordering work between the
// swapchain and the graphics queue.
func (d *Device) CreateSemaphore() (vk.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var s vk.Semaphore
	err := vkError(vk.CreateSemaphore(d.VKDevice, &info, nil, &s))
	return s, err
}
