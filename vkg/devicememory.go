package vkg

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	// Ptr is set while the whole allocation is mapped.
	Ptr unsafe.Pointer
}

func (d *DeviceMemory) Destroy() {
	if d.Ptr != nil {
		d.Unmap()
	}
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}

// Map maps the entire allocation and keeps it mapped until Unmap.
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	if d.Ptr != nil {
		return d.Ptr, nil
	}
	var res unsafe.Pointer
	if err := vkError(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, 0, vk.DeviceSize(d.Size), 0, &res)); err != nil {
		return nil, err
	}
	d.Ptr = res
	return res, nil
}

// Bytes returns the mapped allocation. It is nil unless the memory is
// mapped.
func (d *DeviceMemory) Bytes() []byte {
	if d.Ptr == nil {
		return nil
	}
	return ToBytes(d.Ptr, int(d.Size))
}

// MapCopyUnmap maps the memory, copies data to offset and unmaps it again
// unless the memory was already mapped.
func (d *DeviceMemory) MapCopyUnmap(data []byte, offset uint64) error {
	mapped := d.Ptr != nil
	if _, err := d.Map(); err != nil {
		return err
	}
	copy(d.Bytes()[offset:], data)
	if !mapped {
		d.Unmap()
	}
	return nil
}

func (d *DeviceMemory) Unmap() {
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
	d.Ptr = nil
}
