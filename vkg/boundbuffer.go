package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// HostBoundBuffer is a buffer with its own host visible, coherent memory
// allocation. It is used when a pool has no room left and for frame
// readback.
type HostBoundBuffer struct {
	HostBuffer *Buffer
	HostMemory *DeviceMemory
}

func (d *Device) CreateAndBindBufferAndMemory(size uint64, offset uint64, usage vk.BufferUsageFlags, mprops vk.MemoryPropertyFlags, sharing vk.SharingMode) (*Buffer, *DeviceMemory, error) {
	buffer, err := d.CreateBufferWithOptions(size, usage, sharing)
	if err != nil {
		return nil, nil, err
	}
	memory, err := d.AllocateForBuffer(buffer, mprops)
	if err != nil {
		buffer.Destroy()
		return nil, nil, err
	}
	if err := buffer.Bind(memory, offset); err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, nil, err
	}
	return buffer, memory, nil
}

// CreateHostBoundBuffer creates a buffer of size bytes and maps it for the
// lifetime of the buffer.
func (d *Device) CreateHostBoundBuffer(size uint64, usage vk.BufferUsageFlags) (*HostBoundBuffer, error) {
	buffer, memory, err := d.CreateAndBindBufferAndMemory(size, 0, usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}
	h := &HostBoundBuffer{HostBuffer: buffer, HostMemory: memory}
	if _, err := memory.Map(); err != nil {
		h.Destroy()
		return nil, err
	}
	return h, nil
}

// Bytes returns the first Size bytes of the mapped memory.
func (h *HostBoundBuffer) Bytes() []byte {
	b := h.HostMemory.Bytes()
	if b == nil {
		return nil
	}
	return b[:h.HostBuffer.Size]
}

func (h *HostBoundBuffer) Destroy() {
	if h.HostMemory != nil {
		h.HostMemory.Destroy()
	}
	if h.HostBuffer != nil {
		h.HostBuffer.Destroy()
	}
}
