package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// BufferPool is one large host visible buffer that per frame data is
// sub-allocated from. Vulkan limits the number of memory allocations an
// application may hold, so vertex, index and uniform data for a frame all
// share this buffer and the pool is reset once the frame has completed.
type BufferPool struct {
	Device    *Device
	Buffer    *Buffer
	Memory    *DeviceMemory
	Allocator IAllocator
	Usage     vk.BufferUsageFlags
}

// BufferResource is a range of a BufferPool.
type BufferResource struct {
	Pool       *BufferPool
	Allocation *Allocation
}

func (d *Device) CreateBufferPool(size uint64, usage vk.BufferUsageFlags) (*BufferPool, error) {
	buffer, memory, err := d.CreateAndBindBufferAndMemory(size, 0, usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		vk.SharingModeExclusive)
	if err != nil {
		return nil, err
	}
	if _, err := memory.Map(); err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, err
	}
	return &BufferPool{
		Device:    d,
		Buffer:    buffer,
		Memory:    memory,
		Allocator: &LinearAllocator{Size: size},
		Usage:     usage,
	}, nil
}

// Allocate copies data into a new range aligned to align. It returns nil
// when the pool is full.
func (p *BufferPool) Allocate(data []byte, align uint64) *BufferResource {
	a := p.Allocator.Allocate(uint64(len(data)), align)
	if a == nil {
		return nil
	}
	r := &BufferResource{Pool: p, Allocation: a}
	copy(r.Bytes(), data)
	return r
}

// Free returns r to the pool. Only call it once the GPU is done with the
// frame that used it.
func (p *BufferPool) Free(r *BufferResource) {
	p.Allocator.Free(r.Allocation)
}

func (p *BufferPool) Destroy() {
	if p.Memory != nil {
		p.Memory.Destroy()
	}
	if p.Buffer != nil {
		p.Buffer.Destroy()
	}
}

func (p *BufferPool) String() string {
	return fmt.Sprintf("{Size: %d Allocations: %v}", p.Buffer.Size, p.Allocator)
}

func (r *BufferResource) VKBuffer() vk.Buffer {
	return r.Pool.Buffer.VKBuffer
}

func (r *BufferResource) Offset() uint64 {
	return r.Allocation.Offset
}

// Bytes returns the mapped range backing this resource.
func (r *BufferResource) Bytes() []byte {
	s := r.Allocation.Offset
	return r.Pool.Memory.Bytes()[s : s+r.Allocation.Size]
}
