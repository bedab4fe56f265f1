package vkg

import (
	"fmt"
)

// Allocation is a range inside an allocator's address space.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

type IAllocator interface {
	Allocate(size uint64, align uint64) *Allocation
	Free(a *Allocation)
}

// LinearAllocator hands out first-fit ranges of a fixed size space. Live
// allocations are kept sorted by offset.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return a - m + align
}

func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Used returns the number of bytes between offset 0 and the end of the
// last allocation.
func (p *LinearAllocator) Used() uint64 {
	if len(p.allocs) == 0 {
		return 0
	}
	l := p.allocs[len(p.allocs)-1]
	return l.Offset + l.Size
}

// Allocate returns a range of size bytes aligned to align, or nil when no
// gap is large enough.
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}
	insert := func(i int, offset uint64) *Allocation {
		na := &Allocation{Offset: offset, Size: size}
		p.allocs = append(p.allocs, nil)
		copy(p.allocs[i+1:], p.allocs[i:])
		p.allocs[i] = na
		return na
	}

	var start uint64
	for i, a := range p.allocs {
		if a.Offset >= start && a.Offset-start >= size {
			return insert(i, start)
		}
		start = makeAlignUp(a.Offset+a.Size, align)
	}
	if start <= p.Size && p.Size-start >= size {
		return insert(len(p.allocs), start)
	}
	return nil
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
