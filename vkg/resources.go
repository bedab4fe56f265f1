package vkg

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

type device struct {
	r        *renderer
	released bool
}

func (d *device) invalid(op, format string, args ...any) {
	d.r.info.Push(op + ": " + fmt.Sprintf(format, args...))
}

type buffer struct {
	r        *renderer
	desc     graphics.BufferDesc
	res      *BufferResource
	own      *HostBoundBuffer
	released bool
}

func (b *buffer) Desc() graphics.BufferDesc { return b.desc }

func (b *buffer) vkBuffer() vk.Buffer {
	if b.own != nil {
		return b.own.HostBuffer.VKBuffer
	}
	return b.res.VKBuffer()
}

func (b *buffer) offset() uint64 {
	if b.own != nil {
		return 0
	}
	return b.res.Offset()
}

func (b *buffer) size() uint64 { return uint64(b.desc.ByteWidth) }

func (b *buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	res, own := b.res, b.own
	b.r.release(func() {
		if res != nil {
			res.Pool.Free(res)
		}
		if own != nil {
			own.Destroy()
		}
	})
}

func bufferUsage(bind graphics.BindFlags) vk.BufferUsageFlagBits {
	var usage vk.BufferUsageFlagBits
	if bind&graphics.BindVertexBuffer != 0 {
		usage |= vk.BufferUsageVertexBufferBit
	}
	if bind&graphics.BindIndexBuffer != 0 {
		usage |= vk.BufferUsageIndexBufferBit
	}
	if bind&graphics.BindConstantBuffer != 0 {
		usage |= vk.BufferUsageUniformBufferBit
	}
	return usage
}

// CreateBuffer copies ByteWidth bytes of data into host visible memory,
// zero filling past the end of data. Buffers come from the shared pool
// and get their own allocation only when the pool is full.
func (d *device) CreateBuffer(desc graphics.BufferDesc, data []byte) (graphics.Buffer, error) {
	const op = "CreateBuffer"
	usage := bufferUsage(desc.BindFlags)
	switch {
	case desc.ByteWidth == 0:
		d.invalid(op, "ByteWidth is zero")
		return nil, graphics.ResultErrorValidationFailed
	case len(data) > int(desc.ByteWidth):
		d.invalid(op, "%d bytes of data exceed ByteWidth %d", len(data), desc.ByteWidth)
		return nil, graphics.ResultErrorValidationFailed
	case usage == 0:
		d.invalid(op, "no supported BindFlags in 0x%x", uint32(desc.BindFlags))
		return nil, graphics.ResultErrorValidationFailed
	}

	contents := make([]byte, desc.ByteWidth)
	copy(contents, data)

	align := uint64(16)
	if desc.BindFlags&graphics.BindConstantBuffer != 0 {
		align = d.r.uniformAlign
	}
	b := &buffer{r: d.r, desc: desc}
	if b.res = d.r.arena.Allocate(contents, align); b.res != nil {
		return b, nil
	}

	d.r.lg.Debug("buffer pool full, allocating dedicated buffer", "size", desc.ByteWidth)
	own, err := d.r.device.CreateHostBoundBuffer(uint64(desc.ByteWidth), vk.BufferUsageFlags(usage))
	if err != nil {
		d.invalid(op, "%v", err)
		return nil, err
	}
	copy(own.Bytes(), contents)
	b.own = own
	return b, nil
}

type shader struct {
	r        *renderer
	module   *ShaderModule
	stage    graphics.ShaderStage
	sum      uint64
	released bool
}

func (s *shader) Stage() graphics.ShaderStage { return s.stage }

func (s *shader) Release() {
	if s.released {
		return
	}
	s.released = true
	s.r.release(s.module.Destroy)
}

func (d *device) createShader(op string, stage graphics.ShaderStage, bytecode []byte) (graphics.Shader, error) {
	m, err := d.r.device.CreateShaderModule(bytecode)
	if err != nil {
		d.invalid(op, "%v", err)
		return nil, err
	}
	h := fnv.New64a()
	h.Write(bytecode)
	return &shader{r: d.r, module: m, stage: stage, sum: h.Sum64()}, nil
}

func (d *device) CreateVertexShader(bytecode []byte) (graphics.Shader, error) {
	return d.createShader("CreateVertexShader", graphics.StageVertex, bytecode)
}

func (d *device) CreatePixelShader(bytecode []byte) (graphics.Shader, error) {
	return d.createShader("CreatePixelShader", graphics.StagePixel, bytecode)
}

type inputLayout struct {
	elems []graphics.InputElement
	sum   uint64
}

func (l *inputLayout) Release() {}

// CreateInputLayout checks the element formats. The attributes are only
// built into a pipeline once the vertex stride is known at draw time.
func (d *device) CreateInputLayout(elems []graphics.InputElement, vsBytecode []byte) (graphics.InputLayout, error) {
	if len(elems) == 0 {
		d.invalid("CreateInputLayout", "no input elements")
		return nil, graphics.ResultErrorValidationFailed
	}
	if _, _, err := vertexInput(elems, 0); err != nil {
		d.invalid("CreateInputLayout", "%v", err)
		return nil, err
	}
	h := fnv.New64a()
	for _, e := range elems {
		fmt.Fprintf(h, "%s/%d/%d/%d/%d;", e.SemanticName, e.SemanticIndex, e.Format, e.InputSlot, e.AlignedByteOffset)
	}
	return &inputLayout{elems: append([]graphics.InputElement(nil), elems...), sum: h.Sum64()}, nil
}

// renderTargetView views whichever swapchain image is acquired for the
// frame being recorded.
type renderTargetView struct {
	r *renderer
}

func (v *renderTargetView) Release() {}

func (d *device) CreateRenderTargetView(sc graphics.SwapChain, index int) (graphics.RenderTargetView, error) {
	s, ok := sc.(*swapChain)
	if !ok || s.r != d.r {
		d.invalid("CreateRenderTargetView", "swap chain %T belongs to another device", sc)
		return nil, graphics.ResultErrorValidationFailed
	}
	if index != 0 {
		d.invalid("CreateRenderTargetView", "buffer %d is not accessible, only buffer 0 is", index)
		return nil, graphics.ResultErrorValidationFailed
	}
	return &renderTargetView{r: d.r}, nil
}

type depthStencilState struct {
	desc graphics.DepthStencilDesc
}

func (s *depthStencilState) Release() {}

func (d *device) CreateDepthStencilState(desc graphics.DepthStencilDesc) (graphics.DepthStencilState, error) {
	return &depthStencilState{desc: desc}, nil
}

// defaultDepthState applies when a depth buffer is bound without a depth
// stencil state.
var defaultDepthState = graphics.DepthStencilDesc{
	DepthEnable:   true,
	DepthWriteAll: true,
	DepthFunc:     graphics.ComparisonLess,
}

type depthStencilView struct {
	r        *renderer
	image    *BoundImage
	view     *ImageView
	released bool
}

func (v *depthStencilView) Release() {
	if v.released {
		return
	}
	v.released = true
	img, view := v.image, v.view
	v.r.release(func() {
		view.Destroy()
		img.Destroy()
	})
}

// CreateDepthStencilView creates a D32 depth image and moves it into the
// layout every render pass expects.
func (d *device) CreateDepthStencilView(width, height int) (graphics.DepthStencilView, error) {
	const op = "CreateDepthStencilView"
	if width <= 0 || height <= 0 {
		d.invalid(op, "invalid size %dx%d", width, height)
		return nil, graphics.ResultErrorValidationFailed
	}
	r := d.r
	img, err := r.device.CreateBoundImage(
		vk.Extent2D{Width: uint32(width), Height: uint32(height)},
		DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		d.invalid(op, "%v", err)
		return nil, err
	}
	view, err := img.CreateImageViewWithAspectMask(vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		img.Destroy()
		d.invalid(op, "%v", err)
		return nil, err
	}

	cb, err := r.commandPool.AllocateBuffer()
	if err == nil {
		defer r.commandPool.FreeBuffer(cb)
		if err = cb.BeginOneTime(); err == nil {
			cb.TransitionImageLayout(img.VKImage, ImageTransition{
				OldLayout: vk.ImageLayoutUndefined,
				NewLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
				DstAccess: vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit,
				SrcStage:  vk.PipelineStageTopOfPipeBit,
				DstStage:  vk.PipelineStageEarlyFragmentTestsBit,
				Aspect:    vk.ImageAspectDepthBit,
			})
			if err = cb.End(); err == nil {
				err = r.graphicsQueue.SubmitWaitIdle(cb)
			}
		}
	}
	if err != nil {
		view.Destroy()
		img.Destroy()
		d.invalid(op, "transitioning depth image: %v", err)
		return nil, err
	}
	return &depthStencilView{r: r, image: img, view: view}, nil
}

func (d *device) RemovedReason() graphics.Result {
	if d.r.removed {
		return graphics.ResultErrorDeviceLost
	}
	return graphics.ResultSuccess
}

func (d *device) Release() {
	if d.released {
		return
	}
	d.released = true
	d.r.unref()
}

// pipelineKey hashes everything a graphics pipeline is built from.
func pipelineKey(vs, ps, layout uint64, stride uint32, topology graphics.Topology, depth *graphics.DepthStencilDesc) uint64 {
	b := make([]byte, 0, 48)
	b = binary.LittleEndian.AppendUint64(b, vs)
	b = binary.LittleEndian.AppendUint64(b, ps)
	b = binary.LittleEndian.AppendUint64(b, layout)
	b = binary.LittleEndian.AppendUint32(b, stride)
	b = binary.LittleEndian.AppendUint32(b, uint32(topology))
	if depth != nil {
		b = append(b, 1, boolByte(depth.DepthEnable), boolByte(depth.DepthWriteAll), byte(depth.DepthFunc))
	}
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
