package graphics

import "image"

// Format describes the layout of a texel, vertex attribute or index.
type Format int

const (
	FormatUnknown Format = iota
	FormatB8G8R8A8Unorm
	FormatR8G8B8A8Unorm
	FormatR32G32Float
	FormatR32G32B32Float
	FormatR32G32B32A32Float
	FormatR16Uint
	FormatR32Uint
	FormatD32Float
)

// Size returns the size of one element of the format in bytes.
func (f Format) Size() uint32 {
	switch f {
	case FormatB8G8R8A8Unorm, FormatR8G8B8A8Unorm, FormatR32Uint, FormatD32Float:
		return 4
	case FormatR16Uint:
		return 2
	case FormatR32G32Float:
		return 8
	case FormatR32G32B32Float:
		return 12
	case FormatR32G32B32A32Float:
		return 16
	}
	return 0
}

type BindFlags uint32

const (
	BindVertexBuffer BindFlags = 1 << iota
	BindIndexBuffer
	BindConstantBuffer
)

type Usage int

const (
	UsageDefault Usage = iota
	UsageDynamic
)

type BufferDesc struct {
	ByteWidth           uint32
	StructureByteStride uint32
	Usage               Usage
	BindFlags           BindFlags
	CPUAccessWrite      bool
}

// AppendAligned places an input element directly after the previous one.
const AppendAligned = ^uint32(0)

type InputElement struct {
	SemanticName      string
	SemanticIndex     uint32
	Format            Format
	InputSlot         uint32
	AlignedByteOffset uint32
}

type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
)

type Viewport struct {
	TopLeftX, TopLeftY float32
	Width, Height      float32
	MinDepth, MaxDepth float32
}

type ComparisonFunc int

const (
	ComparisonLess ComparisonFunc = iota
	ComparisonLessEqual
	ComparisonAlways
)

type DepthStencilDesc struct {
	DepthEnable   bool
	DepthWriteAll bool
	DepthFunc     ComparisonFunc
}

type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StagePixel
)

// SwapChainDesc describes the presentable back buffers. Zero width or
// height means the size is taken from the surface.
type SwapChainDesc struct {
	Width, Height int
	Format        Format
	BufferCount   int
	Windowed      bool
	Debug         bool
	// Capture keeps a CPU copy of every presented back buffer.
	Capture bool
}

// Surface is the native window a swap chain presents into.
type Surface interface {
	Valid() bool
}

type Releaser interface {
	Release()
}

type Buffer interface {
	Releaser
	Desc() BufferDesc
}

type Shader interface {
	Releaser
	Stage() ShaderStage
}

type InputLayout interface{ Releaser }

type RenderTargetView interface{ Releaser }

type DepthStencilView interface{ Releaser }

type DepthStencilState interface{ Releaser }

// Device creates resources.
type Device interface {
	CreateBuffer(desc BufferDesc, data []byte) (Buffer, error)
	CreateVertexShader(bytecode []byte) (Shader, error)
	CreatePixelShader(bytecode []byte) (Shader, error)
	CreateInputLayout(elems []InputElement, vsBytecode []byte) (InputLayout, error)
	CreateRenderTargetView(sc SwapChain, buffer int) (RenderTargetView, error)
	CreateDepthStencilState(desc DepthStencilDesc) (DepthStencilState, error)
	CreateDepthStencilView(width, height int) (DepthStencilView, error)
	// RemovedReason returns why the device was removed, or ResultSuccess.
	RemovedReason() Result
	Release()
}

// Context issues state changes and draw commands. It is not safe for
// concurrent use. Commands do not return errors: a driver that fails while
// recording reports the failure from the next SwapChain.Present and may
// push debug messages into the InfoQueue immediately.
type Context interface {
	ClearRenderTargetView(rtv RenderTargetView, color [4]float32)
	ClearDepthStencilView(dsv DepthStencilView, depth float32)
	OMSetRenderTargets(rtv RenderTargetView, dsv DepthStencilView)
	OMSetDepthStencilState(s DepthStencilState)
	IASetVertexBuffer(b Buffer, stride, offset uint32)
	// IASetIndexBuffer with a nil buffer unbinds the index buffer.
	IASetIndexBuffer(b Buffer, format Format, offset uint32)
	IASetInputLayout(l InputLayout)
	IASetPrimitiveTopology(t Topology)
	VSSetShader(s Shader)
	PSSetShader(s Shader)
	VSSetConstantBuffer(slot int, b Buffer)
	PSSetConstantBuffer(slot int, b Buffer)
	RSSetViewport(vp Viewport)
	Draw(vertexCount, startVertex uint32)
	DrawIndexed(indexCount, startIndex uint32, baseVertex int32)
	Release()
}

type SwapChain interface {
	// Desc returns the description with the size resolved.
	Desc() SwapChainDesc
	Present(syncInterval int) error
	// Capture returns the last presented back buffer. It fails unless the
	// swap chain was created with Capture set.
	Capture() (*image.RGBA, error)
	Release()
}

// Driver creates a device, its immediate context and a swap chain bound
// to a surface. Debug messages are pushed into info when it is not nil.
type Driver interface {
	CreateDeviceAndSwapChain(surface Surface, desc SwapChainDesc, info *InfoQueue) (Device, Context, SwapChain, error)
}
