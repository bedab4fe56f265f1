// Package graphics renders the test scene through a Driver: it creates the
// device and swap chain, clears, draws the test geometry and presents,
// reporting failures as structured errors enriched with debug layer
// messages.
package graphics

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"unsafe"

	"github.com/celer/hw3d/log"
)

type Options struct {
	// Width and Height of the back buffer; zero takes the surface size.
	Width, Height int
	// Debug enables the driver debug layer and message capture.
	Debug bool
	// Depth creates and binds a depth buffer.
	Depth bool
	// SyncInterval is passed to Present; 1 waits for vertical sync.
	SyncInterval int
	// Capture keeps a CPU copy of each presented frame for Capture.
	Capture bool
	Shaders ShaderPaths
}

func DefaultOptions() Options {
	return Options{
		Debug:        true,
		Depth:        true,
		SyncInterval: 1,
		Shaders:      DefaultShaderPaths(),
	}
}

// DrawRequest is everything one draw call needs. The vertex and pixel
// stage constant buffers are optional, as is the index buffer; without
// indices the draw is non-indexed.
type DrawRequest struct {
	Vertices     []byte
	Stride       uint32
	Indices      []uint16
	Layout       []InputElement
	VertexShader []byte
	PixelShader  []byte
	VSConstants  []byte
	PSConstants  []byte
}

func (req *DrawRequest) validate() error {
	if req.Stride == 0 {
		return fmt.Errorf("%w: zero vertex stride", ResultErrorValidationFailed)
	}
	if len(req.Indices) == 0 && len(req.Vertices)%int(req.Stride) != 0 {
		return fmt.Errorf("%w: %d vertex bytes is not a multiple of stride %d",
			ResultErrorValidationFailed, len(req.Vertices), req.Stride)
	}
	return nil
}

type Stats struct {
	Frames         int
	Draws          int
	BuffersCreated int
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frames", s.Frames),
		slog.Int("draws", s.Draws),
		slog.Int("buffers_created", s.BuffersCreated))
}

// Graphics owns a device, its context, a swap chain and the views over the
// back buffer. It is not safe for concurrent use.
type Graphics struct {
	opts    Options
	lg      *log.Logger
	queue   *InfoQueue
	info    *InfoManager
	shaders *ShaderSet

	device  Device
	context Context
	swap    SwapChain

	target     RenderTargetView
	depthState DepthStencilState
	depthView  DepthStencilView
	viewport   Viewport

	removed  bool
	released bool
	stats    Stats
}

func fail(kind Kind, op string, err error, info []string) error {
	return newError(kind, op, err, info)
}

// New creates the device, swap chain and views for surface. On failure all
// resources created so far are released.
func New(drv Driver, surface Surface, opts Options, lg *log.Logger) (_ *Graphics, err error) {
	if surface == nil || !surface.Valid() {
		return nil, fail(KindCreation, "CreateDeviceAndSwapChain", ResultErrorInitializationFailed, nil)
	}

	shaders, err := LoadShaders(opts.Shaders)
	if err != nil {
		return nil, fail(KindCreation, "LoadShaders", err, nil)
	}

	g := &Graphics{opts: opts, lg: lg, shaders: shaders}
	if opts.Debug {
		g.queue = NewInfoQueue()
		g.info = NewInfoManager(g.queue)
	}
	defer func() {
		if err != nil {
			g.Release()
		}
	}()

	desc := SwapChainDesc{
		Width:       opts.Width,
		Height:      opts.Height,
		Format:      FormatB8G8R8A8Unorm,
		BufferCount: 1,
		Windowed:    true,
		Debug:       opts.Debug,
		Capture:     opts.Capture,
	}
	g.info.Set()
	g.device, g.context, g.swap, err = drv.CreateDeviceAndSwapChain(surface, desc, g.queue)
	if err != nil {
		return nil, fail(KindCreation, "CreateDeviceAndSwapChain", err, g.info.Messages())
	}

	g.info.Set()
	if g.target, err = g.device.CreateRenderTargetView(g.swap, 0); err != nil {
		return nil, fail(KindCreation, "CreateRenderTargetView", err, g.info.Messages())
	}

	sd := g.swap.Desc()
	if opts.Depth {
		g.info.Set()
		g.depthState, err = g.device.CreateDepthStencilState(DepthStencilDesc{
			DepthEnable:   true,
			DepthWriteAll: true,
			DepthFunc:     ComparisonLess,
		})
		if err != nil {
			return nil, fail(KindCreation, "CreateDepthStencilState", err, g.info.Messages())
		}
		g.context.OMSetDepthStencilState(g.depthState)

		g.info.Set()
		if g.depthView, err = g.device.CreateDepthStencilView(sd.Width, sd.Height); err != nil {
			return nil, fail(KindCreation, "CreateDepthStencilView", err, g.info.Messages())
		}
	}
	g.context.OMSetRenderTargets(g.target, g.depthView)

	g.viewport = Viewport{Width: float32(sd.Width), Height: float32(sd.Height), MinDepth: 0, MaxDepth: 1}

	lg.Info("graphics initialized",
		slog.Int("width", sd.Width), slog.Int("height", sd.Height),
		slog.Bool("debug", opts.Debug), slog.Bool("depth", opts.Depth))
	return g, nil
}

// Shaders returns the shader blobs used by the test draws.
func (g *Graphics) Shaders() *ShaderSet {
	return g.shaders
}

func (g *Graphics) Stats() Stats {
	return g.stats
}

// ClearBuffer clears the render target to (r, g, b, 1) and, when depth is
// enabled, the depth buffer to 1.
func (g *Graphics) ClearBuffer(r, gr, b float32) {
	if g.removed || g.released {
		return
	}
	g.context.ClearRenderTargetView(g.target, [4]float32{r, gr, b, 1})
	if g.depthView != nil {
		g.context.ClearDepthStencilView(g.depthView, 1)
	}
}

type releaseList []Releaser

func (l releaseList) release() {
	for i := len(l) - 1; i >= 0; i-- {
		l[i].Release()
	}
}

func (g *Graphics) createBuffer(res *releaseList, bind BindFlags, stride uint32, data []byte) (Buffer, error) {
	g.info.Set()
	b, err := g.device.CreateBuffer(BufferDesc{
		ByteWidth:           uint32(len(data)),
		StructureByteStride: stride,
		Usage:               UsageDefault,
		BindFlags:           bind,
	}, data)
	if err != nil {
		return nil, fail(KindCall, "CreateBuffer", err, g.info.Messages())
	}
	*res = append(*res, b)
	g.stats.BuffersCreated++
	return b, nil
}

// Draw creates the resources of req, binds the pipeline state and issues
// one draw call. All resources are released before Draw returns.
func (g *Graphics) Draw(req DrawRequest) error {
	if g.removed {
		return ErrDeviceRemoved
	}
	if g.released {
		return fail(KindCall, "Draw", ErrReleased, nil)
	}
	if err := req.validate(); err != nil {
		return fail(KindCall, "Draw", err, nil)
	}
	var res releaseList
	defer res.release()

	vb, err := g.createBuffer(&res, BindVertexBuffer, req.Stride, req.Vertices)
	if err != nil {
		return err
	}
	g.context.IASetVertexBuffer(vb, req.Stride, 0)

	indexed := len(req.Indices) > 0
	if indexed {
		ib, err := g.createBuffer(&res, BindIndexBuffer, 2, Bytes(req.Indices))
		if err != nil {
			return err
		}
		g.context.IASetIndexBuffer(ib, FormatR16Uint, 0)
	} else {
		g.context.IASetIndexBuffer(nil, FormatUnknown, 0)
	}

	var vcb, pcb Buffer
	if req.VSConstants != nil {
		if vcb, err = g.createBuffer(&res, BindConstantBuffer, 0, req.VSConstants); err != nil {
			return err
		}
	}
	g.context.VSSetConstantBuffer(0, vcb)
	if req.PSConstants != nil {
		if pcb, err = g.createBuffer(&res, BindConstantBuffer, 0, req.PSConstants); err != nil {
			return err
		}
	}
	g.context.PSSetConstantBuffer(0, pcb)

	g.info.Set()
	ps, err := g.device.CreatePixelShader(req.PixelShader)
	if err != nil {
		return fail(KindCall, "CreatePixelShader", err, g.info.Messages())
	}
	res = append(res, ps)
	g.context.PSSetShader(ps)

	g.info.Set()
	vs, err := g.device.CreateVertexShader(req.VertexShader)
	if err != nil {
		return fail(KindCall, "CreateVertexShader", err, g.info.Messages())
	}
	res = append(res, vs)
	g.context.VSSetShader(vs)

	g.info.Set()
	il, err := g.device.CreateInputLayout(req.Layout, req.VertexShader)
	if err != nil {
		return fail(KindCall, "CreateInputLayout", err, g.info.Messages())
	}
	res = append(res, il)
	g.context.IASetInputLayout(il)

	g.context.OMSetRenderTargets(g.target, g.depthView)
	g.context.IASetPrimitiveTopology(TopologyTriangleList)
	g.context.RSSetViewport(g.viewport)

	g.info.Set()
	if indexed {
		g.context.DrawIndexed(uint32(len(req.Indices)), 0, 0)
	} else {
		g.context.Draw(uint32(len(req.Vertices))/req.Stride, 0)
	}
	if msgs := g.info.Messages(); len(msgs) > 0 {
		return fail(KindInfo, "Draw", nil, msgs)
	}
	g.stats.Draws++
	return nil
}

// DrawTestCube draws the colour-faced cube rotated by angle about Z then X
// and moved to (x, y, z).
func (g *Graphics) DrawTestCube(angle, x, y, z float32) error {
	t := Transform(angle, x, y, z)
	return g.Draw(DrawRequest{
		Vertices:     Bytes(cubeVertices),
		Stride:       uint32(unsafe.Sizeof(Vertex{})),
		Indices:      cubeIndices,
		Layout:       cubeLayout,
		VertexShader: g.shaders.Blob(g.shaders.paths.CubeVertex),
		PixelShader:  g.shaders.Blob(g.shaders.paths.CubePixel),
		VSConstants:  Bytes(t[:]),
		PSConstants:  Bytes(cubeFaceColors[:]),
	})
}

// DrawTestTriangle draws a 2D triangle with per-vertex colours at the centre
// of the screen.
func (g *Graphics) DrawTestTriangle() error {
	return g.Draw(DrawRequest{
		Vertices:     Bytes(triangleVertices),
		Stride:       uint32(unsafe.Sizeof(ColorVertex{})),
		Layout:       triangleLayout,
		VertexShader: g.shaders.Blob(g.shaders.paths.TriangleVertex),
		PixelShader:  g.shaders.Blob(g.shaders.paths.TrianglePixel),
	})
}

// EndFrame presents the back buffer. A lost device makes g unusable: the
// returned error matches ErrDeviceRemoved, as does every later call.
func (g *Graphics) EndFrame() error {
	if g.removed {
		return ErrDeviceRemoved
	}
	if g.released {
		return fail(KindCall, "Present", ErrReleased, nil)
	}
	g.info.Set()
	err := g.swap.Present(g.opts.SyncInterval)
	if err == nil {
		g.stats.Frames++
		return nil
	}
	if errors.Is(err, ResultErrorDeviceLost) {
		g.removed = true
		e := fail(KindDeviceRemoved, "Present", err, g.info.Messages()).(*Error)
		if reason := g.device.RemovedReason(); reason != ResultSuccess {
			e.Code = reason
		}
		g.lg.Error("device removed", slog.String("reason", e.Code.String()), slog.Any("stats", g.stats))
		return e
	}
	// Failures recorded while a draw was being encoded surface here but
	// keep the name of the call that caused them.
	op := "Present"
	var oe *OpError
	if errors.As(err, &oe) {
		op = oe.Op
	}
	return fail(KindCall, op, err, g.info.Messages())
}

// Capture returns the last presented frame.
func (g *Graphics) Capture() (*image.RGBA, error) {
	if g.removed {
		return nil, ErrDeviceRemoved
	}
	if g.released {
		return nil, fail(KindCall, "Capture", ErrReleased, nil)
	}
	img, err := g.swap.Capture()
	if err != nil {
		return nil, fail(KindCall, "Capture", err, g.info.Messages())
	}
	return img, nil
}

// Release releases all driver objects in reverse creation order. It may be
// called more than once. Afterwards ClearBuffer does nothing and the other
// operations fail with ErrReleased.
func (g *Graphics) Release() {
	g.released = true
	if g.context != nil {
		g.context.OMSetRenderTargets(nil, nil)
	}
	for _, r := range []Releaser{g.depthView, g.depthState, g.target, g.swap, g.context, g.device} {
		if r != nil {
			r.Release()
		}
	}
	g.depthView, g.depthState, g.target = nil, nil, nil
	g.swap, g.context, g.device = nil, nil, nil
	if g.lg != nil {
		g.lg.Info("graphics released", slog.Any("stats", g.stats))
	}
}
