// Package gfxtest provides an in-memory graphics.Driver for tests. It keeps
// a CPU back buffer that clears write into, records draw calls and can be
// told to fail creation or presentation.
package gfxtest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/celer/hw3d/graphics"
)

// Surface is a graphics.Surface with a fixed size.
type Surface struct {
	W, H   int
	Closed bool
}

func (s *Surface) Valid() bool { return s != nil && !s.Closed }

// DrawCall records one Draw or DrawIndexed.
type DrawCall struct {
	Indexed     bool
	Count       uint32
	Stride      uint32
	Layout      []graphics.InputElement
	VSConstants []byte
	PSConstants []byte
	DepthBound  bool
}

// Driver is a fake graphics.Driver. Set the Fail fields before calling
// graphics.New, or while frames run for the Present failures.
type Driver struct {
	mu sync.Mutex

	// FailCreate makes CreateDeviceAndSwapChain return this error.
	FailCreate error
	// FailOp names a Device method (for example "CreateRenderTargetView")
	// that returns FailErr.
	FailOp  string
	FailErr error
	// FailPresent is returned from the next Present.
	FailPresent error
	// LoseDevice makes the next Present return ResultErrorDeviceLost and
	// RemovedReason report this reason.
	LoseDevice graphics.Result
	// DrawMessages are pushed into the info queue by every draw call.
	DrawMessages []string

	Calls    []string
	Draws    []DrawCall
	Live     int
	Presents int
	Desc     graphics.SwapChainDesc

	info    *graphics.InfoQueue
	removed graphics.Result
}

func (d *Driver) record(call string) {
	d.mu.Lock()
	d.Calls = append(d.Calls, call)
	d.mu.Unlock()
}

// Called reports whether the named call was made.
func (d *Driver) Called(call string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.Calls {
		if c == call {
			return true
		}
	}
	return false
}

func (d *Driver) failing(op string) error {
	if d.FailOp == op {
		if d.FailErr != nil {
			return d.FailErr
		}
		return graphics.ResultErrorOutOfDeviceMemory
	}
	return nil
}

func (d *Driver) CreateDeviceAndSwapChain(surface graphics.Surface, desc graphics.SwapChainDesc, info *graphics.InfoQueue) (graphics.Device, graphics.Context, graphics.SwapChain, error) {
	d.record("CreateDeviceAndSwapChain")
	if d.FailCreate != nil {
		info.Push("CreateDeviceAndSwapChain: " + d.FailCreate.Error())
		return nil, nil, nil, d.FailCreate
	}
	s, ok := surface.(*Surface)
	if !ok {
		return nil, nil, nil, graphics.ResultErrorSurfaceLost
	}
	if desc.Width == 0 {
		desc.Width = s.W
	}
	if desc.Height == 0 {
		desc.Height = s.H
	}
	d.Desc = desc
	d.info = info

	sc := &swapChain{
		d:     d,
		desc:  desc,
		back:  image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
		front: image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
	}
	d.Live += 3
	return &device{d: d}, &context{d: d, sc: sc}, sc, nil
}

type object struct {
	d        *Driver
	released bool
}

func (o *object) Release() {
	if o.released {
		panic("gfxtest: double release")
	}
	o.released = true
	o.d.Live--
}

type device struct{ d *Driver }

func (dv *device) obj() object { dv.d.Live++; return object{d: dv.d} }

type buffer struct {
	object
	desc graphics.BufferDesc
	data []byte
}

func (b *buffer) Desc() graphics.BufferDesc { return b.desc }

type shader struct {
	object
	stage graphics.ShaderStage
}

func (s *shader) Stage() graphics.ShaderStage { return s.stage }

type inputLayout struct {
	object
	elems []graphics.InputElement
}

type renderTarget struct {
	object
	sc *swapChain
}

type depthView struct{ object }

type depthState struct {
	object
	desc graphics.DepthStencilDesc
}

func (dv *device) CreateBuffer(desc graphics.BufferDesc, data []byte) (graphics.Buffer, error) {
	dv.d.record("CreateBuffer")
	if err := dv.d.failing("CreateBuffer"); err != nil {
		return nil, err
	}
	if desc.ByteWidth == 0 || int(desc.ByteWidth) != len(data) {
		dv.d.info.Push(fmt.Sprintf("CreateBuffer: ByteWidth %d does not match %d bytes of data", desc.ByteWidth, len(data)))
		return nil, graphics.ResultErrorValidationFailed
	}
	return &buffer{object: dv.obj(), desc: desc, data: append([]byte(nil), data...)}, nil
}

func (dv *device) createShader(op string, stage graphics.ShaderStage, bytecode []byte) (graphics.Shader, error) {
	dv.d.record(op)
	if err := dv.d.failing(op); err != nil {
		return nil, err
	}
	if len(bytecode) == 0 || len(bytecode)%4 != 0 {
		dv.d.info.Push(op + ": invalid bytecode")
		return nil, graphics.ResultErrorInvalidShader
	}
	return &shader{object: dv.obj(), stage: stage}, nil
}

func (dv *device) CreateVertexShader(bytecode []byte) (graphics.Shader, error) {
	return dv.createShader("CreateVertexShader", graphics.StageVertex, bytecode)
}

func (dv *device) CreatePixelShader(bytecode []byte) (graphics.Shader, error) {
	return dv.createShader("CreatePixelShader", graphics.StagePixel, bytecode)
}

func (dv *device) CreateInputLayout(elems []graphics.InputElement, vsBytecode []byte) (graphics.InputLayout, error) {
	dv.d.record("CreateInputLayout")
	if err := dv.d.failing("CreateInputLayout"); err != nil {
		return nil, err
	}
	return &inputLayout{object: dv.obj(), elems: elems}, nil
}

func (dv *device) CreateRenderTargetView(sc graphics.SwapChain, idx int) (graphics.RenderTargetView, error) {
	dv.d.record("CreateRenderTargetView")
	if err := dv.d.failing("CreateRenderTargetView"); err != nil {
		return nil, err
	}
	s, ok := sc.(*swapChain)
	if !ok || idx != 0 {
		return nil, graphics.ResultErrorValidationFailed
	}
	return &renderTarget{object: dv.obj(), sc: s}, nil
}

func (dv *device) CreateDepthStencilState(desc graphics.DepthStencilDesc) (graphics.DepthStencilState, error) {
	dv.d.record("CreateDepthStencilState")
	if err := dv.d.failing("CreateDepthStencilState"); err != nil {
		return nil, err
	}
	return &depthState{object: dv.obj(), desc: desc}, nil
}

func (dv *device) CreateDepthStencilView(w, h int) (graphics.DepthStencilView, error) {
	dv.d.record("CreateDepthStencilView")
	if err := dv.d.failing("CreateDepthStencilView"); err != nil {
		return nil, err
	}
	return &depthView{object: dv.obj()}, nil
}

func (dv *device) RemovedReason() graphics.Result { return dv.d.removed }

func (dv *device) Release() {
	dv.d.record("ReleaseDevice")
	dv.d.Live--
}

type context struct {
	d  *Driver
	sc *swapChain

	rtv     *renderTarget
	dsv     graphics.DepthStencilView
	vb      *buffer
	stride  uint32
	ib      *buffer
	layout  *inputLayout
	vsConst *buffer
	psConst *buffer
}

func (c *context) ClearRenderTargetView(rtv graphics.RenderTargetView, rgba [4]float32) {
	c.d.record("ClearRenderTargetView")
	rt, ok := rtv.(*renderTarget)
	if !ok {
		c.d.info.Push("ClearRenderTargetView: not a render target")
		return
	}
	col := color.RGBA{R: unorm(rgba[0]), G: unorm(rgba[1]), B: unorm(rgba[2]), A: unorm(rgba[3])}
	pix := rt.sc.back.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = col.R, col.G, col.B, col.A
	}
}

func unorm(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

func (c *context) ClearDepthStencilView(dsv graphics.DepthStencilView, depth float32) {
	c.d.record("ClearDepthStencilView")
}

func (c *context) OMSetRenderTargets(rtv graphics.RenderTargetView, dsv graphics.DepthStencilView) {
	c.rtv, _ = rtv.(*renderTarget)
	c.dsv = dsv
}

func (c *context) OMSetDepthStencilState(s graphics.DepthStencilState) {
	c.d.record("OMSetDepthStencilState")
}

func (c *context) IASetVertexBuffer(b graphics.Buffer, stride, offset uint32) {
	c.vb, _ = b.(*buffer)
	c.stride = stride
}

func (c *context) IASetIndexBuffer(b graphics.Buffer, format graphics.Format, offset uint32) {
	c.ib, _ = b.(*buffer)
}

func (c *context) IASetInputLayout(l graphics.InputLayout) {
	c.layout, _ = l.(*inputLayout)
}

func (c *context) IASetPrimitiveTopology(t graphics.Topology) {}
func (c *context) VSSetShader(s graphics.Shader)               {}
func (c *context) PSSetShader(s graphics.Shader)               {}
func (c *context) RSSetViewport(vp graphics.Viewport)          {}

func (c *context) VSSetConstantBuffer(slot int, b graphics.Buffer) {
	c.vsConst, _ = b.(*buffer)
}

func (c *context) PSSetConstantBuffer(slot int, b graphics.Buffer) {
	c.psConst, _ = b.(*buffer)
}

func (c *context) draw(indexed bool, count uint32) {
	call := DrawCall{Indexed: indexed, Count: count, Stride: c.stride, DepthBound: c.dsv != nil}
	if c.layout != nil {
		call.Layout = c.layout.elems
	}
	if c.vsConst != nil {
		call.VSConstants = c.vsConst.data
	}
	if c.psConst != nil {
		call.PSConstants = c.psConst.data
	}
	c.d.mu.Lock()
	c.d.Draws = append(c.d.Draws, call)
	c.d.mu.Unlock()
	for _, m := range c.d.DrawMessages {
		c.d.info.Push(m)
	}
}

func (c *context) Draw(count, start uint32) {
	c.d.record("Draw")
	c.draw(false, count)
}

func (c *context) DrawIndexed(count, start uint32, base int32) {
	c.d.record("DrawIndexed")
	if c.ib == nil {
		c.d.info.Push("DrawIndexed: no index buffer bound")
	}
	c.draw(true, count)
}

func (c *context) Release() {
	c.d.record("ReleaseContext")
	c.d.Live--
}

type swapChain struct {
	d           *Driver
	desc        graphics.SwapChainDesc
	back, front *image.RGBA
}

func (s *swapChain) Desc() graphics.SwapChainDesc { return s.desc }

func (s *swapChain) Present(interval int) error {
	s.d.record("Present")
	if s.d.LoseDevice != graphics.ResultSuccess {
		s.d.removed = s.d.LoseDevice
		s.d.info.Push("Present: device lost")
		return graphics.ResultErrorDeviceLost
	}
	if err := s.d.FailPresent; err != nil {
		s.d.FailPresent = nil
		return err
	}
	s.d.Presents++
	copy(s.front.Pix, s.back.Pix)
	return nil
}

// ErrNoCapture is returned by Capture when the swap chain was created
// without Capture set.
var ErrNoCapture = errors.New("gfxtest: swap chain created without capture")

func (s *swapChain) Capture() (*image.RGBA, error) {
	if !s.desc.Capture {
		return nil, ErrNoCapture
	}
	img := image.NewRGBA(s.front.Rect)
	copy(img.Pix, s.front.Pix)
	return img, nil
}

func (s *swapChain) Release() {
	s.d.record("ReleaseSwapChain")
	s.d.Live--
}
