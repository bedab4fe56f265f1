package graphics_test

import (
	"encoding/binary"
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/hw3d/graphics"
	"github.com/celer/hw3d/graphics/gfxtest"
)

// writeShaders writes placeholder bytecode for every shader path into a
// temporary directory.
func writeShaders(t *testing.T) graphics.ShaderPaths {
	t.Helper()
	dir := t.TempDir()
	blob := []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 0, 0}
	p := graphics.ShaderPaths{
		CubeVertex:     filepath.Join(dir, "cube.vert.spv"),
		CubePixel:      filepath.Join(dir, "cube.frag.spv"),
		TriangleVertex: filepath.Join(dir, "triangle.vert.spv"),
		TrianglePixel:  filepath.Join(dir, "triangle.frag.spv"),
	}
	for _, f := range []string{p.CubeVertex, p.CubePixel, p.TriangleVertex, p.TrianglePixel} {
		require.NoError(t, os.WriteFile(f, blob, 0o644))
	}
	return p
}

func testOptions(t *testing.T) graphics.Options {
	opts := graphics.DefaultOptions()
	opts.Shaders = writeShaders(t)
	opts.Capture = true
	return opts
}

func newGraphics(t *testing.T, drv *gfxtest.Driver, opts graphics.Options) *graphics.Graphics {
	t.Helper()
	g, err := graphics.New(drv, &gfxtest.Surface{W: 8, H: 6}, opts, nil)
	require.NoError(t, err)
	t.Cleanup(g.Release)
	return g
}

func TestNewRejectsInvalidSurface(t *testing.T) {
	for name, s := range map[string]graphics.Surface{
		"nil":    nil,
		"closed": &gfxtest.Surface{W: 8, H: 6, Closed: true},
	} {
		t.Run(name, func(t *testing.T) {
			drv := &gfxtest.Driver{}
			g, err := graphics.New(drv, s, testOptions(t), nil)
			assert.Nil(t, g)

			var ge *graphics.Error
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, graphics.KindCreation, ge.Kind)
			assert.Empty(t, drv.Calls)
		})
	}
}

func TestNewMissingShader(t *testing.T) {
	opts := testOptions(t)
	opts.Shaders.CubePixel = filepath.Join(t.TempDir(), "missing.spv")
	drv := &gfxtest.Driver{}
	_, err := graphics.New(drv, &gfxtest.Surface{W: 8, H: 6}, opts, nil)

	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindCreation, ge.Kind)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, drv.Calls)
}

func TestNewSizesFromSurface(t *testing.T) {
	drv := &gfxtest.Driver{}
	newGraphics(t, drv, testOptions(t))

	assert.Equal(t, 8, drv.Desc.Width)
	assert.Equal(t, 6, drv.Desc.Height)
	assert.Equal(t, graphics.FormatB8G8R8A8Unorm, drv.Desc.Format)
	assert.Equal(t, 1, drv.Desc.BufferCount)
	assert.True(t, drv.Desc.Windowed)
	assert.True(t, drv.Called("CreateDepthStencilView"))
	assert.True(t, drv.Called("OMSetDepthStencilState"))
}

func TestNewWithoutDepth(t *testing.T) {
	opts := testOptions(t)
	opts.Depth = false
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, opts)

	assert.False(t, drv.Called("CreateDepthStencilView"))
	g.ClearBuffer(0, 0, 0)
	assert.False(t, drv.Called("ClearDepthStencilView"))
	require.NoError(t, g.DrawTestCube(0, 0, 0, 7))
	assert.False(t, drv.Draws[0].DepthBound)
}

func TestNewReleasesOnFailure(t *testing.T) {
	for _, op := range []string{"CreateRenderTargetView", "CreateDepthStencilState", "CreateDepthStencilView"} {
		t.Run(op, func(t *testing.T) {
			drv := &gfxtest.Driver{FailOp: op}
			_, err := graphics.New(drv, &gfxtest.Surface{W: 8, H: 6}, testOptions(t), nil)

			var ge *graphics.Error
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, graphics.KindCreation, ge.Kind)
			assert.Equal(t, op, ge.Op)
			assert.Equal(t, graphics.ResultErrorOutOfDeviceMemory, ge.Code)
			assert.Zero(t, drv.Live, "leaked driver objects")
			assert.True(t, drv.Called("ReleaseDevice"))
		})
	}
}

func TestCreationErrorCarriesDebugMessages(t *testing.T) {
	drv := &gfxtest.Driver{FailCreate: graphics.ResultErrorIncompatibleDriver}
	_, err := graphics.New(drv, &gfxtest.Surface{W: 8, H: 6}, testOptions(t), nil)

	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.ResultErrorIncompatibleDriver, ge.Code)
	require.Len(t, ge.Info, 1)
	assert.Contains(t, ge.Info[0], "VK_ERROR_INCOMPATIBLE_DRIVER")
}

func TestClearThenPresentFillsBackBuffer(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))

	g.ClearBuffer(1, 0.5, 0)
	require.NoError(t, g.EndFrame())

	img, err := g.Capture()
	require.NoError(t, err)
	want := color.RGBA{255, 128, 0, 255}
	b := img.Bounds()
	assert.Equal(t, 8, b.Dx())
	assert.Equal(t, 6, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			require.Equal(t, want, img.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestConsecutiveClearsDoNotLeak(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))

	colors := [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for _, c := range colors {
		g.ClearBuffer(c[0], c[1], c[2])
		require.NoError(t, g.EndFrame())

		img, err := g.Capture()
		require.NoError(t, err)
		want := color.RGBA{uint8(c[0] * 255), uint8(c[1] * 255), uint8(c[2] * 255), 255}
		assert.Equal(t, want, img.RGBAAt(0, 0))
		assert.Equal(t, want, img.RGBAAt(7, 5))
	}
	assert.Equal(t, 3, g.Stats().Frames)
}

func TestCaptureDisabled(t *testing.T) {
	opts := testOptions(t)
	opts.Capture = false
	g := newGraphics(t, &gfxtest.Driver{}, opts)

	_, err := g.Capture()
	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindCall, ge.Kind)
	assert.ErrorIs(t, err, gfxtest.ErrNoCapture)
}

func TestDrawTestCube(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))
	live := drv.Live

	require.NoError(t, g.DrawTestCube(0.5, 1, 1, 4))
	require.Len(t, drv.Draws, 1)
	d := drv.Draws[0]
	assert.True(t, d.Indexed)
	assert.Equal(t, uint32(36), d.Count)
	assert.Equal(t, uint32(12), d.Stride)
	assert.True(t, d.DepthBound)
	require.Len(t, d.Layout, 1)
	assert.Equal(t, graphics.FormatR32G32B32Float, d.Layout[0].Format)

	require.Len(t, d.VSConstants, 64)
	want := graphics.Transform(0.5, 1, 1, 4)
	for i := 0; i < 16; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(d.VSConstants[i*4:]))
		assert.Equal(t, want[i], got, "element %d", i)
	}
	assert.Len(t, d.PSConstants, 6*16)

	assert.Equal(t, live, drv.Live, "per-draw resources must be released")
	assert.Equal(t, 1, g.Stats().Draws)
	assert.Equal(t, 4, g.Stats().BuffersCreated)
}

func TestDrawTestTriangleIsNotIndexed(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))

	require.NoError(t, g.DrawTestTriangle())
	require.Len(t, drv.Draws, 1)
	d := drv.Draws[0]
	assert.False(t, d.Indexed)
	assert.Equal(t, uint32(3), d.Count)
	assert.Nil(t, d.VSConstants)
	assert.Nil(t, d.PSConstants)
	require.Len(t, d.Layout, 2)
	assert.Equal(t, graphics.AppendAligned, d.Layout[1].AlignedByteOffset)
}

func TestDrawMessagesBecomeInfoError(t *testing.T) {
	drv := &gfxtest.Driver{DrawMessages: []string{"index 40 out of range"}}
	g := newGraphics(t, drv, testOptions(t))

	err := g.DrawTestCube(0, 0, 0, 7)
	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindInfo, ge.Kind)
	assert.Equal(t, []string{"index 40 out of range"}, ge.Info)
}

func TestDrawMessagesIgnoredWithoutDebug(t *testing.T) {
	opts := testOptions(t)
	opts.Debug = false
	drv := &gfxtest.Driver{DrawMessages: []string{"ignored"}}
	g := newGraphics(t, drv, opts)

	assert.NoError(t, g.DrawTestCube(0, 0, 0, 7))
}

func TestDrawCreateFailure(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))
	live := drv.Live

	drv.FailOp = "CreateInputLayout"
	err := g.DrawTestCube(0, 0, 0, 7)
	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindCall, ge.Kind)
	assert.Equal(t, "CreateInputLayout", ge.Op)
	assert.Equal(t, live, drv.Live)
	assert.Empty(t, drv.Draws)
}

func TestEndFrameDeviceRemoved(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))
	require.NoError(t, g.EndFrame())

	drv.LoseDevice = graphics.ResultErrorOutOfDeviceMemory
	err := g.EndFrame()
	require.Error(t, err)
	assert.ErrorIs(t, err, graphics.ErrDeviceRemoved)

	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindDeviceRemoved, ge.Kind)
	assert.Equal(t, graphics.ResultErrorOutOfDeviceMemory, ge.Code)
	assert.Contains(t, ge.Info, "Present: device lost")

	presents := drv.Presents
	assert.ErrorIs(t, g.EndFrame(), graphics.ErrDeviceRemoved)
	assert.ErrorIs(t, g.DrawTestCube(0, 0, 0, 7), graphics.ErrDeviceRemoved)
	_, err = g.Capture()
	assert.ErrorIs(t, err, graphics.ErrDeviceRemoved)
	assert.Equal(t, presents, drv.Presents)
}

func TestEndFrameOtherFailure(t *testing.T) {
	drv := &gfxtest.Driver{FailPresent: graphics.ResultErrorSurfaceLost}
	g := newGraphics(t, drv, testOptions(t))

	err := g.EndFrame()
	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindCall, ge.Kind)
	assert.Equal(t, graphics.ResultErrorSurfaceLost, ge.Code)
	assert.NotErrorIs(t, err, graphics.ErrDeviceRemoved)

	// Not terminal.
	assert.NoError(t, g.EndFrame())
}

func TestReleaseIsIdempotent(t *testing.T) {
	drv := &gfxtest.Driver{}
	g, err := graphics.New(drv, &gfxtest.Surface{W: 8, H: 6}, testOptions(t), nil)
	require.NoError(t, err)

	g.Release()
	assert.Zero(t, drv.Live)
	assert.NotPanics(t, g.Release)
}

func TestCallsAfterRelease(t *testing.T) {
	drv := &gfxtest.Driver{}
	g, err := graphics.New(drv, &gfxtest.Surface{W: 8, H: 6}, testOptions(t), nil)
	require.NoError(t, err)
	g.Release()
	calls := len(drv.Calls)

	assert.NotPanics(t, func() { g.ClearBuffer(1, 0, 0) })

	check := func(op string, err error) {
		t.Helper()
		var ge *graphics.Error
		require.True(t, errors.As(err, &ge), op)
		assert.Equal(t, graphics.KindCall, ge.Kind, op)
		assert.Equal(t, op, ge.Op)
		assert.ErrorIs(t, err, graphics.ErrReleased, op)
	}
	check("Present", g.EndFrame())
	check("Draw", g.DrawTestCube(0, 0, 0, 7))
	check("Draw", g.DrawTestTriangle())
	_, err = g.Capture()
	check("Capture", err)
	assert.Len(t, drv.Calls, calls)
}

func TestDrawRejectsBadStride(t *testing.T) {
	for name, req := range map[string]graphics.DrawRequest{
		"zero stride":    {Vertices: make([]byte, 24), Stride: 0},
		"indexed zero":   {Vertices: make([]byte, 24), Stride: 0, Indices: []uint16{0, 1, 2}},
		"partial vertex": {Vertices: make([]byte, 25), Stride: 12},
	} {
		drv := &gfxtest.Driver{}
		g := newGraphics(t, drv, testOptions(t))

		err := g.Draw(req)
		var ge *graphics.Error
		require.True(t, errors.As(err, &ge), name)
		assert.Equal(t, graphics.KindCall, ge.Kind, name)
		assert.Equal(t, "Draw", ge.Op, name)
		assert.Equal(t, graphics.ResultErrorValidationFailed, ge.Code, name)
		assert.False(t, drv.Called("CreateBuffer"), name)
		assert.Empty(t, drv.Draws, name)
	}
}

func TestDeferredDrawFailureKeepsOp(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))
	require.NoError(t, g.DrawTestCube(0, 0, 0, 7))

	drv.FailPresent = &graphics.OpError{Op: "DrawIndexed", Err: graphics.ResultErrorOutOfDeviceMemory}
	err := g.EndFrame()
	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindCall, ge.Kind)
	assert.Equal(t, "DrawIndexed", ge.Op)
	assert.Equal(t, graphics.ResultErrorOutOfDeviceMemory, ge.Code)
}

func TestDeviceLossWinsOverDeferredFailure(t *testing.T) {
	drv := &gfxtest.Driver{}
	g := newGraphics(t, drv, testOptions(t))

	drv.FailPresent = errors.Join(graphics.ResultErrorDeviceLost,
		&graphics.OpError{Op: "DrawIndexed", Err: graphics.ResultErrorOutOfDeviceMemory})
	err := g.EndFrame()
	assert.ErrorIs(t, err, graphics.ErrDeviceRemoved)
	var ge *graphics.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, graphics.KindDeviceRemoved, ge.Kind)
	assert.Equal(t, graphics.ResultErrorDeviceLost, ge.Code)
	assert.ErrorIs(t, g.EndFrame(), graphics.ErrDeviceRemoved)
}
