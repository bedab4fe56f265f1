// Package window owns the native window the renderer presents into and
// pumps its messages.
package window

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/celer/hw3d/graphics"
	"github.com/celer/hw3d/log"
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// ErrNoGfx is returned by Gfx before a renderer has been attached.
var ErrNoGfx = errors.New("window: no graphics attached")

var (
	initOnce sync.Once
	initErr  error
)

// Init initializes GLFW once per process. It must be called from the main
// thread.
func Init(lg *log.Logger) error {
	initOnce.Do(func() {
		lg.Info("Starting GLFW initialization")
		if err := glfw.Init(); err != nil {
			initErr = fmt.Errorf("failed to initialize glfw: %w", err)
			return
		}
		if !glfw.VulkanSupported() {
			glfw.Terminate()
			initErr = fmt.Errorf("glfw: vulkan is not supported")
			return
		}
		lg.Infof("GLFW: %s", glfw.GetVersionString())
	})
	return initErr
}

// Terminate releases GLFW. No window may be used afterwards.
func Terminate() {
	glfw.Terminate()
}

// VulkanProcAddr is the vkGetInstanceProcAddr GLFW found, for the Vulkan
// loader.
func VulkanProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// Window is a window without a client API. The embedded *glfw.Window
// provides the surface calls the Vulkan driver needs.
type Window struct {
	*glfw.Window

	lg   *log.Logger
	gfx  *graphics.Graphics
	quit quitState
}

// New creates a window whose client area is width by height.
func New(width, height int, title string, lg *log.Logger) (*Window, error) {
	if err := Init(lg); err != nil {
		return nil, err
	}
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	gw, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{Window: gw, lg: lg}
	gw.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.PostQuit(0)
		}
	})
	lg.Info("window created", "width", width, "height", height, "title", title)
	return w, nil
}

// ProcessMessages handles pending events without blocking. It reports
// quit with the code given to PostQuit, or 0 when the window was closed.
func (w *Window) ProcessMessages() (code int, quit bool) {
	glfw.PollEvents()
	return w.quit.check(w.Window.ShouldClose())
}

// PostQuit asks the message loop to stop with code. Only the first code
// posted is kept.
func (w *Window) PostQuit(code int) {
	w.quit.post(code)
	w.Window.SetShouldClose(true)
}

func (w *Window) SetTitle(title string) {
	w.Window.SetTitle(title)
}

// Valid reports whether the window can still be presented into.
func (w *Window) Valid() bool {
	return w != nil && w.Window != nil
}

// Attach makes g the window's renderer.
func (w *Window) Attach(g *graphics.Graphics) {
	w.gfx = g
}

func (w *Window) Gfx() (*graphics.Graphics, error) {
	if w.gfx == nil {
		return nil, ErrNoGfx
	}
	return w.gfx, nil
}

// Destroy releases the attached renderer and then the window.
func (w *Window) Destroy() {
	if w.gfx != nil {
		w.gfx.Release()
		w.gfx = nil
	}
	if w.Window != nil {
		w.Window.Destroy()
		w.Window = nil
	}
}

type quitState struct {
	posted bool
	code   int
}

func (q *quitState) post(code int) {
	if !q.posted {
		q.posted, q.code = true, code
	}
}

func (q *quitState) check(closed bool) (int, bool) {
	switch {
	case q.posted:
		return q.code, true
	case closed:
		return 0, true
	}
	return 0, false
}
