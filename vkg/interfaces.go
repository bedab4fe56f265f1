package vkg

import "unsafe"

// IDestructable is any wrapper owning a Vulkan object.
type IDestructable interface {
	Destroy()
}

// WindowSurface is the window the driver presents into. A *glfw.Window
// embedded in the caller's window type satisfies everything but Valid.
type WindowSurface interface {
	Valid() bool
	GetRequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
	GetFramebufferSize() (width, height int)
}
