package vkg

import (
	"fmt"
	"image"
	"log/slog"
	"unsafe"

	"github.com/celer/hw3d/graphics"
	"github.com/celer/hw3d/log"
	vk "github.com/vulkan-go/vulkan"
)

const (
	// arenaSize is the size of the host visible buffer that vertex, index
	// and constant buffers are sub-allocated from.
	arenaSize = 4 << 20
	// maxDrawsPerFrame bounds the descriptor sets one frame can allocate.
	maxDrawsPerFrame = 1024
	pipelineCacheSize = 64
)

// Driver implements graphics.Driver on Vulkan. The surface handed to
// CreateDeviceAndSwapChain must implement WindowSurface.
type Driver struct {
	ProcAddr unsafe.Pointer
	App      App
	lg       *log.Logger
}

// NewDriver creates a driver loading Vulkan through procAddr, the
// vkGetInstanceProcAddr of the windowing library, or the system loader
// when it is nil.
func NewDriver(procAddr unsafe.Pointer, name string, lg *log.Logger) *Driver {
	return &Driver{
		ProcAddr: procAddr,
		App: App{
			Name:       name,
			EngineName: "hw3d",
			Version:    Version{Major: 1},
			APIVersion: Version{Major: 1, Minor: 1},
		},
		lg: lg,
	}
}

func (d *Driver) CreateDeviceAndSwapChain(surface graphics.Surface, desc graphics.SwapChainDesc, info *graphics.InfoQueue) (graphics.Device, graphics.Context, graphics.SwapChain, error) {
	ws, ok := surface.(WindowSurface)
	if !ok || !ws.Valid() {
		return nil, nil, nil, fmt.Errorf("surface %T cannot present: %w", surface, graphics.ResultErrorSurfaceLost)
	}
	if err := Init(d.ProcAddr); err != nil {
		return nil, nil, nil, fmt.Errorf("loading vulkan: %v: %w", err, graphics.ResultErrorInitializationFailed)
	}

	app := d.App
	app.EnabledLayers = append([]string(nil), d.App.EnabledLayers...)
	app.EnabledExtensions = append([]string(nil), d.App.EnabledExtensions...)

	r := &renderer{
		lg:           d.lg,
		info:         info,
		window:       ws,
		desc:         desc,
		syncInterval: 1,
		refs:         3,
		renderPasses: make(map[RenderPassKind]vk.RenderPass),
	}
	if err := r.init(app); err != nil {
		info.Push("CreateDeviceAndSwapChain: " + err.Error())
		r.destroy()
		return nil, nil, nil, err
	}
	return &device{r: r}, &context{r: r}, &swapChain{r: r}, nil
}

// renderer is the state shared by the device, context and swap chain of
// one CreateDeviceAndSwapChain call. It is destroyed when all three have
// been released.
type renderer struct {
	lg     *log.Logger
	info   *graphics.InfoQueue
	window WindowSurface
	desc   graphics.SwapChainDesc

	instance   *Instance
	surface    vk.Surface
	hasSurface bool
	device     *Device

	graphicsQueue *Queue
	presentQueue  *Queue

	commandPool *CommandPool
	cmd         *CommandBuffer
	fence       *Fence
	acquired    vk.Semaphore
	rendered    vk.Semaphore

	setLayout      *DescriptorSetLayout
	pipelineLayout *PipelineLayout
	descriptors    *DescriptorPool
	arena          *BufferPool
	uniformAlign   uint64
	pipelineCache  *PipelineCache
	pipelines      *PipelineSet
	renderPasses   map[RenderPassKind]vk.RenderPass

	swapchain    *Swapchain
	images       []*Image
	views        []*ImageView
	syncInterval int
	stale        bool

	readback *HostBoundBuffer
	captured *image.RGBA

	frame   frameState
	garbage []func()
	err     error
	removed bool
	refs    int
}

func (r *renderer) init(app App) error {
	for _, ext := range r.window.GetRequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}
	if r.desc.Debug {
		if err := app.EnableDebugging(); err != nil {
			r.lg.Warn("debug layer unavailable", slog.Any("error", err))
			r.desc.Debug = false
		}
	}

	var err error
	if r.instance, err = app.CreateInstance(); err != nil {
		return fmt.Errorf("creating instance: %w", err)
	}
	if r.desc.Debug && r.info != nil {
		if err := r.instance.SetDebugCallback(InfoQueueCallback(r.info, r.lg)); err != nil {
			r.lg.Warn("installing debug callback", slog.Any("error", err))
		}
	}

	ptr, err := r.window.CreateWindowSurface(r.instance.VKInstance, nil)
	if err != nil {
		return fmt.Errorf("creating window surface: %v: %w", err, graphics.ResultErrorSurfaceLost)
	}
	r.surface = vk.SurfaceFromPointer(ptr)
	r.hasSurface = true

	if err := r.createDevice(); err != nil {
		return err
	}
	if err := r.createFrameResources(); err != nil {
		return err
	}
	return r.createSwapchain()
}

func (r *renderer) createDevice() error {
	pds, err := r.instance.PhysicalDevices()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	if len(pds) == 0 {
		return fmt.Errorf("no vulkan devices: %w", graphics.ResultErrorIncompatibleDriver)
	}
	pd := pds[0]

	families, err := pd.QueueFamilies()
	if err != nil {
		return fmt.Errorf("listing queue families of %s: %w", pd, err)
	}
	gq, pq, err := pickQueueFamilies(families, r.surface)
	if err != nil {
		return fmt.Errorf("%s: %w", pd, err)
	}

	ok, err := pd.SupportsExtension("VK_KHR_swapchain")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s has no swapchain support: %w", pd, graphics.ResultErrorExtensionNotPresent)
	}

	r.device, err = pd.CreateLogicalDeviceWithOptions(QueueFamilySlice{gq, pq}, &CreateDeviceOptions{
		EnabledExtensions: []string{"VK_KHR_swapchain"},
	})
	if err != nil {
		return fmt.Errorf("creating device on %s: %w", pd, err)
	}
	r.graphicsQueue = r.device.GetQueue(gq)
	r.presentQueue = r.device.GetQueue(pq)

	limits := pd.VKPhysicalDeviceProperties.Limits
	limits.Deref()
	r.uniformAlign = uint64(limits.MinUniformBufferOffsetAlignment)
	if r.uniformAlign < 16 {
		r.uniformAlign = 16
	}

	r.lg.Info("vulkan device created",
		slog.String("device", pd.DeviceName),
		slog.Int("graphics_family", gq.Index),
		slog.Int("present_family", pq.Index),
		slog.Bool("debug", r.desc.Debug))
	return nil
}

// pickQueueFamilies prefers one family that can both draw and present.
func pickQueueFamilies(families QueueFamilySlice, surface vk.Surface) (graphicsFamily, presentFamily *QueueFamily, err error) {
	if both := families.FilterGraphicsAndPresent(surface); len(both) > 0 {
		return both[0], both[0], nil
	}
	g := families.FilterGraphics()
	p := families.FilterPresent(surface)
	if len(g) == 0 || len(p) == 0 {
		return nil, nil, fmt.Errorf("no graphics and present capable queues: %w", graphics.ResultErrorFeatureNotPresent)
	}
	return g[0], p[0], nil
}

func (r *renderer) createFrameResources() error {
	var err error
	if r.commandPool, err = r.device.CreateCommandPool(r.graphicsQueue.QueueFamily); err != nil {
		return fmt.Errorf("creating command pool: %w", err)
	}
	if r.cmd, err = r.commandPool.AllocateBuffer(); err != nil {
		return fmt.Errorf("allocating command buffer: %w", err)
	}
	if r.fence, err = r.device.CreateFence(false); err != nil {
		return fmt.Errorf("creating fence: %w", err)
	}
	if r.acquired, err = r.device.CreateSemaphore(); err != nil {
		return fmt.Errorf("creating semaphore: %w", err)
	}
	if r.rendered, err = r.device.CreateSemaphore(); err != nil {
		return fmt.Errorf("creating semaphore: %w", err)
	}

	layout := r.device.NewDescriptorSetLayout()
	layout.AddBinding(0, vk.DescriptorTypeUniformBuffer, vk.ShaderStageVertexBit)
	layout.AddBinding(1, vk.DescriptorTypeUniformBuffer, vk.ShaderStageFragmentBit)
	if r.setLayout, err = r.device.CreateDescriptorSetLayout(layout); err != nil {
		return fmt.Errorf("creating descriptor set layout: %w", err)
	}
	if r.pipelineLayout, err = r.device.CreatePipelineLayout(r.setLayout); err != nil {
		return fmt.Errorf("creating pipeline layout: %w", err)
	}

	pool := r.device.NewDescriptorPool()
	pool.AddPoolSize(vk.DescriptorTypeUniformBuffer, 2*maxDrawsPerFrame)
	if r.descriptors, err = r.device.CreateDescriptorPool(pool, maxDrawsPerFrame); err != nil {
		return fmt.Errorf("creating descriptor pool: %w", err)
	}

	if r.arena, err = r.device.CreateBufferPool(arenaSize, vk.BufferUsageFlags(
		vk.BufferUsageVertexBufferBit|vk.BufferUsageIndexBufferBit|vk.BufferUsageUniformBufferBit)); err != nil {
		return fmt.Errorf("creating buffer pool: %w", err)
	}

	if r.pipelineCache, err = r.device.CreatePipelineCache(); err != nil {
		return fmt.Errorf("creating pipeline cache: %w", err)
	}
	r.pipelines, err = NewPipelineSet(pipelineCacheSize, func(p *GraphicsPipeline) {
		r.release(p.Destroy)
	})
	return err
}

// createSwapchain creates the swapchain, replacing the current one if
// there is one. The size comes from the description or, where that is
// zero, the window.
func (r *renderer) createSwapchain() error {
	w, h := r.desc.Width, r.desc.Height
	if w == 0 || h == 0 {
		fw, fh := r.window.GetFramebufferSize()
		if w == 0 {
			w = fw
		}
		if h == 0 {
			h = fh
		}
	}
	format, err := VKFormat(r.desc.Format)
	if err != nil {
		return err
	}

	var usage vk.ImageUsageFlagBits
	if r.desc.Capture {
		usage = vk.ImageUsageTransferSrcBit
	}
	old := r.swapchain
	sc, err := r.device.CreateSwapchain(r.surface, r.graphicsQueue, r.presentQueue, &CreateSwapchainOptions{
		OldSwapchain:              old,
		ActualSize:                vk.Extent2D{Width: uint32(w), Height: uint32(h)},
		DesiredNumSwapchainImages: r.desc.BufferCount + 1,
		Format:                    format,
		SyncInterval:              r.syncInterval,
		Usage:                     usage,
	})
	if err != nil {
		return fmt.Errorf("creating swapchain: %w", err)
	}
	r.destroySwapchain()
	r.swapchain = sc

	if r.images, err = sc.GetImages(); err != nil {
		return fmt.Errorf("getting swapchain images: %w", err)
	}
	for _, img := range r.images {
		view, err := img.CreateImageView()
		if err != nil {
			return fmt.Errorf("creating swapchain image view: %w", err)
		}
		r.views = append(r.views, view)
	}

	r.desc.Width, r.desc.Height = int(sc.Extent.Width), int(sc.Extent.Height)
	if r.desc.Capture {
		r.readback, err = r.device.CreateHostBoundBuffer(uint64(sc.Extent.Width)*uint64(sc.Extent.Height)*4,
			vk.BufferUsageFlags(vk.BufferUsageTransferDstBit))
		if err != nil {
			return fmt.Errorf("creating readback buffer: %w", err)
		}
	}
	r.stale = false

	r.lg.Debug("swapchain created",
		slog.Int("width", r.desc.Width),
		slog.Int("height", r.desc.Height),
		slog.Int("images", len(r.images)),
		slog.Int("present_mode", int(sc.PresentMode)))
	return nil
}

// recreateSwapchain replaces a swapchain that no longer matches the
// surface. It must not be called while a frame is recording.
func (r *renderer) recreateSwapchain() error {
	if err := r.device.WaitIdle(); err != nil {
		return err
	}
	return r.createSwapchain()
}

// destroySwapchain destroys the swapchain views and readback buffer along
// with the swapchain itself, which the replacement has already retired.
func (r *renderer) destroySwapchain() {
	for _, v := range r.views {
		v.Destroy()
	}
	r.views, r.images = nil, nil
	if r.readback != nil {
		r.readback.Destroy()
		r.readback = nil
	}
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
}

func (r *renderer) renderPass(kind RenderPassKind) (vk.RenderPass, error) {
	if rp, ok := r.renderPasses[kind]; ok {
		return rp, nil
	}
	rp, err := r.device.CreateRenderPass(r.swapchain.Format, kind)
	if err != nil {
		return rp, err
	}
	r.renderPasses[kind] = rp
	return rp, nil
}

// release runs f now, or once the frame being recorded has completed.
func (r *renderer) release(f func()) {
	if r.frame.recording {
		r.garbage = append(r.garbage, f)
		return
	}
	f()
}

func (r *renderer) unref() {
	r.refs--
	if r.refs == 0 {
		r.destroy()
	}
}

func (r *renderer) destroy() {
	if r.device != nil {
		if err := r.device.WaitIdle(); err != nil {
			r.lg.Warn("waiting for device before teardown", slog.Any("error", err))
		}
		r.frame = frameState{}
		r.flush()
		if r.pipelines != nil {
			r.pipelines.Purge()
		}
		if r.pipelineCache != nil {
			r.pipelineCache.Destroy()
		}
		for _, rp := range r.renderPasses {
			r.device.DestroyAny(rp)
		}
		r.destroySwapchain()
		if r.arena != nil {
			r.arena.Destroy()
		}
		if r.descriptors != nil {
			r.descriptors.Destroy()
		}
		if r.pipelineLayout != nil {
			r.pipelineLayout.Destroy()
		}
		if r.setLayout != nil {
			r.setLayout.Destroy()
		}
		if r.fence != nil {
			r.fence.Destroy()
		}
		if r.commandPool != nil {
			r.commandPool.Destroy()
		}
		r.device.DestroyAny(r.acquired)
		r.device.DestroyAny(r.rendered)
		r.device.Destroy()
	}
	if r.hasSurface {
		vk.DestroySurface(r.instance.VKInstance, r.surface, nil)
	}
	if r.instance != nil {
		r.instance.Destroy()
	}
	r.lg.Info("vulkan device destroyed")
}
