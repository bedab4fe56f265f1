package vkg

import (
	"fmt"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	PresentMode vk.PresentMode
	Device      *Device
	VKSwapchain vk.Swapchain
}

func (s *Swapchain) Destroy() {
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

func (s *Swapchain) GetImages() ([]*Image, error) {
	var imageCount uint32
	if err := vkError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil)); err != nil {
		return nil, err
	}
	swapchainImages := make([]vk.Image, imageCount)
	if err := vkError(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages)); err != nil {
		return nil, err
	}

	ret := make([]*Image, imageCount)
	for i := range swapchainImages {
		ret[i] = &Image{
			Device:   s.Device,
			VKImage:  swapchainImages[i],
			VKFormat: s.Format,
			Extent:   s.Extent,
		}
	}
	return ret, nil
}

type CreateSwapchainOptions struct {
	OldSwapchain *Swapchain
	// ActualSize is used when the surface leaves the extent to the
	// swapchain.
	ActualSize vk.Extent2D
	// DesiredNumSwapchainImages of zero picks one more than the minimum.
	DesiredNumSwapchainImages int
	Format                    vk.Format
	// SyncInterval 0 presents immediately, anything else waits for
	// vertical blank.
	SyncInterval int
	// Usage is added to the colour attachment usage.
	Usage vk.ImageUsageFlagBits
}

// ChoosePresentMode picks FIFO for a non-zero sync interval. Otherwise it
// prefers immediate, then mailbox, and falls back to FIFO, which every
// implementation supports.
func ChoosePresentMode(modes VKPresentModes, syncInterval int) vk.PresentMode {
	if syncInterval == 0 {
		for _, m := range []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox} {
			if modes.Has(m) {
				return m
			}
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent clamps the wanted size to what the surface allows; a
// surface with a fixed extent always wins.
func ChooseExtent(caps *vk.SurfaceCapabilities, want vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if hi != 0 && v > hi {
			return hi
		}
		return v
	}
	return vk.Extent2D{
		Width:  clamp(want.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(want.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func (p *Device) CreateSwapchain(surface vk.Surface, graphicsQueue, presentQueue *Queue, options *CreateSwapchainOptions) (*Swapchain, error) {
	modes, err := p.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}
	presentMode := ChoosePresentMode(modes, options.SyncInterval)

	formats, err := p.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	format, ok := formats.Find(func(f vk.SurfaceFormat) bool { return f.Format == options.Format })
	if !ok {
		return nil, fmt.Errorf("swapchain format %d: %w", options.Format, graphics.ResultErrorFormatNotSupported)
	}

	caps, err := p.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}
	extent := ChooseExtent(caps, options.ActualSize)

	images := uint32(options.DesiredNumSwapchainImages)
	if images == 0 {
		images = caps.MinImageCount + 1
	}
	if images < caps.MinImageCount {
		images = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && images > caps.MaxImageCount {
		images = caps.MaxImageCount
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    images,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | options.Usage),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}
	if options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	if graphicsQueue.QueueFamily.Index != presentQueue.QueueFamily.Index {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(graphicsQueue.QueueFamily.Index), uint32(presentQueue.QueueFamily.Index)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	if err := vkError(vk.CreateSwapchain(p.VKDevice, createInfo, nil, &swapchain)); err != nil {
		return nil, err
	}
	return &Swapchain{
		VKSwapchain: swapchain,
		Device:      p,
		Extent:      extent,
		Format:      format.Format,
		PresentMode: presentMode,
	}, nil
}

// AcquireNextImage returns the index of the next image, signalling
// signal once it may be rendered to. Out-of-date and suboptimal results
// are returned as is.
func (s *Swapchain) AcquireNextImage(signal vk.Semaphore) (uint32, vk.Result) {
	var index uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, vk.MaxUint64, signal, vk.NullFence, &index)
	return index, res
}
