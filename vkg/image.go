package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

type Image struct {
	Device   *Device
	VKImage  vk.Image
	VKFormat vk.Format
	Extent   vk.Extent2D
}

func (i *Image) GetMemoryRequirements() vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.Device.VKDevice, i.VKImage, &memRequirements)
	memRequirements.Deref()
	return memRequirements
}

func (d *Device) CreateImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags) (*Image, error) {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var image vk.Image
	if err := vkError(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image)); err != nil {
		return nil, err
	}
	return &Image{Device: d, VKImage: image, VKFormat: format, Extent: extent}, nil
}

func (i *Image) Destroy() {
	vk.DestroyImage(i.Device.VKDevice, i.VKImage, nil)
}

// BoundImage is an image with its own memory allocation.
type BoundImage struct {
	Image
	DeviceMemory *DeviceMemory
}

func (d *Device) CreateBoundImage(extent vk.Extent2D, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, props vk.MemoryPropertyFlags) (*BoundImage, error) {
	i, err := d.CreateImage(extent, format, tiling, usage)
	if err != nil {
		return nil, err
	}

	mr := i.GetMemoryRequirements()
	mem, err := d.Allocate(uint64(mr.Size), mr.MemoryTypeBits, props)
	if err != nil {
		i.Destroy()
		return nil, err
	}
	if err := vkError(vk.BindImageMemory(d.VKDevice, i.VKImage, mem.VKDeviceMemory, 0)); err != nil {
		mem.Destroy()
		i.Destroy()
		return nil, err
	}
	return &BoundImage{Image: *i, DeviceMemory: mem}, nil
}

func (b *BoundImage) Destroy() {
	b.Image.Destroy()
	if b.DeviceMemory != nil {
		b.DeviceMemory.Destroy()
	}
}

// ImageTransition describes one layout change and the work it has to wait
// for.
type ImageTransition struct {
	OldLayout, NewLayout vk.ImageLayout
	SrcAccess, DstAccess vk.AccessFlagBits
	SrcStage, DstStage   vk.PipelineStageFlagBits
	Aspect               vk.ImageAspectFlagBits
}

func (cb *CommandBuffer) TransitionImageLayout(image vk.Image, t ImageTransition) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           t.OldLayout,
		NewLayout:           t.NewLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(t.Aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
		SrcAccessMask: vk.AccessFlags(t.SrcAccess),
		DstAccessMask: vk.AccessFlags(t.DstAccess),
	}
	vk.CmdPipelineBarrier(cb.VK(), vk.PipelineStageFlags(t.SrcStage), vk.PipelineStageFlags(t.DstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// CopyImageToBuffer copies the colour aspect of image, which must be in
// TransferSrcOptimal layout, tightly packed into dst.
func (cb *CommandBuffer) CopyImageToBuffer(image vk.Image, extent vk.Extent2D, dst vk.Buffer) {
	vk.CmdCopyImageToBuffer(cb.VK(), image, vk.ImageLayoutTransferSrcOptimal, dst, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
	}})
}
