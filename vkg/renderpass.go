package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// RenderPassKind selects one of the render passes the immediate context
// switches between. All of them are compatible with each other as long as
// Depth matches, so a pipeline built for one works with the other.
type RenderPassKind struct {
	// Depth adds a D32 depth attachment that is loaded and stored.
	Depth bool
	// Resume loads the colour attachment instead of discarding it, for
	// passes restarted within a frame after a target change.
	Resume bool
}

// DepthFormat is the format of every depth attachment.
const DepthFormat = vk.FormatD32Sfloat

func (d *Device) CreateRenderPass(colorFormat vk.Format, kind RenderPassKind) (vk.RenderPass, error) {
	color := vk.AttachmentDescription{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpDontCare,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	if kind.Resume {
		color.LoadOp = vk.AttachmentLoadOpLoad
		color.InitialLayout = vk.ImageLayoutPresentSrc
	}
	attachments := []vk.AttachmentDescription{color}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}

	stages := vk.PipelineStageColorAttachmentOutputBit
	access := vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit

	if kind.Depth {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpLoad,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		stages |= vk.PipelineStageEarlyFragmentTestsBit
		access |= vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(stages),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(stages),
		DstAccessMask: vk.AccessFlags(access),
	}

	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	err := vkError(vk.CreateRenderPass(d.VKDevice, &renderPassCreateInfo, nil, &renderPass))
	return renderPass, err
}

func (d *Device) CreateFramebuffer(rp vk.RenderPass, extent vk.Extent2D, views ...*ImageView) (vk.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(views))
	for i, v := range views {
		attachments[i] = v.VKImageView
	}
	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp,
		Layers:          1,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           extent.Width,
		Height:          extent.Height,
	}
	var fb vk.Framebuffer
	err := vkError(vk.CreateFramebuffer(d.VKDevice, &fbCreateInfo, nil, &fb))
	return fb, err
}
