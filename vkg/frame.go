package vkg

import (
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

// fenceTimeout bounds the wait for a submitted frame.
const fenceTimeout = 10 * time.Second

// frameState tracks the frame being recorded. Every frame is waited for
// before the next one begins, so one command buffer suffices.
type frameState struct {
	recording bool
	index     uint32
	// pass is set while a render pass is open.
	pass   bool
	passes int
	extent vk.Extent2D
}

// setErr records the first failure of a frame; it is returned from the
// next present. A lost device is remembered for good.
func (r *renderer) setErr(err error) {
	if errors.Is(err, graphics.ResultErrorDeviceLost) {
		if !r.removed {
			r.lg.Error("vulkan device lost", slog.Any("error", err))
		}
		r.removed = true
	}
	if r.err == nil {
		r.err = err
	}
}

func (r *renderer) takeErr() error {
	err := r.err
	r.err = nil
	switch {
	case !r.removed:
	case err == nil:
		err = graphics.ResultErrorDeviceLost
	case !errors.Is(err, graphics.ResultErrorDeviceLost):
		// An earlier failure of the frame must not hide the device loss.
		err = errors.Join(graphics.ResultErrorDeviceLost, err)
	}
	return err
}

// begin acquires the next swapchain image and starts recording into the
// frame's command buffer. It reports false when nothing can be recorded.
func (r *renderer) begin() bool {
	if r.removed {
		return false
	}
	if r.frame.recording {
		return true
	}
	if r.stale {
		if err := r.recreateSwapchain(); err != nil {
			r.setErr(err)
			return false
		}
	}

	index, res := r.swapchain.AcquireNextImage(r.acquired)
	if res == vk.ErrorOutOfDate {
		if err := r.recreateSwapchain(); err != nil {
			r.setErr(err)
			return false
		}
		index, res = r.swapchain.AcquireNextImage(r.acquired)
	}
	switch res {
	case vk.Success:
	case vk.Suboptimal:
		r.stale = true
	default:
		r.setErr(vkError(res))
		return false
	}

	if err := r.cmd.Reset(); err != nil {
		r.setErr(err)
		r.abandonFrame()
		return false
	}
	if err := r.cmd.BeginOneTime(); err != nil {
		r.setErr(err)
		r.abandonFrame()
		return false
	}
	r.frame = frameState{recording: true, index: index}
	return true
}

func (r *renderer) endPass() {
	if r.frame.pass {
		r.cmd.CmdEndRenderPass()
		r.frame.pass = false
	}
}

// abandonFrame drops an acquired image that will not be submitted. The
// acquire semaphore is signalled with nobody waiting on it, so it is
// replaced.
func (r *renderer) abandonFrame() {
	if err := r.device.WaitIdle(); err != nil {
		r.setErr(err)
	}
	r.device.DestroyAny(r.acquired)
	var err error
	if r.acquired, err = r.device.CreateSemaphore(); err != nil {
		r.setErr(err)
	}
	r.frame = frameState{}
	r.stale = true
	r.flush()
}

// present submits the recorded frame, presents it and waits for it to
// complete. A frame in which nothing was recorded is still presented.
func (r *renderer) present(syncInterval int) error {
	if r.removed {
		return r.takeErr()
	}
	if !r.begin() {
		return r.takeErr()
	}
	r.endPass()

	img := r.images[r.frame.index]
	if r.frame.passes == 0 {
		r.cmd.TransitionImageLayout(img.VKImage, ImageTransition{
			OldLayout: vk.ImageLayoutUndefined,
			NewLayout: vk.ImageLayoutPresentSrc,
			SrcStage:  vk.PipelineStageTopOfPipeBit,
			DstStage:  vk.PipelineStageBottomOfPipeBit,
			Aspect:    vk.ImageAspectColorBit,
		})
	}
	if r.readback != nil {
		r.recordReadback(img)
	}

	if err := r.cmd.End(); err != nil {
		r.setErr(err)
		r.abandonFrame()
		return r.takeErr()
	}
	if err := r.graphicsQueue.SubmitFrame(r.cmd, r.acquired, r.rendered, r.fence); err != nil {
		r.setErr(err)
		r.abandonFrame()
		return r.takeErr()
	}

	switch res := r.presentQueue.Present(r.swapchain, r.frame.index, r.rendered); res {
	case vk.Success:
	case vk.Suboptimal, vk.ErrorOutOfDate:
		r.stale = true
	default:
		r.setErr(vkError(res))
	}

	waited := true
	if err := r.device.WaitForFences(true, fenceTimeout, r.fence); err != nil {
		r.setErr(err)
		waited = false
		r.device.WaitIdle()
	}
	if err := r.fence.Reset(); err != nil {
		r.setErr(err)
	}
	if waited && r.readback != nil {
		r.captured = r.readbackImage()
	}
	r.frame = frameState{}
	r.flush()

	if syncInterval != r.syncInterval {
		r.syncInterval = syncInterval
		r.stale = true
	}
	return r.takeErr()
}

// flush runs the releases deferred while the last frame was recording
// and returns its descriptor sets.
func (r *renderer) flush() {
	for _, f := range r.garbage {
		f()
	}
	r.garbage = r.garbage[:0]
	if r.descriptors != nil {
		if err := r.descriptors.Reset(); err != nil {
			r.setErr(err)
		}
	}
}

// recordReadback copies the presented image into the readback buffer,
// leaving it ready to present.
func (r *renderer) recordReadback(img *Image) {
	r.cmd.TransitionImageLayout(img.VKImage, ImageTransition{
		OldLayout: vk.ImageLayoutPresentSrc,
		NewLayout: vk.ImageLayoutTransferSrcOptimal,
		SrcAccess: vk.AccessColorAttachmentWriteBit,
		DstAccess: vk.AccessTransferReadBit,
		SrcStage:  vk.PipelineStageColorAttachmentOutputBit,
		DstStage:  vk.PipelineStageTransferBit,
		Aspect:    vk.ImageAspectColorBit,
	})
	r.cmd.CopyImageToBuffer(img.VKImage, r.swapchain.Extent, r.readback.HostBuffer.VKBuffer)
	r.cmd.TransitionImageLayout(img.VKImage, ImageTransition{
		OldLayout: vk.ImageLayoutTransferSrcOptimal,
		NewLayout: vk.ImageLayoutPresentSrc,
		SrcAccess: vk.AccessTransferReadBit,
		SrcStage:  vk.PipelineStageTransferBit,
		DstStage:  vk.PipelineStageBottomOfPipeBit,
		Aspect:    vk.ImageAspectColorBit,
	})
}

func (r *renderer) readbackImage() *image.RGBA {
	ext := r.swapchain.Extent
	img := image.NewRGBA(image.Rect(0, 0, int(ext.Width), int(ext.Height)))
	copy(img.Pix, r.readback.Bytes())
	if r.swapchain.Format == vk.FormatB8g8r8a8Unorm {
		bgraToRGBA(img.Pix)
	}
	return img
}

// bgraToRGBA swaps the red and blue channels of packed 32 bit pixels.
func bgraToRGBA(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
