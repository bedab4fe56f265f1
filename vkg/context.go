package vkg

import (
	"fmt"

	"github.com/celer/hw3d/graphics"
	vk "github.com/vulkan-go/vulkan"
)

// context emulates an immediate context: state is kept on the CPU and
// turned into a render pass, a pipeline and descriptor bindings when a
// clear or draw is recorded.
type context struct {
	r        *renderer
	released bool

	rtv   *renderTargetView
	dsv   *depthStencilView
	depth *depthStencilState

	// targets of the open render pass
	passRTV *renderTargetView
	passDSV *depthStencilView

	vb       *buffer
	stride   uint32
	vbOffset uint32
	ib       *buffer
	ibType   vk.IndexType
	ibOffset uint32

	layout   *inputLayout
	topology graphics.Topology
	vs, ps   *shader
	vsConst  *buffer
	psConst  *buffer

	viewport    graphics.Viewport
	hasViewport bool
}

func (c *context) invalid(op, format string, args ...any) {
	c.r.info.Push(op + ": " + fmt.Sprintf(format, args...))
}

// beginPass makes sure a render pass over the bound targets is open.
func (c *context) beginPass(op string) bool {
	r := c.r
	if c.rtv == nil {
		c.invalid(op, "no render target bound")
		return false
	}
	if !r.begin() {
		return false
	}
	if r.frame.pass {
		if c.passRTV == c.rtv && c.passDSV == c.dsv {
			return true
		}
		r.endPass()
	}

	kind := RenderPassKind{Depth: c.dsv != nil, Resume: r.frame.passes > 0}
	rp, err := r.renderPass(kind)
	if err != nil {
		r.setErr(&graphics.OpError{Op: op, Err: fmt.Errorf("creating render pass: %w", err)})
		return false
	}

	extent := r.swapchain.Extent
	views := []*ImageView{r.views[r.frame.index]}
	if c.dsv != nil {
		views = append(views, c.dsv.view)
		extent.Width = min(extent.Width, c.dsv.image.Extent.Width)
		extent.Height = min(extent.Height, c.dsv.image.Extent.Height)
	}
	fb, err := r.device.CreateFramebuffer(rp, extent, views...)
	if err != nil {
		r.setErr(&graphics.OpError{Op: op, Err: fmt.Errorf("creating framebuffer: %w", err)})
		return false
	}
	r.release(func() { r.device.DestroyAny(fb) })

	r.cmd.CmdBeginRenderPass(rp, fb, extent)
	r.frame.pass = true
	r.frame.passes++
	r.frame.extent = extent
	c.passRTV, c.passDSV = c.rtv, c.dsv
	return true
}

// ClearRenderTargetView binds rtv if it is not bound already.
func (c *context) ClearRenderTargetView(rtv graphics.RenderTargetView, color [4]float32) {
	v, ok := rtv.(*renderTargetView)
	if !ok || v.r != c.r {
		c.invalid("ClearRenderTargetView", "invalid render target view %T", rtv)
		return
	}
	c.rtv = v
	if c.beginPass("ClearRenderTargetView") {
		c.r.cmd.CmdClearColorAttachment(color, c.r.frame.extent)
	}
}

// ClearDepthStencilView binds dsv if it is not bound already.
func (c *context) ClearDepthStencilView(dsv graphics.DepthStencilView, depth float32) {
	v, ok := dsv.(*depthStencilView)
	if !ok || v.r != c.r || v.released {
		c.invalid("ClearDepthStencilView", "invalid depth stencil view %T", dsv)
		return
	}
	c.dsv = v
	if c.beginPass("ClearDepthStencilView") {
		c.r.cmd.CmdClearDepthAttachment(depth, c.r.frame.extent)
	}
}

func (c *context) OMSetRenderTargets(rtv graphics.RenderTargetView, dsv graphics.DepthStencilView) {
	c.rtv, _ = rtv.(*renderTargetView)
	c.dsv, _ = dsv.(*depthStencilView)
}

func (c *context) OMSetDepthStencilState(s graphics.DepthStencilState) {
	c.depth, _ = s.(*depthStencilState)
}

func (c *context) IASetVertexBuffer(b graphics.Buffer, stride, offset uint32) {
	c.vb, _ = b.(*buffer)
	c.stride, c.vbOffset = stride, offset
}

func (c *context) IASetIndexBuffer(b graphics.Buffer, format graphics.Format, offset uint32) {
	c.ib, _ = b.(*buffer)
	if c.ib == nil {
		return
	}
	t, err := VKIndexType(format)
	if err != nil {
		c.invalid("IASetIndexBuffer", "%v", err)
		c.ib = nil
		return
	}
	c.ibType, c.ibOffset = t, offset
}

func (c *context) IASetInputLayout(l graphics.InputLayout) {
	c.layout, _ = l.(*inputLayout)
}

func (c *context) IASetPrimitiveTopology(t graphics.Topology) {
	c.topology = t
}

func (c *context) VSSetShader(s graphics.Shader) {
	c.vs, _ = s.(*shader)
}

func (c *context) PSSetShader(s graphics.Shader) {
	c.ps, _ = s.(*shader)
}

func (c *context) VSSetConstantBuffer(slot int, b graphics.Buffer) {
	if slot != 0 {
		c.invalid("VSSetConstantBuffer", "slot %d unsupported, only slot 0 is bound", slot)
		return
	}
	c.vsConst, _ = b.(*buffer)
}

func (c *context) PSSetConstantBuffer(slot int, b graphics.Buffer) {
	if slot != 0 {
		c.invalid("PSSetConstantBuffer", "slot %d unsupported, only slot 0 is bound", slot)
		return
	}
	c.psConst, _ = b.(*buffer)
}

func (c *context) RSSetViewport(vp graphics.Viewport) {
	c.viewport, c.hasViewport = vp, true
}

// vkViewport flips the viewport so that +Y points up in clip space as it
// does in Direct3D.
func vkViewport(vp graphics.Viewport) vk.Viewport {
	return vk.Viewport{
		X:        vp.TopLeftX,
		Y:        vp.TopLeftY + vp.Height,
		Width:    vp.Width,
		Height:   -vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}
}

func (c *context) pipeline() (*GraphicsPipeline, error) {
	var depth *graphics.DepthStencilDesc
	if c.dsv != nil {
		d := defaultDepthState
		if c.depth != nil {
			d = c.depth.desc
		}
		depth = &d
	}
	key := pipelineKey(c.vs.sum, c.ps.sum, c.layout.sum, c.stride, c.topology, depth)

	r := c.r
	return r.pipelines.Get(key, func() (*GraphicsPipeline, error) {
		bindings, attrs, err := vertexInput(c.layout.elems, c.stride)
		if err != nil {
			return nil, err
		}
		rp, err := r.renderPass(RenderPassKind{Depth: depth != nil})
		if err != nil {
			return nil, err
		}
		cfg := r.device.CreateGraphicsPipelineConfig().
			AddShaderStage(c.vs.module, "main", vk.ShaderStageVertexBit).
			AddShaderStage(c.ps.module, "main", vk.ShaderStageFragmentBit).
			SetPipelineLayout(r.pipelineLayout).
			SetVertexInput(bindings, attrs)
		cfg.PrimitiveTopology = vkTopology(c.topology)
		cfg.RenderPass = rp
		if depth != nil {
			cfg.DepthTestEnable = depth.DepthEnable
			cfg.DepthWriteEnable = depth.DepthEnable && depth.DepthWriteAll
			cfg.DepthCompareOp = vkCompareOp(depth.DepthFunc)
		}
		r.lg.Debug("creating graphics pipeline", "key", key, "depth", depth != nil)
		return r.device.CreateGraphicsPipeline(r.pipelineCache, cfg)
	})
}

// prepareDraw records everything but the draw command itself.
func (c *context) prepareDraw(op string) bool {
	switch {
	case c.vs == nil || c.vs.released:
		c.invalid(op, "no vertex shader bound")
		return false
	case c.ps == nil || c.ps.released:
		c.invalid(op, "no pixel shader bound")
		return false
	case c.layout == nil:
		c.invalid(op, "no input layout bound")
		return false
	case c.vb == nil || c.vb.released:
		c.invalid(op, "no vertex buffer bound")
		return false
	}
	if !c.beginPass(op) {
		return false
	}

	r := c.r
	p, err := c.pipeline()
	if err != nil {
		r.setErr(&graphics.OpError{Op: op, Err: fmt.Errorf("creating pipeline: %w", err)})
		return false
	}
	r.cmd.CmdBindGraphicsPipeline(p)

	if c.vsConst != nil || c.psConst != nil {
		set, err := r.descriptors.Allocate(r.setLayout)
		if err != nil {
			r.setErr(&graphics.OpError{Op: op, Err: fmt.Errorf("allocating descriptor set: %w", err)})
			return false
		}
		if c.vsConst != nil {
			set.AddBuffer(0, vk.DescriptorTypeUniformBuffer, c.vsConst.vkBuffer(), c.vsConst.offset(), c.vsConst.size())
		}
		if c.psConst != nil {
			set.AddBuffer(1, vk.DescriptorTypeUniformBuffer, c.psConst.vkBuffer(), c.psConst.offset(), c.psConst.size())
		}
		set.Write()
		r.cmd.CmdBindDescriptorSets(vk.PipelineBindPointGraphics, r.pipelineLayout, 0, set)
	}

	r.cmd.CmdBindVertexBuffer(c.vb.vkBuffer(), c.vb.offset()+uint64(c.vbOffset))

	vp := c.viewport
	if !c.hasViewport {
		vp = graphics.Viewport{
			Width:    float32(r.frame.extent.Width),
			Height:   float32(r.frame.extent.Height),
			MaxDepth: 1,
		}
	}
	r.cmd.CmdSetViewport(vkViewport(vp))
	r.cmd.CmdSetScissor(r.frame.extent)
	return true
}

func (c *context) Draw(vertexCount, startVertex uint32) {
	if c.prepareDraw("Draw") {
		c.r.cmd.CmdDraw(vertexCount, startVertex)
	}
}

func (c *context) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) {
	if c.ib == nil || c.ib.released {
		c.invalid("DrawIndexed", "no index buffer bound")
		return
	}
	if c.prepareDraw("DrawIndexed") {
		c.r.cmd.CmdBindIndexBuffer(c.ib.vkBuffer(), c.ib.offset()+uint64(c.ibOffset), c.ibType)
		c.r.cmd.CmdDrawIndexed(indexCount, startIndex, baseVertex)
	}
}

func (c *context) Release() {
	if c.released {
		return
	}
	c.released = true
	c.r.unref()
}
