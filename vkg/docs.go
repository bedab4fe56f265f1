/*
Package vkg implements graphics.Driver atop the Vulkan graphics framework. Vulkan is a very
explicit API: everything a Direct3D 11 style immediate context does implicitly, such as
picking memory for buffers, building pipeline state and synchronising with the presentation
engine, is up to the application. This package takes care of that so the renderer in package
graphics can stay written against the small Device, Context and SwapChain interfaces.

Native Vulkan terms
	Instance 	the vulkan runtime instance
	PhysicalDevice	the physical hardware device
	LogicalDevice	a representation of the device which is the target of most of the vulkan apis.
	Pipeline	a description of how to process data on the GPU
	Queue 		a queue which work (command buffers) may be submitted to
	DeviceMemory	an allocation of memory on the host or device for use by buffers and images
	Buffer		a description of some bit of data (vertex, index, or uniform)
	Image		a description of some image
	ImageView	a way of describing how an image is utilized or viewed
	DescriptorSet 	a mapping of data for use by shaders
	RenderPass	the attachments a sequence of draws renders into
	Swapchain	a grouping of images which are used to display graphical data

How the immediate context maps onto Vulkan

	1. CreateDeviceAndSwapChain creates the instance, the window surface, a logical device
	   and the swapchain. One command buffer, one fence and two semaphores serve every frame.
	2. Vertex, index and constant buffers are sub-allocated from one persistently mapped,
	   host visible buffer (BufferPool). Releasing one returns its range once the frame that
	   may still read it has completed.
	3. The first clear or draw of a frame acquires a swapchain image and begins recording.
	   A render pass is opened over the bound render target and depth view; binding other
	   targets ends it and opens another that loads the colour written so far.
	4. Each draw looks up a graphics pipeline keyed by its shaders, input layout, stride,
	   topology and depth state (PipelineSet, an LRU cache), and allocates a descriptor set
	   for the bound constant buffers. Viewport and scissor are dynamic state.
	5. Present ends the pass, submits, presents and waits on the frame fence. Deferred
	   releases then run and the descriptor pool is reset. When capture is enabled the
	   presented image is copied into a readback buffer first.

Native vulkan structures are exposed in all the objects prefixed with 'VK' in the name, so
callers can reach past what this package provides.
*/
package vkg
