// Package shaders holds the GLSL sources of the test geometry. The SPIR-V
// blobs the renderer loads are compiled next to them with glslc.
package shaders

//go:generate glslc cube.vert -o cube.vert.spv
//go:generate glslc cube.frag -o cube.frag.spv
//go:generate glslc triangle.vert -o triangle.vert.spv
//go:generate glslc triangle.frag -o triangle.frag.spv
