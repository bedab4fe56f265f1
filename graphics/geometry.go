package graphics

import "unsafe"

// Vertex is a position-only vertex.
type Vertex struct {
	X, Y, Z float32
}

// ColorVertex is a 2D vertex with an 8-bit RGBA colour.
type ColorVertex struct {
	X, Y       float32
	R, G, B, A uint8
}

var cubeVertices = []Vertex{
	{-1, -1, -1},
	{1, -1, -1},
	{-1, 1, -1},
	{1, 1, -1},
	{-1, -1, 1},
	{1, -1, 1},
	{-1, 1, 1},
	{1, 1, 1},
}

// Clockwise when seen from outside the cube.
var cubeIndices = []uint16{
	0, 2, 1, 2, 3, 1,
	1, 3, 5, 3, 7, 5,
	2, 6, 3, 3, 6, 7,
	4, 5, 7, 4, 7, 6,
	0, 4, 2, 2, 4, 6,
	0, 1, 4, 1, 5, 4,
}

// One colour per face; the pixel stage picks it by primitive ID / 2.
var cubeFaceColors = [6][4]float32{
	{1, 0, 1, 1},
	{1, 0, 0, 1},
	{0, 1, 0, 1},
	{0, 0, 1, 1},
	{1, 1, 0, 1},
	{0, 1, 1, 1},
}

var triangleVertices = []ColorVertex{
	{0, 0.5, 0, 255, 255, 0},
	{0.5, -0.5, 255, 0, 255, 0},
	{-0.5, -0.5, 0, 255, 255, 0},
}

var cubeLayout = []InputElement{
	{SemanticName: "Position", Format: FormatR32G32B32Float},
}

var triangleLayout = []InputElement{
	{SemanticName: "Position", Format: FormatR32G32Float},
	{SemanticName: "Color", Format: FormatR8G8B8A8Unorm, AlignedByteOffset: AppendAligned},
}

// Bytes returns the memory of s as a byte slice without copying.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
