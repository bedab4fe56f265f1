package graphics

import "github.com/go-gl/mathgl/mgl32"

// Projection parameters of the test scene: a 1 x 3/4 view volume between
// the planes z=0.5 and z=10.
const (
	ViewWidth  = 1.0
	ViewHeight = 3.0 / 4.0
	NearZ      = 0.5
	FarZ       = 10.0
)

// PerspectiveLH returns a left-handed perspective projection mapping depth
// to [0, 1], in column-vector form (the transpose of the row-vector matrix
// DirectX math produces).
func PerspectiveLH(w, h, n, f float32) mgl32.Mat4 {
	var m mgl32.Mat4
	m[0] = 2 * n / w
	m[5] = 2 * n / h
	m[10] = f / (f - n)
	m[11] = 1
	m[14] = -n * f / (f - n)
	return m
}

// Transform returns the constant buffer contents for the test cube:
// transpose(Rz(angle) * Rx(angle) * T(x, y, z) * P) for row vectors, stored
// so that element [r*4+c] is row r, column c of that matrix.
//
// With column vectors the same product reads P * T * Rx * Rz, which is what
// mgl32 composes; returning its transpose yields the row-major image.
func Transform(angle, x, y, z float32) mgl32.Mat4 {
	p := PerspectiveLH(ViewWidth, ViewHeight, NearZ, FarZ)
	m := p.Mul4(mgl32.Translate3D(x, y, z)).
		Mul4(mgl32.HomogRotate3DX(angle)).
		Mul4(mgl32.HomogRotate3DZ(angle))
	return m.Transpose()
}
