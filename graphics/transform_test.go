package graphics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mat [4][4]float64

func (a mat) mul(b mat) mat {
	var m mat
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			for k := 0; k < 4; k++ {
				m[r][c] += a[r][k] * b[k][c]
			}
		}
	}
	return m
}

func (a mat) transpose() mat {
	var m mat
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r][c] = a[c][r]
		}
	}
	return m
}

func identity() mat {
	return mat{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

// Row-vector matrices in the DirectXMath layout.
func rotZ(a float64) mat {
	c, s := math.Cos(a), math.Sin(a)
	return mat{{c, s, 0, 0}, {-s, c, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}

func rotX(a float64) mat {
	c, s := math.Cos(a), math.Sin(a)
	return mat{{1, 0, 0, 0}, {0, c, s, 0}, {0, -s, c, 0}, {0, 0, 0, 1}}
}

func translate(x, y, z float64) mat {
	m := identity()
	m[3] = [4]float64{x, y, z, 1}
	return m
}

func perspectiveLH(w, h, n, f float64) mat {
	var m mat
	m[0][0] = 2 * n / w
	m[1][1] = 2 * n / h
	m[2][2] = f / (f - n)
	m[2][3] = 1
	m[3][2] = -n * f / (f - n)
	return m
}

func reference(a, x, y, z float64) mat {
	return rotZ(a).mul(rotX(a)).mul(translate(x, y, z)).
		mul(perspectiveLH(1, 3.0/4.0, 0.5, 10)).transpose()
}

func TestTransformMatchesReference(t *testing.T) {
	for _, tc := range []struct {
		name       string
		a, x, y, z float64
	}{
		{"front cube", 0.7, 0, 0, 7},
		{"near cube", 0.7, 1, 1, 4},
		{"negative angle", -2.5, -0.5, 0.25, 3},
		{"large angle", 12.0, 0, 0, 9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Transform(float32(tc.a), float32(tc.x), float32(tc.y), float32(tc.z))
			want := reference(tc.a, tc.x, tc.y, tc.z)
			for r := 0; r < 4; r++ {
				for c := 0; c < 4; c++ {
					assert.InDelta(t, want[r][c], float64(got[r*4+c]), 1e-5, "row %d col %d", r, c)
				}
			}
		})
	}
}

func TestTransformZeroAngleIsTranslateProject(t *testing.T) {
	got := Transform(0, 1, 2, 5)
	want := translate(1, 2, 5).mul(perspectiveLH(1, 3.0/4.0, 0.5, 10)).transpose()
	for i := 0; i < 16; i++ {
		assert.InDelta(t, want[i/4][i%4], float64(got[i]), 1e-6, "element %d", i)
	}
}

func TestTransformProjectsDepthRange(t *testing.T) {
	// A point on the near plane maps to depth 0, one on the far plane to 1.
	m := Transform(0, 0, 0, 0)
	project := func(z float32) float32 {
		// Row r of the stored matrix dotted with (0, 0, z, 1).
		clipZ := m[2*4+2]*z + m[2*4+3]
		clipW := m[3*4+2]*z + m[3*4+3]
		return clipZ / clipW
	}
	assert.InDelta(t, 0, project(NearZ), 1e-5)
	assert.InDelta(t, 1, project(FarZ), 1e-5)
}

func TestPerspectiveLHTerms(t *testing.T) {
	p := PerspectiveLH(1, 0.75, 0.5, 10)
	assert.InDelta(t, 1.0, p[0], 1e-6)
	assert.InDelta(t, 4.0/3.0, p[5], 1e-6)
	assert.InDelta(t, 10/9.5, p[10], 1e-6)
	assert.Equal(t, float32(1), p[11])
	assert.InDelta(t, -5/9.5, p[14], 1e-6)
	assert.Zero(t, p[15])
}

func TestBytesViewsMemory(t *testing.T) {
	idx := []uint16{1, 2, 3}
	b := Bytes(idx)
	assert.Len(t, b, 6)
	assert.Nil(t, Bytes([]Vertex(nil)))
	assert.Len(t, Bytes(cubeVertices), 8*12)
	assert.Len(t, Bytes(triangleVertices), 3*12)
}
