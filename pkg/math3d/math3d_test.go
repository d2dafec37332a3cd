package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestQuatRotate(t *testing.T) {
	tests := []struct {
		name  string
		q     Quat
		in    Vec3
		wants Vec3
	}{
		{"identity", QuatIdentity(), V3(1, 2, 3), V3(1, 2, 3)},
		{"quarter turn about Z", QuatAxisAngle(UnitZ, math.Pi/2), UnitX, UnitY},
		{"half turn about Z", QuatAxisAngle(UnitZ, math.Pi), V3(1, 1, 0), V3(-1, -1, 0)},
		{"quarter turn about X", QuatAxisAngle(UnitX, math.Pi/2), UnitY, UnitZ},
		{"zero quaternion normalizes to identity", Quat{}.Normalize(), V3(4, 5, 6), V3(4, 5, 6)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.q.Rotate(tc.in)
			assert.True(t, got.Approx(tc.wants, eps), "Rotate(%v) = %v, want %v", tc.in, got, tc.wants)
			// The matrix form must agree with the direct rotation
			viaMat := tc.q.Mat3().MulVec3(tc.in)
			assert.True(t, viaMat.Approx(got, eps), "Mat3().MulVec3(%v) = %v, want %v", tc.in, viaMat, got)
		})
	}
}

func TestQuatMulComposes(t *testing.T) {
	a := QuatAxisAngle(UnitZ, 0.3)
	b := QuatAxisAngle(UnitX, 1.1)
	v := V3(0.5, -2, 7)

	got := a.Mul(b).Rotate(v)
	want := a.Rotate(b.Rotate(v))
	assert.True(t, got.Approx(want, eps), "(a*b).Rotate = %v, want %v", got, want)

	back := a.Conjugate().Rotate(a.Rotate(v))
	assert.True(t, back.Approx(v, eps), "conjugate did not undo rotation: %v", back)
}

func TestMat3Transpose(t *testing.T) {
	m := QuatAxisAngle(V3(1, 1, 0), 0.7).Mat3()
	v := V3(3, -1, 2)

	got := m.Transpose().MulVec3(m.MulVec3(v))
	assert.True(t, got.Approx(v, eps), "transpose of rotation should invert it, got %v want %v", got, v)
}

func TestMat3Mat4(t *testing.T) {
	m := M3(V3(1, 0, 0), V3(0, 0, -1), V3(0, 1, 0))
	p := V3(1, 2, 3)

	got, want := m.Mat4().MulVec3(p), m.MulVec3(p)
	assert.True(t, got.Approx(want, eps), "Mat4().MulVec3 = %v, want %v", got, want)
}

func TestWrapAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{-1e-18, 0},
	}

	for _, tc := range tests {
		got := WrapAngle(tc.in)
		assert.InDelta(t, tc.want, got, eps, "WrapAngle(%v)", tc.in)
		assert.True(t, got >= 0 && got < 2*math.Pi, "WrapAngle(%v) = %v, outside [0, 2π)", tc.in, got)
	}
}

func TestPerspectiveMapsClipPlanes(t *testing.T) {
	near, far := 0.1, 2048.0
	p := Perspective(math.Pi/2, 1, near, far)

	nearPt := p.MulVec4(V4(0, 0, -near, 1)).PerspectiveDivide()
	farPt := p.MulVec4(V4(0, 0, -far, 1)).PerspectiveDivide()

	assert.InDelta(t, -1, nearPt.Z, 1e-6, "near plane")
	assert.InDelta(t, 1, farPt.Z, 1e-6, "far plane")
}

func TestMat4Float32(t *testing.T) {
	f := Translate(V3(1, 2, 3)).Float32()
	assert.Equal(t, []float32{1, 2, 3, 1}, f[12:])
}
