package math

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func nearVec(a, b [3]float32) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   [3]float32
		want [3]float32
	}{
		{"identity", Identity(), [3]float32{1, 2, 3}, [3]float32{1, 2, 3}},
		{"translate", Translate(1, -2, 3), [3]float32{1, 1, 1}, [3]float32{2, -1, 4}},
		{"scale", Scale(2, 2, 2), [3]float32{1, 2, 3}, [3]float32{2, 4, 6}},
		{"rotate y 90", RotateAxis([3]float32{0, 1, 0}, math.Pi/2), [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{"translate after scale", Translate(1, 0, 0).Mul(Scale(2, 2, 2)), [3]float32{1, 1, 1}, [3]float32{3, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.in); !nearVec(got, tt.want) {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	got := Translate(5, 5, 5).TransformDirection([3]float32{0, 1, 0})
	if got != [3]float32{0, 1, 0} {
		t.Errorf("TransformDirection = %v", got)
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3).Mul(Scale(4, 5, 6))
	if got := m.Mul(Identity()); got != m {
		t.Errorf("m * I = %v, want %v", got, m)
	}
	if got := Identity().Mul(m); got != m {
		t.Errorf("I * m = %v, want %v", got, m)
	}
}

func TestFromMat3x3(t *testing.T) {
	m := FromMat3x3([9]float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if m[0] != 1 || m[1] != 2 || m[2] != 3 || m[4] != 4 || m[10] != 9 || m[15] != 1 {
		t.Errorf("FromMat3x3 = %v", m)
	}
	if m[3] != 0 || m[12] != 0 {
		t.Errorf("FromMat3x3 leaked into w row/column: %v", m)
	}
}

func TestVectorHelpers(t *testing.T) {
	if got := Cross([3]float32{1, 0, 0}, [3]float32{0, 1, 0}); got != [3]float32{0, 0, 1} {
		t.Errorf("Cross = %v", got)
	}
	if got := Normalize([3]float32{0, 0, 4}); got != [3]float32{0, 0, 1} {
		t.Errorf("Normalize = %v", got)
	}
	if got := Normalize([3]float32{}); got != [3]float32{0, 1, 0} {
		t.Errorf("Normalize(zero) = %v", got)
	}
	if got := Length([3]float32{3, 4, 0}); got != 5 {
		t.Errorf("Length = %v", got)
	}
}

func TestQuat(t *testing.T) {
	q := QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/2)
	if !near(q.W, float32(math.Cos(math.Pi/4))) || !near(q.Y, float32(math.Sin(math.Pi/4))) {
		t.Errorf("QuatFromAxisAngle = %+v", q)
	}

	n := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()
	if !near(n.Dot(n), 1) {
		t.Errorf("Normalize length^2 = %v", n.Dot(n))
	}
	if got := (Quat{}).Normalize(); got != QuatIdentity() {
		t.Errorf("Normalize(zero) = %+v", got)
	}

	id := QuatIdentity()
	if got := id.Slerp(q, 0); !near(got.W, id.W) {
		t.Errorf("Slerp(0).W = %v", got.W)
	}
	if got := id.Slerp(q, 1); !near(got.W, q.W) || !near(got.Y, q.Y) {
		t.Errorf("Slerp(1) = %+v, want %+v", got, q)
	}
	if got := id.Slerp(q, 0.5); !near(got.W, float32(math.Cos(math.Pi/8))) {
		t.Errorf("Slerp(0.5).W = %v", got.W)
	}

	// The matrix form must agree with RotateAxis.
	want := RotateAxis([3]float32{0, 1, 0}, math.Pi/2).TransformPoint([3]float32{1, 0, 0})
	if got := q.ToMat4().TransformPoint([3]float32{1, 0, 0}); !nearVec(got, want) {
		t.Errorf("ToMat4 rotate = %v, want %v", got, want)
	}
}

func TestLerpVec3(t *testing.T) {
	got := LerpVec3([3]float32{}, [3]float32{10, 20, 30}, 0.5)
	if !nearVec(got, [3]float32{5, 10, 15}) {
		t.Errorf("LerpVec3 = %v", got)
	}
}
