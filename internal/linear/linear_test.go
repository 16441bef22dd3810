package linear

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestCross(t *testing.T) {
	got := Cross(V3{1, 0, 0}, V3{0, 1, 0})
	if got != (V3{0, 0, 1}) {
		t.Errorf("Cross(x, y) = %v, want (0, 0, 1)", got)
	}
}

func TestNormZero(t *testing.T) {
	if got := Norm(V3{}); got != (V3{}) {
		t.Errorf("Norm(0) = %v, want 0", got)
	}
}

func TestMulIdentity(t *testing.T) {
	var id, s, m M4
	id.I()
	s.Scale(V3{2, 3, 4})
	m.Mul(&id, &s)
	if m != s {
		t.Errorf("I ⋅ S = %v, want %v", m, s)
	}
}

func TestLookAtMovesTargetOntoNegativeZ(t *testing.T) {
	var v M4
	v.LookAt(V3{0, 0, 2}, V3{0, 0, 0}, V3{0, 1, 0})
	p := v.Apply(V4{0, 0, 0, 1})
	if !near(p[0], 0) || !near(p[1], 0) || !near(p[2], -2) {
		t.Errorf("origin in view space = %v, want (0, 0, -2)", p)
	}
}

func TestLookAtDegenerate(t *testing.T) {
	var v M4
	v.LookAt(V3{1, 1, 1}, V3{1, 1, 1}, V3{0, 1, 0})
	for i := range v {
		for j := range v[i] {
			if math.IsNaN(float64(v[i][j])) {
				t.Fatalf("LookAt with eye == center produced NaN: %v", v)
			}
		}
	}
	v.LookAt(V3{0, 5, 0}, V3{0, 0, 0}, V3{0, 1, 0})
	for i := range v {
		for j := range v[i] {
			if math.IsNaN(float64(v[i][j])) {
				t.Fatalf("LookAt along up produced NaN: %v", v)
			}
		}
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	var p M4
	p.Perspective(75*math.Pi/180, 1, 0.1, 1000)
	n := p.Apply(V4{0, 0, -0.1, 1})
	f := p.Apply(V4{0, 0, -1000, 1})
	if !near(n[2]/n[3], 0) {
		t.Errorf("near plane depth = %v, want 0", n[2]/n[3])
	}
	if math.Abs(float64(f[2]/f[3]-1)) > 1e-3 {
		t.Errorf("far plane depth = %v, want 1", f[2]/f[3])
	}
}
