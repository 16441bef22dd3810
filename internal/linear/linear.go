// Package linear implements the small amount of 3D math the scene builder
// needs: vectors, column-major 4x4 matrices, look-at and perspective.
package linear

import "math"

// V3 is a 3-component vector of float32.
type V3 [3]float32

// V4 is a 4-component vector of float32.
type V4 [4]float32

// M4 is a column-major 4x4 matrix of float32.
type M4 [4]V4

// Sub returns v - w.
func Sub(v, w V3) (u V3) {
	for i := range u {
		u[i] = v[i] - w[i]
	}
	return
}

// Dot returns v ⋅ w.
func Dot(v, w V3) (d float32) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// Cross returns v × w.
func Cross(v, w V3) V3 {
	return V3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Len returns the length of v.
func Len(v V3) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// Norm returns v normalized. The zero vector is returned unchanged.
func Norm(v V3) V3 {
	l := Len(v)
	if l == 0 {
		return v
	}
	return V3{v[0] / l, v[1] / l, v[2] / l}
}

// I makes m an identity matrix.
func (m *M4) I() { *m = M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}} }

// Mul sets m to contain l ⋅ r.
func (m *M4) Mul(l, r *M4) {
	var t M4
	for i := range t {
		for j := range t {
			for k := range t {
				t[i][j] += l[k][j] * r[i][k]
			}
		}
	}
	*m = t
}

// Scale sets m to a scale matrix.
func (m *M4) Scale(s V3) {
	*m = M4{{s[0]}, {0, s[1]}, {0, 0, s[2]}, {0, 0, 0, 1}}
}

// Perspective sets m to a right-handed perspective projection with
// depth mapped to [0, 1]. yfov is in radians.
func (m *M4) Perspective(yfov, aspect, znear, zfar float32) {
	ct := float32(1 / math.Tan(float64(yfov)*0.5))
	*m = M4{}
	m[0][0] = ct / aspect
	m[1][1] = ct
	m[2][2] = zfar / (znear - zfar)
	m[2][3] = -1
	m[3][2] = znear * zfar / (znear - zfar)
}

// LookAt sets m to a view matrix placing the eye at eye and
// facing center. When eye and center coincide the eye looks down -Z;
// when the view direction is parallel to up, +Z is used as up instead.
func (m *M4) LookAt(eye, center, up V3) {
	f := Sub(center, eye)
	if Len(f) < 1e-6 {
		f = V3{0, 0, -1}
	}
	f = Norm(f)
	s := Cross(f, up)
	if Len(s) < 1e-6 {
		s = Cross(f, V3{0, 0, 1})
	}
	s = Norm(s)
	u := Cross(s, f)
	*m = M4{
		{s[0], u[0], -f[0], 0},
		{s[1], u[1], -f[1], 0},
		{s[2], u[2], -f[2], 0},
		{-Dot(s, eye), -Dot(u, eye), Dot(f, eye), 1},
	}
}

// Apply returns m ⋅ v.
func (m *M4) Apply(v V4) (u V4) {
	for i := range u {
		for k := range m {
			u[i] += m[k][i] * v[k]
		}
	}
	return
}
