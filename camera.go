package shaderscene

import (
	"math"

	"github.com/gogpu/shaderscene/internal/linear"
)

// Perspective camera parameters.
const (
	cameraFOV  = 75 * math.Pi / 180
	cameraNear = 0.1
	cameraFar  = 1000
)

// viewProjection returns projection ⋅ view for the camera looking from
// c.Position at c.Target with +Y up, for a viewport of width x height.
func viewProjection(c Camera, width, height uint32) linear.M4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	var proj, view, vp linear.M4
	proj.Perspective(cameraFOV, aspect, cameraNear, cameraFar)
	view.LookAt(v3(c.Position), v3(c.Target), linear.V3{0, 1, 0})
	vp.Mul(&proj, &view)
	return vp
}

// modelMatrix returns the mesh transform.
func modelMatrix(m Mesh) linear.M4 {
	var s linear.M4
	s.Scale(v3(m.Scale))
	return s
}

func v3(a [3]float64) linear.V3 {
	return linear.V3{float32(a[0]), float32(a[1]), float32(a[2])}
}

// newUniformBlock computes the initial uniform contents for desc rendered
// into a width x height surface.
func newUniformBlock(desc *Description, width, height uint32) uniformBlock {
	u := uniformBlock{
		viewProj: viewProjection(desc.Camera, width, height),
		model:    modelMatrix(desc.Mesh),
		time:     float32(desc.Uniforms.Time),
	}
	for i, c := range desc.Uniforms.Color {
		u.color[i] = float32(c)
	}
	res := desc.Uniforms.Resolution
	if res == ([2]float64{}) {
		res = [2]float64{float64(width), float64(height)}
	}
	u.resolution = [2]float32{float32(res[0]), float32(res[1])}
	return u
}
