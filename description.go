package shaderscene

// Default shader entry points used when a description does not name them.
const (
	DefaultVertexEntryPoint   = "vs_main"
	DefaultFragmentEntryPoint = "fs_main"
)

// Description is a validated scene description: one generated visual
// effect. Values are produced by Validate; the builder trusts them.
type Description struct {
	// VertexShader and FragmentShader hold WGSL source for the two
	// programmable stages.
	VertexShader   string
	FragmentShader string

	// Entry point names inside the shader sources.
	VertexEntryPoint   string
	FragmentEntryPoint string

	VertexData VertexData
	Uniforms   Uniforms
	Camera     Camera
	Background Background
	Mesh       Mesh
}

// VertexData is the geometry of the single mesh.
type VertexData struct {
	// Positions holds Dimensionality components per vertex.
	Positions []float64

	// Indices references vertices in Positions. Empty means the
	// positions form a non-indexed triangle stream.
	Indices []uint32

	// Dimensionality is 2 or 3. 2D vertices are placed at Z = 0.
	Dimensionality int
}

// VertexCount returns the number of vertices in Positions.
func (v *VertexData) VertexCount() int {
	if v.Dimensionality == 0 {
		return 0
	}
	return len(v.Positions) / v.Dimensionality
}

// Indexed reports whether the geometry is drawn through an index buffer.
func (v *VertexData) Indexed() bool { return len(v.Indices) > 0 }

// Uniforms holds the initial uniform values.
type Uniforms struct {
	// Resolution is the viewport size seen by the shaders. The zero value
	// means the mount point size.
	Resolution [2]float64

	// Time is replaced by the session clock on every frame.
	Time float64

	Color [4]float64
}

// Camera places the perspective camera.
type Camera struct {
	Position [3]float64
	Target   [3]float64
}

// Background is the scene clear colour, RGBA.
type Background struct {
	Color [4]float64
}

// Mesh holds per-mesh transform settings.
type Mesh struct {
	Scale [3]float64
}
