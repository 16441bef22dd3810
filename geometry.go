package shaderscene

// ExpandPositions converts positions with dim components per vertex into
// tightly packed float32 XYZ triples. 2D vertices are placed at Z = 0.
func ExpandPositions(positions []float64, dim int) []float32 {
	if dim != 2 && dim != 3 {
		return nil
	}
	n := len(positions) / dim
	out := make([]float32, 0, n*3)
	for i := 0; i < n; i++ {
		p := positions[i*dim : i*dim+dim]
		z := float32(0)
		if dim == 3 {
			z = float32(p[2])
		}
		out = append(out, float32(p[0]), float32(p[1]), z)
	}
	return out
}

// vertexStride is the byte size of one expanded vertex.
const vertexStride = 3 * 4
