// Package terrain provides heightfield synthesis and LOD mesh building for
// streamed terrain chunks. Everything here is pure: functions read their
// inputs, allocate fresh outputs, and never touch shared state, so they are
// safe to call from worker goroutines.
package terrain

// Vertex represents a terrain mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds the geometry for one chunk at one detail level. A Mesh is never
// modified after BuildMesh returns it.
type Mesh struct {
	Level    int
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of a mesh in chunk-local space.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// HeightField is a square grid of elevation samples for one chunk.
// Values is indexed [x][z]. The outermost ring of samples is a border that
// only feeds normal calculation; it is not meshed.
type HeightField struct {
	Values [][]float32
	Size   int
	Min    float32
	Max    float32
}

// At returns the height sample at (x, z).
func (h *HeightField) At(x, z int) float32 {
	return h.Values[x][z]
}

// ChunkSize returns the number of meshed cells along one edge.
func (h *HeightField) ChunkSize() int {
	return h.Size - 3
}
