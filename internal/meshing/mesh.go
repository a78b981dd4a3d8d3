package meshing

import (
	"sync"

	"planet-lod/internal/terrain"
)

// Mesh is the renderable patch of one chunk. Positions are relative to Origin
// to keep float32 precision on large planets.
type Mesh struct {
	Key      ChunkKey
	Origin   [3]float64
	Segments int

	Positions []float32 // xyz
	Normals   []float32 // xyz, outward
	UVs       []float32 // uv in [0,1] across the chunk
	Elevation []float32 // one scalar per vertex, normalized height
	Weights   []float32 // low, mid, high texture weights per vertex
	Indices   []uint32  // shared between meshes of equal Segments; read-only

	Textures terrain.TextureSet
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Elevation)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

var indexCache sync.Map // segments -> []uint32

// GridIndices returns the triangle list of a segments×segments vertex grid.
// The slice is shared and must not be modified.
func GridIndices(segments int) []uint32 {
	if v, ok := indexCache.Load(segments); ok {
		return v.([]uint32)
	}
	cells := segments - 1
	idx := make([]uint32, 0, cells*cells*6)
	for j := range cells {
		for i := range cells {
			a := uint32(j*segments + i)
			b := a + uint32(segments) // +v
			c := a + 1                // +u
			d := b + 1
			// counter-clockwise seen from outside the planet
			idx = append(idx, a, b, c, c, b, d)
		}
	}
	v, _ := indexCache.LoadOrStore(segments, idx)
	return v.([]uint32)
}
