package host

import (
	"github.com/chazu/kiln/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a world-space triangle mesh suitable for rasterizing.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices   []float32      `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals    []float32      `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices    []uint32       `json:"indices"`  // [i0,i1,i2, ...] triangles
	ObjectName string         `json:"objectName"`
	Material   scene.Material `json:"material"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i as a vector.
func (m *Mesh) Vertex(i uint32) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

// Normal returns the normal of vertex i.
func (m *Mesh) Normal(i uint32) v3.Vec {
	return v3.Vec{
		X: float64(m.Normals[3*i]),
		Y: float64(m.Normals[3*i+1]),
		Z: float64(m.Normals[3*i+2]),
	}
}

// Triangle returns the corners of triangle t.
func (m *Mesh) Triangle(t int) [3]v3.Vec {
	return [3]v3.Vec{
		m.Vertex(m.Indices[3*t]),
		m.Vertex(m.Indices[3*t+1]),
		m.Vertex(m.Indices[3*t+2]),
	}
}
