// Package tessellate walks a scene and produces world-space triangle meshes,
// one per mesh object, for hosts that rasterize geometry themselves.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/kiln/pkg/host"
	"github.com/chazu/kiln/pkg/scene"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// degenerateArea is the squared cross-product length below which a
// triangle is dropped.
const degenerateArea = 1e-24

// Rotation returns the rotation matrix for o's Euler XYZ angles (degrees).
func Rotation(o *scene.Object) sdf.M44 {
	xRad := o.Rotation.X * math.Pi / 180.0
	yRad := o.Rotation.Y * math.Pi / 180.0
	zRad := o.Rotation.Z * math.Pi / 180.0

	return sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
}

// Transform returns the object-to-world matrix of o: scale, then rotation,
// then translation.
func Transform(o *scene.Object) sdf.M44 {
	return sdf.Translate3d(o.Location).Mul(Rotation(o)).Mul(sdf.Scale3d(o.Scale))
}

// Tessellate produces one triangle mesh per mesh object in s, ordered by
// object name. Polygons are fan-triangulated and carry flat normals. The
// tessellator is read-only and never mutates the scene.
func Tessellate(s *scene.Scene) ([]*host.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*host.Mesh
	for _, o := range s.Meshes() {
		m, err := tessellateObject(o)
		if err != nil {
			return nil, fmt.Errorf("tessellate: object %q: %w", o.Name, err)
		}
		m.Material = s.MaterialFor(o)
		meshes = append(meshes, m)
	}
	return meshes, nil
}

func tessellateObject(o *scene.Object) (*host.Mesh, error) {
	md := o.Mesh()
	if md.VertexCount() == 0 && md.Source != "" {
		return nil, fmt.Errorf("geometry of %s is held by the host", md.Source)
	}

	xf := Transform(o)
	world := make([]v3.Vec, len(md.Vertices))
	for i, p := range md.Vertices {
		world[i] = xf.MulPosition(v3.Vec{X: p[0], Y: p[1], Z: p[2]})
	}

	m := &host.Mesh{ObjectName: o.Name}
	for fi, face := range md.Faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(world) {
				return nil, fmt.Errorf("face %d references vertex %d, mesh has %d", fi, idx, len(world))
			}
		}
		// Fan triangulation around the first corner.
		for i := 1; i+1 < len(face); i++ {
			a, b, c := world[face[0]], world[face[i]], world[face[i+1]]
			n := b.Sub(a).Cross(c.Sub(a))
			if n.Length2() < degenerateArea {
				continue
			}
			n = n.Normalize()
			base := uint32(m.VertexCount())
			for j, p := range [3]v3.Vec{a, b, c} {
				m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
				m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
				m.Indices = append(m.Indices, base+uint32(j))
			}
		}
	}
	return m, nil
}

// Bounds returns the axis-aligned bounding box of all meshes. ok is false
// when there is no geometry.
func Bounds(meshes []*host.Mesh) (box sdf.Box3, ok bool) {
	for _, m := range meshes {
		for i := 0; i < m.VertexCount(); i++ {
			p := m.Vertex(uint32(i))
			if !ok {
				box = sdf.Box3{Min: p, Max: p}
				ok = true
				continue
			}
			box.Min = box.Min.Min(p)
			box.Max = box.Max.Max(p)
		}
	}
	return box, ok
}
