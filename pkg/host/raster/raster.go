// Package raster implements host.Host with a pure-Go software rasterizer
// (github.com/fogleman/fauxgl). It needs no external programs, which makes
// it the default backend.
package raster

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chazu/kiln/pkg/host"
	"github.com/chazu/kiln/pkg/icon"
	"github.com/chazu/kiln/pkg/logging"
	"github.com/chazu/kiln/pkg/scene"
	"github.com/chazu/kiln/pkg/tessellate"
	"github.com/fogleman/fauxgl"
)

// Compile-time interface check.
var _ host.Host = (*Raster)(nil)

// Defaults for Options.
const (
	DefaultMaxSupersample = 4
	DefaultSmoothAngle    = 30.0
)

// Options configures a Raster host.
type Options struct {
	// DisableImporter makes ImportOBJ fail with host.ErrImporterUnavailable,
	// forcing the fallback parser.
	DisableImporter bool
	// MaxSupersample caps the per-axis supersampling factor derived from
	// the render sample count.
	MaxSupersample int
	// SmoothAngle is the crease angle in degrees below which vertex normals
	// are averaged. Zero keeps flat shading.
	SmoothAngle float64
}

// Raster renders scenes on the CPU.
type Raster struct {
	opts Options
}

// New returns a Raster host. Zero options take the package defaults.
func New(opts Options) *Raster {
	if opts.MaxSupersample <= 0 {
		opts.MaxSupersample = DefaultMaxSupersample
	}
	return &Raster{opts: opts}
}

// Name returns "raster".
func (r *Raster) Name() string {
	return "raster"
}

// ImportOBJ loads path with fauxgl's OBJ loader. The loader triangulates
// polygons; coincident corners are welded back into shared vertices.
func (r *Raster) ImportOBJ(ctx context.Context, s *scene.Scene, path, name string) (*scene.Object, error) {
	if r.opts.DisableImporter {
		return nil, host.ErrImporterUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := fauxgl.LoadOBJ(path)
	if err != nil {
		return nil, fmt.Errorf("raster: import %s: %w", path, err)
	}
	if len(m.Triangles) == 0 {
		return nil, fmt.Errorf("raster: import %s: no triangles", path)
	}

	verts, faces := weld(m.Triangles)
	o := s.NewMesh(name, verts, faces)
	o.Mesh().Source = path
	return o, nil
}

// weld converts a triangle soup into indexed geometry, merging corners with
// identical positions.
func weld(tris []*fauxgl.Triangle) ([][3]float64, [][]int) {
	index := make(map[fauxgl.Vector]int)
	var verts [][3]float64
	faces := make([][]int, 0, len(tris))

	lookup := func(p fauxgl.Vector) int {
		if i, ok := index[p]; ok {
			return i
		}
		i := len(verts)
		index[p] = i
		verts = append(verts, [3]float64{p.X, p.Y, p.Z})
		return i
	}
	for _, t := range tris {
		faces = append(faces, []int{
			lookup(t.V1.Position),
			lookup(t.V2.Position),
			lookup(t.V3.Position),
		})
	}
	return verts, faces
}

// Render rasterizes the scene at a supersampled resolution, reduces it to
// the requested size and writes the icon.
func (r *Raster) Render(ctx context.Context, s *scene.Scene) error {
	rs := s.Render
	if err := rs.Validate(); err != nil {
		return fmt.Errorf("raster: %w", err)
	}
	cam := s.ActiveCamera()
	if cam == nil {
		return errors.New("raster: scene has no active camera")
	}
	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		return fmt.Errorf("raster: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ss := r.supersample(rs.Samples)
	w, h := rs.ResolutionX*ss, rs.ResolutionY*ss
	logging.LogDebug("raster: %s at %dx%d (%dx supersampling), %d meshes", rs.FilePath, w, h, ss, len(meshes))

	dc := fauxgl.NewContext(w, h)
	dc.Cull = fauxgl.CullNone
	dc.ClearColorBufferWith(encode(s.World.Background))
	dc.ClearDepthBuffer()

	matrix := viewProjection(cam, float64(w)/float64(h))
	suns := sunLights(s)
	for _, m := range meshes {
		if m.IsEmpty() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		dc.Shader = newSunShader(matrix, cam.Location, suns, m.Material, s.World.Background)
		dc.DrawMesh(toFauxgl(m, r.opts.SmoothAngle))
	}

	img := icon.Downscale(dc.Image(), rs.ResolutionX, rs.ResolutionY)
	return host.WriteIcon(s, img)
}

// supersample maps a sample count to a per-axis supersampling factor:
// 128 samples ≈ 11×11, capped at MaxSupersample.
func (r *Raster) supersample(samples int) int {
	f := int(math.Ceil(math.Sqrt(float64(samples))))
	if f < 1 {
		f = 1
	}
	if f > r.opts.MaxSupersample {
		f = r.opts.MaxSupersample
	}
	return f
}

// toFauxgl converts a host mesh into a fauxgl mesh.
func toFauxgl(m *host.Mesh, smoothAngle float64) *fauxgl.Mesh {
	tris := make([]*fauxgl.Triangle, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := &fauxgl.Triangle{}
		corners := []*fauxgl.Vertex{&tri.V1, &tri.V2, &tri.V3}
		for j, v := range corners {
			i := m.Indices[3*t+j]
			p, n := m.Vertex(i), m.Normal(i)
			v.Position = fauxgl.V(p.X, p.Y, p.Z)
			v.Normal = fauxgl.V(n.X, n.Y, n.Z)
		}
		tris = append(tris, tri)
	}
	fm := fauxgl.NewTriangleMesh(tris)
	if smoothAngle > 0 {
		fm.SmoothNormalsThreshold(fauxgl.Radians(smoothAngle))
	}
	return fm
}
