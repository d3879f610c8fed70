package tessellate_test

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/kiln/pkg/scene"
	"github.com/chazu/kiln/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const eps = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

// unitQuad returns a unit square in the XY plane as one quad face.
func unitQuad() ([][3]float64, [][]int) {
	return [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, [][]int{{0, 1, 2, 3}}
}

func TestSingleQuad(t *testing.T) {
	s := scene.New()
	verts, faces := unitQuad()
	s.NewMesh("quad", verts, faces)

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.ObjectName != "quad" {
		t.Errorf("expected ObjectName %q, got %q", "quad", m.ObjectName)
	}
	// A quad fans into two triangles.
	if m.TriangleCount() != 2 {
		t.Fatalf("expected 2 triangles, got %d", m.TriangleCount())
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	for i := 0; i < m.VertexCount(); i++ {
		n := m.Normal(uint32(i))
		if !near(n.Z, 1) {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
	if m.Material != scene.DefaultMaterial {
		t.Errorf("expected default material, got %+v", m.Material)
	}
}

func TestFanTriangulation(t *testing.T) {
	s := scene.New()
	// Regular hexagon: 6 corners fan into 4 triangles.
	var verts [][3]float64
	var face []int
	for i := 0; i < 6; i++ {
		a := float64(i) * math.Pi / 3
		verts = append(verts, [3]float64{math.Cos(a), math.Sin(a), 0})
		face = append(face, i)
	}
	s.NewMesh("hex", verts, [][]int{face})

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := meshes[0].TriangleCount(); got != 4 {
		t.Errorf("expected 4 triangles, got %d", got)
	}
}

func TestTransformApplied(t *testing.T) {
	s := scene.New()
	verts, faces := unitQuad()
	o := s.NewMesh("quad", verts, faces)
	o.Scale = v3.Vec{X: 2, Y: 2, Z: 2}
	o.Location = v3.Vec{X: 10, Y: 0, Z: 5}

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatal(err)
	}
	box, ok := tessellate.Bounds(meshes)
	if !ok {
		t.Fatal("expected bounds")
	}
	if !near(box.Min.X, 10) || !near(box.Max.X, 12) || !near(box.Max.Y, 2) || !near(box.Min.Z, 5) {
		t.Errorf("bounds = %v", box)
	}
}

func TestRotationAboutX(t *testing.T) {
	s := scene.New()
	verts, faces := unitQuad()
	o := s.NewMesh("quad", verts, faces)
	o.Rotation = v3.Vec{X: 90}

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatal(err)
	}
	// Rotating the XY quad 90 degrees about X moves +Y onto +Z, so the
	// face normal becomes -Y.
	n := meshes[0].Normal(0)
	if !near(n.Y, -1) {
		t.Errorf("normal = %v, want -Y", n)
	}
	box, _ := tessellate.Bounds(meshes)
	if !near(box.Max.Z, 1) || !near(box.Max.Y, 0) {
		t.Errorf("bounds = %v", box)
	}
}

func TestDegenerateTrianglesDropped(t *testing.T) {
	s := scene.New()
	verts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 1, 0}}
	s.NewMesh("line", verts, [][]int{{0, 1, 2}, {0, 1, 3}, {0, 1}})

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := meshes[0].TriangleCount(); got != 1 {
		t.Errorf("expected 1 triangle, got %d", got)
	}
}

func TestOutOfRangeIndex(t *testing.T) {
	s := scene.New()
	verts, _ := unitQuad()
	s.NewMesh("bad", verts, [][]int{{0, 1, 7}})

	_, err := tessellate.Tessellate(s)
	if err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if !strings.Contains(err.Error(), `"bad"`) {
		t.Errorf("error should name the object: %v", err)
	}
}

func TestHostGeometryRejected(t *testing.T) {
	s := scene.New()
	s.NewImportedMesh("Teapot", "teapot.obj")
	if _, err := tessellate.Tessellate(s); err == nil {
		t.Fatal("expected error for host-held geometry")
	}
}

func TestMaterialResolved(t *testing.T) {
	s := scene.New()
	verts, faces := unitQuad()
	s.NewMesh("quad", verts, faces)
	s.NewMaterial(scene.Material{Name: "Glaze", BaseColor: scene.RGBA(0, 0.33, 1, 1), Roughness: 0.4})
	if _, err := s.AssignMaterial("Glaze"); err != nil {
		t.Fatal(err)
	}

	meshes, err := tessellate.Tessellate(s)
	if err != nil {
		t.Fatal(err)
	}
	if meshes[0].Material.Name != "Glaze" {
		t.Errorf("material = %+v", meshes[0].Material)
	}
}

func TestNilAndEmptyScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil)
	if err != nil || meshes != nil {
		t.Errorf("Tessellate(nil) = %v, %v", meshes, err)
	}
	meshes, err = tessellate.Tessellate(scene.New())
	if err != nil || len(meshes) != 0 {
		t.Errorf("Tessellate(empty) = %v, %v", meshes, err)
	}
	if _, ok := tessellate.Bounds(meshes); ok {
		t.Error("empty meshes should have no bounds")
	}
}
