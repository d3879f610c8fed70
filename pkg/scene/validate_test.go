package scene_test

import (
	"math"
	"testing"

	"github.com/chazu/kiln/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestValidateMeshValid(t *testing.T) {
	s := scene.New()
	verts, faces := square()
	o := s.NewMesh("Square", verts, faces)
	if errs := scene.ValidateMesh(o); len(errs) != 0 {
		t.Errorf("expected no findings, got %v", errs)
	}
}

func TestValidateMeshFindings(t *testing.T) {
	tests := []struct {
		name      string
		verts     [][3]float64
		faces     [][]int
		wantError bool
		wantCount int
	}{
		{
			name:      "index out of range",
			verts:     [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			faces:     [][]int{{0, 1, 3}},
			wantError: true,
			wantCount: 1,
		},
		{
			name:      "negative index",
			verts:     [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			faces:     [][]int{{-2, 0, 1}},
			wantError: true,
			wantCount: 1,
		},
		{
			name:      "degenerate face",
			verts:     [][3]float64{{0, 0, 0}, {1, 0, 0}},
			faces:     [][]int{{0, 1}},
			wantError: false,
			wantCount: 1,
		},
		{
			name:      "nan vertex",
			verts:     [][3]float64{{math.NaN(), 0, 0}, {1, 0, 0}, {0, 1, 0}},
			faces:     [][]int{{0, 1, 2}},
			wantError: true,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.New()
			o := s.NewMesh("M", tt.verts, tt.faces)
			errs := scene.ValidateMesh(o)
			if len(errs) != tt.wantCount {
				t.Fatalf("got %d findings, want %d: %v", len(errs), tt.wantCount, errs)
			}
			if scene.HasErrors(errs) != tt.wantError {
				t.Errorf("HasErrors = %v, want %v", scene.HasErrors(errs), tt.wantError)
			}
		})
	}
}

func TestValidateMeshSkipsHostGeometry(t *testing.T) {
	s := scene.New()
	o := s.NewImportedMesh("Teapot", "/tmp/teapot.obj")
	if errs := scene.ValidateMesh(o); len(errs) != 0 {
		t.Errorf("expected no findings, got %v", errs)
	}
}

func TestValidateScene(t *testing.T) {
	s := scene.New()
	errs := scene.Validate(s)
	if !scene.HasErrors(errs) {
		t.Fatal("scene without camera should fail validation")
	}

	s.AddCamera("Camera", scene.CameraData{}, v3.Vec{Z: 3})
	if err := s.SetCamera("Camera"); err != nil {
		t.Fatal(err)
	}
	s.AddLight("Sun", scene.LightData{Energy: 1}, v3.Vec{Z: 5})
	if errs := scene.Validate(s); len(errs) != 0 {
		t.Errorf("expected valid scene, got %v", errs)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := scene.ValidationError{Object: "Teapot", Message: "bad", Severity: scene.SeverityError}
	if got := e.Error(); got != `[error] object "Teapot": bad` {
		t.Errorf("Error() = %q", got)
	}
	e2 := scene.ValidationError{Message: "no camera", Severity: scene.SeverityWarning}
	if got := e2.Error(); got != "[warning] no camera" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRenderSettingsValidate(t *testing.T) {
	ok := scene.DefaultRenderSettings()
	ok.FilePath = "icon-512.png"
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*scene.RenderSettings)
	}{
		{"no path", func(rs *scene.RenderSettings) { rs.FilePath = "" }},
		{"zero width", func(rs *scene.RenderSettings) { rs.ResolutionX = 0 }},
		{"zero samples", func(rs *scene.RenderSettings) { rs.Samples = 0 }},
		{"jpeg", func(rs *scene.RenderSettings) { rs.FileFormat = "JPEG" }},
		{"rgb", func(rs *scene.RenderSettings) { rs.ColorMode = "RGB" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := ok
			tt.mutate(&rs)
			if err := rs.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
