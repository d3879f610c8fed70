package engine

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/kiln/pkg/host"
	"github.com/chazu/kiln/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(load-obj "teapot.obj" :name "Teapot")`,
			expect: `(load_obj "teapot.obj" "__kw_name" "Teapot")`,
		},
		{
			name:   "multiple keywords",
			input:  `(sun-light "Key" :energy 2 :location v)`,
			expect: `(sun_light "Key" "__kw_energy" 2 "__kw_location" v)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -5 -5 -5)`,
			expect: `(vec3 -5 -5 -5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:base-color`,
			expect: `"__kw_base-color"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// run evaluates source against a recording host and fails the test on any
// error.
func run(t *testing.T, h *recordingHost, source string) *Result {
	t.Helper()
	eng := newTestEngine(t, h)
	res, evalErrs, err := eng.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return res
}

// runExpectEvalError evaluates source and requires an EvalError.
func runExpectEvalError(t *testing.T, source string) {
	t.Helper()
	eng := newTestEngine(t, &recordingHost{})
	_, evalErrs, err := eng.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("expected eval error, got fatal: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors, got none")
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ---------------------------------------------------------------------------
// Scene builtins
// ---------------------------------------------------------------------------

func TestWorldBackground(t *testing.T) {
	res := run(t, &recordingHost{}, `(world-background (rgba 0.2 0.2 0.2 1.0))`)
	if got := res.Scene.World.Background; got != scene.RGBA(0.2, 0.2, 0.2, 1) {
		t.Errorf("background = %+v", got)
	}

	res = run(t, &recordingHost{}, `(world-background (list 0.5 0.5 0.5))`)
	if got := res.Scene.World.Background; got != scene.RGBA(0.5, 0.5, 0.5, 1) {
		t.Errorf("background from list = %+v, want alpha defaulted to 1", got)
	}
}

func TestSunLight(t *testing.T) {
	res := run(t, &recordingHost{}, `
(sun-light "MainLight" :energy 2.0 :location (vec3 5 5 5))
(sun-light "AmbientLight" :energy 0.8 :location (vec3 -5 -5 -5) :color (rgba 1 0.9 0.8))
`)
	main := res.Scene.Lookup("MainLight")
	if main == nil || main.Kind != scene.ObjectLight {
		t.Fatalf("MainLight = %+v", main)
	}
	if main.Light().Type != scene.LightSun || main.Light().Energy != 2 {
		t.Errorf("MainLight data = %+v", main.Light())
	}
	if main.Location != (v3.Vec{X: 5, Y: 5, Z: 5}) {
		t.Errorf("MainLight location = %v", main.Location)
	}
	amb := res.Scene.Lookup("AmbientLight")
	if amb.Location != (v3.Vec{X: -5, Y: -5, Z: -5}) {
		t.Errorf("AmbientLight location = %v", amb.Location)
	}
	if amb.Light().Color.G != 0.9 {
		t.Errorf("AmbientLight color = %+v", amb.Light().Color)
	}
}

func TestSunLightErrors(t *testing.T) {
	runExpectEvalError(t, `(sun-light)`)
	runExpectEvalError(t, `(sun-light "Key" :energy "lots")`)
	runExpectEvalError(t, `(sun-light "Key" :energy -1)`)
	runExpectEvalError(t, `(sun-light "Key" :location 5)`)
}

func TestCamera(t *testing.T) {
	res := run(t, &recordingHost{}, `(camera "Camera" :location (vec3 0 0 3) :lens 35)`)
	cam := res.Scene.ActiveCamera()
	if cam == nil || cam.Name != "Camera" {
		t.Fatalf("active camera = %+v", cam)
	}
	if cam.Location != (v3.Vec{Z: 3}) {
		t.Errorf("location = %v", cam.Location)
	}
	if cam.Camera().Lens != 35 || cam.Camera().SensorWidth != scene.DefaultSensorWidth {
		t.Errorf("camera data = %+v", cam.Camera())
	}
}

func TestCameraInactive(t *testing.T) {
	res := run(t, &recordingHost{}, `
(camera "Main")
(camera "Spare" :active false)
`)
	if cam := res.Scene.ActiveCamera(); cam == nil || cam.Name != "Main" {
		t.Errorf("active camera = %+v, want Main", cam)
	}
}

func TestMaterialAndAssign(t *testing.T) {
	res := run(t, &recordingHost{}, `
(def m (material "TeapotMaterial" :base-color (rgba 0.0 0.33 1.0 1.0) :roughness 0.4))
(assign-material m)
`)
	m := res.Scene.Material("TeapotMaterial")
	if m == nil {
		t.Fatal("material not registered")
	}
	if m.BaseColor != scene.RGBA(0, 0.33, 1, 1) || m.Roughness != 0.4 || m.Metallic != 0 {
		t.Errorf("material = %+v", m)
	}
}

func TestMaterialDefaults(t *testing.T) {
	res := run(t, &recordingHost{}, `(material "Plain")`)
	m := res.Scene.Material("Plain")
	if m.BaseColor != scene.DefaultMaterial.BaseColor || m.Roughness != scene.DefaultMaterial.Roughness {
		t.Errorf("material = %+v, want default values", m)
	}
}

func TestMaterialErrors(t *testing.T) {
	runExpectEvalError(t, `(material "M" :roughness 2)`)
	runExpectEvalError(t, `(material "M" :base-color 3)`)
	runExpectEvalError(t, `(assign-material "Missing")`)
}

func TestLoadObjAssignAndScale(t *testing.T) {
	dir := t.TempDir()
	obj := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"
	if err := os.WriteFile(filepath.Join(dir, "teapot.obj"), []byte(obj), 0o644); err != nil {
		t.Fatal(err)
	}
	h := &recordingHost{importErr: host.ErrImporterUnavailable}
	eng, err := NewEngine(Options{Host: h, Dir: dir})
	if err != nil {
		t.Fatal(err)
	}

	res, evalErrs, err := eng.Run(context.Background(), `
(clear-scene)
(load-obj "teapot.obj" :name "Teapot")
(material "TeapotMaterial" :base-color (rgba 0.0 0.33 1.0 1.0) :roughness 0.4)
(assign-material "TeapotMaterial")
(scale-selected 0.015)
`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("run failed: %v %v", err, evalErrs)
	}

	teapot := res.Scene.Lookup("Teapot")
	if teapot == nil {
		t.Fatal("Teapot not in scene")
	}
	md := teapot.Mesh()
	if md.VertexCount() != 4 || md.FaceCount() != 1 {
		t.Errorf("mesh = %d vertices / %d faces, want 4 / 1", md.VertexCount(), md.FaceCount())
	}
	if len(md.Materials) != 1 || md.Materials[0] != "TeapotMaterial" {
		t.Errorf("materials = %v", md.Materials)
	}
	if !near(teapot.Scale.X, 0.015) || !near(teapot.Scale.Z, 0.015) {
		t.Errorf("scale = %v", teapot.Scale)
	}
	if len(res.Loads) != 1 || !res.Loads[0].Fallback {
		t.Errorf("loads = %+v, want one fallback load", res.Loads)
	}
}

func TestLoadObjMissingFileIsFatal(t *testing.T) {
	h := &recordingHost{importErr: host.ErrImporterUnavailable}
	eng := newTestEngine(t, h)
	_, _, err := eng.Run(context.Background(), `(load-obj "missing.obj")`)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestClearScene(t *testing.T) {
	res := run(t, &recordingHost{}, `
(sun-light "A")
(camera "C")
(material "M")
(clear-scene)
`)
	if res.Scene.ObjectCount() != 0 {
		t.Errorf("objects after clear = %d, want 0", res.Scene.ObjectCount())
	}
	if res.Scene.Material("M") == nil {
		t.Error("clear-scene should keep material data-blocks")
	}
}

func TestObjectAndTransform(t *testing.T) {
	res := run(t, &recordingHost{}, `
(sun-light "Key")
(transform (object "Key") :rotation (vec3 90 0 0) :location (list 1 2 3))
(transform "Key" :scale 2)
`)
	key := res.Scene.Lookup("Key")
	if key.Rotation != (v3.Vec{X: 90}) || key.Location != (v3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("transform not applied: %+v", key)
	}
	if key.Scale != (v3.Vec{X: 2, Y: 2, Z: 2}) {
		t.Errorf("scale = %v", key.Scale)
	}
	runExpectEvalError(t, `(object "Nope")`)
}

// ---------------------------------------------------------------------------
// Render builtins
// ---------------------------------------------------------------------------

func TestRenderSettingsAndRender(t *testing.T) {
	h := &recordingHost{}
	res := run(t, h, `
(render-settings :engine :cycles :samples 128 :format "png" :color-mode "RGBA")
(resolution 512 512)
(output "icon-512.png")
(render)
(render :size 192 :out "icon-192.png")
(render :size 512 :out "icon-maskable-512.png" :maskable true)
(render :size 192 :out "icon-maskable-192.png" :maskable true)
(render :size 64 :out "after.png")
`)
	if len(h.renders) != 5 {
		t.Fatalf("renders = %d, want 5", len(h.renders))
	}
	want := []struct {
		file     string
		size     int
		maskable bool
	}{
		{"icon-512.png", 512, false},
		{"icon-192.png", 192, false},
		{"icon-maskable-512.png", 512, true},
		{"icon-maskable-192.png", 192, true},
		{"after.png", 64, false},
	}
	for i, w := range want {
		rs := h.renders[i]
		if filepath.Base(rs.FilePath) != w.file {
			t.Errorf("render %d file = %q, want %q", i, rs.FilePath, w.file)
		}
		if rs.ResolutionX != w.size || rs.ResolutionY != w.size {
			t.Errorf("render %d size = %dx%d, want %d", i, rs.ResolutionX, rs.ResolutionY, w.size)
		}
		if rs.Maskable != w.maskable {
			t.Errorf("render %d maskable = %v, want %v", i, rs.Maskable, w.maskable)
		}
		if rs.Engine != "CYCLES" || rs.Samples != 128 || rs.FileFormat != "PNG" || rs.ColorMode != "RGBA" {
			t.Errorf("render %d settings = %+v", i, rs)
		}
		if res.Outputs[i].Maskable != w.maskable || res.Outputs[i].Width != w.size {
			t.Errorf("output %d = %+v", i, res.Outputs[i])
		}
	}
}

func TestRenderMaskableSetting(t *testing.T) {
	h := &recordingHost{}
	run(t, h, `
(render-settings :maskable true)
(render :size 8 :out "a.png")
(render :size 8 :out "b.png" :maskable false)
`)
	if !h.renders[0].Maskable || h.renders[1].Maskable {
		t.Errorf("maskable = %v, %v; want true, false", h.renders[0].Maskable, h.renders[1].Maskable)
	}
}

func TestResolutionSingleArgument(t *testing.T) {
	res := run(t, &recordingHost{}, `(resolution 192)`)
	if res.Scene.Render.ResolutionX != 192 || res.Scene.Render.ResolutionY != 192 {
		t.Errorf("resolution = %dx%d", res.Scene.Render.ResolutionX, res.Scene.Render.ResolutionY)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "no output", source: `(render)`},
		{name: "jpeg", source: `(render-settings :format "JPEG") (render :out "x.jpg")`},
		{name: "rgb", source: `(render-settings :color-mode "RGB") (render :out "x.png")`},
		{name: "zero size", source: `(render :size 0 :out "x.png")`},
		{name: "fractional size", source: `(render :size 1.5 :out "x.png")`},
		{name: "positional", source: `(render "x.png")`},
		{name: "bad maskable", source: `(render :out "x.png" :maskable 1)`},
		{name: "bad resolution", source: `(resolution "big")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runExpectEvalError(t, tt.source)
		})
	}
}

func TestVec3AndRGBAArity(t *testing.T) {
	runExpectEvalError(t, `(vec3 1 2)`)
	runExpectEvalError(t, `(vec3 1 2 "z")`)
	runExpectEvalError(t, `(rgba 1 2)`)
}

func TestArithmeticStillWorks(t *testing.T) {
	res := run(t, &recordingHost{}, `
(def size (* 2 96))
(resolution size)
`)
	if res.Scene.Render.ResolutionX != 192 {
		t.Errorf("resolution = %d, want 192", res.Scene.Render.ResolutionX)
	}
}

func TestWarningsCollected(t *testing.T) {
	res := run(t, &recordingHost{}, `(camera "C")`)
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one (no lights)", res.Warnings)
	}
}

func TestHooksFollowScriptOrder(t *testing.T) {
	var events []string
	eng, err := NewEngine(Options{
		Host: &recordingHost{},
		Dir:  t.TempDir(),
		OnLoad: func(l Load) {
			events = append(events, "load "+l.Name)
		},
		OnRender: func(o Output) {
			events = append(events, "render "+filepath.Base(o.Path))
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, evalErrs, err := eng.Run(context.Background(), `
(import-obj "teapot.obj" :name "Teapot")
(render :size 8 :out "a.png")
(import-obj "lid.obj" :name "Lid")
(render :size 8 :out "b.png")
`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("run failed: %v %v", err, evalErrs)
	}
	want := []string{"load Teapot", "render a.png", "load Lid", "render b.png"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}
