package scene

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Color
// ---------------------------------------------------------------------------

// Color is a linear-space RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// RGBA returns a Color from its components.
func RGBA(r, g, b, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// ---------------------------------------------------------------------------
// Mesh
// ---------------------------------------------------------------------------

// MeshData holds polygon geometry. Faces index into Vertices (zero-based).
// Source records the file the geometry came from, if any; a mesh whose
// Vertices are empty but whose Source is set was imported by a host that
// keeps the geometry on its side.
type MeshData struct {
	Vertices  [][3]float64 `json:"vertices,omitempty"`
	Faces     [][]int      `json:"faces,omitempty"`
	Materials []string     `json:"materials,omitempty"` // material slot names
	Source    string       `json:"source,omitempty"`
}

func (*MeshData) objectData() {}

// VertexCount returns the number of vertices.
func (m *MeshData) VertexCount() int {
	return len(m.Vertices)
}

// FaceCount returns the number of faces.
func (m *MeshData) FaceCount() int {
	return len(m.Faces)
}

// ---------------------------------------------------------------------------
// Light
// ---------------------------------------------------------------------------

// LightType enumerates supported light types.
type LightType int

const (
	LightSun LightType = iota // directional light
)

func (t LightType) String() string {
	switch t {
	case LightSun:
		return "SUN"
	default:
		return "unknown"
	}
}

// LightData describes a light source.
type LightData struct {
	Type   LightType `json:"type"`
	Energy float64   `json:"energy"`
	Color  Color     `json:"color"`
}

func (*LightData) objectData() {}

// ---------------------------------------------------------------------------
// Camera
// ---------------------------------------------------------------------------

// Camera defaults match a stock perspective camera: 50mm lens on a 36mm
// sensor.
const (
	DefaultLens        = 50.0
	DefaultSensorWidth = 36.0
	DefaultClipStart   = 0.1
	DefaultClipEnd     = 100.0
)

// CameraData describes a perspective camera. The camera looks down its
// local -Z axis with +Y up.
type CameraData struct {
	Lens        float64 `json:"lens"`         // focal length in mm
	SensorWidth float64 `json:"sensor_width"` // mm
	ClipStart   float64 `json:"clip_start"`
	ClipEnd     float64 `json:"clip_end"`
}

func (*CameraData) objectData() {}

// ---------------------------------------------------------------------------
// Material
// ---------------------------------------------------------------------------

// Material is the subset of a principled BSDF that render scripts set.
type Material struct {
	Name      string  `json:"name"`
	BaseColor Color   `json:"base_color"`
	Roughness float64 `json:"roughness"`
	Metallic  float64 `json:"metallic"`
}

// DefaultMaterial is used for meshes without a material slot.
var DefaultMaterial = Material{
	Name:      "Default",
	BaseColor: Color{R: 0.8, G: 0.8, B: 0.8, A: 1},
	Roughness: 0.5,
}

// ---------------------------------------------------------------------------
// World
// ---------------------------------------------------------------------------

// World holds scene-wide environment settings.
type World struct {
	Background Color `json:"background"`
}

// ---------------------------------------------------------------------------
// Render settings
// ---------------------------------------------------------------------------

// RenderSettings describes one render-and-write invocation.
type RenderSettings struct {
	Engine      string `json:"engine"`
	Samples     int    `json:"samples"`
	ResolutionX int    `json:"resolution_x"`
	ResolutionY int    `json:"resolution_y"`
	FilePath    string `json:"file_path"`
	FileFormat  string `json:"file_format"`
	ColorMode   string `json:"color_mode"`
	Maskable    bool   `json:"maskable"` // shrink into the maskable safe zone
}

// DefaultRenderSettings returns the settings a fresh scene starts with.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		Engine:      "CYCLES",
		Samples:     128,
		ResolutionX: 512,
		ResolutionY: 512,
		FileFormat:  "PNG",
		ColorMode:   "RGBA",
	}
}

// ErrNoOutput is returned when a render is requested without a file path.
var ErrNoOutput = errors.New("render settings have no output file path")

// Validate checks that the settings describe something a host can write.
func (rs RenderSettings) Validate() error {
	if rs.FilePath == "" {
		return ErrNoOutput
	}
	if rs.ResolutionX <= 0 || rs.ResolutionY <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", rs.ResolutionX, rs.ResolutionY)
	}
	if rs.Samples <= 0 {
		return fmt.Errorf("invalid sample count %d", rs.Samples)
	}
	if !strings.EqualFold(rs.FileFormat, "PNG") {
		return fmt.Errorf("unsupported file format %q, only PNG is written", rs.FileFormat)
	}
	if !strings.EqualFold(rs.ColorMode, "RGBA") {
		return fmt.Errorf("unsupported color mode %q, only RGBA is written", rs.ColorMode)
	}
	return nil
}
