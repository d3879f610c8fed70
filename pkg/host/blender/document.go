package blender

import (
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/chazu/kiln/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// document is the scene description handed to the Python side. Angles are
// in radians and colors are [r, g, b, a] in linear space.
type document struct {
	Objects    []docObject   `json:"objects"`
	Materials  []docMaterial `json:"materials"`
	Background [4]float64    `json:"background"`
	Camera     string        `json:"camera"`
	Render     docRender     `json:"render"`
}

type docObject struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Location [3]float64 `json:"location"`
	Rotation [3]float64 `json:"rotation"`
	Scale    [3]float64 `json:"scale"`
	Mesh     *docMesh   `json:"mesh,omitempty"`
	Light    *docLight  `json:"light,omitempty"`
	Camera   *docCamera `json:"camera,omitempty"`
}

type docMesh struct {
	Vertices  [][3]float64 `json:"vertices"`
	Faces     [][]int      `json:"faces"`
	Materials []string     `json:"materials"`
	// Import is set when the host holds the geometry; the mesh is
	// re-imported from this file instead of built from Vertices/Faces.
	Import string `json:"import,omitempty"`
}

type docLight struct {
	Type   string     `json:"type"`
	Energy float64    `json:"energy"`
	Color  [3]float64 `json:"color"`
}

type docCamera struct {
	Lens        float64 `json:"lens"`
	SensorWidth float64 `json:"sensor_width"`
	ClipStart   float64 `json:"clip_start"`
	ClipEnd     float64 `json:"clip_end"`
}

type docMaterial struct {
	Name      string     `json:"name"`
	BaseColor [4]float64 `json:"base_color"`
	Roughness float64    `json:"roughness"`
	Metallic  float64    `json:"metallic"`
}

type docRender struct {
	Engine      string `json:"engine"`
	Samples     int    `json:"samples"`
	ResolutionX int    `json:"resolution_x"`
	ResolutionY int    `json:"resolution_y"`
	FilePath    string `json:"file_path"`
}

// newDocument describes s for a render that writes to out.
func newDocument(s *scene.Scene, out string) *document {
	d := &document{
		Background: color4(s.World.Background),
		Render: docRender{
			Engine:      s.Render.Engine,
			Samples:     s.Render.Samples,
			ResolutionX: s.Render.ResolutionX,
			ResolutionY: s.Render.ResolutionY,
			FilePath:    out,
		},
	}
	if cam := s.ActiveCamera(); cam != nil {
		d.Camera = cam.Name
	}

	used := make(map[string]bool)
	for _, kind := range []scene.ObjectKind{scene.ObjectMesh, scene.ObjectLight, scene.ObjectCamera} {
		for _, o := range s.ObjectsOfKind(kind) {
			obj := docObject{
				Name:     o.Name,
				Kind:     o.Kind.String(),
				Location: vec3(o.Location),
				Rotation: radians(o.Rotation),
				Scale:    vec3(o.Scale),
			}
			switch data := o.Data.(type) {
			case *scene.MeshData:
				m := &docMesh{
					Vertices:  data.Vertices,
					Faces:     data.Faces,
					Materials: data.Materials,
				}
				if len(data.Vertices) == 0 && data.Source != "" {
					m.Import = data.Source
				}
				for _, name := range data.Materials {
					used[name] = true
				}
				obj.Mesh = m
			case *scene.LightData:
				obj.Light = &docLight{
					Type:   data.Type.String(),
					Energy: data.Energy,
					Color:  [3]float64{data.Color.R, data.Color.G, data.Color.B},
				}
			case *scene.CameraData:
				obj.Camera = &docCamera{
					Lens:        data.Lens,
					SensorWidth: data.SensorWidth,
					ClipStart:   data.ClipStart,
					ClipEnd:     data.ClipEnd,
				}
			}
			d.Objects = append(d.Objects, obj)
		}
	}

	names := lo.Keys(used)
	sort.Strings(names)
	for _, name := range names {
		if m := s.Material(name); m != nil {
			d.Materials = append(d.Materials, docMaterial{
				Name:      m.Name,
				BaseColor: color4(m.BaseColor),
				Roughness: m.Roughness,
				Metallic:  m.Metallic,
			})
		}
	}
	return d
}

// writeFile stores d as JSON at path.
func (d *document) writeFile(path string) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func vec3(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func radians(v v3.Vec) [3]float64 {
	k := math.Pi / 180
	return [3]float64{v.X * k, v.Y * k, v.Z * k}
}

func color4(c scene.Color) [4]float64 {
	return [4]float64{c.R, c.G, c.B, c.A}
}
