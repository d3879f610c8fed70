package scene

import (
	"fmt"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Scene is the mutable scene a render script builds up. Objects are keyed by
// ID and indexed by name; names are unique across kinds.
type Scene struct {
	Objects   map[ObjectID]*Object `json:"objects"`
	NameIndex map[string]ObjectID  `json:"name_index"`
	Materials map[string]*Material `json:"materials"`
	World     World                `json:"world"`
	Camera    ObjectID             `json:"camera"` // active camera, zero if none
	Render    RenderSettings       `json:"render"`
}

// New creates an empty scene with a neutral grey world and default render
// settings.
func New() *Scene {
	return &Scene{
		Objects:   make(map[ObjectID]*Object),
		NameIndex: make(map[string]ObjectID),
		Materials: make(map[string]*Material),
		World:     World{Background: Color{R: 0.05, G: 0.05, B: 0.05, A: 1}},
		Render:    DefaultRenderSettings(),
	}
}

// Clear deletes every object and unsets the active camera. Materials, the
// world and render settings are data, not objects, and survive.
func (s *Scene) Clear() int {
	n := len(s.Objects)
	s.Objects = make(map[ObjectID]*Object)
	s.NameIndex = make(map[string]ObjectID)
	s.Camera = ZeroID
	return n
}

// add links an object into the scene, making its name unique the same way
// most DCC tools do: "Name", "Name.001", "Name.002", ...
func (s *Scene) add(o *Object) *Object {
	base := o.Name
	for i := 1; ; i++ {
		if _, taken := s.NameIndex[o.Name]; !taken {
			break
		}
		o.Name = fmt.Sprintf("%s.%03d", base, i)
	}
	o.ID = NewObjectID(o.Kind, o.Name)
	s.Objects[o.ID] = o
	s.NameIndex[o.Name] = o.ID
	return o
}

// NewMesh builds a mesh object from raw vertex positions and zero-based face
// index lists, links it into the scene and selects it. Indices are not
// checked here; see ValidateMesh.
func (s *Scene) NewMesh(name string, vertices [][3]float64, faces [][]int) *Object {
	o := newObject(ObjectMesh, name, &MeshData{
		Vertices: vertices,
		Faces:    faces,
	})
	o.Selected = true
	return s.add(o)
}

// NewImportedMesh links a mesh whose geometry is held by the host, recording
// the source file. The object is selected.
func (s *Scene) NewImportedMesh(name, source string) *Object {
	o := newObject(ObjectMesh, name, &MeshData{Source: source})
	o.Selected = true
	return s.add(o)
}

// AddLight links a light object at the given location.
func (s *Scene) AddLight(name string, data LightData, location v3.Vec) *Object {
	if data.Color == (Color{}) {
		data.Color = Color{R: 1, G: 1, B: 1, A: 1}
	}
	o := newObject(ObjectLight, name, &data)
	o.Location = location
	return s.add(o)
}

// AddCamera links a camera object at the given location. Zero fields of data
// take the stock camera defaults.
func (s *Scene) AddCamera(name string, data CameraData, location v3.Vec) *Object {
	if data.Lens <= 0 {
		data.Lens = DefaultLens
	}
	if data.SensorWidth <= 0 {
		data.SensorWidth = DefaultSensorWidth
	}
	if data.ClipStart <= 0 {
		data.ClipStart = DefaultClipStart
	}
	if data.ClipEnd <= data.ClipStart {
		data.ClipEnd = DefaultClipEnd
	}
	o := newObject(ObjectCamera, name, &data)
	o.Location = location
	return s.add(o)
}

// SetCamera makes the named object the active camera.
func (s *Scene) SetCamera(name string) error {
	o := s.Lookup(name)
	if o == nil {
		return fmt.Errorf("scene: no object named %q", name)
	}
	if o.Kind != ObjectCamera {
		return fmt.Errorf("scene: object %q is a %s, not a camera", name, o.Kind)
	}
	s.Camera = o.ID
	return nil
}

// ActiveCamera returns the active camera object, or nil.
func (s *Scene) ActiveCamera() *Object {
	if s.Camera.IsZero() {
		return nil
	}
	return s.Objects[s.Camera]
}

// NewMaterial registers a material data-block, replacing any material of the
// same name.
func (s *Scene) NewMaterial(m Material) *Material {
	s.Materials[m.Name] = &m
	return &m
}

// Material returns the named material or nil.
func (s *Scene) Material(name string) *Material {
	return s.Materials[name]
}

// Lookup returns the object with the given name, or nil.
func (s *Scene) Lookup(name string) *Object {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Objects[id]
}

// Get returns the object with the given ID, or nil.
func (s *Scene) Get(id ObjectID) *Object {
	return s.Objects[id]
}

// ObjectCount returns the total number of objects.
func (s *Scene) ObjectCount() int {
	return len(s.Objects)
}

// sorted returns objects ordered by name so iteration is deterministic.
func (s *Scene) sorted() []*Object {
	objs := lo.Values(s.Objects)
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name < objs[j].Name })
	return objs
}

// ObjectsOfKind returns all objects of kind k ordered by name.
func (s *Scene) ObjectsOfKind(k ObjectKind) []*Object {
	return lo.Filter(s.sorted(), func(o *Object, _ int) bool {
		return o.Kind == k
	})
}

// Meshes returns all mesh objects ordered by name.
func (s *Scene) Meshes() []*Object {
	return s.ObjectsOfKind(ObjectMesh)
}

// Lights returns all light objects ordered by name.
func (s *Scene) Lights() []*Object {
	return s.ObjectsOfKind(ObjectLight)
}

// SelectedMeshes returns the selected mesh objects ordered by name.
func (s *Scene) SelectedMeshes() []*Object {
	return lo.Filter(s.Meshes(), func(o *Object, _ int) bool {
		return o.Selected
	})
}

// DeselectAll clears the selection.
func (s *Scene) DeselectAll() {
	for _, o := range s.Objects {
		o.Selected = false
	}
}

// AssignMaterial appends the named material to the material slots of every
// selected mesh and returns how many meshes were touched.
func (s *Scene) AssignMaterial(name string) (int, error) {
	if s.Material(name) == nil {
		return 0, fmt.Errorf("scene: no material named %q", name)
	}
	meshes := s.SelectedMeshes()
	for _, o := range meshes {
		md := o.Mesh()
		md.Materials = append(md.Materials, name)
	}
	return len(meshes), nil
}

// ScaleSelected sets the scale of every selected mesh.
func (s *Scene) ScaleSelected(scale v3.Vec) int {
	meshes := s.SelectedMeshes()
	for _, o := range meshes {
		o.Scale = scale
	}
	return len(meshes)
}

// MaterialFor resolves the material used to shade a mesh object: its first
// slot, or DefaultMaterial.
func (s *Scene) MaterialFor(o *Object) Material {
	md := o.Mesh()
	if md == nil || len(md.Materials) == 0 {
		return DefaultMaterial
	}
	if m := s.Material(md.Materials[0]); m != nil {
		return *m
	}
	return DefaultMaterial
}
