package scene

import v3 "github.com/deadsy/sdfx/vec/v3"

// ObjectKind enumerates the kinds of objects a scene can hold.
type ObjectKind int

const (
	ObjectMesh   ObjectKind = iota // polygon mesh
	ObjectLight                    // light source
	ObjectCamera                   // camera
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectMesh:
		return "mesh"
	case ObjectLight:
		return "light"
	case ObjectCamera:
		return "camera"
	default:
		return "unknown"
	}
}

// Object is a named, transformable element of the scene.
type Object struct {
	ID       ObjectID   `json:"id"`
	Kind     ObjectKind `json:"kind"`
	Name     string     `json:"name"`
	Location v3.Vec     `json:"location"`
	Rotation v3.Vec     `json:"rotation"` // Euler XYZ in degrees
	Scale    v3.Vec     `json:"scale"`
	Selected bool       `json:"selected"`
	Data     ObjectData `json:"data"`
}

// ObjectData is the interface for kind-specific object payloads.
type ObjectData interface {
	objectData() // marker method restricting implementations to this package
}

func newObject(kind ObjectKind, name string, data ObjectData) *Object {
	return &Object{
		ID:    NewObjectID(kind, name),
		Kind:  kind,
		Name:  name,
		Scale: v3.Vec{X: 1, Y: 1, Z: 1},
		Data:  data,
	}
}

// Mesh returns the object's mesh data, or nil if it is not a mesh.
func (o *Object) Mesh() *MeshData {
	m, _ := o.Data.(*MeshData)
	return m
}

// Light returns the object's light data, or nil if it is not a light.
func (o *Object) Light() *LightData {
	l, _ := o.Data.(*LightData)
	return l
}

// Camera returns the object's camera data, or nil if it is not a camera.
func (o *Object) Camera() *CameraData {
	c, _ := o.Data.(*CameraData)
	return c
}
