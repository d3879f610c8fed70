package raster

import (
	"math"

	"github.com/chazu/kiln/pkg/scene"
	"github.com/chazu/kiln/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"
)

// fovY returns the vertical field of view in degrees. The sensor width
// spans the larger image dimension.
func fovY(cd *scene.CameraData, aspect float64) float64 {
	half := math.Atan(cd.SensorWidth / 2 / cd.Lens)
	if aspect >= 1 {
		half = math.Atan(math.Tan(half) / aspect)
	}
	return 2 * half * 180 / math.Pi
}

// cameraBasis returns the camera's forward and up vectors. An unrotated
// camera looks down -Z with +Y up.
func cameraBasis(cam *scene.Object) (forward, up v3.Vec) {
	rot := tessellate.Rotation(cam)
	forward = rot.MulPosition(v3.Vec{Z: -1}).Normalize()
	up = rot.MulPosition(v3.Vec{Y: 1}).Normalize()
	return forward, up
}

// viewProjection builds the combined view and projection matrix for cam.
func viewProjection(cam *scene.Object, aspect float64) fauxgl.Matrix {
	cd := cam.Camera()
	forward, up := cameraBasis(cam)
	eye := toV(cam.Location)
	center := eye.Add(toV(forward))
	return fauxgl.LookAt(eye, center, toV(up)).
		Perspective(fovY(cd, aspect), aspect, cd.ClipStart, cd.ClipEnd)
}

func toV(v v3.Vec) fauxgl.Vector {
	return fauxgl.V(v.X, v.Y, v.Z)
}
