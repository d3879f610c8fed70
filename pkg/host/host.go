// Package host defines the abstract host interface that render scripts drive.
// A host owns the two operations that differ between backends: importing an
// OBJ file with its own importer, and rendering the current scene to an image
// file. Everything else (objects, materials, world, render settings) lives in
// the backend-independent scene model.
package host

import (
	"context"
	"errors"

	"github.com/chazu/kiln/pkg/scene"
)

// ErrImporterUnavailable is returned by ImportOBJ when a host has no usable
// OBJ importer.
var ErrImporterUnavailable = errors.New("host OBJ importer not available")

// Host is a rendering backend.
type Host interface {
	// Name identifies the backend in logs.
	Name() string

	// ImportOBJ imports the OBJ file at path with the host's own importer,
	// links the result into s as a selected mesh called name and returns it.
	ImportOBJ(ctx context.Context, s *scene.Scene, path, name string) (*scene.Object, error)

	// Render renders s with s.Render and writes the image to
	// s.Render.FilePath. The file exists when Render returns nil.
	Render(ctx context.Context, s *scene.Scene) error
}
