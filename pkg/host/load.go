package host

import (
	"context"
	"fmt"

	"github.com/chazu/kiln/pkg/logging"
	"github.com/chazu/kiln/pkg/objfile"
	"github.com/chazu/kiln/pkg/scene"
)

// LoadOBJ imports path into s through h's importer. If the importer fails for
// any reason the file is read with the objfile parser instead and the mesh
// is built from the raw vertex and face lists; the importer error is only
// logged. fallback reports which path produced the object.
func LoadOBJ(ctx context.Context, h Host, s *scene.Scene, path, name string) (obj *scene.Object, fallback bool, err error) {
	obj, err = h.ImportOBJ(ctx, s, path, name)
	if err == nil {
		return obj, false, nil
	}
	logging.LogDebug("%s importer failed for %s, using fallback parser: %v", h.Name(), path, err)

	geom, err := objfile.ParseFile(path)
	if err != nil {
		return nil, true, fmt.Errorf("host: load %s: %w", path, err)
	}
	obj = s.NewMesh(name, geom.Vertices, geom.Faces)
	return obj, true, nil
}
