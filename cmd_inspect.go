package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/kiln/pkg/engine"
	"github.com/chazu/kiln/pkg/objfile"
	"github.com/chazu/kiln/pkg/scene"
	"github.com/chazu/kiln/pkg/tessellate"
)

func newInspectCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.obj|script.kiln>",
		Short: "Describe a mesh or evaluate a script without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, gf, filepath.Dir(abs))
			if err != nil {
				return err
			}
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}

			if strings.EqualFold(filepath.Ext(path), ".obj") {
				return inspectOBJ(cmd, app, abs)
			}
			script, err := LoadScript(abs)
			if err != nil {
				return err
			}
			res, err := app.DryRun(cmd.Context(), script)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

// inspectOBJ reports what the fallback parser and the host importer each
// make of an OBJ file.
func inspectOBJ(cmd *cobra.Command, app *App, path string) error {
	out := cmd.OutOrStdout()
	geom, err := objfile.ParseFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", path)
	fmt.Fprintf(out, "  parser:   %d vertices, %d faces\n", geom.VertexCount(), geom.FaceCount())

	s := scene.New()
	o := s.NewMesh("Inspect", geom.Vertices, geom.Faces)
	for _, ve := range scene.ValidateMesh(o) {
		fmt.Fprintf(out, "  %s\n", ve.Error())
	}
	if meshes, err := tessellate.Tessellate(s); err == nil {
		if box, ok := tessellate.Bounds(meshes); ok {
			size := box.Size()
			fmt.Fprintf(out, "  bounds:   min (%g, %g, %g) size (%g, %g, %g)\n",
				box.Min.X, box.Min.Y, box.Min.Z, size.X, size.Y, size.Z)
		}
	}

	imp, err := app.host.ImportOBJ(cmd.Context(), scene.New(), path, "Inspect")
	switch {
	case err != nil:
		fmt.Fprintf(out, "  importer: unavailable (%v)\n", err)
	case imp.Mesh().VertexCount() == 0:
		fmt.Fprintf(out, "  importer: %s reads the file\n", app.host.Name())
	default:
		fmt.Fprintf(out, "  importer: %d vertices, %d faces (%s)\n",
			imp.Mesh().VertexCount(), imp.Mesh().FaceCount(), app.host.Name())
	}
	return nil
}

func printResult(w io.Writer, res *engine.Result) {
	s := res.Scene
	fmt.Fprintf(w, "objects:\n")
	for _, kind := range []scene.ObjectKind{scene.ObjectMesh, scene.ObjectLight, scene.ObjectCamera} {
		for _, o := range s.ObjectsOfKind(kind) {
			fmt.Fprintf(w, "  %-8s %-16s %s at (%g, %g, %g)\n", o.Kind, o.Name, o.ID.Short(), o.Location.X, o.Location.Y, o.Location.Z)
		}
	}
	for _, l := range res.Loads {
		how := "importer"
		if l.Fallback {
			how = "fallback"
		}
		fmt.Fprintf(w, "loaded %s: %d vertices, %d faces (%s)\n", l.Name, l.Vertices, l.Faces, how)
	}
	fmt.Fprintf(w, "outputs:\n")
	for _, o := range res.Outputs {
		kind := ""
		if o.Maskable {
			kind = " maskable"
		}
		fmt.Fprintf(w, "  %s %dx%d%s\n", o.Path, o.Width, o.Height, kind)
	}
	for _, ve := range res.Warnings {
		fmt.Fprintf(w, "%s\n", ve.Error())
	}
}
