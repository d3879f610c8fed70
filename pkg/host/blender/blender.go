// Package blender implements host.Host by driving an installed Blender
// binary in background mode. Each operation writes a scene document, runs
// an embedded Python program against it and reads the result back.
package blender

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chazu/kiln/pkg/host"
	"github.com/chazu/kiln/pkg/logging"
	"github.com/chazu/kiln/pkg/scene"
)

// Compile-time interface check.
var _ host.Host = (*Blender)(nil)

// DefaultBinary is the Blender executable looked up on PATH.
const DefaultBinary = "blender"

var (
	//go:embed scripts/import.py
	importScript string
	//go:embed scripts/render.py
	renderScript string
)

// importMarker prefixes the line the import probe prints on success.
const importMarker = "KILN_IMPORT"

// Options configures a Blender host.
type Options struct {
	// Binary is the Blender executable. Empty means DefaultBinary.
	Binary string
	// Args are passed to Binary before the background-mode flags.
	Args []string
	// DisableImporter makes ImportOBJ fail with host.ErrImporterUnavailable.
	DisableImporter bool
	// Stream copies Blender's output to the terminal.
	Stream bool
}

// Blender renders scenes through an external Blender process.
type Blender struct {
	opts Options
}

// New returns a Blender host.
func New(opts Options) *Blender {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	return &Blender{opts: opts}
}

// Name returns "blender".
func (b *Blender) Name() string {
	return "blender"
}

// Available reports whether the configured binary can be found.
func (b *Blender) Available() bool {
	_, err := exec.LookPath(b.opts.Binary)
	return err == nil
}

// ImportOBJ runs Blender's OBJ importer on path in a throwaway session. On
// success the mesh is linked as host-held geometry and re-imported when the
// scene is rendered.
func (b *Blender) ImportOBJ(ctx context.Context, s *scene.Scene, path, name string) (*scene.Object, error) {
	if b.opts.DisableImporter {
		return nil, host.ErrImporterUnavailable
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}

	out, err := b.run(ctx, importScript, abs)
	if err != nil {
		return nil, fmt.Errorf("blender: import %s: %w", path, err)
	}
	verts, faces, ok := parseImportResult(out)
	if !ok {
		return nil, fmt.Errorf("blender: import %s: importer reported no result", path)
	}
	logging.LogDebug("blender: imported %s (%d vertices, %d faces)", path, verts, faces)
	return s.NewImportedMesh(name, abs), nil
}

// Render builds the scene inside Blender, renders it to a temporary PNG and
// writes the final icon from that frame.
func (b *Blender) Render(ctx context.Context, s *scene.Scene) error {
	rs := s.Render
	if err := rs.Validate(); err != nil {
		return fmt.Errorf("blender: %w", err)
	}
	if s.ActiveCamera() == nil {
		return errors.New("blender: scene has no active camera")
	}
	for _, ve := range scene.Validate(s) {
		if ve.Severity == scene.SeverityError {
			return fmt.Errorf("blender: %w", ve)
		}
	}

	dir, err := os.MkdirTemp("", "kiln-blender-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	frame := filepath.Join(dir, "frame.png")
	docPath := filepath.Join(dir, "scene.json")
	if err := newDocument(s, frame).writeFile(docPath); err != nil {
		return fmt.Errorf("blender: %w", err)
	}
	if _, err := b.run(ctx, renderScript, docPath); err != nil {
		return fmt.Errorf("blender: render %s: %w", rs.FilePath, err)
	}

	f, err := os.Open(frame)
	if err != nil {
		return fmt.Errorf("blender: render %s: no frame written: %w", rs.FilePath, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return fmt.Errorf("blender: decode frame: %w", err)
	}
	return host.WriteIcon(s, img)
}

// run writes script to a temporary file and executes it in background mode
// with args after "--". A Python exception fails the process.
func (b *Blender) run(ctx context.Context, script string, args ...string) (string, error) {
	f, err := os.CreateTemp("", "kiln-*.py")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return executeCmd(ctx, b.opts.Binary,
		withArgs(b.opts.Args...),
		withArgs("--background", "--factory-startup", "--python-exit-code", "1", "--python", f.Name(), "--"),
		withArgs(args...),
		withStream(b.opts.Stream),
	)
}

// parseImportResult finds the import probe's summary line.
func parseImportResult(out string) (verts, faces int, ok bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, importMarker+" ") {
			continue
		}
		if _, err := fmt.Sscanf(line, importMarker+" %d %d", &verts, &faces); err == nil {
			return verts, faces, true
		}
	}
	return 0, 0, false
}
