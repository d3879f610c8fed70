// Package objfile is a minimal Wavefront OBJ reader used when a host's own
// importer is unavailable. It extracts vertex positions and polygon faces and
// nothing else.
package objfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Geometry is the raw result of parsing an OBJ file. Faces hold zero-based
// indices into Vertices. Indices are not checked against len(Vertices).
type Geometry struct {
	Vertices [][3]float64
	Faces    [][]int
}

// VertexCount returns the number of vertex positions.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices)
}

// FaceCount returns the number of faces.
func (g *Geometry) FaceCount() int {
	return len(g.Faces)
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("objfile: %s: %w", path, err)
	}
	return g, nil
}

// Parse reads OBJ text from r.
//
// Lines starting with "v " contribute one position from their 2nd to 4th
// fields. Lines starting with "f " contribute one face; each field after the
// first is split on '/' and its first component is read as a one-based vertex
// index. Every other line is ignored. Lines may be of any length.
func Parse(r io.Reader) (*Geometry, error) {
	g := &Geometry{}
	br := bufio.NewReader(r)

	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" && err == io.EOF {
			break
		}
		lineNo++

		switch {
		case strings.HasPrefix(line, "v "):
			v, perr := parseVertex(strings.Fields(line))
			if perr != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, perr)
			}
			g.Vertices = append(g.Vertices, v)

		case strings.HasPrefix(line, "f "):
			face, perr := parseFace(strings.Fields(line))
			if perr != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, perr)
			}
			g.Faces = append(g.Faces, face)
		}
		if err == io.EOF {
			break
		}
	}
	return g, nil
}

func parseVertex(fields []string) ([3]float64, error) {
	var v [3]float64
	if len(fields) < 4 {
		return v, fmt.Errorf("vertex has %d coordinates, want 3", len(fields)-1)
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// parseFace accepts the v, v/vt, v//vn and v/vt/vn forms.
func parseFace(fields []string) ([]int, error) {
	face := make([]int, 0, len(fields)-1)
	for _, tok := range fields[1:] {
		idx, err := strconv.Atoi(strings.Split(tok, "/")[0])
		if err != nil {
			return nil, err
		}
		face = append(face, idx-1)
	}
	return face, nil
}
