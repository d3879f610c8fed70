package objfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

const unitSquare = `# unit square
o Square
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
f 1 2 3 4
`

func TestParseUnitSquare(t *testing.T) {
	g, err := Parse(strings.NewReader(unitSquare))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantVerts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	if !reflect.DeepEqual(g.Vertices, wantVerts) {
		t.Errorf("vertices = %v, want %v", g.Vertices, wantVerts)
	}
	wantFaces := [][]int{{0, 1, 2, 3}}
	if !reflect.DeepEqual(g.Faces, wantFaces) {
		t.Errorf("faces = %v, want %v", g.Faces, wantFaces)
	}
}

func TestParseFaceFormats(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []int
	}{
		{name: "plain", line: "f 1 2 3", want: []int{0, 1, 2}},
		{name: "with uv", line: "f 1/1 2/2 3/3", want: []int{0, 1, 2}},
		{name: "with normal only", line: "f 4//1 5//1 6//1", want: []int{3, 4, 5}},
		{name: "full", line: "f 7/1/1 8/2/1 9/3/1 10/4/1", want: []int{6, 7, 8, 9}},
		{name: "extra whitespace", line: "f  1\t2   3  ", want: []int{0, 1, 2}},
		// Relative indices are shifted like any other index.
		{name: "negative", line: "f -1 -2 -3", want: []int{-2, -3, -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(strings.NewReader(tt.line + "\n"))
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.line, err)
			}
			if len(g.Faces) != 1 {
				t.Fatalf("expected 1 face, got %d", len(g.Faces))
			}
			if !reflect.DeepEqual(g.Faces[0], tt.want) {
				t.Errorf("face = %v, want %v", g.Faces[0], tt.want)
			}
		})
	}
}

func TestParseIgnoresOtherLines(t *testing.T) {
	src := `mtllib teapot.mtl
vt 0.5 0.5
vn 0 1 0
g body
usemtl glaze
s 1
v	1 2 3
fo 1 2 3
`
	g, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// "v\t" and "fo" do not carry the exact "v " / "f " prefix.
	if g.VertexCount() != 0 {
		t.Errorf("expected 0 vertices, got %d", g.VertexCount())
	}
	if g.FaceCount() != 0 {
		t.Errorf("expected 0 faces, got %d", g.FaceCount())
	}
}

func TestParseCountsMatchSource(t *testing.T) {
	var b strings.Builder
	const n = 50
	for i := 0; i < n; i++ {
		b.WriteString("v " + strconv.Itoa(i) + " 0.5 -1.25 1.0\n")
	}
	for i := 1; i+2 <= n; i += 3 {
		b.WriteString("f " + strconv.Itoa(i) + " " + strconv.Itoa(i+1) + " " + strconv.Itoa(i+2) + "\n")
	}

	g, err := Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if g.VertexCount() != n {
		t.Fatalf("vertex count = %d, want %d", g.VertexCount(), n)
	}
	for i, v := range g.Vertices {
		if v[0] != float64(i) || v[1] != 0.5 || v[2] != -1.25 {
			t.Errorf("vertex %d = %v", i, v)
		}
	}
	if g.FaceCount() != 16 {
		t.Fatalf("face count = %d, want 16", g.FaceCount())
	}
	for fi, f := range g.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= g.VertexCount() {
				t.Errorf("face %d index %d out of range [0,%d)", fi, idx, g.VertexCount())
			}
		}
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{name: "bad float", src: "v 1 2 x\n", line: "line 1"},
		{name: "short vertex", src: "v 0 0 0\nv 1 2\n", line: "line 2"},
		{name: "bad index", src: "v 0 0 0\nf 1 a 3\n", line: "line 2"},
		{name: "empty index", src: "f /1 2 3\n", line: "line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q should mention %q", err, tt.line)
			}
		})
	}
}

func TestParseBadNumberWrapsStrconv(t *testing.T) {
	_, err := Parse(strings.NewReader("v 1 2 nope\n"))
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected *strconv.NumError in chain, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.obj")
	if err := os.WriteFile(path, []byte(unitSquare), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if g.VertexCount() != 4 || g.FaceCount() != 1 {
		t.Errorf("got %d vertices / %d faces, want 4 / 1", g.VertexCount(), g.FaceCount())
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.obj"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestParseLongFaceLine(t *testing.T) {
	const corners = 200000
	var b strings.Builder
	b.WriteString("v 0 0 0\nf")
	for i := 1; i <= corners; i++ {
		b.WriteString(" 1/1/1")
	}
	b.WriteString("\nv 1 1 1")

	g, err := Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if g.FaceCount() != 1 || len(g.Faces[0]) != corners {
		t.Fatalf("got %d faces, want one face of %d corners", g.FaceCount(), corners)
	}
	// The last line has no trailing newline.
	if g.VertexCount() != 2 {
		t.Errorf("vertex count = %d, want 2", g.VertexCount())
	}
}

func TestParseCRLF(t *testing.T) {
	g, err := Parse(strings.NewReader("v 0 0 0\r\nv 1 0 0\r\nv 0 1 0\r\nf 1 2 3\r\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if g.VertexCount() != 3 || g.FaceCount() != 1 {
		t.Errorf("got %d vertices / %d faces, want 3 / 1", g.VertexCount(), g.FaceCount())
	}
}
