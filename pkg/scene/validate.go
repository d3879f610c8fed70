package scene

import (
	"fmt"
	"math"
)

// ValidationSeverity indicates whether a finding blocks rendering or is
// merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks rendering
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Object   string             // object name, empty for scene-level findings
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] object %q: %s", e.Severity, e.Object, e.Message)
}

// ValidateMesh checks that every face of a mesh object references existing
// vertices and has at least three corners, and that every vertex is finite.
// Meshes whose geometry lives in the host (Source set, no vertices) are
// skipped. It never mutates the object.
func ValidateMesh(o *Object) []ValidationError {
	md := o.Mesh()
	if md == nil {
		return []ValidationError{{Object: o.Name, Message: "not a mesh", Severity: SeverityError}}
	}
	if md.VertexCount() == 0 && md.Source != "" {
		return nil
	}

	var errs []ValidationError
	for i, v := range md.Vertices {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				errs = append(errs, ValidationError{
					Object:   o.Name,
					Message:  fmt.Sprintf("vertex %d is not finite: %v", i, v),
					Severity: SeverityError,
				})
				break
			}
		}
	}
	for fi, f := range md.Faces {
		if len(f) < 3 {
			errs = append(errs, ValidationError{
				Object:   o.Name,
				Message:  fmt.Sprintf("face %d has %d corners", fi, len(f)),
				Severity: SeverityWarning,
			})
		}
		for _, idx := range f {
			if idx < 0 || idx >= md.VertexCount() {
				errs = append(errs, ValidationError{
					Object:   o.Name,
					Message:  fmt.Sprintf("face %d references vertex %d, mesh has %d", fi, idx, md.VertexCount()),
					Severity: SeverityError,
				})
				break
			}
		}
	}
	return errs
}

// Validate runs ValidateMesh on every mesh and checks scene-level
// requirements for rendering: an active camera.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	if s.ActiveCamera() == nil {
		errs = append(errs, ValidationError{Message: "scene has no active camera", Severity: SeverityError})
	}
	if len(s.Lights()) == 0 {
		errs = append(errs, ValidationError{Message: "scene has no lights", Severity: SeverityWarning})
	}
	for _, o := range s.Meshes() {
		errs = append(errs, ValidateMesh(o)...)
	}
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}
