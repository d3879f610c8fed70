package engine

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/chazu/kiln/pkg/host"
	"github.com/chazu/kiln/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms kiln script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: load-obj -> load_obj
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a vector.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a linear RGBA color.
type sexpColor struct {
	c scene.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %g %g %g %g)", c.c.R, c.c.G, c.c.B, c.c.A)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpObjectRef refers to a scene object so it can be passed between builtins.
type sexpObjectRef struct {
	id   scene.ObjectID
	name string
}

func (o *sexpObjectRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(object %q)", o.name)
}
func (o *sexpObjectRef) Type() *zygo.RegisteredType { return nil }

// sexpMaterial refers to a material data-block by name.
type sexpMaterial struct {
	name string
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material %q)", m.name)
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number. Floats are accepted when integral.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_sun) and plain strings ("sun").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool extracts a boolean.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toNumbers extracts a list or array of numbers.
func toNumbers(s zygo.Sexp) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// toVec3 extracts a vector from a sexpVec3 or a three element list.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	nums, err := toNumbers(s)
	if err != nil || len(nums) != 3 {
		return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
	}
	return v3.Vec{X: nums[0], Y: nums[1], Z: nums[2]}, nil
}

// toScale accepts a uniform factor or a vec3.
func toScale(s zygo.Sexp) (v3.Vec, error) {
	if f, err := toFloat64(s); err == nil {
		return v3.Vec{X: f, Y: f, Z: f}, nil
	}
	return toVec3(s)
}

// toColor extracts a color from a sexpColor or a list of three or four
// numbers. Alpha defaults to 1.
func toColor(s zygo.Sexp) (scene.Color, error) {
	if c, ok := s.(*sexpColor); ok {
		return c.c, nil
	}
	nums, err := toNumbers(s)
	if err != nil || (len(nums) != 3 && len(nums) != 4) {
		return scene.Color{}, fmt.Errorf("expected color, got %T (%s)", s, s.SexpString(nil))
	}
	c := scene.RGBA(nums[0], nums[1], nums[2], 1)
	if len(nums) == 4 {
		c.A = nums[3]
	}
	return c, nil
}

// toMaterialName accepts a material value or a material name.
func toMaterialName(s zygo.Sexp) (string, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.name, nil
	}
	name, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected material or material name: %w", err)
	}
	return name, nil
}

// toObject resolves an object reference or an object name.
func toObject(s *scene.Scene, x zygo.Sexp) (*scene.Object, error) {
	if ref, ok := x.(*sexpObjectRef); ok {
		if o := s.Get(ref.id); o != nil {
			return o, nil
		}
		return nil, fmt.Errorf("object %q no longer exists", ref.name)
	}
	name, err := toString(x)
	if err != nil {
		return nil, fmt.Errorf("expected object or object name: %w", err)
	}
	o := s.Lookup(name)
	if o == nil {
		return nil, fmt.Errorf("no object named %q", name)
	}
	return o, nil
}

func objectRef(o *scene.Object) *sexpObjectRef {
	return &sexpObjectRef{id: o.ID, name: o.Name}
}

func sexpInt(n int) *zygo.SexpInt {
	return &zygo.SexpInt{Val: int64(n)}
}

// ---------------------------------------------------------------------------
// Run state
// ---------------------------------------------------------------------------

// runState is shared by the builtins of one run.
type runState struct {
	ctx    context.Context
	host   host.Host
	dir    string
	result *Result

	onRender func(Output)
	onLoad   func(Load)

	// fatal is the first host failure. It aborts the script and is returned
	// to the caller as an error rather than as an EvalError.
	fatal error
}

// fail records err as the run's fatal error.
func (st *runState) fail(err error) error {
	if st.fatal == nil {
		st.fatal = err
	}
	return err
}

// resolve makes path absolute relative to the script directory.
func (st *runState) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(filepath.Join(st.dir, path))
	if err != nil {
		return filepath.Join(st.dir, path)
	}
	return abs
}

// meshName is the default object name for a mesh loaded from path.
func meshName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// placement applies :location, :rotation and :scale keywords to o.
func placement(fn string, pa kwArgs, o *scene.Object) error {
	if v, ok := pa.kw["location"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return fmt.Errorf("%s: location: %w", fn, err)
		}
		o.Location = vec
	}
	if v, ok := pa.kw["rotation"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return fmt.Errorf("%s: rotation: %w", fn, err)
		}
		o.Rotation = vec
	}
	if v, ok := pa.kw["scale"]; ok {
		vec, err := toScale(v)
		if err != nil {
			return fmt.Errorf("%s: scale: %w", fn, err)
		}
		o.Scale = vec
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene API into a zygomys environment. The
// builtins operate on st.result.Scene and call st.host for imports and
// renders.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, st *runState) {
	s := st.result.Scene

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (rgba 0.2 0.2 0.2 1.0) ; alpha is optional
	// -----------------------------------------------------------------------
	env.AddFunction("rgba", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("rgba requires 3 or 4 arguments, got %d", len(args))
		}
		c := [4]float64{0, 0, 0, 1}
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rgba: component %d: %w", i, err)
			}
			c[i] = f
		}
		return &sexpColor{c: scene.RGBA(c[0], c[1], c[2], c[3])}, nil
	})

	// -----------------------------------------------------------------------
	// (clear-scene)
	// -----------------------------------------------------------------------
	env.AddFunction("clear_scene", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return sexpInt(s.Clear()), nil
	})

	// -----------------------------------------------------------------------
	// (import-obj "teapot.obj" :name "Teapot")
	// (load-obj "teapot.obj" :name "Teapot")
	//
	// import-obj uses the host importer only. load-obj falls back to the
	// built-in parser when the importer fails for any reason.
	// -----------------------------------------------------------------------
	loadFn := func(fn string, fallback bool) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a file path", fn)
			}
			rel, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: path: %w", fn, err)
			}
			path := st.resolve(rel)
			objName := meshName(path)
			if v, ok := pa.kw["name"]; ok {
				if objName, err = toString(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: name: %w", fn, err)
				}
			}
			if err := st.ctx.Err(); err != nil {
				return zygo.SexpNull, st.fail(err)
			}

			var obj *scene.Object
			usedFallback := false
			if fallback {
				obj, usedFallback, err = host.LoadOBJ(st.ctx, st.host, s, path, objName)
			} else {
				obj, err = st.host.ImportOBJ(st.ctx, s, path, objName)
			}
			if err != nil {
				return zygo.SexpNull, st.fail(fmt.Errorf("%s %s: %w", fn, rel, err))
			}

			md := obj.Mesh()
			l := Load{
				Name:     obj.Name,
				Path:     path,
				Fallback: usedFallback,
				Vertices: md.VertexCount(),
				Faces:    md.FaceCount(),
			}
			st.result.Loads = append(st.result.Loads, l)
			if st.onLoad != nil {
				st.onLoad(l)
			}
			return objectRef(obj), nil
		}
	}
	env.AddFunction("import_obj", loadFn("import-obj", false))
	env.AddFunction("load_obj", loadFn("load-obj", true))

	// -----------------------------------------------------------------------
	// (object "Teapot")
	// -----------------------------------------------------------------------
	env.AddFunction("object", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("object requires a name argument")
		}
		o, err := toObject(s, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("object: %w", err)
		}
		return objectRef(o), nil
	})

	// -----------------------------------------------------------------------
	// (transform "Teapot" :location (vec3 0 0 0) :rotation (vec3 90 0 0) :scale 2)
	// -----------------------------------------------------------------------
	env.AddFunction("transform", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("transform requires an object argument")
		}
		o, err := toObject(s, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("transform: %w", err)
		}
		if err := placement("transform", pa, o); err != nil {
			return zygo.SexpNull, err
		}
		return objectRef(o), nil
	})

	// -----------------------------------------------------------------------
	// (world-background (rgba 0.2 0.2 0.2 1.0))
	// -----------------------------------------------------------------------
	env.AddFunction("world_background", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("world-background requires a color argument")
		}
		c, err := toColor(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("world-background: %w", err)
		}
		s.World.Background = c
		return &sexpColor{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (sun-light "MainLight" :energy 2.0 :location (vec3 5 5 5) :color (rgba 1 1 1))
	// -----------------------------------------------------------------------
	env.AddFunction("sun_light", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("sun-light requires a name argument")
		}
		lightName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sun-light: name: %w", err)
		}

		ld := scene.LightData{Type: scene.LightSun, Energy: 1}
		if v, ok := pa.kw["energy"]; ok {
			if ld.Energy, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("sun-light: energy: %w", err)
			}
			if ld.Energy < 0 {
				return zygo.SexpNull, fmt.Errorf("sun-light: energy must not be negative, got %g", ld.Energy)
			}
		}
		if v, ok := pa.kw["color"]; ok {
			if ld.Color, err = toColor(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("sun-light: color: %w", err)
			}
		}

		o := s.AddLight(lightName, ld, v3.Vec{})
		if err := placement("sun-light", pa, o); err != nil {
			return zygo.SexpNull, err
		}
		return objectRef(o), nil
	})

	// -----------------------------------------------------------------------
	// (camera "Camera" :location (vec3 0 0 3) :lens 50 :active true)
	// -----------------------------------------------------------------------
	env.AddFunction("camera", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("camera requires a name argument")
		}
		camName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("camera: name: %w", err)
		}

		var cd scene.CameraData
		for kw, dst := range map[string]*float64{
			"lens":         &cd.Lens,
			"sensor-width": &cd.SensorWidth,
			"clip-start":   &cd.ClipStart,
			"clip-end":     &cd.ClipEnd,
		} {
			if v, ok := pa.kw[kw]; ok {
				if *dst, err = toFloat64(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("camera: %s: %w", kw, err)
				}
			}
		}
		active := true
		if v, ok := pa.kw["active"]; ok {
			if active, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("camera: active: %w", err)
			}
		}

		o := s.AddCamera(camName, cd, v3.Vec{})
		if err := placement("camera", pa, o); err != nil {
			return zygo.SexpNull, err
		}
		if active {
			if err := s.SetCamera(o.Name); err != nil {
				return zygo.SexpNull, fmt.Errorf("camera: %w", err)
			}
		}
		return objectRef(o), nil
	})

	// -----------------------------------------------------------------------
	// (material "TeapotMaterial" :base-color (rgba 0 0.33 1 1) :roughness 0.4)
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("material requires a name argument")
		}
		matName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
		}

		m := scene.DefaultMaterial
		m.Name = matName
		if v, ok := pa.kw["base-color"]; ok {
			if m.BaseColor, err = toColor(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("material: base-color: %w", err)
			}
		}
		if v, ok := pa.kw["roughness"]; ok {
			if m.Roughness, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("material: roughness: %w", err)
			}
		}
		if v, ok := pa.kw["metallic"]; ok {
			if m.Metallic, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("material: metallic: %w", err)
			}
		}
		if m.Roughness < 0 || m.Roughness > 1 || m.Metallic < 0 || m.Metallic > 1 {
			return zygo.SexpNull, fmt.Errorf("material: roughness and metallic must be in [0, 1]")
		}

		s.NewMaterial(m)
		return &sexpMaterial{name: matName}, nil
	})

	// -----------------------------------------------------------------------
	// (assign-material "TeapotMaterial") ; applies to selected meshes
	// -----------------------------------------------------------------------
	env.AddFunction("assign_material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("assign-material requires a material argument")
		}
		matName, err := toMaterialName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assign-material: %w", err)
		}
		n, err := s.AssignMaterial(matName)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assign-material: %w", err)
		}
		return sexpInt(n), nil
	})

	// -----------------------------------------------------------------------
	// (scale-selected 0.015) or (scale-selected (vec3 1 2 1))
	// -----------------------------------------------------------------------
	env.AddFunction("scale_selected", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("scale-selected requires a scale argument")
		}
		scale, err := toScale(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale-selected: %w", err)
		}
		return sexpInt(s.ScaleSelected(scale)), nil
	})

	// -----------------------------------------------------------------------
	// (render-settings :engine :cycles :samples 128 :format "PNG" :color-mode "RGBA")
	// -----------------------------------------------------------------------
	env.AddFunction("render_settings", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		rs := &s.Render
		for kw, dst := range map[string]*string{
			"engine":     &rs.Engine,
			"format":     &rs.FileFormat,
			"color-mode": &rs.ColorMode,
		} {
			if v, ok := pa.kw[kw]; ok {
				str, err := toKeywordString(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("render-settings: %s: %w", kw, err)
				}
				*dst = strings.ToUpper(str)
			}
		}
		if v, ok := pa.kw["samples"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("render-settings: samples: %w", err)
			}
			rs.Samples = n
		}
		if v, ok := pa.kw["maskable"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("render-settings: maskable: %w", err)
			}
			rs.Maskable = b
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (resolution 512 512) or (resolution 512)
	// -----------------------------------------------------------------------
	env.AddFunction("resolution", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 && len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("resolution requires a width and an optional height")
		}
		w, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("resolution: width: %w", err)
		}
		h := w
		if len(args) == 2 {
			if h, err = toInt(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("resolution: height: %w", err)
			}
		}
		s.Render.ResolutionX, s.Render.ResolutionY = w, h
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (output "icon-512.png")
	// -----------------------------------------------------------------------
	env.AddFunction("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("output requires a file path")
		}
		rel, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("output: %w", err)
		}
		s.Render.FilePath = st.resolve(rel)
		return &zygo.SexpStr{S: s.Render.FilePath}, nil
	})

	// -----------------------------------------------------------------------
	// (render) or (render :size 512 :out "icon-512.png" :maskable true)
	//
	// :size and :out update the render settings like resolution and output
	// do. :maskable applies to this render only.
	// -----------------------------------------------------------------------
	env.AddFunction("render", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("render takes keyword arguments only")
		}
		rs := &s.Render
		if v, ok := pa.kw["size"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("render: size: %w", err)
			}
			rs.ResolutionX, rs.ResolutionY = n, n
		}
		if v, ok := pa.kw["out"]; ok {
			rel, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("render: out: %w", err)
			}
			rs.FilePath = st.resolve(rel)
		}
		maskable := rs.Maskable
		if v, ok := pa.kw["maskable"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("render: maskable: %w", err)
			}
			maskable = b
		}
		if err := rs.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("render: %w", err)
		}
		if err := st.ctx.Err(); err != nil {
			return zygo.SexpNull, st.fail(err)
		}

		saved := rs.Maskable
		rs.Maskable = maskable
		err := st.host.Render(st.ctx, s)
		rs.Maskable = saved
		if err != nil {
			return zygo.SexpNull, st.fail(fmt.Errorf("render %s: %w", rs.FilePath, err))
		}

		st.result.Outputs = append(st.result.Outputs, Output{
			Path:     rs.FilePath,
			Width:    rs.ResolutionX,
			Height:   rs.ResolutionY,
			Maskable: maskable,
		})
		out := st.result.Outputs[len(st.result.Outputs)-1]
		if st.onRender != nil {
			st.onRender(out)
		}
		return &zygo.SexpStr{S: rs.FilePath}, nil
	})
}
