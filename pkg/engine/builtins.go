package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/path"
	"github.com/chazu/gimlet/pkg/scenario"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scenario source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: max-deviation -> max_deviation
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. Line comments: ; and ;; become //.
//
// All transformations respect string literal boundaries.
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
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys comments pass through untouched.
		if b[i] == '/' && i+1 < len(b) && b[i+1] == '/' {
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only a hyphen between identifier characters is rewritten; a
		// minus operator or negative literal is left alone.
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

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpShape wraps a scenario.Shape so it can be returned from `box` and
// friends and consumed by `surface` and `path :trigger`.
type sexpShape struct {
	shape scenario.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", s.shape.Kind)
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpRef names a declared surface, socket or path so it can be bound to
// a variable and passed to steps.
type sexpRef struct {
	kind string
	name string
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.kind, r.name)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

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
// A keyword value may itself be a keyword (`:mode :cut`).
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
				// Keyword at end with no value: a flag.
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

// float reads an optional numeric keyword into dst.
func (pa kwArgs) float(key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// vec reads an optional vec3 keyword into dst.
func (pa kwArgs) vec(key string, dst *v3.Vec) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = vec
	return nil
}

// flag reads an optional boolean keyword into dst.
func (pa kwArgs) flag(key string, dst *bool) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	b, err := toBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
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

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected whole number, got %g", f)
	}
	return int(f), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_cut) and plain strings ("cut").
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

// toBool accepts true/false literals, :true/:false style keywords and the
// valueless trailing flag.
func toBool(s zygo.Sexp) (bool, error) {
	if s == zygo.SexpNull {
		return true, nil
	}
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	name, err := toKeywordString(s)
	if err != nil {
		return false, fmt.Errorf("expected boolean: %w", err)
	}
	switch strings.ToLower(name) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("expected boolean, got %q", name)
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toName extracts an entity name from a string or a reference returned by
// a declaration form.
func toName(s zygo.Sexp) (string, error) {
	if r, ok := s.(*sexpRef); ok {
		return r.name, nil
	}
	return toString(s)
}

// toShapes accepts a shape or a list of shapes.
func toShapes(s zygo.Sexp) ([]scenario.Shape, error) {
	if sh, ok := s.(*sexpShape); ok {
		return []scenario.Shape{sh.shape}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected shape or list of shapes: %w", err)
	}
	shapes := make([]scenario.Shape, 0, len(items))
	for i, item := range items {
		sh, ok := item.(*sexpShape)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected shape, got %T (%s)", i+1, item, item.SexpString(nil))
		}
		shapes = append(shapes, sh.shape)
	}
	return shapes, nil
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

// ---------------------------------------------------------------------------
// Script builder
// ---------------------------------------------------------------------------

// builder accumulates the forms of one evaluation.
type builder struct {
	script  *scenario.Script
	presets scenario.Presets
	log     *logger.Logger
	bitSet  bool
}

func newBuilder(p scenario.Presets, log *logger.Logger) *builder {
	return &builder{script: scenario.New(p), presets: p, log: log}
}

func (b *builder) step(st scenario.Step) (zygo.Sexp, error) {
	b.script.Steps = append(b.script.Steps, st)
	return zygo.SexpNull, nil
}

// builtinFn is the signature zygomys expects for Go builtins.
type builtinFn = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scenario DSL into a zygomys environment.
// Declarations and steps are appended to b.script in evaluation order.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	fns := map[string]builtinFn{
		"vec3":     b.vec3,
		"box":      b.box,
		"cylinder": b.cylinder,
		"sphere":   b.sphere,
		"surface":  b.surface,
		"socket":   b.socket,
		"bit":      b.bit,
		"path":     b.path,
		"press":    b.simpleStep(scenario.StepPress),
		"release":  b.simpleStep(scenario.StepRelease),
		"drop":     b.simpleStep(scenario.StepDrop),
		"move":     b.move,
		"tick":     b.tick,
		"grab":     b.targetStep(scenario.StepGrab),
		"complete": b.targetStep(scenario.StepComplete),
		"lock":     b.targetStep(scenario.StepLock),
		"unlock":   b.targetStep(scenario.StepUnlock),
	}
	for name, fn := range fns {
		env.AddFunction(name, fn)
	}
}

// ---------------------------------------------------------------------------
// (vec3 1 2 3)
// ---------------------------------------------------------------------------
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}

	var c [3]float64
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		c[i] = f
	}
	return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
}

// placement reads the :at and :rotate keywords shared by shapes,
// surfaces and paths.
func placement(form string, pa kwArgs) (at, rotate v3.Vec, err error) {
	if err = pa.vec("at", &at); err != nil {
		return at, rotate, fmt.Errorf("%s: %w", form, err)
	}
	if err = pa.vec("rotate", &rotate); err != nil {
		return at, rotate, fmt.Errorf("%s: %w", form, err)
	}
	return at, rotate, nil
}

// ---------------------------------------------------------------------------
// (box 1 0.1 1 :at (vec3 0 0 0) :rotate (vec3 0 45 0))
// (box (vec3 1 0.1 1))
// ---------------------------------------------------------------------------
func (b *builder) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	sh := scenario.Shape{Kind: scenario.ShapeBox}

	switch len(pa.positional) {
	case 1:
		v, err := toVec3(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		sh.Size = v
	case 3:
		var c [3]float64
		for i := range c {
			f, err := toFloat64(pa.positional[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			c[i] = f
		}
		sh.Size = v3.Vec{X: c[0], Y: c[1], Z: c[2]}
	default:
		return zygo.SexpNull, fmt.Errorf("box requires a size vec3 or 3 extents, got %d values", len(pa.positional))
	}

	var err error
	if sh.At, sh.Rotate, err = placement("box", pa); err != nil {
		return zygo.SexpNull, err
	}
	return &sexpShape{shape: sh}, nil
}

// ---------------------------------------------------------------------------
// (cylinder :height 0.5 :radius 0.1 :at (vec3 0 0 0) :rotate (vec3 90 0 0))
// ---------------------------------------------------------------------------
func (b *builder) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	sh := scenario.Shape{Kind: scenario.ShapeCylinder}

	if err := pa.float("height", &sh.Height); err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
	}
	if err := pa.float("radius", &sh.Radius); err != nil {
		return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
	}

	var err error
	if sh.At, sh.Rotate, err = placement("cylinder", pa); err != nil {
		return zygo.SexpNull, err
	}
	return &sexpShape{shape: sh}, nil
}

// ---------------------------------------------------------------------------
// (sphere 0.05 :at (vec3 1 0 0))
// ---------------------------------------------------------------------------
func (b *builder) sphere(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	sh := scenario.Shape{Kind: scenario.ShapeSphere}

	if len(pa.positional) > 0 {
		r, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		sh.Radius = r
	}
	if err := pa.float("radius", &sh.Radius); err != nil {
		return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
	}
	if err := pa.vec("at", &sh.At); err != nil {
		return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
	}
	return &sexpShape{shape: sh}, nil
}

// ---------------------------------------------------------------------------
// (surface "board" :at (vec3 0 0 0) :locked :false (box 1 0.1 1) ...)
// ---------------------------------------------------------------------------
func (b *builder) surface(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("surface requires a name argument")
	}

	sfName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("surface: name: %w", err)
	}
	sf := scenario.Surface{Name: sfName}

	if sf.At, sf.Rotate, err = placement("surface", pa); err != nil {
		return zygo.SexpNull, err
	}
	if err := pa.flag("locked", &sf.Locked); err != nil {
		return zygo.SexpNull, fmt.Errorf("surface: %w", err)
	}
	for i, arg := range pa.positional[1:] {
		shapes, err := toShapes(arg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("surface %q: body %d: %w", sfName, i+1, err)
		}
		sf.Shapes = append(sf.Shapes, shapes...)
	}

	b.script.Surfaces = append(b.script.Surfaces, sf)
	return &sexpRef{kind: "surface", name: sfName}, nil
}

// ---------------------------------------------------------------------------
// (socket "pilot" :surface "board" :enter (vec3 0 0.05 0) :end (vec3 0 0 0)
//         :width 0.01 :enter-tol 0.02 :end-tol 0.04 :width-tol 0.01
//         :auto-place :false)
// ---------------------------------------------------------------------------
func (b *builder) socket(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("socket requires a name argument")
	}

	skName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("socket: name: %w", err)
	}
	preset := b.presets.Socket
	sk := scenario.Socket{
		Name:       skName,
		Width:      preset.Width,
		Tolerances: preset.Tolerances,
		AutoPlace:  preset.AutoPlace,
	}

	if v, ok := pa.kw["surface"]; ok {
		if sk.Surface, err = toName(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("socket: surface: %w", err)
		}
	}
	if err := pa.vec("enter", &sk.Enter); err != nil {
		return zygo.SexpNull, fmt.Errorf("socket: %w", err)
	}
	if _, ok := pa.kw["end"]; ok {
		var end v3.Vec
		if err := pa.vec("end", &end); err != nil {
			return zygo.SexpNull, fmt.Errorf("socket: %w", err)
		}
		sk.End = &end
	}
	if err := pa.vec("rotate", &sk.Rotate); err != nil {
		return zygo.SexpNull, fmt.Errorf("socket: %w", err)
	}

	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"width", &sk.Width},
		{"enter-tol", &sk.Tolerances.Enter},
		{"end-tol", &sk.Tolerances.End},
		{"width-tol", &sk.Tolerances.Width},
	} {
		if err := pa.float(f.key, f.dst); err != nil {
			return zygo.SexpNull, fmt.Errorf("socket: %w", err)
		}
	}
	if err := pa.flag("auto-place", &sk.AutoPlace); err != nil {
		return zygo.SexpNull, fmt.Errorf("socket: %w", err)
	}

	b.script.Sockets = append(b.script.Sockets, sk)
	return &sexpRef{kind: "socket", name: skName}, nil
}

// ---------------------------------------------------------------------------
// (bit :width 0.05 :length 0.1 :max-deviation 0.05)
// ---------------------------------------------------------------------------
func (b *builder) bit(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if b.bitSet {
		b.log.Warn("bit declared more than once; the last declaration wins")
	}
	bit := b.presets.Bit

	if err := pa.float("width", &bit.Width); err != nil {
		return zygo.SexpNull, fmt.Errorf("bit: %w", err)
	}
	if err := pa.float("length", &bit.Length); err != nil {
		return zygo.SexpNull, fmt.Errorf("bit: %w", err)
	}
	if err := pa.float("max-deviation", &bit.MaxDeviation); err != nil {
		return zygo.SexpNull, fmt.Errorf("bit: %w", err)
	}

	b.script.Bit = bit
	b.bitSet = true
	return zygo.SexpNull, nil
}

// ---------------------------------------------------------------------------
// (path "edge" :knots (list (vec3 0 0 0) (vec3 1 0 0)) :mode :cut
//       :up 0.02 :down 0.02 :left 0.01 :right 0.01
//       :roll 0 :pitch 0 :roll-tol 5 :pitch-tol 5
//       :fail (list :up :down) :ignore-angles :true :reset :false
//       :trigger (sphere 0.05))
// ---------------------------------------------------------------------------
func (b *builder) path(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("path requires a name argument")
	}

	pName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("path: name: %w", err)
	}
	preset := b.presets.Path
	p := scenario.Path{
		Name:   pName,
		Bounds: preset.Bounds,
		Angles: preset.Angles,
		Fail:   preset.Fail,
		Reset:  preset.Reset,
	}

	if v, ok := pa.kw["knots"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: knots: %w", err)
		}
		for i, item := range items {
			k, err := toVec3(item)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("path: knot %d: %w", i+1, err)
			}
			p.Knots = append(p.Knots, k)
		}
	}
	if p.At, p.Rotate, err = placement("path", pa); err != nil {
		return zygo.SexpNull, err
	}
	if v, ok := pa.kw["mode"]; ok {
		s, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: mode: %w", err)
		}
		if p.Mode, err = path.ParseMode(s); err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
	}

	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"up", &p.Bounds.Up},
		{"down", &p.Bounds.Down},
		{"left", &p.Bounds.Left},
		{"right", &p.Bounds.Right},
		{"roll", &p.Angles.Roll},
		{"pitch", &p.Angles.Pitch},
		{"roll-tol", &p.Angles.RollTolerance},
		{"pitch-tol", &p.Angles.PitchTolerance},
	} {
		if err := pa.float(f.key, f.dst); err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
	}

	if v, ok := pa.kw["fail"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("path: fail: %w", err)
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			s, err := toKeywordString(item)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("path: fail: %w", err)
			}
			names = append(names, s)
		}
		if p.Fail, err = path.ParseFailModes(names); err != nil {
			return zygo.SexpNull, fmt.Errorf("path: fail: %w", err)
		}
	}

	for _, f := range []struct {
		key string
		dst *bool
	}{
		{"ignore-angles", &p.IgnoreAngles},
		{"reset", &p.Reset},
		{"locked", &p.Locked},
	} {
		if err := pa.flag(f.key, f.dst); err != nil {
			return zygo.SexpNull, fmt.Errorf("path: %w", err)
		}
	}

	if v, ok := pa.kw["trigger"]; ok {
		if p.Triggers, err = toShapes(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("path: trigger: %w", err)
		}
	}

	b.script.Paths = append(b.script.Paths, p)
	return &sexpRef{kind: "path", name: pName}, nil
}

// ---------------------------------------------------------------------------
// Steps: (press) (release) (drop)
// ---------------------------------------------------------------------------
func (b *builder) simpleStep(kind scenario.StepKind) builtinFn {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("%s takes no arguments, got %d", kind, len(args))
		}
		return b.step(scenario.Step{Kind: kind})
	}
}

// ---------------------------------------------------------------------------
// Steps: (grab "edge") (complete "edge") (lock "board") (unlock "board")
// ---------------------------------------------------------------------------
func (b *builder) targetStep(kind scenario.StepKind) builtinFn {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires a target name", kind)
		}
		target, err := toName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: target: %w", kind, err)
		}
		return b.step(scenario.Step{Kind: kind, Target: target})
	}
}

// ---------------------------------------------------------------------------
// (move (vec3 0 0.1 0) :forward (vec3 0 -1 0) :up (vec3 0 0 1) :ticks 10)
// ---------------------------------------------------------------------------
func (b *builder) move(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("move requires a target position")
	}

	pos, err := toVec3(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("move: position: %w", err)
	}
	st := scenario.Step{Kind: scenario.StepMove, Position: pos, Ticks: 1}

	for _, key := range []string{"forward", "up"} {
		if _, ok := pa.kw[key]; !ok {
			continue
		}
		var dir v3.Vec
		if err := pa.vec(key, &dir); err != nil {
			return zygo.SexpNull, fmt.Errorf("move: %w", err)
		}
		if key == "forward" {
			st.Forward = &dir
		} else {
			st.Up = &dir
		}
	}
	if v, ok := pa.kw["ticks"]; ok {
		if st.Ticks, err = toInt(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("move: ticks: %w", err)
		}
	}
	return b.step(st)
}

// ---------------------------------------------------------------------------
// (tick 5)
// ---------------------------------------------------------------------------
func (b *builder) tick(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	st := scenario.Step{Kind: scenario.StepTick, Ticks: 1}
	switch len(args) {
	case 0:
	case 1:
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tick: %w", err)
		}
		st.Ticks = n
	default:
		return zygo.SexpNull, fmt.Errorf("tick takes at most one argument, got %d", len(args))
	}
	return b.step(st)
}
