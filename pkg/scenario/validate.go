package scenario

import (
	"fmt"

	"github.com/chazu/gimlet/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Severity indicates whether a finding blocks simulation or is merely
// informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks simulation
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding is a single validation result. Entity names the offending form,
// e.g. `socket "pilot"` or `step 3`, and is empty for script-level issues.
type Finding struct {
	Entity   string   `json:"entity,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (f Finding) Error() string {
	if f.Entity == "" {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Entity, f.Message)
}

// Result separates blocking errors from warnings.
type Result struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// OK reports whether the script may be simulated.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural and geometric checks. It never mutates s.
func Validate(s *Script) Result {
	var all []Finding
	all = append(all, validateNames(s)...)
	all = append(all, validateReferences(s)...)
	all = append(all, validateGeometry(s)...)
	all = append(all, validateSteps(s)...)
	all = append(all, advise(s)...)

	result := Result{Errors: []Finding{}, Warnings: []Finding{}}
	for _, f := range all {
		if f.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, f)
		} else {
			result.Errors = append(result.Errors, f)
		}
	}
	return result
}

func errorf(entity, format string, args ...any) Finding {
	return Finding{Entity: entity, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(entity, format string, args ...any) Finding {
	return Finding{Entity: entity, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

func surfaceEntity(name string) string { return fmt.Sprintf("surface %q", name) }
func socketEntity(name string) string  { return fmt.Sprintf("socket %q", name) }
func pathEntity(name string) string    { return fmt.Sprintf("path %q", name) }
func stepEntity(i int) string          { return fmt.Sprintf("step %d", i+1) }

// validateNames checks that every named entity has a unique, non-empty
// name. Surfaces and paths share a namespace because lock steps address
// both.
func validateNames(s *Script) []Finding {
	var errs []Finding

	seen := make(map[string]string)
	claim := func(kind, name string) {
		if name == "" {
			errs = append(errs, errorf("", "%s has no name", kind))
			return
		}
		if prev, ok := seen[name]; ok {
			errs = append(errs, errorf(fmt.Sprintf("%s %q", kind, name), "name already used by a %s", prev))
			return
		}
		seen[name] = kind
	}
	for _, sf := range s.Surfaces {
		claim("surface", sf.Name)
	}
	for _, p := range s.Paths {
		claim("path", p.Name)
	}

	sockets := make(map[string]bool)
	for _, sk := range s.Sockets {
		if sk.Name == "" {
			errs = append(errs, errorf("", "socket has no name"))
			continue
		}
		if sockets[sk.Name] {
			errs = append(errs, errorf(socketEntity(sk.Name), "duplicate socket name"))
		}
		sockets[sk.Name] = true
	}
	return errs
}

// validateReferences checks that names used by sockets and steps exist.
func validateReferences(s *Script) []Finding {
	var errs []Finding

	for _, sk := range s.Sockets {
		if sk.Surface != "" && s.Surface(sk.Surface) == nil {
			errs = append(errs, errorf(socketEntity(sk.Name), "target surface %q does not exist", sk.Surface))
		}
	}

	for i, st := range s.Steps {
		switch st.Kind {
		case StepGrab, StepComplete:
			if s.Path(st.Target) == nil {
				errs = append(errs, errorf(stepEntity(i), "%s: path %q does not exist", st.Kind, st.Target))
			}
		case StepLock, StepUnlock:
			if s.Surface(st.Target) == nil && s.Path(st.Target) == nil {
				errs = append(errs, errorf(stepEntity(i), "%s: no surface or path named %q", st.Kind, st.Target))
			}
		}
	}
	return errs
}

// validateGeometry checks sizes, widths and tolerances.
func validateGeometry(s *Script) []Finding {
	var errs []Finding

	for _, sf := range s.Surfaces {
		if len(sf.Shapes) == 0 {
			errs = append(errs, errorf(surfaceEntity(sf.Name), "surface has no shapes"))
		}
		for i, sh := range sf.Shapes {
			errs = append(errs, validateShape(surfaceEntity(sf.Name), i, sh)...)
		}
	}

	for _, sk := range s.Sockets {
		entity := socketEntity(sk.Name)
		if sk.Width <= 0 {
			errs = append(errs, errorf(entity, "width is %g, must be positive", sk.Width))
		}
		tol := sk.Tolerances
		for _, t := range []struct {
			name string
			v    float64
		}{{"enter", tol.Enter}, {"end", tol.End}, {"width", tol.Width}} {
			if t.v < 0 {
				errs = append(errs, errorf(entity, "%s tolerance is %g, must not be negative", t.name, t.v))
			}
		}
	}

	bit := s.Bit
	if bit.Width <= 0 {
		errs = append(errs, errorf("bit", "width is %g, must be positive", bit.Width))
	}
	if bit.Length <= 0 {
		errs = append(errs, errorf("bit", "length is %g, must be positive", bit.Length))
	}
	if bit.MaxDeviation <= 0 {
		errs = append(errs, errorf("bit", "max deviation is %g, must be positive", bit.MaxDeviation))
	}

	for _, p := range s.Paths {
		entity := pathEntity(p.Name)
		if len(p.Knots) < 2 {
			errs = append(errs, errorf(entity, "needs at least 2 knots, has %d", len(p.Knots)))
		}
		b := p.Bounds
		if b.Down < 0 || b.Left < 0 || b.Right < 0 {
			errs = append(errs, errorf(entity, "down, left and right bounds must not be negative"))
		}
		if p.Angles.RollTolerance < 0 || p.Angles.PitchTolerance < 0 {
			errs = append(errs, errorf(entity, "angle tolerances must not be negative"))
		}
		for i, sh := range p.Triggers {
			errs = append(errs, validateShape(entity, i, sh)...)
		}
	}
	return errs
}

func validateShape(entity string, index int, sh Shape) []Finding {
	var errs []Finding
	bad := func(what string, v float64) {
		errs = append(errs, errorf(entity, "%s %d %s is %g, must be positive", sh.Kind, index+1, what, v))
	}
	switch sh.Kind {
	case ShapeBox:
		if sh.Size.X <= 0 {
			bad("x", sh.Size.X)
		}
		if sh.Size.Y <= 0 {
			bad("y", sh.Size.Y)
		}
		if sh.Size.Z <= 0 {
			bad("z", sh.Size.Z)
		}
	case ShapeCylinder:
		if sh.Height <= 0 {
			bad("height", sh.Height)
		}
		if sh.Radius <= 0 {
			bad("radius", sh.Radius)
		}
	case ShapeSphere:
		if sh.Radius <= 0 {
			bad("radius", sh.Radius)
		}
	default:
		errs = append(errs, errorf(entity, "shape %d has unknown kind %d", index+1, int(sh.Kind)))
	}
	return errs
}

func validateSteps(s *Script) []Finding {
	var errs []Finding
	for i, st := range s.Steps {
		if (st.Kind == StepMove || st.Kind == StepTick) && st.Ticks < 0 {
			errs = append(errs, errorf(stepEntity(i), "tick count %d must not be negative", st.Ticks))
		}
		if st.Kind == StepMove && st.Forward != nil && geom.IsZero(*st.Forward) {
			errs = append(errs, errorf(stepEntity(i), "forward direction is zero"))
		}
	}
	return errs
}

// advise produces warnings for scripts that will run but probably do not
// do what the author meant.
func advise(s *Script) []Finding {
	var warnings []Finding

	for _, sk := range s.Sockets {
		if sk.Surface == "" {
			warnings = append(warnings, warnf(socketEntity(sk.Name), "no target surface; every surface is checked"))
		}
		if sk.End != nil && geom.Distance(*sk.End, sk.Enter) < 1e-9 {
			warnings = append(warnings, warnf(socketEntity(sk.Name), "end point equals enter point"))
		}
	}

	used := lo.FilterMap(s.Steps, func(st Step, _ int) (string, bool) {
		return st.Target, st.Kind == StepGrab || st.Kind == StepComplete
	})
	for _, p := range s.Paths {
		if len(p.Triggers) == 0 && !lo.Contains(used, p.Name) {
			warnings = append(warnings, warnf(pathEntity(p.Name), "never grabbed and has no triggers"))
		}
		if len(p.Knots) >= 2 && lo.EveryBy(p.Knots, func(k v3.Vec) bool { return geom.Distance(k, p.Knots[0]) < 1e-9 }) {
			warnings = append(warnings, warnf(pathEntity(p.Name), "all knots coincide; the path has no length and is never scored"))
		}
	}
	return warnings
}
