package path

import (
	"errors"
	"math"
	"testing"

	gimleterrors "github.com/chazu/gimlet/pkg/errors"
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/kernel/sdfx"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// level returns a tip pose at p pointing along +X, the direction of travel
// of the straight test reference.
func level(p v3.Vec) *geom.Pose {
	pose := geom.PoseLookAt(p, geom.AxisX, geom.WorldUp)
	return &pose
}

func newFollower(t *testing.T, opts Options) (*Session, *geom.Pose) {
	t.Helper()
	s, err := NewSession(straight(t), opts)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	tip := level(v3.Vec{})
	if !s.Attach(tip) {
		t.Fatal("Attach() = false, want true")
	}
	return s, tip
}

func TestNewSessionRequiresReference(t *testing.T) {
	s, err := NewSession(nil, DefaultOptions())
	if s != nil || err == nil {
		t.Fatalf("NewSession(nil) = %v, %v, want error", s, err)
	}
	var setup *gimleterrors.SetupError
	if !errors.As(err, &setup) {
		t.Errorf("NewSession(nil) error = %T, want *SetupError", err)
	}
}

func TestTickSkipsWithoutTipOrLength(t *testing.T) {
	s, err := NewSession(straight(t), DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	if _, ok := s.Tick(); ok {
		t.Error("Tick() without a tip evaluated")
	}

	dot, err := NewReference("dot", []v3.Vec{{}, {}}, geom.Pose{}, ReferenceOptions{})
	if err != nil {
		t.Fatalf("NewReference() failed: %v", err)
	}
	s, err = NewSession(dot, DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	s.Attach(level(v3.Vec{}))
	if _, ok := s.Tick(); ok {
		t.Error("Tick() on a zero-length curve evaluated")
	}
	if s.Progress() != 0 {
		t.Errorf("Progress() = %v, want 0", s.Progress())
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	s, tip := newFollower(t, DefaultOptions())

	steps := []struct {
		x    float64
		want float64
	}{
		{0.2, 0.2},
		{0.6, 0.6},
		{0.3, 0.6},
		{0.7, 0.7},
	}
	for _, step := range steps {
		tip.Position = v3.Vec{X: step.x}
		sample, ok := s.Tick()
		if !ok {
			t.Fatalf("Tick() at x=%v did not evaluate", step.x)
		}
		if sample.Failed.Any() {
			t.Errorf("Tick() at x=%v failed %v", step.x, sample.Failed)
		}
		if math.Abs(s.Progress()-step.want) > 1e-9 {
			t.Errorf("Progress() at x=%v = %v, want %v", step.x, s.Progress(), step.want)
		}
	}
	if s.IsCompleted() {
		t.Error("IsCompleted() = true before reaching the end")
	}
}

func TestCompletionLatches(t *testing.T) {
	s, tip := newFollower(t, DefaultOptions())
	var events []CompletedEvent
	s.OnCompleted(func(e CompletedEvent) { events = append(events, e) })

	tip.Position = v3.Vec{X: 1.2}
	s.Tick()
	tip.Position = v3.Vec{X: 0.5}
	s.Tick()

	if !s.IsCompleted() || s.Progress() != 1 {
		t.Errorf("IsCompleted() = %v, Progress() = %v, want true, 1", s.IsCompleted(), s.Progress())
	}
	if len(events) != 1 || events[0].Forced {
		t.Errorf("completed events = %+v, want one unforced", events)
	}
}

func TestBoundsFailures(t *testing.T) {
	tests := []struct {
		name   string
		offset v3.Vec
		want   FailModes
	}{
		{"inside", v3.Vec{Y: 0.01, Z: 0.005}, FailModes{}},
		{"above", v3.Vec{Y: 0.03}, FailModes{Up: true}},
		{"below", v3.Vec{Y: -0.03}, FailModes{Down: true}},
		{"left", v3.Vec{Z: 0.02}, FailModes{Left: true}},
		{"right", v3.Vec{Z: -0.02}, FailModes{Right: true}},
		{"above and right", v3.Vec{Y: 0.05, Z: -0.05}, FailModes{Up: true, Right: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tip := newFollower(t, DefaultOptions())
			tip.Position = v3.Vec{X: 0.5}.Add(tt.offset)
			sample, _ := s.Tick()
			if sample.Failed != tt.want {
				t.Errorf("Failed = %v, want %v", sample.Failed, tt.want)
			}
			if math.Abs(sample.UpDown-tt.offset.Y) > 1e-9 || math.Abs(sample.LeftRight-tt.offset.Z) > 1e-9 {
				t.Errorf("offsets = (%v, %v), want (%v, %v)", sample.UpDown, sample.LeftRight, tt.offset.Y, tt.offset.Z)
			}
		})
	}
}

func TestDisabledFailModeIsIgnored(t *testing.T) {
	opts := DefaultOptions()
	opts.Fail.Up = false
	s, tip := newFollower(t, opts)
	var fails int
	s.OnFailed(func(FailEvent) { fails++ })

	tip.Position = v3.Vec{X: 0.5, Y: 0.5}
	sample, _ := s.Tick()
	if sample.Failed.Any() || fails != 0 {
		t.Errorf("Failed = %v (%d events), want none", sample.Failed, fails)
	}
}

func TestNegativeUpDemandsDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.Bounds.Up = -0.01
	s, tip := newFollower(t, opts)

	tip.Position = v3.Vec{X: 0.5}
	if sample, _ := s.Tick(); !sample.Failed.Up {
		t.Error("tip on the curve passed a minimum depth of 0.01")
	}
	tip.Position = v3.Vec{X: 0.5, Y: -0.015}
	if sample, _ := s.Tick(); sample.Failed.Any() {
		t.Errorf("tip at depth 0.015 failed %v", sample.Failed)
	}
}

func TestBoundsNormalize(t *testing.T) {
	tests := []struct {
		in   Bounds
		want float64
	}{
		{Bounds{Up: -0.05, Down: 0.02}, -0.02},
		{Bounds{Up: -0.01, Down: 0.02}, -0.01},
		{Bounds{Up: 0.05, Down: 0.02}, 0.05},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize().Up; got != tt.want {
			t.Errorf("%+v.Normalize().Up = %v, want %v", tt.in, got, tt.want)
		}
	}

	s, err := NewSession(straight(t), Options{Bounds: Bounds{Up: -1, Down: 0.1}})
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	if got := s.Options().Bounds.Up; got != -0.1 {
		t.Errorf("session Up = %v, want -0.1", got)
	}
}

func TestAngleChecks(t *testing.T) {
	rad := 10 * math.Pi / 180
	tests := []struct {
		name      string
		forward   v3.Vec
		ignore    bool
		wantRoll  float64
		wantPitch float64
		want      FailModes
	}{
		{"level", geom.AxisX, false, 0, 0, FailModes{}},
		{"nose up", v3.Vec{X: math.Cos(rad), Y: math.Sin(rad)}, false, 0, 10, FailModes{Pitch: true}},
		{"nose down", v3.Vec{X: math.Cos(rad), Y: -math.Sin(rad)}, false, 180, -10, FailModes{Roll: true, Pitch: true}},
		{"nose left", v3.Vec{X: math.Cos(rad), Z: math.Sin(rad)}, false, 90, 0, FailModes{Roll: true}},
		{"ignored", v3.Vec{X: math.Cos(rad), Y: math.Sin(rad)}, true, 0, 0, FailModes{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.IgnoreAngles = tt.ignore
			s, tip := newFollower(t, opts)
			*tip = geom.PoseLookAt(v3.Vec{X: 0.5}, tt.forward, geom.WorldUp)

			sample, _ := s.Tick()
			if math.Abs(geom.DeltaAngle(tt.wantRoll, sample.Roll)) > 1e-4 || math.Abs(sample.Pitch-tt.wantPitch) > 1e-4 {
				t.Errorf("roll, pitch = %v, %v, want %v, %v", sample.Roll, sample.Pitch, tt.wantRoll, tt.wantPitch)
			}
			if sample.Failed != tt.want {
				t.Errorf("Failed = %v, want %v", sample.Failed, tt.want)
			}
		})
	}
}

func TestAngleTargets(t *testing.T) {
	opts := DefaultOptions()
	opts.Angles.Pitch = 10
	s, tip := newFollower(t, opts)

	rad := 12 * math.Pi / 180
	*tip = geom.PoseLookAt(v3.Vec{X: 0.5}, v3.Vec{X: math.Cos(rad), Y: math.Sin(rad)}, geom.WorldUp)
	if sample, _ := s.Tick(); sample.Failed.Pitch {
		t.Errorf("pitch %v failed against target 10 +/- 5", sample.Pitch)
	}
}

func TestResetOnDeviation(t *testing.T) {
	opts := DefaultOptions()
	opts.ResetOnDeviation = true
	s, tip := newFollower(t, opts)
	var completed, failed int
	s.OnCompleted(func(CompletedEvent) { completed++ })
	s.OnFailed(func(FailEvent) { failed++ })

	tip.Position = v3.Vec{X: 1.1}
	s.Tick()
	if !s.IsCompleted() {
		t.Fatal("IsCompleted() = false after reaching the end")
	}

	tip.Position = v3.Vec{X: 0.8, Y: 0.1}
	s.Tick()
	if s.IsCompleted() || s.Progress() != 0 {
		t.Errorf("after deviation IsCompleted() = %v, Progress() = %v, want false, 0", s.IsCompleted(), s.Progress())
	}
	if failed != 1 || s.Failures() != 1 {
		t.Errorf("failures = %d events, %d counted, want 1", failed, s.Failures())
	}

	tip.Position = v3.Vec{X: 1.1}
	s.Tick()
	if !s.IsCompleted() || completed != 2 {
		t.Errorf("IsCompleted() = %v after %d completions, want true after 2", s.IsCompleted(), completed)
	}
}

func TestDeviationWithoutResetKeepsProgress(t *testing.T) {
	s, tip := newFollower(t, DefaultOptions())

	tip.Position = v3.Vec{X: 0.6}
	s.Tick()
	tip.Position = v3.Vec{X: 0.7, Y: 0.1}
	sample, _ := s.Tick()

	if !sample.Failed.Up {
		t.Fatalf("Failed = %v, want up", sample.Failed)
	}
	if math.Abs(s.Progress()-0.7) > 1e-9 {
		t.Errorf("Progress() = %v, want 0.7", s.Progress())
	}
}

func TestCompletePath(t *testing.T) {
	s, err := NewSession(straight(t), DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	var events []CompletedEvent
	s.OnCompleted(func(e CompletedEvent) { events = append(events, e) })

	s.CompletePath()
	s.CompletePath()

	if !s.IsCompleted() || s.Progress() != 1 {
		t.Errorf("IsCompleted() = %v, Progress() = %v, want true, 1", s.IsCompleted(), s.Progress())
	}
	if len(events) != 1 || !events[0].Forced {
		t.Errorf("completed events = %+v, want one forced", events)
	}
}

func TestCutModeOnlyScoresBelowCurve(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = ModeCut
	s, tip := newFollower(t, opts)
	var fails int
	s.OnFailed(func(FailEvent) { fails++ })

	tip.Position = v3.Vec{X: 0.5, Y: 0.5}
	sample, ok := s.Tick()
	if !ok || sample.Inside {
		t.Errorf("Tick() above the curve = inside %v, ok %v, want outside", sample.Inside, ok)
	}
	if s.Progress() != 0 || fails != 0 {
		t.Errorf("above the curve Progress() = %v with %d failures, want 0, 0", s.Progress(), fails)
	}

	tip.Position = v3.Vec{X: 0.5, Y: -0.005}
	sample, _ = s.Tick()
	if !sample.Inside || sample.Failed.Any() {
		t.Errorf("below the curve inside = %v, failed %v", sample.Inside, sample.Failed)
	}
	if math.Abs(s.Progress()-0.5) > 1e-9 {
		t.Errorf("Progress() = %v, want 0.5", s.Progress())
	}

	tip.Position = v3.Vec{X: 0.6, Y: -0.05}
	if sample, _ = s.Tick(); !sample.Failed.Down {
		t.Errorf("too deep Failed = %v, want down", sample.Failed)
	}
}

func TestAttach(t *testing.T) {
	ref := straight(t)
	s, err := NewSession(ref, DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}

	if s.Attach(nil) {
		t.Error("Attach(nil) = true")
	}
	ref.SetLocked(true)
	if s.Attach(level(v3.Vec{})) {
		t.Error("Attach() on a locked reference = true")
	}
	ref.SetLocked(false)
	if !s.Attach(level(v3.Vec{})) {
		t.Fatal("Attach() = false")
	}
	if s.Attach(level(v3.Vec{})) {
		t.Error("second Attach() = true")
	}
	s.Detach()
	if s.Attached() {
		t.Error("Attached() = true after Detach()")
	}
}

func TestContactAttachesThroughTrigger(t *testing.T) {
	ref := straight(t)
	ball, err := sdfx.New().Sphere(0.05)
	if err != nil {
		t.Fatalf("Sphere() failed: %v", err)
	}
	trigger, err := scene.NewRegion("start", ball, nil)
	if err != nil {
		t.Fatalf("NewRegion() failed: %v", err)
	}
	other, err := scene.NewRegion("other", ball, nil)
	if err != nil {
		t.Fatalf("NewRegion() failed: %v", err)
	}
	ref.Attach(trigger)
	if trigger.Owner != ref {
		t.Errorf("trigger owner = %v, want the reference", trigger.Owner)
	}

	s, err := NewSession(ref, DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	if s.Contact(other, level(v3.Vec{})) {
		t.Error("Contact() through a foreign region = true")
	}
	if !s.Contact(trigger, level(v3.Vec{})) {
		t.Error("Contact() through the trigger = false")
	}
}

func TestCloseDetachesAndClears(t *testing.T) {
	s, tip := newFollower(t, DefaultOptions())
	var fails int
	s.OnFailed(func(FailEvent) { fails++ })

	s.Close()
	tip.Position = v3.Vec{X: 0.5, Y: 1}
	if _, ok := s.Tick(); ok {
		t.Error("Tick() after Close() evaluated")
	}
	s.Attach(tip)
	s.Tick()
	if fails != 0 {
		t.Errorf("handler called %d times after Close()", fails)
	}
}

func TestParseModeAndFailModes(t *testing.T) {
	if m, err := ParseMode("Cut"); err != nil || m != ModeCut {
		t.Errorf("ParseMode(Cut) = %v, %v", m, err)
	}
	if _, err := ParseMode("slice"); err == nil {
		t.Error("ParseMode(slice) succeeded")
	}
	f, err := ParseFailModes([]string{"up", "roll"})
	if err != nil || f != (FailModes{Up: true, Roll: true}) {
		t.Errorf("ParseFailModes() = %v, %v", f, err)
	}
	if got := f.String(); got != "up,roll" {
		t.Errorf("String() = %q, want up,roll", got)
	}
	if _, err := ParseFailModes([]string{"sideways"}); err == nil {
		t.Error("ParseFailModes(sideways) succeeded")
	}
}
