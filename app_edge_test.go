package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/chazu/gimlet/pkg/config"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 errors, 0 warnings, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Check("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

func TestE2EWhitespaceOnly(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Run(context.Background(), "  \n\t\n  ")

	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors for whitespace-only source: %v", result.Errors)
	}
	if result.Report == nil || result.Report.Ticks != 0 {
		t.Errorf("expected an idle report, got %+v", result.Report)
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp(nil, nil)

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(+ 1 2)\n(surface \"board\""
	result := app.Check(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2EUndefinedSymbol(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Check(`(surface "board" (box width 0.1 1))`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for undefined symbol")
	}
	if result.Script != nil {
		t.Error("expected no script on eval error")
	}
}

// ---------------------------------------------------------------------------
// 3. Unknown references: steps naming missing paths -> validation error.
// ---------------------------------------------------------------------------

func TestE2EUndefinedPathReference(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Run(context.Background(), `(grab "ghost")`)

	if len(result.Errors) == 0 {
		t.Fatal("expected an error for grabbing an undefined path")
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "ghost") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'ghost', got: %v", result.Errors)
	}
	if result.Report != nil {
		t.Error("expected no report when validation fails")
	}
}

func TestE2ESocketOnMissingSurface(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Check(`(socket "pilot" :surface "shelf" :enter (vec3 0 0 0))`)

	if result.OK() {
		t.Fatal("expected a validation error")
	}
	if result.Errors[0].Entity != `socket "pilot"` {
		t.Errorf("expected error on socket \"pilot\", got %q", result.Errors[0].Entity)
	}
}

func TestE2EDuplicateNames(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Check(`
(surface "edge" (box 1 1 1))
(path "edge" :knots (list (vec3 0 0 0) (vec3 1 0 0)) :trigger (sphere 0.1))
`)

	if result.OK() {
		t.Fatal("expected a duplicate name error")
	}
}

// ---------------------------------------------------------------------------
// 4. Degenerate geometry: zero or negative sizes -> error, never a panic.
// ---------------------------------------------------------------------------

func TestE2EDegenerateShapes(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"zero box", `(surface "s" (box 0 0.1 1))`},
		{"all zero box", `(surface "s" (box 0 0 0))`},
		{"negative sphere", `(surface "s" (sphere -1))`},
		{"empty surface", `(surface "s")`},
		{"single knot", `(path "p" :knots (list (vec3 0 0 0)) :trigger (sphere 0.1))`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := NewApp(nil, nil)
			result := app.Run(context.Background(), tc.source)
			if len(result.Errors) == 0 {
				t.Fatalf("expected an error for %s", tc.source)
			}
			if result.Report != nil {
				t.Error("expected no report")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation (debounce simulation): no panics.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Calls are sequential: zygomys has internal global state that is not
	// safe for concurrent sandbox creation.
	app := NewApp(nil, nil)

	sources := []string{
		`(surface "a" (box 1 0.1 1))`,
		`(surface "b" (box 1 0.1 1)`,
		`(+ 1 2)`,
		``,
		`(path "p" :knots (list (vec3 0 0 0) (vec3 1 0 0))) (grab "p") (move (vec3 1 0 0) :ticks 3)`,
		`(press) (tick 2) (release)`,
		`(+ 100 200)`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			_ = app.Run(context.Background(), source)
		}()
	}
}

// ---------------------------------------------------------------------------
// 6. Comments only: source that is only comments -> 0 errors.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	app := NewApp(nil, nil)

	source := `
;; This is a comment
;; Another comment
; And another
`
	result := app.Check(source)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for comments-only source: %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 7. Nested expressions: def with arithmetic, then use in shapes and steps.
// ---------------------------------------------------------------------------

func TestE2ENestedArithmeticDef(t *testing.T) {
	app := NewApp(nil, nil)

	source := `
(def thick 0.1)
(def half (/ thick 2))
(surface "board" (box 1 thick 1))
(socket "pilot" :surface "board"
        :enter (vec3 0 half 0) :end (vec3 0 (- half 0.07) 0)
        :width 0.05 :auto-place :false)
(move (vec3 0 (* half 6) 0) :forward (vec3 0 -1 0) :up (vec3 0 0 1))
(press)
(move (vec3 0 (- half 0.07) 0) :ticks 10)
(release)
`
	result := app.Run(context.Background(), source)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Report.HoleCount() != 1 {
		t.Fatalf("expected 1 hole, got %d", result.Report.HoleCount())
	}
	if result.Report.SocketsSatisfied() != 1 {
		t.Errorf("expected the pilot socket to be satisfied")
	}
}

// ---------------------------------------------------------------------------
// 8. Configuration: limits and presets flow through to the run.
// ---------------------------------------------------------------------------

func TestE2EMaxTicksFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sim.MaxTicks = 5
	app := NewApp(cfg, nil)

	result := app.Run(context.Background(), `(tick 6)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected the tick limit to be enforced")
	}
	if !strings.Contains(result.Errors[0].Message, "limit") {
		t.Errorf("expected a tick limit error, got %q", result.Errors[0].Message)
	}
}

func TestE2EBitFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Bit.Width = 0.02
	app := NewApp(cfg, nil)

	result := app.Check(`(surface "board" (box 1 0.1 1))`)
	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Script.Bit.Width != 0.02 {
		t.Errorf("expected configured bit width 0.02, got %g", result.Script.Bit.Width)
	}
}

func TestE2ECancelledRun(t *testing.T) {
	app := NewApp(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := app.Run(ctx, `(tick 3)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected a cancellation error")
	}
	if result.Report != nil {
		t.Error("expected no report for a cancelled run")
	}
}

// ---------------------------------------------------------------------------
// 9. JSON shape: empty results serialize slices as [] not null.
// ---------------------------------------------------------------------------

func TestE2EResultJSON(t *testing.T) {
	app := NewApp(nil, nil)
	result := app.Run(context.Background(), "")

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"errors":[]`, `"warnings":[]`, `"report":{`, `"events":[]`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
