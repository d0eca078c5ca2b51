package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/gimlet/pkg/scenario"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine(Options{})

	for _, src := range []string{"", "   \n\t  \n  "} {
		s, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if s == nil {
			t.Fatal("expected non-nil script")
		}
		if len(s.Surfaces)+len(s.Sockets)+len(s.Paths)+len(s.Steps) != 0 {
			t.Errorf("expected empty script, got %+v", s)
		}
		if s.Bit != scenario.DefaultPresets().Bit {
			t.Errorf("Bit = %+v, want preset bit", s.Bit)
		}
	}
}

func TestEvaluatePlainLisp(t *testing.T) {
	eng := NewEngine(Options{})

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	s, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if s == nil {
		t.Fatal("expected non-nil script")
	}
	if len(s.Steps) != 0 {
		t.Errorf("expected no steps, got %d", len(s.Steps))
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine(Options{})

	// Unmatched paren is a parse error.
	s, evalErrs, err := eng.Evaluate("(press")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil script on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine(Options{})

	s, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil script on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateResult(t *testing.T) {
	eng := NewEngine(Options{})

	ok := eng.EvaluateResult("(press)")
	if ok.Script == nil || len(ok.Errors) != 0 {
		t.Fatalf("EvaluateResult(valid) = %+v", ok)
	}
	if ok.Errors == nil {
		t.Error("Errors should be an empty slice, not nil")
	}

	bad := eng.EvaluateResult("(press")
	if bad.Script != nil || len(bad.Errors) == 0 {
		t.Fatalf("EvaluateResult(invalid) = %+v", bad)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine(Options{})
	source := `(move (vec3 0 1 0) :ticks 3) (tick 2)`

	for i := 0; i < 5; i++ {
		s, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if len(s.Steps) != 2 {
			t.Errorf("iteration %d: expected 2 steps, got %d", i, len(s.Steps))
		}
	}
}

func TestNewEngineDefaults(t *testing.T) {
	if got := NewEngine(Options{}).Timeout(); got != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", got, DefaultTimeout)
	}
	if got := NewEngine(Options{Timeout: time.Second}).Timeout(); got != time.Second {
		t.Errorf("Timeout() = %v, want 1s", got)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// Exercise the timeout plumbing directly with a channel that never
	// sends; a script that loops forever would tie up a goroutine.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	timeout := 50 * time.Millisecond
	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, timeout, 1, &mu, &gen)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(timeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // Current generation is 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	// Pass generation 1 (stale).
	_, _, err := waitWithTimeout(ch, time.Second, 1, &mu, &gen)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: bad knot",
			wantLine: 3,
			wantMsg:  "bad knot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
