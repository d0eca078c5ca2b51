// Package engine provides the Lisp evaluation engine for gimlet scenarios.
// It wraps zygomys in a sandboxed environment and produces a scenario.Script
// from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/scenario"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultTimeout is the evaluation limit used when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Script *scenario.Script `json:"script,omitempty"`
	Errors []EvalError      `json:"errors"`
}

// Options configures an Engine.
type Options struct {
	// Timeout bounds a single evaluation. Zero means DefaultTimeout.
	Timeout time.Duration
	// Presets supply values for forms that omit them. Nil means
	// scenario.DefaultPresets().
	Presets *scenario.Presets
	Logger  *logger.Logger
}

// Engine wraps the zygomys interpreter for scenario evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	presets scenario.Presets
	log     *logger.Logger
}

// NewEngine creates a new Engine instance.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		timeout: opts.Timeout,
		presets: scenario.DefaultPresets(),
		log:     opts.Logger,
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if opts.Presets != nil {
		e.presets = *opts.Presets
	}
	return e
}

// Timeout returns the evaluation limit.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Evaluate takes Lisp source code and produces a new Script.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns script + nil errors + nil error
//   - On parse/eval failure: returns nil script + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scenario.Script, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{script: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, e.timeout, gen, &e.mu, &e.generation)
}

// EvaluateResult is Evaluate with the outputs bundled. A fatal error is
// reported as a single EvalError.
func (e *Engine) EvaluateResult(source string) EvalResult {
	s, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{Errors: []EvalError{{Message: err.Error()}}}
	}
	if evalErrs == nil {
		evalErrs = []EvalError{}
	}
	return EvalResult{Script: s, Errors: evalErrs}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*scenario.Script, []EvalError, error) {
	// Empty source is a valid program that produces an empty scenario.
	if strings.TrimSpace(source) == "" {
		return scenario.New(e.presets), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(e.presets, e.log)
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	e.log.WithFields(map[string]any{
		"surfaces": len(b.script.Surfaces),
		"sockets":  len(b.script.Sockets),
		"paths":    len(b.script.Paths),
		"steps":    len(b.script.Steps),
	}).Debug("scenario evaluated")

	return b.script, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
