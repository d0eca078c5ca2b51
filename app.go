package main

import (
	"context"

	"github.com/chazu/gimlet/pkg/config"
	"github.com/chazu/gimlet/pkg/engine"
	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/scenario"
	"github.com/chazu/gimlet/pkg/sim"
	"github.com/samber/lo"
)

// App ties the script engine to the simulator. Its results are plain
// JSON-serializable values so the CLI can print them directly.
type App struct {
	engine *engine.Engine
	runner *sim.Runner
	log    *logger.Logger
}

// IssueData is an evaluation error or a validation finding.
type IssueData struct {
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message"`
}

// CheckResult is the outcome of evaluating and validating a script.
type CheckResult struct {
	Script   *scenario.Script `json:"script,omitempty"`
	Errors   []IssueData      `json:"errors"`
	Warnings []IssueData      `json:"warnings"`
}

// OK reports whether the script can be simulated.
func (r CheckResult) OK() bool { return len(r.Errors) == 0 }

// RunResult adds the simulation report to a check.
type RunResult struct {
	CheckResult
	Report *sim.Report `json:"report,omitempty"`
}

// NewApp creates an App from cfg. A nil cfg means config.Default().
func NewApp(cfg *config.Config, log *logger.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	presets := cfg.Presets()
	return &App{
		engine: engine.NewEngine(engine.Options{
			Timeout: cfg.Engine.TimeoutDuration(),
			Presets: &presets,
			Logger:  log,
		}),
		runner: sim.NewRunner(sim.Options{
			MaxTicks:   cfg.Sim.MaxTicks,
			Resolution: cfg.Path.Resolution,
			Iterations: cfg.Path.Iterations,
			Logger:     log,
		}),
		log: log,
	}
}

// Check evaluates source and validates the resulting script.
func (a *App) Check(source string) CheckResult {
	result := CheckResult{
		Errors:   []IssueData{},
		Warnings: []IssueData{},
	}

	// Step 1: Evaluate the Lisp source into a script.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error(err, "evaluation failed")
		result.Errors = append(result.Errors, IssueData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors.
	if len(evalErrs) > 0 {
		result.Errors = lo.Map(evalErrs, func(e engine.EvalError, _ int) IssueData {
			return IssueData{Line: e.Line, Col: e.Col, Message: e.Message}
		})
		return result
	}

	// Step 3: Validate.
	v := scenario.Validate(s)
	toIssue := func(f scenario.Finding, _ int) IssueData {
		return IssueData{Entity: f.Entity, Message: f.Message}
	}
	result.Errors = append(result.Errors, lo.Map(v.Errors, toIssue)...)
	result.Warnings = append(result.Warnings, lo.Map(v.Warnings, toIssue)...)
	result.Script = s
	return result
}

// Run checks source and, when it is clean, simulates it.
func (a *App) Run(ctx context.Context, source string) RunResult {
	result := RunResult{CheckResult: a.Check(source)}
	if !result.OK() {
		return result
	}

	report, err := a.runner.Run(ctx, result.Script)
	if err != nil {
		a.log.Error(err, "simulation failed")
		result.Errors = append(result.Errors, IssueData{Message: "simulation failed: " + err.Error()})
		return result
	}
	result.Report = report
	return result
}
