// Package harness provides a replay testing framework for the trace parser.
//
// A scenario is a YAML file holding a literal strace log, the parser options
// to run it under, and the expected outcome. The harness parses the trace the
// same way the CLI does (minus touching the real filesystem) and compares
// the reconstructed databases against golden files.
//
// Scenarios exercise the full path from raw trace text to database JSON, so
// they catch regressions the per-package unit tests can't: scanner changes
// that alter unescaping, classifier changes that move a command between
// databases, formatting changes in the output.
package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/arech/yacce/internal/catalog"
	"github.com/arech/yacce/internal/strace"
)

// Result holds the outcome of running one scenario.
type Result struct {
	// Parsed is the parse output; nil when the parse failed.
	Parsed *strace.Result

	// Err is the fatal parse error, if any.
	Err error
}

// Run executes a scenario and returns the result.
//
// File existence checks are stubbed out: scenario traces reference paths
// that don't exist on the test machine, and the checks only produce
// diagnostics anyway.
func Run(scenario *Scenario) (*Result, error) {
	compilers, err := catalog.Build(scenario.Compilers, "")
	if err != nil {
		return nil, fmt.Errorf("building compiler catalogue: %w", err)
	}

	cfg := strace.Config{
		Cwd:          scenario.Cwd,
		Compilers:    compilers,
		CollectLinks: scenario.LinkCommands,
		CheckFiles:   false,
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	res, parseErr := strace.Parse(strings.NewReader(scenario.Trace), cfg)
	if parseErr != nil {
		return &Result{Err: parseErr}, nil
	}
	return &Result{Parsed: res}, nil
}

// Check verifies the result against the scenario's expect clause.
func Check(scenario *Scenario, result *Result) error {
	expect := scenario.Expect

	if expect.Error != "" {
		perr, ok := strace.AsParseError(result.Err)
		if !ok {
			return fmt.Errorf("expected parse error %s, got %v", expect.Error, result.Err)
		}
		if string(perr.Code) != expect.Error {
			return fmt.Errorf("expected parse error %s, got %s: %s", expect.Error, perr.Code, perr.Message)
		}
		return nil
	}

	if result.Err != nil {
		return fmt.Errorf("unexpected parse error: %w", result.Err)
	}
	if got := len(result.Parsed.Compiles); got != expect.Compiles {
		return fmt.Errorf("expected %d compile command(s), got %d", expect.Compiles, got)
	}
	if got := len(result.Parsed.Links); got != expect.Links {
		return fmt.Errorf("expected %d link command(s), got %d", expect.Links, got)
	}
	return nil
}
