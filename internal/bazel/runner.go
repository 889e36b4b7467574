package bazel

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// KeepLogPolicy controls what happens to the strace log after a run.
type KeepLogPolicy string

const (
	// KeepLogIfFailed keeps the log only when the build or the parse
	// failed. The default.
	KeepLogIfFailed KeepLogPolicy = "if_failed"

	// KeepLogAlways always keeps the log.
	KeepLogAlways KeepLogPolicy = "always"

	// KeepLogNever always removes the log.
	KeepLogNever KeepLogPolicy = "never"
)

// ValidKeepLogPolicies lists the accepted --keep_log values.
var ValidKeepLogPolicies = []KeepLogPolicy{KeepLogIfFailed, KeepLogAlways, KeepLogNever}

// ShouldKeepLog applies a retention policy to the run outcome.
func ShouldKeepLog(policy KeepLogPolicy, failed bool) bool {
	switch policy {
	case KeepLogAlways:
		return true
	case KeepLogNever:
		return false
	default:
		return failed
	}
}

// straceArgs builds the strace argument vector for tracing a build command.
//
// -ttt stamps events with absolute unix timestamps at microsecond
// resolution, which is what the parser's duration computation expects.
// The string limit must be large enough that argument vectors aren't
// truncated mid-token, or the bracket scan would fail on the line.
// Only -q is used: -qq would also suppress the "+++ exited with +++"
// messages the duration computation needs.
func straceArgs(logPath string, argv []string) []string {
	args := []string{
		"-f",
		"-ttt",
		"-e", "trace=execve",
		"-q",
		"-s", "8192",
		"-o", logPath,
		"--",
	}
	return append(args, argv...)
}

// TraceBuild runs argv under strace, writing the event log to logPath.
// Stdout/stderr of the build pass through to the caller's terminal. A
// non-zero build exit is returned as an error but the log is still written
// and usually still worth parsing.
func TraceBuild(ctx context.Context, logPath string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("no build command given")
	}
	cmd := exec.CommandContext(ctx, "strace", straceArgs(logPath, argv)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("traced build failed: %w", err)
	}
	return nil
}

// Info queries a single `bazel info` key in dir.
func Info(ctx context.Context, dir, key string) (string, error) {
	cmd := exec.CommandContext(ctx, "bazel", "info", key)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("bazel info %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ExecutionRoot returns `bazel info execution_root`, the directory bazel
// compiles from and therefore the right compilation directory for the
// database.
func ExecutionRoot(ctx context.Context, dir string) (string, error) {
	return Info(ctx, dir, "execution_root")
}

// OutputBase returns `bazel info output_base`; external component sources
// live under its external/ subdirectory.
func OutputBase(ctx context.Context, dir string) (string, error) {
	return Info(ctx, dir, "output_base")
}
