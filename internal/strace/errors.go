package strace

import (
	"errors"
	"fmt"
)

// ParseError represents a fatal condition detected while parsing a trace.
//
// Fatal conditions abort the whole parse: continuing with corrupted offsets
// risks producing silently wrong commands. Recoverable anomalies are logged
// instead and never surface as ParseError.
type ParseError struct {
	// Code identifies the error category.
	Code ParseErrorCode

	// Message is a human-readable description.
	Message string

	// Line is the 1-based line number in the trace, 0 if not line-specific.
	Line int

	// Pid is the process id involved, 0 if not pid-specific.
	Pid int
}

// ParseErrorCode categorizes fatal parse errors.
type ParseErrorCode string

const (
	// ErrCodeMalformedLine indicates an unparsable quoted or bracketed
	// payload where one was expected.
	ErrCodeMalformedLine ParseErrorCode = "MALFORMED_LINE"

	// ErrCodeUnsupportedEvent indicates an execveat event. The executable
	// path of execveat is relative to a directory fd the trace doesn't
	// give us, so the invocation cannot be reconstructed correctly.
	ErrCodeUnsupportedEvent ParseErrorCode = "UNSUPPORTED_EVENT"

	// ErrCodeMissingExitCode indicates an exit record for a tracked pid
	// that carries no exit code. This violates the expected trace shape.
	ErrCodeMissingExitCode ParseErrorCode = "MISSING_EXIT_CODE"

	// ErrCodePidReused indicates a start event for a pid that is already
	// running. Process ids are serialized by the OS scheduler, so a valid
	// trace can never contain this.
	ErrCodePidReused ParseErrorCode = "PID_REUSED"

	// ErrCodeInvariant indicates a broken internal post-condition, e.g. an
	// accepted invocation whose output path was never captured.
	ErrCodeInvariant ParseErrorCode = "INVARIANT_VIOLATED"
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Pid > 0:
		return fmt.Sprintf("%s: line %d: pid %d: %s", e.Code, e.Line, e.Pid, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", e.Code, e.Line, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// AsParseError unwraps err into a *ParseError if it is one.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsMalformed returns true if err is a malformed-line parse error.
func IsMalformed(err error) bool {
	pe, ok := AsParseError(err)
	return ok && pe.Code == ErrCodeMalformedLine
}

func newParseError(code ParseErrorCode, line, pid int, format string, args ...any) *ParseError {
	return &ParseError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Pid:     pid,
	}
}
