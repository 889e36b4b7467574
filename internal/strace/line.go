package strace

import "strings"

// eventKind discriminates the trace events the engine understands.
type eventKind int

const (
	eventExec eventKind = iota
	eventExecAt
	eventExit
)

// traceEvent is the result of classifying one trace line. It is consumed
// immediately by the parser and never persisted.
type traceEvent struct {
	kind eventKind
	pid  int

	// ts is the event timestamp in unix seconds with microsecond
	// resolution, taken verbatim from the trace.
	ts float64

	// exitCode is set for exit events when the record carries one.
	exitCode *int

	// payload is the byte offset where the event-specific payload begins.
	// For exec events it points at the '(' opening the syscall arguments.
	payload int
}

// classifyLine matches one trace line against the fixed prefix grammar
//
//	<pid> <sec>.<usec> <event>
//
// where <event> is execve, execveat, or "+++ exited with <code> +++".
// Lines not matching the grammar are other syscalls the engine doesn't care
// about; ok is false and they are skipped.
func classifyLine(line string) (ev traceEvent, ok bool) {
	pid, n := scanDigits(line)
	if n == 0 || n >= len(line) || line[n] != ' ' {
		return ev, false
	}
	ev.pid = pid
	i := n + 1

	sec, n := scanDigits(line[i:])
	if n == 0 || i+n >= len(line) || line[i+n] != '.' {
		return ev, false
	}
	i += n + 1
	usec, n := scanDigits(line[i:])
	if n == 0 || i+n >= len(line) || line[i+n] != ' ' {
		return ev, false
	}
	i += n + 1
	ev.ts = float64(sec) + 1e-6*float64(usec)

	rest := line[i:]
	switch {
	case strings.HasPrefix(rest, "execveat("):
		ev.kind = eventExecAt
		ev.payload = i + len("execveat")
		return ev, true
	case strings.HasPrefix(rest, "execve("):
		ev.kind = eventExec
		ev.payload = i + len("execve")
		return ev, true
	case strings.HasPrefix(rest, "+++ exited with "):
		ev.kind = eventExit
		ev.payload = i + len("+++ exited with ")
		code, n := scanDigits(line[ev.payload:])
		if n > 0 && strings.HasPrefix(line[ev.payload+n:], " +++") {
			ev.exitCode = &code
		}
		// A recognized exit record with no parsable code keeps
		// exitCode nil; the lifecycle tracker treats that as a
		// contract violation for tracked pids.
		return ev, true
	}
	return ev, false
}

// scanDigits parses a leading run of decimal digits, returning the value and
// the number of bytes consumed (0 if s doesn't start with a digit).
func scanDigits(s string) (val, n int) {
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		val = val*10 + int(s[n]-'0')
		n++
	}
	return val, n
}
