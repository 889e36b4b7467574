// Package strace reconstructs compiler and linker invocations from an strace
// log of a build.
//
// The engine reads the log once, line by line. Each line is matched against
// the two event shapes it understands:
//
//	<pid> <sec>.<usec> execve("<exe>", ["<arg>", ...], ...) = 0
//	<pid> <sec>.<usec> +++ exited with <code> +++
//
// Everything else is skipped. A start event whose executable matches the
// configured compiler set opens a lifecycle record keyed by pid and appends a
// command to the store; the matching exit event closes the record and
// back-fills the command's duration from the trace timestamps. Records still
// open at end of trace are forcibly closed with duration 0 and a warning.
//
// The parse is single-threaded and purely sequential. Even though the traced
// build ran processes concurrently, their start and exit records appear in
// the log in a valid total order, which is all the engine needs.
//
// Failure handling is deliberately two-tiered. Conditions that would corrupt
// the reconstruction (unparsable quoted payloads, execveat events, an exit
// record with no exit code) abort the parse with a *ParseError naming the
// offending line and pid. Everything else (missing exit records, non-zero
// exit codes, clock skew, duplicate -o/-c options, missing files) degrades
// with a logged diagnostic and the result is still produced.
package strace
