package strace

import "path/filepath"

// CompileCommand is one accepted compile invocation.
//
// Arguments, Output and File are append-only once created; Duration is
// mutated exactly once, when the owning lifecycle record closes.
type CompileCommand struct {
	// Arguments is the full decoded argv of the invocation.
	Arguments []string

	// Output is the value of the (last) -o option.
	Output string

	// File is the translation unit, the value of the (last) -c option.
	File string

	// Duration is how long the process ran, in seconds with microsecond
	// resolution. Zero if the exit record never appeared in the trace.
	Duration float64
}

// LinkCommand is one accepted link invocation. Same shape as CompileCommand
// minus the translation unit.
type LinkCommand struct {
	Arguments []string
	Output    string
	Duration  float64
}

// Result is the ordered collection of accepted invocations, in trace order.
// It is the only state that survives a parse pass; the caller owns it for
// serialization and partitioning.
type Result struct {
	Compiles []CompileCommand
	Links    []LinkCommand
}

// CompilerSet is the set of executables recognized as compilers. Immutable
// for the duration of a run.
type CompilerSet struct {
	// Basenames matches executables by file name, wherever they live.
	Basenames map[string]struct{}

	// FullPaths matches executables by absolute path. A build system can
	// reference a compiler at a custom path that doesn't even exist on
	// this machine, so no pruning against the local filesystem happens.
	FullPaths map[string]struct{}
}

// NewCompilerSet builds a CompilerSet from explicit name lists.
func NewCompilerSet(basenames, fullPaths []string) CompilerSet {
	s := CompilerSet{
		Basenames: make(map[string]struct{}, len(basenames)),
		FullPaths: make(map[string]struct{}, len(fullPaths)),
	}
	for _, b := range basenames {
		s.Basenames[b] = struct{}{}
	}
	for _, p := range fullPaths {
		s.FullPaths[p] = struct{}{}
	}
	return s
}

// Matches reports whether the executable path belongs to the set, either by
// absolute path or by basename.
func (s CompilerSet) Matches(exe string) bool {
	if _, ok := s.FullPaths[exe]; ok {
		return true
	}
	_, ok := s.Basenames[filepath.Base(exe)]
	return ok
}
