package strace

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// maxLineBytes bounds a single trace line. Builds pass very long argument
// vectors; strace itself truncates strings at the -s limit but a line can
// still hold thousands of arguments.
const maxLineBytes = 16 * 1024 * 1024

// Config supplies the collaborators and policy knobs for one parse pass.
type Config struct {
	// Cwd is the working directory of the compilation. It resolves
	// relative paths during file-existence checks and ends up in the
	// "directory" field of every database entry.
	Cwd string

	// Compilers is the set of executables recognized as compilers.
	Compilers CompilerSet

	// CollectLinks enables collection of link invocations (-o without -c).
	// When false they are discarded before any state is created for them.
	CollectLinks bool

	// CheckFiles enables existence checks of path-flagged arguments.
	CheckFiles bool

	// Exists is the file-existence predicate, taking the working
	// directory and a possibly-relative path. Nil means an os.Stat based
	// default.
	Exists func(cwd, path string) bool

	// Log is the diagnostics sink. Nil means slog.Default().
	Log *slog.Logger
}

// inflight is the lifecycle record of one tracked process between its start
// and exit events. Keyed by pid in parser.running; at most one per pid.
type inflight struct {
	startTS   float64
	startLine int
	isLink    bool
	cmdIdx    int
}

type parser struct {
	cfg Config
	log *slog.Logger

	running map[int]inflight
	res     *Result
}

// ParseFile parses the strace log at path. See Parse.
func ParseFile(path string, cfg Config) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, cfg)
}

// Parse reads a trace once, top to bottom, and reconstructs the compiler
// invocations it recorded. The returned error is always a *ParseError except
// for I/O failures; recoverable anomalies are logged and never abort.
func Parse(r io.Reader, cfg Config) (*Result, error) {
	if cfg.Exists == nil {
		cfg.Exists = pathExists
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	p := &parser{
		cfg:     cfg,
		log:     cfg.Log,
		running: make(map[int]inflight),
		res:     &Result{},
	}

	if cfg.CheckFiles {
		if fi, err := os.Stat(cfg.Cwd); err != nil || !fi.IsDir() {
			p.log.Warn("compilation directory doesn't exist; resulting database will likely be invalid",
				"cwd", cfg.Cwd)
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		ev, ok := classifyLine(line)
		if !ok {
			continue // not an event this engine cares about
		}

		switch ev.kind {
		case eventExit:
			if _, tracked := p.running[ev.pid]; !tracked {
				continue // a process we never saw start
			}
			if err := p.handleExit(ev.pid, ev.ts, ev.exitCode, lineNum); err != nil {
				return nil, err
			}
		case eventExecAt:
			return nil, newParseError(ErrCodeUnsupportedEvent, lineNum, ev.pid,
				"execveat is not supported: the executable path cannot be resolved without the dirfd working directory")
		case eventExec:
			if err := p.handleExec(line, ev, lineNum); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	// Force-close processes whose exit never made it into the trace.
	// Snapshot the keys first: handleExit deletes from the map.
	pids := make([]int, 0, len(p.running))
	for pid := range p.running {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	for _, pid := range pids {
		if err := p.handleExit(pid, 0, nil, 0); err != nil {
			return nil, err
		}
	}
	if len(p.running) != 0 {
		return nil, newParseError(ErrCodeInvariant, 0, 0,
			"%d lifecycle records still open after end of trace", len(p.running))
	}

	if len(p.res.Compiles) == 0 && len(p.res.Links) == 0 {
		p.log.Warn("no compiler invocations were found in the trace; " +
			"if the build uses a custom compiler, pass it in --compiler")
	}
	return p.res, nil
}

// handleExit closes the lifecycle record for pid. A zero lineNum means the
// exit was never observed and the record is being force-closed at end of
// trace with duration 0.
func (p *parser) handleExit(pid int, ts float64, exitCode *int, lineNum int) error {
	rec := p.running[pid]
	exitLogged := lineNum > 0

	if exitLogged {
		if exitCode == nil {
			// If the code isn't there, something is very wrong with
			// the trace shape and there's no point continuing.
			return newParseError(ErrCodeMissingExitCode, lineNum, pid,
				"process exited without an exit code")
		}
		if *exitCode != 0 {
			p.log.Warn("process exited with non-zero exit code; the build may have failed and the database may be incomplete",
				"line", lineNum, "pid", pid, "start_line", rec.startLine, "exit_code", *exitCode)
		}
		if ts < rec.startTS {
			// Depending on the clock strace used, adjustments can
			// move an exit before its start.
			p.log.Warn("process exited before it started; continuing, but the trace may be malformed",
				"line", lineNum, "pid", pid, "start_line", rec.startLine,
				"start_ts", rec.startTS, "exit_ts", ts)
		}
	} else {
		p.log.Warn("process never logged its exit; the trace and hence the database may be incomplete",
			"pid", pid, "start_line", rec.startLine)
	}

	duration := 0.0
	if exitLogged {
		duration = ts - rec.startTS
	}
	if rec.isLink {
		p.res.Links[rec.cmdIdx].Duration = duration
	} else {
		p.res.Compiles[rec.cmdIdx].Duration = duration
	}

	delete(p.running, pid)
	return nil
}

// pathExists is the default file-existence predicate. Relative paths are
// resolved against the compilation directory.
func pathExists(cwd, path string) bool {
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	_, err := os.Stat(path)
	return err == nil
}
