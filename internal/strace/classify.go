package strace

import "strings"

// pathFlags are options whose next argument names a file or directory. They
// only matter for the existence check; their values aren't captured.
// TODO: handle combined forms like --sysroot=/path.
var pathFlags = map[string]struct{}{
	"-I":                  {},
	"--include-directory": {},
	"-isystem":            {},
	"-iquote":             {},
	"-isysroot":           {},
	"--sysroot":           {},
	"-cxx-isystem":        {},
}

// handleExec processes one execve event. It decides whether the invocation
// is a compiler we care about, classifies it as compile or link, extracts
// the output and translation-unit paths, and opens a lifecycle record.
//
// Invocations that are rejected here (unknown executable, link command with
// link collection off, no -o option) leave no state behind at all, so their
// eventual exit records are skipped as belonging to untracked pids.
func (p *parser) handleExec(line string, ev traceEvent, lineNum int) error {
	if _, tracked := p.running[ev.pid]; tracked {
		return newParseError(ErrCodePidReused, lineNum, ev.pid,
			"start event for a pid that is already running")
	}

	payload := line[ev.payload:]
	if len(payload) == 0 || payload[0] != '(' {
		return newParseError(ErrCodeMalformedLine, lineNum, ev.pid,
			"unexpected format of the execve syscall payload")
	}
	if !strings.HasSuffix(line, " = 0") {
		p.log.Warn("execve returned a non-zero code; the build may have failed and the database may be incomplete",
			"line", lineNum, "pid", ev.pid)
	}

	// First execve argument: the executable path.
	rawExe, n, err := scanQuoted(payload[1:])
	if err != nil {
		return newParseError(ErrCodeMalformedLine, lineNum, ev.pid,
			"executable path couldn't be parsed: %v", err)
	}
	exe, err := unescape(rawExe)
	if err != nil {
		return newParseError(ErrCodeMalformedLine, lineNum, ev.pid,
			"executable path couldn't be decoded: %v", err)
	}
	if !p.cfg.Compilers.Matches(exe) {
		return nil // not a compiler we care about
	}

	// Second argument: the argv array. We can't just search for the
	// closing ']' because file names may contain brackets; the scanner
	// consumes quoted tokens whole instead.
	rest := payload[1+n:]
	if !strings.HasPrefix(rest, ", [") {
		return newParseError(ErrCodeMalformedLine, lineNum, ev.pid,
			"unexpected format of the execve syscall payload")
	}
	rawArgs, _, err := scanArgv(rest[2:])
	if err != nil {
		return newParseError(ErrCodeMalformedLine, lineNum, ev.pid,
			"argument array couldn't be parsed: %v", err)
	}
	args := make([]string, len(rawArgs))
	for i, raw := range rawArgs {
		if args[i], err = unescape(raw); err != nil {
			return newParseError(ErrCodeMalformedLine, lineNum, ev.pid,
				"argument %d couldn't be decoded: %v", i, err)
		}
	}

	// Classify over the decoded vector, not a serialized blob: adjacent
	// unrelated tokens must not look like options.
	hasOutput, isCompile := false, false
	for _, a := range args {
		switch a {
		case "-o":
			hasOutput = true
		case "-c":
			isCompile = true
		}
	}
	isLink := !isCompile

	if isLink && !p.cfg.CollectLinks {
		return nil // not interested in linking commands
	}
	if !hasOutput {
		p.log.Error("invocation has no output file (-o); ignoring it",
			"line", lineNum, "pid", ev.pid, "args", strings.Join(args, " "))
		return nil
	}

	// One left-to-right walk: capture the -o and -c values and
	// existence-check every path-flagged argument. -o and the include
	// flags take the immediately following token; -c marks the first
	// later token not consumed by another option as the translation
	// unit, so `-c -o out.o in.c` still resolves correctly.
	var output, unit string
	haveOutput, haveUnit := false, false
	wantUnit := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o":
			if i+1 >= len(args) {
				break // dangling -o; caught by the post-condition
			}
			i++
			p.checkPath(args[i], args, lineNum, ev.pid)
			if haveOutput {
				p.log.Warn("multiple -o options; taking the last one",
					"line", lineNum, "pid", ev.pid, "args", strings.Join(args, " "))
			}
			output, haveOutput = args[i], true
		case arg == "-c":
			wantUnit = true
		default:
			if _, ok := pathFlags[arg]; ok {
				if i+1 < len(args) {
					i++
					p.checkPath(args[i], args, lineNum, ev.pid)
				}
				break
			}
			if wantUnit {
				wantUnit = false
				p.checkPath(arg, args, lineNum, ev.pid)
				if haveUnit {
					p.log.Warn("multiple -c options; taking the last one",
						"line", lineNum, "pid", ev.pid, "args", strings.Join(args, " "))
				}
				unit, haveUnit = arg, true
			}
		}
	}

	if !haveOutput {
		return newParseError(ErrCodeInvariant, lineNum, ev.pid,
			"-o is present but its value was never captured")
	}
	if isCompile && !haveUnit {
		return newParseError(ErrCodeInvariant, lineNum, ev.pid,
			"-c is present but the translation unit was never captured")
	}

	var cmdIdx int
	if isLink {
		cmdIdx = len(p.res.Links)
		p.res.Links = append(p.res.Links, LinkCommand{Arguments: args, Output: output})
	} else {
		cmdIdx = len(p.res.Compiles)
		p.res.Compiles = append(p.res.Compiles, CompileCommand{Arguments: args, Output: output, File: unit})
	}
	p.running[ev.pid] = inflight{
		startTS:   ev.ts,
		startLine: lineNum,
		isLink:    isLink,
		cmdIdx:    cmdIdx,
	}
	return nil
}

// checkPath existence-checks one path-flagged argument when checking is on.
// A miss is a diagnostic, never a rejection.
func (p *parser) checkPath(path string, args []string, lineNum, pid int) {
	if !p.cfg.CheckFiles || p.cfg.Exists(p.cfg.Cwd, path) {
		return
	}
	p.log.Warn("path argument doesn't exist; the build may be misconfigured or the trace incomplete",
		"line", lineNum, "pid", pid, "path", path, "args", strings.Join(args, " "))
}
