// Package catalog builds the set of compiler executables to look for in a
// trace.
//
// The built-in catalogue is declared in an embedded CUE file and evaluated at
// load time; users can extend it with additional CUE declarations from a
// directory and with one-off --compiler values.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/arech/yacce/internal/strace"
)

//go:embed catalog.cue
var catalogCUE string

// Build assembles the immutable compiler set for a run.
//
// custom entries come from --compiler flags: values starting with '/' are
// absolute paths, anything else is a basename (empty values are skipped).
// dir optionally points at extra CUE toolchain declarations with the same
// basenames/fullpaths shape as the built-in catalogue.
func Build(custom []string, dir string) (strace.CompilerSet, error) {
	basenames, fullpaths, err := builtin()
	if err != nil {
		return strace.CompilerSet{}, err
	}

	if dir != "" {
		extraBase, extraFull, err := loadDir(dir)
		if err != nil {
			return strace.CompilerSet{}, err
		}
		basenames = append(basenames, extraBase...)
		fullpaths = append(fullpaths, extraFull...)
	}

	for _, c := range custom {
		switch {
		case c == "":
		case strings.HasPrefix(c, "/"):
			fullpaths = append(fullpaths, c)
		default:
			basenames = append(basenames, c)
		}
	}

	return strace.NewCompilerSet(basenames, fullpaths), nil
}

// builtin evaluates the embedded catalogue.
func builtin() (basenames, fullpaths []string, err error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(catalogCUE)
	if err := v.Err(); err != nil {
		return nil, nil, fmt.Errorf("evaluating built-in catalogue: %w", err)
	}
	return decodeCatalog(v)
}

// loadDir loads user toolchain declarations from a directory of CUE files.
func loadDir(dir string) (basenames, fullpaths []string, err error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, nil, fmt.Errorf("loading catalogue from %s: %w", dir, inst.Err)
	}

	ctx := cuecontext.New()
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, nil, fmt.Errorf("building catalogue from %s: %w", dir, err)
	}
	return decodeCatalog(v)
}

func decodeCatalog(v cue.Value) (basenames, fullpaths []string, err error) {
	if bv := v.LookupPath(cue.ParsePath("basenames")); bv.Exists() {
		if err := bv.Decode(&basenames); err != nil {
			return nil, nil, fmt.Errorf("decoding basenames: %w", err)
		}
	}
	if fv := v.LookupPath(cue.ParsePath("fullpaths")); fv.Exists() {
		if err := fv.Decode(&fullpaths); err != nil {
			return nil, nil, fmt.Errorf("decoding fullpaths: %w", err)
		}
	}
	return basenames, fullpaths, nil
}
