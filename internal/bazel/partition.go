// Package bazel holds the bazel-specific pieces: running a build under
// strace, querying bazel for directories, and repartitioning reconstructed
// commands by origin.
//
// Bazel compiles a project's dependencies from an external/ subtree of the
// execution root. Those translation units belong to separately-built
// components, not the project itself, so their compile commands can be
// ignored, split into per-component databases, or squashed into the main one.
package bazel

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/arech/yacce/internal/strace"
)

// ExternalMode controls what happens to compile commands whose translation
// unit belongs to an external dependency.
type ExternalMode string

const (
	// ExternalIgnore drops external compile commands from the output.
	ExternalIgnore ExternalMode = "ignore"

	// ExternalSeparate writes one database per external component, next to
	// the component's real directory.
	ExternalSeparate ExternalMode = "separate"

	// ExternalSquash keeps external compile commands in the main database.
	ExternalSquash ExternalMode = "squash"
)

// ValidExternalModes lists the accepted --external values.
var ValidExternalModes = []ExternalMode{ExternalIgnore, ExternalSeparate, ExternalSquash}

// PartitionOptions configures the post-pass partitioner.
type PartitionOptions struct {
	// IncludeGenerated also treats translation units generated under
	// bazel-out/<config>/bin/external/<component>/ as belonging to that
	// component. Off by default: whether generated files are "external"
	// is a policy choice, not a fact of the trace.
	IncludeGenerated bool

	// Log is the diagnostics sink. Nil means slog.Default().
	Log *slog.Logger
}

// Partition is the result of splitting compile commands by origin. Commands
// keep their content, durations and relative order; only the grouping is new.
type Partition struct {
	// Project holds the project's own compile commands.
	Project []strace.CompileCommand

	// External maps component name to that component's compile commands.
	External map[string][]strace.CompileCommand
}

// PartitionExternal splits cmds into the project's own subset and one subset
// per external component. Nothing is mutated; entries are regrouped only.
func PartitionExternal(cmds []strace.CompileCommand, opts PartitionOptions) Partition {
	p := Partition{External: make(map[string][]strace.CompileCommand)}
	for _, cmd := range cmds {
		if comp, ok := componentOf(cmd.File, opts.IncludeGenerated); ok {
			p.External[comp] = append(p.External[comp], cmd)
		} else {
			p.Project = append(p.Project, cmd)
		}
	}
	return p
}

// componentOf extracts the external component name a translation unit
// belongs to, if any.
func componentOf(tu string, includeGenerated bool) (string, bool) {
	if rest, ok := strings.CutPrefix(tu, "external/"); ok {
		return firstSegment(rest)
	}
	if includeGenerated {
		// Generated sources live under bazel-out/<config>/bin/external/.
		if rest, ok := strings.CutPrefix(tu, "bazel-out/"); ok {
			if i := strings.Index(rest, "/bin/external/"); i >= 0 {
				return firstSegment(rest[i+len("/bin/external/"):])
			}
		}
	}
	return "", false
}

// firstSegment returns the leading path segment of rest, which must be
// followed by at least one more segment (a bare "external/foo" with no file
// under it is not a translation unit we'd ever see).
func firstSegment(rest string) (string, bool) {
	i := strings.IndexByte(rest, '/')
	if i <= 0 {
		return "", false
	}
	return rest[:i], true
}

// ComponentDirs resolves the real directory of each external component under
// root, once per component. A missing directory is a diagnostic, not an
// error: the component's database is still written after creating the
// directory.
func ComponentDirs(root string, p Partition, log *slog.Logger) map[string]string {
	if log == nil {
		log = slog.Default()
	}
	dirs := make(map[string]string, len(p.External))
	for comp := range p.External {
		dir := filepath.Join(root, comp)
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			log.Warn("external component directory doesn't exist",
				"component", comp, "dir", dir)
		}
		dirs[comp] = dir
	}
	return dirs
}
