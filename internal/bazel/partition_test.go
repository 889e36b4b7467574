package bazel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arech/yacce/internal/strace"
)

func compile(tu, out string) strace.CompileCommand {
	return strace.CompileCommand{
		Arguments: []string{"gcc", "-c", tu, "-o", out},
		Output:    out,
		File:      tu,
		Duration:  0.5,
	}
}

func TestComponentOf(t *testing.T) {
	tests := []struct {
		name             string
		tu               string
		includeGenerated bool
		wantComp         string
		wantExternal     bool
	}{
		{
			name:         "project source",
			tu:           "src/lib/foo.cc",
			wantExternal: false,
		},
		{
			name:         "external source",
			tu:           "external/zlib/inflate.c",
			wantComp:     "zlib",
			wantExternal: true,
		},
		{
			name:         "nested external source",
			tu:           "external/com_google_absl/absl/strings/str_cat.cc",
			wantComp:     "com_google_absl",
			wantExternal: true,
		},
		{
			name:         "bare external prefix without a file",
			tu:           "external/zlib",
			wantExternal: false,
		},
		{
			name:         "generated external ignored by default",
			tu:           "bazel-out/k8-opt/bin/external/proto/gen.pb.cc",
			wantExternal: false,
		},
		{
			name:             "generated external included when asked",
			tu:               "bazel-out/k8-opt/bin/external/proto/gen.pb.cc",
			includeGenerated: true,
			wantComp:         "proto",
			wantExternal:     true,
		},
		{
			name:             "generated project file stays project",
			tu:               "bazel-out/k8-opt/bin/src/gen.cc",
			includeGenerated: true,
			wantExternal:     false,
		},
		{
			name:         "absolute path stays project",
			tu:           "/usr/include/generated.c",
			wantExternal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, ok := componentOf(tt.tu, tt.includeGenerated)
			assert.Equal(t, tt.wantExternal, ok)
			assert.Equal(t, tt.wantComp, comp)
		})
	}
}

func TestPartitionExternal(t *testing.T) {
	cmds := []strace.CompileCommand{
		compile("src/a.cc", "a.o"),
		compile("external/zlib/inflate.c", "inflate.o"),
		compile("src/b.cc", "b.o"),
		compile("external/zlib/deflate.c", "deflate.o"),
		compile("external/boringssl/ssl.cc", "ssl.o"),
	}

	p := PartitionExternal(cmds, PartitionOptions{})

	require.Len(t, p.Project, 2)
	assert.Equal(t, "src/a.cc", p.Project[0].File)
	assert.Equal(t, "src/b.cc", p.Project[1].File)

	require.Len(t, p.External, 2)
	require.Len(t, p.External["zlib"], 2)
	// relative order within a component is preserved
	assert.Equal(t, "external/zlib/inflate.c", p.External["zlib"][0].File)
	assert.Equal(t, "external/zlib/deflate.c", p.External["zlib"][1].File)
	require.Len(t, p.External["boringssl"], 1)

	// durations travel with their commands
	assert.Equal(t, 0.5, p.External["zlib"][0].Duration)
}

func TestPartitionExternal_DoesNotMutate(t *testing.T) {
	cmds := []strace.CompileCommand{
		compile("external/zlib/inflate.c", "inflate.o"),
	}
	p := PartitionExternal(cmds, PartitionOptions{})

	require.Len(t, p.External["zlib"], 1)
	assert.Equal(t, cmds[0], p.External["zlib"][0])

	// every input command lands in exactly one subset
	total := len(p.Project)
	for _, sub := range p.External {
		total += len(sub)
	}
	assert.Equal(t, len(cmds), total)
}

func TestComponentDirs_MissingDirWarns(t *testing.T) {
	root := t.TempDir()
	p := Partition{External: map[string][]strace.CompileCommand{
		"zlib": {compile("external/zlib/inflate.c", "inflate.o")},
	}}

	dirs := ComponentDirs(root, p, nil)
	require.Contains(t, dirs, "zlib")
	// resolution succeeds even though the directory is missing
	assert.Contains(t, dirs["zlib"], "zlib")
}

func TestShouldKeepLog(t *testing.T) {
	assert.True(t, ShouldKeepLog(KeepLogAlways, false))
	assert.True(t, ShouldKeepLog(KeepLogAlways, true))
	assert.False(t, ShouldKeepLog(KeepLogNever, true))
	assert.False(t, ShouldKeepLog(KeepLogIfFailed, false))
	assert.True(t, ShouldKeepLog(KeepLogIfFailed, true))
}

func TestStraceArgs(t *testing.T) {
	args := straceArgs("/tmp/trace.txt", []string{"bazel", "build", "//..."})

	assert.Contains(t, args, "-ttt")
	assert.Contains(t, args, "trace=execve")
	require.True(t, len(args) > 3)
	assert.Equal(t, []string{"bazel", "build", "//..."}, args[len(args)-3:])

	// the log path directly follows -o
	for i, a := range args {
		if a == "-o" {
			assert.Equal(t, "/tmp/trace.txt", args[i+1])
		}
	}
}
