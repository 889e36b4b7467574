package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_BuiltinCatalogue(t *testing.T) {
	set, err := Build(nil, "")
	require.NoError(t, err)

	present := []string{
		"cc", "c++", "gcc", "g++", "clang", "clang++",
		"gcc-9", "gcc-17", "g++-12",
		"x86_64-linux-gnu-gcc-9", "x86_64-linux-gnu-g++-17",
		"clang-10", "clang-24", "clang++-10", "clang++-24",
	}
	for _, name := range present {
		assert.Contains(t, set.Basenames, name)
	}

	absent := []string{"gcc-8", "gcc-18", "clang-9", "clang-25", "tcc"}
	for _, name := range absent {
		assert.NotContains(t, set.Basenames, name)
	}

	assert.Empty(t, set.FullPaths)
}

func TestBuild_CustomCompilers(t *testing.T) {
	set, err := Build([]string{"mycc", "/opt/toolchain/bin/weird-cc", ""}, "")
	require.NoError(t, err)

	assert.Contains(t, set.Basenames, "mycc")
	assert.Contains(t, set.FullPaths, "/opt/toolchain/bin/weird-cc")
	assert.NotContains(t, set.Basenames, "")
}

func TestBuild_ExtraCatalogueDir(t *testing.T) {
	dir := t.TempDir()
	extra := `
package catalog

basenames: ["icc", "icpc"]
fullpaths: ["/usr/local/bin/zig-cc"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toolchain.cue"), []byte(extra), 0o644))

	set, err := Build(nil, dir)
	require.NoError(t, err)

	assert.Contains(t, set.Basenames, "icc")
	assert.Contains(t, set.Basenames, "icpc")
	assert.Contains(t, set.FullPaths, "/usr/local/bin/zig-cc")
	// built-ins still present
	assert.Contains(t, set.Basenames, "gcc")
}

func TestBuild_MissingDirFails(t *testing.T) {
	_, err := Build(nil, filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestMatchSemantics(t *testing.T) {
	set, err := Build([]string{"/opt/cross/bin/mycc"}, "")
	require.NoError(t, err)

	assert.True(t, set.Matches("/usr/bin/gcc"), "basename match on any path")
	assert.True(t, set.Matches("gcc"))
	assert.True(t, set.Matches("/opt/cross/bin/mycc"), "full path match")
	assert.False(t, set.Matches("/opt/other/bin/mycc"), "full paths don't match by basename")
	assert.False(t, set.Matches("/usr/bin/ld"))
}
