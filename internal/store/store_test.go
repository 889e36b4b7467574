package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arech/yacce/internal/strace"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testResult() *strace.Result {
	return &strace.Result{
		Compiles: []strace.CompileCommand{
			{
				Arguments: []string{"gcc", "-c", "a.c", "-o", "a.o"},
				Output:    "a.o",
				File:      "a.c",
				Duration:  1.5,
			},
			{
				Arguments: []string{"gcc", "-c", "b.c", "-o", "b.o"},
				Output:    "b.o",
				File:      "b.c",
				Duration:  0.25,
			},
		},
		Links: []strace.LinkCommand{
			{
				Arguments: []string{"gcc", "-o", "app", "a.o", "b.o"},
				Output:    "app",
				Duration:  3.0,
			},
		},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestSaveRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := NewRun("/build/root", "/tmp/trace.txt")
	require.NoError(t, s.SaveRun(ctx, run, testResult()))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "/build/root", runs[0].Cwd)
	assert.Equal(t, "/tmp/trace.txt", runs[0].TraceFile)
	assert.Equal(t, 2, runs[0].Compiles)
	assert.Equal(t, 1, runs[0].Links)
	assert.InDelta(t, 4.75, runs[0].TotalDuration, 1e-9)
}

func TestSaveRun_DuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := NewRun("/build/root", "/tmp/trace.txt")
	require.NoError(t, s.SaveRun(ctx, run, testResult()))
	assert.Error(t, s.SaveRun(ctx, run, testResult()))
}

func TestSlowestCommands(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := NewRun("/build/root", "/tmp/trace.txt")
	require.NoError(t, s.SaveRun(ctx, run, testResult()))

	cmds, err := s.SlowestCommands(ctx, run.ID, 2)
	require.NoError(t, err)
	require.Len(t, cmds, 2)

	// slowest first: the link, then the slower compile
	assert.Equal(t, "link", cmds[0].Kind)
	assert.Equal(t, "app", cmds[0].Output)
	assert.Equal(t, 3.0, cmds[0].Duration)

	assert.Equal(t, "compile", cmds[1].Kind)
	assert.Equal(t, "a.c", cmds[1].File)
	assert.Equal(t, []string{"gcc", "-c", "a.c", "-o", "a.o"}, cmds[1].Arguments)
}

func TestLatestRunID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id, "empty store has no latest run")

	first := NewRun("/a", "first.txt")
	require.NoError(t, s.SaveRun(ctx, first, &strace.Result{}))
	second := NewRun("/b", "second.txt")
	require.NoError(t, s.SaveRun(ctx, second, &strace.Result{}))

	id, err = s.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)
}

func TestSaveRun_EmptyResult(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := NewRun("/build/root", "/tmp/trace.txt")
	require.NoError(t, s.SaveRun(ctx, run, &strace.Result{}))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Zero(t, runs[0].Compiles)
	assert.Zero(t, runs[0].TotalDuration)
}
