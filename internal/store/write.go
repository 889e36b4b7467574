package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arech/yacce/internal/strace"
)

// Run identifies one persisted parse of one trace.
type Run struct {
	// ID is a UUIDv7, so run IDs sort by creation time.
	ID string

	// CreatedAt is when the run was saved.
	CreatedAt time.Time

	// Cwd is the compilation directory the databases were written against.
	Cwd string

	// TraceFile is the path of the parsed trace.
	TraceFile string
}

// NewRun builds a Run for the given trace with a fresh time-ordered ID.
func NewRun(cwd, traceFile string) Run {
	return Run{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CreatedAt: time.Now().UTC(),
		Cwd:       cwd,
		TraceFile: traceFile,
	}
}

// SaveRun persists a run and all of its reconstructed commands in a single
// transaction. Either the whole run lands or none of it does.
//
// Command argument vectors are serialized as JSON arrays; idx preserves
// trace order within each kind.
func (s *Store) SaveRun(ctx context.Context, run Run, res *strace.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, cwd, trace_file)
		VALUES (?, ?, ?, ?)
	`,
		run.ID,
		run.CreatedAt.Format(time.RFC3339Nano),
		run.Cwd,
		run.TraceFile,
	)
	if err != nil {
		return fmt.Errorf("save run: insert run: %w", err)
	}

	for i, cmd := range res.Compiles {
		if err := insertCommand(ctx, tx, run.ID, "compile", i, cmd.Output, cmd.File, cmd.Arguments, cmd.Duration); err != nil {
			return err
		}
	}
	for i, cmd := range res.Links {
		if err := insertCommand(ctx, tx, run.ID, "link", i, cmd.Output, "", cmd.Arguments, cmd.Duration); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}

	return nil
}

func insertCommand(ctx context.Context, tx *sql.Tx, runID, kind string, idx int, output, file string, args []string, duration float64) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("save run: marshal arguments: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commands (run_id, kind, idx, output, file, arguments, duration_s)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		runID, kind, idx, output, file, string(argsJSON), duration,
	)
	if err != nil {
		return fmt.Errorf("save run: insert %s command %d: %w", kind, idx, err)
	}
	return nil
}
