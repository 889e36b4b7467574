package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RunSummary is a run joined with its command counts and total duration.
type RunSummary struct {
	Run
	Compiles      int
	Links         int
	TotalDuration float64
}

// SlowCommand is one command ranked by duration.
type SlowCommand struct {
	Kind      string
	Output    string
	File      string
	Arguments []string
	Duration  float64
}

// ListRuns returns saved runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.cwd, r.trace_file,
		       COALESCE(SUM(c.kind = 'compile'), 0),
		       COALESCE(SUM(c.kind = 'link'), 0),
		       COALESCE(SUM(c.duration_s), 0)
		FROM runs r
		LEFT JOIN commands c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var rs RunSummary
		var createdAt string
		if err := rows.Scan(&rs.ID, &createdAt, &rs.Cwd, &rs.TraceFile,
			&rs.Compiles, &rs.Links, &rs.TotalDuration); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		rs.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse created_at: %w", err)
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LatestRunID returns the ID of the most recently saved run, or "" when the
// store is empty. UUIDv7 IDs sort by creation time, so MAX works.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id *string
	err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM runs`).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}

// SlowestCommands returns up to limit commands of a run, slowest first.
func (s *Store) SlowestCommands(ctx context.Context, runID string, limit int) ([]SlowCommand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, output, file, arguments, duration_s
		FROM commands
		WHERE run_id = ?
		ORDER BY duration_s DESC
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("slowest commands: %w", err)
	}
	defer rows.Close()

	var cmds []SlowCommand
	for rows.Next() {
		var c SlowCommand
		var argsJSON string
		if err := rows.Scan(&c.Kind, &c.Output, &c.File, &argsJSON, &c.Duration); err != nil {
			return nil, fmt.Errorf("slowest commands: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &c.Arguments); err != nil {
			return nil, fmt.Errorf("slowest commands: unmarshal arguments: %w", err)
		}
		cmds = append(cmds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slowest commands: %w", err)
	}
	return cmds, nil
}
