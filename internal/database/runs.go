package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of a crawl run.
type RunStatus string

const (
	// RunRunning is a run that has not finished, or whose process died.
	RunRunning RunStatus = "running"
	// RunCompleted is a run that visited every organization.
	RunCompleted RunStatus = "completed"
	// RunInterrupted is a run stopped by cancellation or rate limiting.
	RunInterrupted RunStatus = "interrupted"
	// RunFailed is a run stopped by an unexpected error.
	RunFailed RunStatus = "failed"
)

// Run is one crawl invocation.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Organizations []string
	Status        RunStatus
	// Cause describes why the run was interrupted or failed.
	Cause string
	// Updated counts records written by the run.
	Updated int
	// Checkpoint is where the run resumed from.
	Checkpoint string
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StartRun records the start of a crawl over orgs.
func (s *Store) StartRun(ctx context.Context, orgs []string, startedAt time.Time) (*Run, error) {
	run := &Run{
		ID:            uuid.NewString(),
		StartedAt:     startedAt.UTC(),
		Organizations: orgs,
		Status:        RunRunning,
	}

	orgsJSON, err := json.Marshal(orgs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize organizations: %w", err)
	}

	query := `
	INSERT INTO runs (id, started_at, organizations, status)
	VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, run.ID, formatTimestamp(run.StartedAt), string(orgsJSON), string(run.Status)); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// FinishRun stores the outcome of run.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	query := `
	UPDATE runs
	SET finished_at = ?, status = ?, cause = ?, updated = ?, checkpoint = ?
	WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		formatTimestamp(run.FinishedAt),
		string(run.Status),
		run.Cause,
		run.Updated,
		run.Checkpoint,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: unknown run %s", run.ID)
	}
	return nil
}

// Runs returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, started_at, finished_at, organizations, status, cause, updated, checkpoint
	FROM runs
	ORDER BY started_at DESC, rowid DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                   Run
			startedAt, finishedAt string
			orgsJSON, status      string
		)
		err := rows.Scan(&run.ID, &startedAt, &finishedAt, &orgsJSON, &status, &run.Cause, &run.Updated, &run.Checkpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(startedAt)
		run.FinishedAt = parseTimestamp(finishedAt)
		run.Status = RunStatus(status)
		if err := json.Unmarshal([]byte(orgsJSON), &run.Organizations); err != nil {
			run.Organizations = nil
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
