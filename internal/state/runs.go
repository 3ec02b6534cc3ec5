package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/layerlint/layerlint/pkg/core"
)

// CreateRun records the start of a conformance run over a project root.
func (s *Store) CreateRun(projectRoot string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:          generateID(),
		ProjectRoot: projectRoot,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, project_root, status, violations, started_at) VALUES (?, ?, ?, 0, ?)`,
		run.ID, run.ProjectRoot, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRow(
		`SELECT id, project_root, status, violations, error, started_at, completed_at
		 FROM runs WHERE id = ?`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// CompleteRun finalizes a run with its status and finding count.
func (s *Store) CompleteRun(id string, status core.RunStatus, violations int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, violations = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), violations, now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// GetLatestRun retrieves the most recent run for a project root.
func (s *Store) GetLatestRun(projectRoot string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRow(
		`SELECT id, project_root, status, violations, error, started_at, completed_at
		 FROM runs WHERE project_root = ? ORDER BY started_at DESC LIMIT 1`,
		projectRoot,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // No runs recorded yet, return nil without error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves the most recent runs for a project root, newest first,
// up to the given limit.
func (s *Store) ListRuns(projectRoot string, limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, project_root, status, violations, error, started_at, completed_at
		 FROM runs WHERE project_root = ? ORDER BY started_at DESC LIMIT ?`,
		projectRoot, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	run := &core.Run{}
	var errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.ProjectRoot, &run.Status, &run.Violations, &errMsg, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return run, nil
}
