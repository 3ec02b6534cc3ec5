package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/layerlint/layerlint/pkg/core"
)

// GetFileRecord retrieves the extraction memo for a project-relative path.
// Returns nil without error when no record exists.
func (s *Store) GetFileRecord(relPath string) (*core.FileRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rec := &core.FileRecord{}
	err := s.db.QueryRow(
		`SELECT rel_path, content_hash, units, updated_at FROM file_records WHERE rel_path = ?`,
		relPath,
	).Scan(&rec.RelPath, &rec.ContentHash, &rec.Units, &rec.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not cached, return nil without error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}

	return rec, nil
}

// PutFileRecord inserts or replaces the extraction memo for a path.
func (s *Store) PutFileRecord(rec *core.FileRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO file_records (rel_path, content_hash, units, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (rel_path) DO UPDATE SET
		   content_hash = excluded.content_hash,
		   units = excluded.units,
		   updated_at = excluded.updated_at`,
		rec.RelPath, rec.ContentHash, rec.Units, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put file record: %w", err)
	}

	return nil
}

// DeleteFileRecord removes the memo for a path. Deleting a missing record is
// not an error.
func (s *Store) DeleteFileRecord(relPath string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`DELETE FROM file_records WHERE rel_path = ?`, relPath)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// PruneFileRecords drops memo entries for paths absent from keep and returns
// how many were removed.
func (s *Store) PruneFileRecords(keep map[string]bool) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	stale, err := s.staleFileRecords(keep)
	if err != nil {
		return 0, fmt.Errorf("failed to list file records: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin prune: %w", err)
	}
	for _, relPath := range stale {
		if _, err := tx.Exec(`DELETE FROM file_records WHERE rel_path = ?`, relPath); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to prune file record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}

	return len(stale), nil
}

func (s *Store) staleFileRecords(keep map[string]bool) ([]string, error) {
	rows, err := s.db.Query(`SELECT rel_path FROM file_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var relPath string
		if err := rows.Scan(&relPath); err != nil {
			return nil, err
		}
		if !keep[relPath] {
			stale = append(stale, relPath)
		}
	}

	return stale, rows.Err()
}
