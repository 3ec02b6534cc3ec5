package watch

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/layerlint/layerlint/pkg/core"
)

// DefaultMemoSize caps the in-memory extraction memo.
const DefaultMemoSize = 8192

// MemoStore is an in-memory core.Store for watch sessions. It keeps the
// extraction memo warm between consecutive runs without touching disk; the
// LRU bound caps memory on very large projects. Run history lives only as
// long as the process.
type MemoStore struct {
	mu      sync.Mutex
	records *lru.Cache[string, *core.FileRecord]
	runs    []*core.Run
	nextID  int
}

var _ core.Store = (*MemoStore)(nil)

// NewMemoStore creates a memo store holding at most size file records.
// Size zero or below means DefaultMemoSize.
func NewMemoStore(size int) (*MemoStore, error) {
	if size <= 0 {
		size = DefaultMemoSize
	}
	records, err := lru.New[string, *core.FileRecord](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memo cache: %w", err)
	}
	return &MemoStore{records: records}, nil
}

// Open is a no-op; the store lives in memory.
func (m *MemoStore) Open(path string) error { return nil }

// Close discards all memoized state.
func (m *MemoStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records.Purge()
	m.runs = nil
	return nil
}

// InitSchema is a no-op; the store lives in memory.
func (m *MemoStore) InitSchema() error { return nil }

// CreateRun records the start of a run.
func (m *MemoStore) CreateRun(projectRoot string) (*core.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	run := &core.Run{
		ID:          fmt.Sprintf("watch-%d", m.nextID),
		ProjectRoot: projectRoot,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	m.runs = append(m.runs, run)
	return run, nil
}

// GetRun retrieves a run by ID.
func (m *MemoStore) GetRun(id string) (*core.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, run := range m.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", id)
}

// CompleteRun finalizes a run with its status and finding count.
func (m *MemoStore) CompleteRun(id string, status core.RunStatus, violations int, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, run := range m.runs {
		if run.ID == id {
			now := time.Now().UTC()
			run.Status = status
			run.Violations = violations
			run.Error = errMsg
			run.CompletedAt = &now
			return nil
		}
	}
	return fmt.Errorf("run not found: %s", id)
}

// GetLatestRun retrieves the most recent run for a project root.
func (m *MemoStore) GetLatestRun(projectRoot string) (*core.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].ProjectRoot == projectRoot {
			return m.runs[i], nil
		}
	}
	return nil, nil
}

// ListRuns retrieves the most recent runs for a project root, newest first,
// up to the given limit.
func (m *MemoStore) ListRuns(projectRoot string, limit int) ([]*core.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var runs []*core.Run
	for i := len(m.runs) - 1; i >= 0 && len(runs) < limit; i-- {
		if m.runs[i].ProjectRoot == projectRoot {
			runs = append(runs, m.runs[i])
		}
	}
	return runs, nil
}

// GetFileRecord retrieves the memo for a path, nil when absent.
func (m *MemoStore) GetFileRecord(relPath string) (*core.FileRecord, error) {
	if rec, ok := m.records.Get(relPath); ok {
		return rec, nil
	}
	return nil, nil
}

// PutFileRecord stores the memo for a path, evicting the least recently
// used entry when full.
func (m *MemoStore) PutFileRecord(rec *core.FileRecord) error {
	stored := *rec
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	m.records.Add(stored.RelPath, &stored)
	return nil
}

// DeleteFileRecord removes the memo for a path.
func (m *MemoStore) DeleteFileRecord(relPath string) error {
	m.records.Remove(relPath)
	return nil
}

// PruneFileRecords drops memo entries for paths absent from keep and
// returns how many were removed.
func (m *MemoStore) PruneFileRecords(keep map[string]bool) (int, error) {
	removed := 0
	for _, relPath := range m.records.Keys() {
		if !keep[relPath] {
			m.records.Remove(relPath)
			removed++
		}
	}
	return removed, nil
}
