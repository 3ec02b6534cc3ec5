package core

import "time"

// Store defines the interface for the optional run cache. The cache memoizes
// extraction results by content hash and keeps a run history. It is never a
// correctness input: a cold cache and a warm cache produce identical reports.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(projectRoot string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, violations int, errMsg string) error
	GetLatestRun(projectRoot string) (*Run, error)
	ListRuns(projectRoot string, limit int) ([]*Run, error)

	// Extraction memo, keyed by project-relative path
	GetFileRecord(relPath string) (*FileRecord, error)
	PutFileRecord(rec *FileRecord) error
	DeleteFileRecord(relPath string) error
	// PruneFileRecords drops memo entries for paths absent from keep and
	// returns how many were removed.
	PruneFileRecords(keep map[string]bool) (int, error)
}

// RunStatus represents the status of a recorded run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents one recorded conformance run.
type Run struct {
	ID          string
	ProjectRoot string
	Status      RunStatus
	// Violations is the finding count at completion.
	Violations  int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// FileRecord memoizes one file's extraction result for change detection.
type FileRecord struct {
	RelPath     string
	ContentHash string
	// Units is the JSON-encoded []Unit extracted from the file at the
	// recorded hash.
	Units     []byte
	UpdatedAt time.Time
}
