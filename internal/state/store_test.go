package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/layerlint/layerlint/pkg/core"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_OpenClose(t *testing.T) {
	store := NewStore()

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStore_InitSchema(t *testing.T) {
	store := NewStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	// Verify tables exist by querying them
	tables := []string{"runs", "file_records"}
	for _, table := range tables {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}

	// A second call must be a no-op
	if err := store.InitSchema(); err != nil {
		t.Fatalf("re-running init schema failed: %v", err)
	}
}

func TestStore_SchemaVersion(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version < 1 {
		t.Errorf("expected schema version >= 1, got %d", version)
	}
}

// --- Run lifecycle tests ---

func TestStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, store *Store) *core.Run
		operation func(t *testing.T, store *Store, run *core.Run)
		verify    func(t *testing.T, store *Store, run *core.Run)
	}{
		{
			name: "create run",
			setup: func(t *testing.T, store *Store) *core.Run {
				run, err := store.CreateRun("/projects/app")
				if err != nil {
					t.Fatalf("failed to create run: %v", err)
				}
				return run
			},
			verify: func(t *testing.T, store *Store, run *core.Run) {
				if run.ID == "" {
					t.Error("run ID should not be empty")
				}
				if run.ProjectRoot != "/projects/app" {
					t.Errorf("expected project root '/projects/app', got %q", run.ProjectRoot)
				}
				if run.Status != core.RunStatusRunning {
					t.Errorf("expected status 'running', got %q", run.Status)
				}
			},
		},
		{
			name: "get run",
			setup: func(t *testing.T, store *Store) *core.Run {
				run, err := store.CreateRun("/projects/app")
				if err != nil {
					t.Fatalf("failed to create run: %v", err)
				}
				return run
			},
			operation: func(t *testing.T, store *Store, run *core.Run) {
				retrieved, err := store.GetRun(run.ID)
				if err != nil {
					t.Fatalf("failed to get run: %v", err)
				}
				if retrieved.ID != run.ID {
					t.Errorf("expected ID %q, got %q", run.ID, retrieved.ID)
				}
				if !retrieved.StartedAt.Equal(run.StartedAt) {
					t.Errorf("expected started_at %v, got %v", run.StartedAt, retrieved.StartedAt)
				}
				if retrieved.CompletedAt != nil {
					t.Error("completed_at should be nil for a running run")
				}
			},
		},
		{
			name: "get run not found",
			setup: func(t *testing.T, store *Store) *core.Run {
				return nil
			},
			operation: func(t *testing.T, store *Store, run *core.Run) {
				_, err := store.GetRun("nonexistent-id")
				if err == nil {
					t.Error("expected error for nonexistent run")
				}
			},
		},
		{
			name: "complete run success",
			setup: func(t *testing.T, store *Store) *core.Run {
				run, _ := store.CreateRun("/projects/app")
				return run
			},
			operation: func(t *testing.T, store *Store, run *core.Run) {
				err := store.CompleteRun(run.ID, core.RunStatusCompleted, 7, "")
				if err != nil {
					t.Fatalf("failed to complete run: %v", err)
				}
			},
			verify: func(t *testing.T, store *Store, run *core.Run) {
				retrieved, _ := store.GetRun(run.ID)
				if retrieved.Status != core.RunStatusCompleted {
					t.Errorf("expected status 'completed', got %q", retrieved.Status)
				}
				if retrieved.Violations != 7 {
					t.Errorf("expected 7 violations, got %d", retrieved.Violations)
				}
				if retrieved.CompletedAt == nil {
					t.Error("completed_at should not be nil")
				}
				if retrieved.Error != "" {
					t.Errorf("expected empty error, got %q", retrieved.Error)
				}
			},
		},
		{
			name: "complete run with error",
			setup: func(t *testing.T, store *Store) *core.Run {
				run, _ := store.CreateRun("/projects/app")
				return run
			},
			operation: func(t *testing.T, store *Store, run *core.Run) {
				err := store.CompleteRun(run.ID, core.RunStatusFailed, 0, "something went wrong")
				if err != nil {
					t.Fatalf("failed to complete run: %v", err)
				}
			},
			verify: func(t *testing.T, store *Store, run *core.Run) {
				retrieved, _ := store.GetRun(run.ID)
				if retrieved.Status != core.RunStatusFailed {
					t.Errorf("expected status 'failed', got %q", retrieved.Status)
				}
				if retrieved.Error != "something went wrong" {
					t.Errorf("expected error message, got %q", retrieved.Error)
				}
			},
		},
		{
			name: "complete run cancelled",
			setup: func(t *testing.T, store *Store) *core.Run {
				run, _ := store.CreateRun("/projects/app")
				return run
			},
			operation: func(t *testing.T, store *Store, run *core.Run) {
				err := store.CompleteRun(run.ID, core.RunStatusCancelled, 0, "context canceled")
				if err != nil {
					t.Fatalf("failed to complete run: %v", err)
				}
			},
			verify: func(t *testing.T, store *Store, run *core.Run) {
				retrieved, _ := store.GetRun(run.ID)
				if retrieved.Status != core.RunStatusCancelled {
					t.Errorf("expected status 'cancelled', got %q", retrieved.Status)
				}
			},
		},
		{
			name: "complete run not found",
			setup: func(t *testing.T, store *Store) *core.Run {
				return nil
			},
			operation: func(t *testing.T, store *Store, run *core.Run) {
				err := store.CompleteRun("nonexistent-id", core.RunStatusCompleted, 0, "")
				if err == nil {
					t.Error("expected error for nonexistent run")
				}
			},
		},
		{
			name: "get latest run",
			setup: func(t *testing.T, store *Store) *core.Run {
				store.CreateRun("/projects/app")
				time.Sleep(10 * time.Millisecond)
				run2, _ := store.CreateRun("/projects/app")
				return run2
			},
			verify: func(t *testing.T, store *Store, run *core.Run) {
				latest, err := store.GetLatestRun("/projects/app")
				if err != nil {
					t.Fatalf("failed to get latest run: %v", err)
				}
				if latest.ID != run.ID {
					t.Errorf("expected latest run ID %q, got %q", run.ID, latest.ID)
				}
			},
		},
		{
			name: "get latest run no runs",
			setup: func(t *testing.T, store *Store) *core.Run {
				return nil
			},
			verify: func(t *testing.T, store *Store, run *core.Run) {
				latest, err := store.GetLatestRun("/projects/other")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if latest != nil {
					t.Error("expected nil for project with no runs")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)

			run := tt.setup(t, store)
			if tt.operation != nil {
				tt.operation(t, store, run)
			}
			if tt.verify != nil {
				tt.verify(t, store, run)
			}
		})
	}
}

func TestStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	var created []*core.Run
	for range 3 {
		run, err := store.CreateRun("/projects/app")
		if err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		created = append(created, run)
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := store.CreateRun("/projects/other"); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	runs, err := store.ListRuns("/projects/app", 2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != created[2].ID {
		t.Errorf("expected newest run first, got %q", runs[0].ID)
	}
	if runs[1].ID != created[1].ID {
		t.Errorf("expected second-newest run next, got %q", runs[1].ID)
	}

	all, err := store.ListRuns("/projects/app", 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 runs for /projects/app, got %d", len(all))
	}
}

// --- File record tests ---

func TestStore_FileRecords(t *testing.T) {
	store := setupTestStore(t)

	// Missing record returns nil without error
	rec, err := store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil for missing record")
	}

	// Roundtrip
	put := &core.FileRecord{
		RelPath:     "booking/cubits/booking_cubit.dart",
		ContentHash: "abc123",
		Units:       []byte(`{"lines":12}`),
	}
	if err := store.PutFileRecord(put); err != nil {
		t.Fatalf("failed to put file record: %v", err)
	}

	rec, err = store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if err != nil {
		t.Fatalf("failed to get file record: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got nil")
	}
	if rec.ContentHash != "abc123" {
		t.Errorf("expected hash 'abc123', got %q", rec.ContentHash)
	}
	if string(rec.Units) != `{"lines":12}` {
		t.Errorf("unexpected units payload: %s", rec.Units)
	}
	if rec.UpdatedAt.IsZero() {
		t.Error("updated_at should be set")
	}

	// Putting the same path again replaces the record
	put.ContentHash = "def456"
	put.Units = []byte(`{"lines":13}`)
	if err := store.PutFileRecord(put); err != nil {
		t.Fatalf("failed to update file record: %v", err)
	}

	rec, err = store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if err != nil {
		t.Fatalf("failed to get file record: %v", err)
	}
	if rec.ContentHash != "def456" {
		t.Errorf("expected hash 'def456', got %q", rec.ContentHash)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM file_records`).Scan(&count); err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record after upsert, got %d", count)
	}

	// Delete
	if err := store.DeleteFileRecord("booking/cubits/booking_cubit.dart"); err != nil {
		t.Fatalf("failed to delete file record: %v", err)
	}
	rec, err = store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Error("expected nil after delete")
	}

	// Deleting a missing record is not an error
	if err := store.DeleteFileRecord("booking/cubits/booking_cubit.dart"); err != nil {
		t.Errorf("deleting missing record should not error: %v", err)
	}
}

func TestStore_PruneFileRecords(t *testing.T) {
	store := setupTestStore(t)

	paths := []string{
		"booking/cubits/booking_cubit.dart",
		"booking/screens/booking_screen.dart",
		"profile/states/profile_state.dart",
	}
	for _, p := range paths {
		rec := &core.FileRecord{RelPath: p, ContentHash: "h", Units: []byte(`{}`)}
		if err := store.PutFileRecord(rec); err != nil {
			t.Fatalf("failed to put file record: %v", err)
		}
	}

	keep := map[string]bool{"booking/cubits/booking_cubit.dart": true}
	removed, err := store.PruneFileRecords(keep)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	rec, err := store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Error("kept record should survive prune")
	}
	rec, err = store.GetFileRecord("profile/states/profile_state.dart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Error("stale record should be gone after prune")
	}

	// A second prune removes nothing
	removed, err = store.PruneFileRecords(keep)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected 0 removed on second prune, got %d", removed)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layerlint.db")

	store := NewStore()
	if err := store.Open(path); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	run, err := store.CreateRun("/projects/app")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if err := store.CompleteRun(run.ID, core.RunStatusCompleted, 3, ""); err != nil {
		t.Fatalf("failed to complete run: %v", err)
	}
	rec := &core.FileRecord{RelPath: "common/dtos/user_dto.dart", ContentHash: "abc", Units: []byte(`{}`)}
	if err := store.PutFileRecord(rec); err != nil {
		t.Fatalf("failed to put file record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	reopened := NewStore()
	if err := reopened.Open(path); err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()
	if err := reopened.InitSchema(); err != nil {
		t.Fatalf("failed to re-init schema: %v", err)
	}

	latest, err := reopened.GetLatestRun("/projects/app")
	if err != nil {
		t.Fatalf("failed to get latest run: %v", err)
	}
	if latest == nil || latest.ID != run.ID {
		t.Fatalf("expected run %q to survive reopen", run.ID)
	}
	if latest.Violations != 3 {
		t.Errorf("expected 3 violations, got %d", latest.Violations)
	}

	got, err := reopened.GetFileRecord("common/dtos/user_dto.dart")
	if err != nil {
		t.Fatalf("failed to get file record: %v", err)
	}
	if got == nil || got.ContentHash != "abc" {
		t.Error("file record should survive reopen")
	}
}
