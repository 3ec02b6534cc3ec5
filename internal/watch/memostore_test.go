package watch

import (
	"testing"

	"github.com/layerlint/layerlint/pkg/core"
)

func TestMemoStore_FileRecords(t *testing.T) {
	store, err := NewMemoStore(0)
	if err != nil {
		t.Fatalf("failed to create memo store: %v", err)
	}

	rec, err := store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil for missing record")
	}

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
	if rec.UpdatedAt.IsZero() {
		t.Error("updated_at should be set")
	}

	// Mutating the caller's record must not reach the stored copy
	put.ContentHash = "mutated"
	rec, _ = store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if rec.ContentHash != "abc123" {
		t.Error("stored record should be isolated from the caller")
	}

	if err := store.DeleteFileRecord("booking/cubits/booking_cubit.dart"); err != nil {
		t.Fatalf("failed to delete file record: %v", err)
	}
	rec, _ = store.GetFileRecord("booking/cubits/booking_cubit.dart")
	if rec != nil {
		t.Error("expected nil after delete")
	}
}

func TestMemoStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoStore(2)
	if err != nil {
		t.Fatalf("failed to create memo store: %v", err)
	}

	for _, p := range []string{"a.dart", "b.dart", "c.dart"} {
		rec := &core.FileRecord{RelPath: p, ContentHash: "h", Units: []byte(`{}`)}
		if err := store.PutFileRecord(rec); err != nil {
			t.Fatalf("failed to put %s: %v", p, err)
		}
	}

	rec, _ := store.GetFileRecord("a.dart")
	if rec != nil {
		t.Error("oldest record should have been evicted")
	}
	rec, _ = store.GetFileRecord("c.dart")
	if rec == nil {
		t.Error("newest record should still be present")
	}
}

func TestMemoStore_PruneFileRecords(t *testing.T) {
	store, err := NewMemoStore(0)
	if err != nil {
		t.Fatalf("failed to create memo store: %v", err)
	}

	for _, p := range []string{"a.dart", "b.dart", "c.dart"} {
		rec := &core.FileRecord{RelPath: p, ContentHash: "h", Units: []byte(`{}`)}
		if err := store.PutFileRecord(rec); err != nil {
			t.Fatalf("failed to put %s: %v", p, err)
		}
	}

	removed, err := store.PruneFileRecords(map[string]bool{"b.dart": true})
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	rec, _ := store.GetFileRecord("b.dart")
	if rec == nil {
		t.Error("kept record should survive prune")
	}
	rec, _ = store.GetFileRecord("a.dart")
	if rec != nil {
		t.Error("stale record should be gone after prune")
	}
}

func TestMemoStore_RunBookkeeping(t *testing.T) {
	store, err := NewMemoStore(0)
	if err != nil {
		t.Fatalf("failed to create memo store: %v", err)
	}

	if err := store.Open(""); err != nil {
		t.Fatalf("open should be a no-op: %v", err)
	}
	if err := store.InitSchema(); err != nil {
		t.Fatalf("init schema should be a no-op: %v", err)
	}

	first, err := store.CreateRun("/projects/app")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	second, err := store.CreateRun("/projects/app")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if first.ID == second.ID {
		t.Error("run IDs should be unique")
	}

	if err := store.CompleteRun(second.ID, core.RunStatusCompleted, 4, ""); err != nil {
		t.Fatalf("failed to complete run: %v", err)
	}
	got, err := store.GetRun(second.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != core.RunStatusCompleted || got.Violations != 4 {
		t.Errorf("unexpected run state: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	latest, err := store.GetLatestRun("/projects/app")
	if err != nil {
		t.Fatalf("failed to get latest run: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("expected latest run %q, got %q", second.ID, latest.ID)
	}

	none, err := store.GetLatestRun("/projects/other")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if none != nil {
		t.Error("expected nil for project with no runs")
	}

	runs, err := store.ListRuns("/projects/app", 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != second.ID {
		t.Errorf("expected newest run only, got %v", runs)
	}

	if err := store.CompleteRun("missing", core.RunStatusFailed, 0, "x"); err == nil {
		t.Error("expected error for unknown run")
	}
	if _, err := store.GetRun("missing"); err == nil {
		t.Error("expected error for unknown run")
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	latest, _ = store.GetLatestRun("/projects/app")
	if latest != nil {
		t.Error("close should discard run history")
	}
}
