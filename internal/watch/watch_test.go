package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/layerlint/layerlint/internal/policy"
)

func TestNew_Validation(t *testing.T) {
	handler := func(context.Context, []string) error { return nil }

	if _, err := New(Config{OnChange: handler}); err == nil {
		t.Error("expected error for missing policy")
	}
	if _, err := New(Config{Policy: policy.Default()}); err == nil {
		t.Error("expected error for missing change handler")
	}

	w, err := New(Config{Policy: policy.Default(), OnChange: handler})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("expected default debounce, got %v", w.debounce)
	}
}

// startWatcher runs w in the background and returns a cancel function that
// stops it and asserts a clean exit.
func startWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the tree.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("watcher returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop after cancel")
		}
	}
}

func waitForChange(t *testing.T, changes <-chan []string) []string {
	t.Helper()
	select {
	case paths := <-changes:
		return paths
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
		return nil
	}
}

func TestWatcher_ReportsDartChanges(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "lib", "booking", "cubits")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 10)
	w, err := New(Config{
		Root:     root,
		Policy:   policy.Default(),
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, paths []string) error {
			changes <- paths
			return nil
		},
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	target := filepath.Join(dir, "booking_cubit.dart")
	if err := os.WriteFile(target, []byte("class BookingCubit {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	paths := waitForChange(t, changes)
	found := false
	for _, p := range paths {
		if p == target {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s in changed paths, got %v", target, paths)
	}
}

func TestWatcher_FiltersIrrelevantFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "lib", "booking", "dtos")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 10)
	w, err := New(Config{
		Root:     root,
		Policy:   policy.Default(),
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, paths []string) error {
			changes <- paths
			return nil
		},
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	// One burst: a note, a generated file, a hidden file, and a real
	// source file. Only the source file should surface.
	target := filepath.Join(dir, "booking_dto.dart")
	for name, content := range map[string]string{
		"notes.txt":          "remember the milk\n",
		"booking_dto.g.dart": "class _BookingDTOJson {}\n",
		".booking_dto.swp":   "editor junk\n",
		"booking_dto.dart":   "class BookingDTO {}\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths := waitForChange(t, changes)
	if len(paths) != 1 || paths[0] != target {
		t.Errorf("expected only %s, got %v", target, paths)
	}
}

func TestWatcher_SeesNewDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lib"), 0755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 10)
	w, err := New(Config{
		Root:     root,
		Policy:   policy.Default(),
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, paths []string) error {
			changes <- paths
			return nil
		},
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	// A new feature directory appears after the watch starts.
	newDir := filepath.Join(root, "lib", "profile", "screens")
	if err := os.MkdirAll(newDir, 0755); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changes)

	target := filepath.Join(newDir, "profile_screen.dart")
	if err := os.WriteFile(target, []byte("class ProfileScreen {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	paths := waitForChange(t, changes)
	found := false
	for _, p := range paths {
		if p == target {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s in changed paths, got %v", target, paths)
	}
}

func TestWatcher_ReportsDeletions(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "lib", "booking", "cubits")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "booking_cubit.dart")
	if err := os.WriteFile(target, []byte("class BookingCubit {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 10)
	w, err := New(Config{
		Root:     root,
		Policy:   policy.Default(),
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, paths []string) error {
			changes <- paths
			return nil
		},
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}

	paths := waitForChange(t, changes)
	found := false
	for _, p := range paths {
		if p == target {
			found = true
		}
	}
	if !found {
		t.Errorf("expected deletion of %s to be reported, got %v", target, paths)
	}
}
