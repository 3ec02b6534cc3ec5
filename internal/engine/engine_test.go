package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/layerlint/layerlint/internal/policy"
	"github.com/layerlint/layerlint/pkg/core"
)

func TestNew_RequiresPolicy(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("New() should fail without a policy")
	}
	var perr *core.PolicyError
	if !errors.As(err, &perr) {
		t.Fatalf("error should be a policy error, got %T: %v", err, err)
	}
}

func TestNew_RejectsBrokenPolicy(t *testing.T) {
	p := policy.Default()
	p.MaxFileLines = -1

	_, err := New(Config{Policy: p})
	if err == nil {
		t.Fatal("New() should fail on a broken policy")
	}
	var perr *core.PolicyError
	if !errors.As(err, &perr) {
		t.Fatalf("error should be a policy error, got %T: %v", err, err)
	}
	if perr.Field != "max_file_lines" {
		t.Errorf("error field = %q, want max_file_lines", perr.Field)
	}
}

func TestNew_Defaults(t *testing.T) {
	eng := newTestEngine(t, Config{})

	if eng.workers <= 0 {
		t.Errorf("workers = %d, want a positive default", eng.workers)
	}
	if eng.store != nil {
		t.Error("no state path given, store should be nil")
	}
	if eng.analyzer == nil {
		t.Error("analyzer should be initialized")
	}
}

func TestEngine_Close(t *testing.T) {
	eng, err := New(Config{Policy: policy.Default()})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := eng.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestEngine_CloseKeepsCallerStore(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, Config{Store: store})

	if err := eng.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if store.closed {
		t.Error("Close() must not close a caller-managed store")
	}
}

func TestRun_MissingSourceDir(t *testing.T) {
	root := t.TempDir()
	eng := newTestEngine(t, Config{})

	_, err := eng.Run(context.Background(), Options{Root: root})
	if err == nil {
		t.Fatal("Run() should fail when the source dir is missing")
	}
	if !strings.Contains(err.Error(), "lib") {
		t.Errorf("error should name the source dir: %v", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	root := writeTree(t, cleanProject())
	eng := newTestEngine(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, Options{Root: root})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_Idempotence(t *testing.T) {
	root := writeTree(t, withFiles(cleanProject(), map[string]string{
		"lib/booking/use_cases/get_current_user_use_case.dart": `class GetCurrentUserUseCase {
  final LocalBookingDataSource dataSource;

  GetCurrentUserUseCase(this.dataSource);
}
`,
	}))
	eng := newTestEngine(t, Config{})

	first, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	second, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}

	if !reflect.DeepEqual(first.Violations, second.Violations) {
		t.Errorf("reports differ between runs:\n%s\nvs\n%s",
			describe(first.Violations), describe(second.Violations))
	}
	if first.Stats.Units != second.Stats.Units || first.Stats.Edges != second.Stats.Edges {
		t.Errorf("stats differ between runs: %+v vs %+v", first.Stats, second.Stats)
	}
}

func TestRun_SkipsGeneratedFiles(t *testing.T) {
	root := writeTree(t, withFiles(cleanProject(), map[string]string{
		// Would be a parse error if it were indexed.
		"lib/booking/dtos/booking_dto.g.dart":       "class {{{\n",
		"lib/booking/dtos/booking_dto.freezed.dart": "class {{{\n",
	}))
	eng := newTestEngine(t, Config{})

	res, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if res.Stats.GeneratedSkipped != 2 {
		t.Errorf("GeneratedSkipped = %d, want 2", res.Stats.GeneratedSkipped)
	}
	if len(res.Violations) != 0 {
		t.Errorf("generated files should not be analyzed:\n%s", describe(res.Violations))
	}
}

func TestRun_DisabledRules(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/booking/use_cases/get_current_user_use_case.dart": `class GetCurrentUserUseCase {
  final SQLiteBookingDataSource dataSource;

  GetCurrentUserUseCase(this.dataSource);
}
`,
		"lib/booking/data_sources/sqlite_booking_data_source.dart": `class SQLiteBookingDataSource {
  Future<void> load() {
    return Future.value();
  }
}
`,
	})
	eng := newTestEngine(t, Config{DisabledRules: []string{"DP01"}})

	res, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Errorf("DP01 is disabled, expected no findings:\n%s", describe(res.Violations))
	}
}

func TestRun_SeverityOverride(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/authentication/screens/login.dart": "class Login {\n  void show() {}\n}\n",
	})
	eng := newTestEngine(t, Config{
		SeverityOverrides: map[string]core.Severity{"NM01": core.SeverityError},
	})

	res, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != core.SeverityError {
		t.Fatalf("expected one error-severity finding, got:\n%s", describe(res.Violations))
	}
	if !res.Failed(false) {
		t.Error("a promoted finding should fail the run")
	}
}

func TestRun_AmbiguousNamesAreExcluded(t *testing.T) {
	// The same class name declared in two features resolves to neither.
	root := writeTree(t, map[string]string{
		"lib/booking/dtos/booking_dto.dart":   "class SharedDTO {\n  int id = 0;\n}\n",
		"lib/settings/dtos/settings_dto.dart": "class SharedDTO {\n  int id = 0;\n}\n",
		"lib/settings/use_cases/sync_use_case.dart": `class SyncUseCase {
  final SharedDTO dto;

  SyncUseCase(this.dto);
}
`,
	})
	eng := newTestEngine(t, Config{})

	res, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if !reflect.DeepEqual(res.Ambiguous, []string{"SharedDTO"}) {
		t.Errorf("Ambiguous = %v, want [SharedDTO]", res.Ambiguous)
	}
	if len(res.Edges) != 0 {
		t.Errorf("ambiguous references must not resolve, got %d edges", len(res.Edges))
	}
	if len(res.Violations) != 0 {
		t.Errorf("no edges means no dependency findings:\n%s", describe(res.Violations))
	}
}

func TestResult_Summary(t *testing.T) {
	root := writeTree(t, cleanProject())
	eng := newTestEngine(t, Config{})

	res, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	summary := res.Summary()
	if !strings.Contains(summary, "3 files") {
		t.Errorf("summary should report the file count: %s", summary)
	}
	if !strings.Contains(summary, "0 errors, 0 warnings") {
		t.Errorf("summary should report severity counts: %s", summary)
	}
}

func TestRun_StatsSeparateFailuresFromFindings(t *testing.T) {
	root := writeTree(t, withFiles(cleanProject(), map[string]string{
		"lib/booking/cubits/broken_cubit.dart": "class BrokenCubit {\n",
	}))
	eng := newTestEngine(t, Config{})

	res, err := eng.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if res.Stats.FilesFailed != 1 {
		t.Errorf("FilesFailed = %d, want 1", res.Stats.FilesFailed)
	}
	summary := res.Summary()
	if !strings.Contains(summary, "1 failed") {
		t.Errorf("summary should report skipped files separately: %s", summary)
	}
	if !strings.Contains(summary, "1 errors") {
		t.Errorf("summary should still count the parse finding: %s", summary)
	}
}

func TestRun_ShuffledTreeOrder(t *testing.T) {
	// Two projects with identical content but different directory creation
	// order produce identical reports.
	files := withFiles(cleanProject(), map[string]string{
		"lib/authentication/screens/login.dart": "class Login {\n  void show() {}\n}\n",
		"lib/settings/use_cases/load_profile_use_case.dart": `class LoadProfileUseCase {
  final BookingRepository repository;

  LoadProfileUseCase(this.repository);
}
`,
	})

	rootA := t.TempDir()
	rootB := t.TempDir()
	ordered := make([]string, 0, len(files))
	for rel := range files {
		ordered = append(ordered, rel)
	}
	for i, rel := range ordered {
		writeOne(t, rootA, rel, files[rel])
		writeOne(t, rootB, ordered[len(ordered)-1-i], files[ordered[len(ordered)-1-i]])
	}

	eng := newTestEngine(t, Config{})
	resA, err := eng.Run(context.Background(), Options{Root: rootA})
	if err != nil {
		t.Fatalf("Run() on rootA failed: %v", err)
	}
	resB, err := eng.Run(context.Background(), Options{Root: rootB})
	if err != nil {
		t.Fatalf("Run() on rootB failed: %v", err)
	}

	if !reflect.DeepEqual(resA.Violations, resB.Violations) {
		t.Errorf("reports differ under reordering:\n%s\nvs\n%s",
			describe(resA.Violations), describe(resB.Violations))
	}
}

func TestResult_SummaryFormat(t *testing.T) {
	res := &Result{
		Stats: RunStats{FilesIndexed: 12, FilesFromCache: 7, Units: 30, Edges: 14},
		Violations: []core.Violation{
			{RuleID: "DP01", Severity: core.SeverityError},
			{RuleID: "NM01", Severity: core.SeverityWarning},
		},
	}
	want := fmt.Sprintf("12 files (7 cached, 0 failed) | 30 units | 14 edges | 1 errors, 1 warnings | %v", res.Duration)
	if got := res.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
