package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first := Run{
		RunID:        "run-1",
		Timestamp:    base,
		TargetPath:   "src",
		FileCount:    40,
		ErrorCount:   7,
		WarningCount: 3,
		ByCategory:   map[string]int{"import_boundary": 5, "complexity": 2},
	}
	second := Run{
		RunID:        "run-2",
		Timestamp:    base.Add(2 * time.Hour),
		TargetPath:   "src",
		FileCount:    41,
		ErrorCount:   4,
		WarningCount: 1,
	}

	if err := store.SaveRun(first); err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if err := store.SaveRun(second); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	got, err := store.LoadRuns("src", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 run after since filter, got %d", len(got))
	}
	if got[0].ErrorCount != 4 {
		t.Fatalf("expected error_count=4, got %d", got[0].ErrorCount)
	}

	all, err := store.LoadRuns("src", time.Time{})
	if err != nil {
		t.Fatalf("load all runs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(all))
	}
	if all[0].ByCategory["import_boundary"] != 5 {
		t.Fatalf("expected category counts to roundtrip, got %+v", all[0].ByCategory)
	}
}

func TestStore_SaveRunUpserts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	run := Run{RunID: "run-1", Timestamp: time.Now().UTC(), TargetPath: "src", ErrorCount: 9}
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run.ErrorCount = 2
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("save updated run: %v", err)
	}

	all, err := store.LoadRuns("src", time.Time{})
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected upsert to keep 1 row, got %d", len(all))
	}
	if all[0].ErrorCount != 2 {
		t.Fatalf("expected upserted error_count=2, got %d", all[0].ErrorCount)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_SaveRunRequiresID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if err := store.SaveRun(Run{Timestamp: time.Now()}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestStore_OpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "state", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file to exist: %v", err)
	}
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	runs := []Run{
		{RunID: "a", Timestamp: base, TargetPath: "src", ErrorCount: 10, WarningCount: 4, FileCount: 40},
		{RunID: "b", Timestamp: base.Add(time.Hour), TargetPath: "src", ErrorCount: 6, WarningCount: 4, FileCount: 42},
	}

	report, err := BuildTrendReport(runs, 24*time.Hour)
	if err != nil {
		t.Fatalf("build trend report: %v", err)
	}
	if report.RunCount != 2 {
		t.Fatalf("expected 2 points, got %d", report.RunCount)
	}
	if report.Points[1].DeltaErrors != -4 {
		t.Fatalf("expected delta_errors=-4, got %d", report.Points[1].DeltaErrors)
	}
	if report.Points[1].DeltaFiles != 2 {
		t.Fatalf("expected delta_files=2, got %d", report.Points[1].DeltaFiles)
	}
	if report.Points[1].AvgErrors != 8 {
		t.Fatalf("expected avg_errors=8, got %v", report.Points[1].AvgErrors)
	}

	if _, err := BuildTrendReport(nil, time.Hour); err == nil {
		t.Fatal("expected error for empty run list")
	}
}
