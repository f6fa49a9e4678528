package override

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "exceptions")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadThresholds(t *testing.T) {
	file := writeFile(t, `
# raised limits
src/lib/generated: 2500  # machine generated parser tables
lib/legacy: 1800  # scheduled for removal in Q4 cleanup
`)
	th, warnings, err := LoadThresholds(file)
	if err != nil {
		t.Fatalf("LoadThresholds: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if limit, ok := th.For("src/lib/generated/tables.ts"); !ok || limit != 2500 {
		t.Errorf("walk-up lookup = %d, %v", limit, ok)
	}
	if limit, ok := th.For("lib/legacy"); !ok || limit != 1800 {
		t.Errorf("exact lookup = %d, %v", limit, ok)
	}
	if _, ok := th.For("src/lib/other"); ok {
		t.Error("unrelated path matched")
	}
}

func TestPrefixNormalization(t *testing.T) {
	file := writeFile(t, "lib/state: 1200  # large store kept intentionally flat\n")
	th, _, err := LoadThresholds(file)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := th.For("src/lib/state/store.ts"); !ok {
		t.Error("entry without src/ prefix should match src path")
	}
}

func TestThresholdWarnings(t *testing.T) {
	file := writeFile(t, `
src/a: 100  # ok justification here
src/b: 100
src/c: nope  # threshold should be numeric
src/d  # missing the threshold entirely
`)
	_, warnings, err := LoadThresholds(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", warnings)
	}
}

func TestLoadFunctionLimits(t *testing.T) {
	file := writeFile(t, `
src/lib/parse.ts:150  # tokenizer kept as one unit
src/lib/parse.ts:scanTemplate:220  # template scanning state machine
src/lib/handlers.ts:handle*:120  # generated event handlers
`)
	fl, warnings, err := LoadFunctionLimits(file)
	if err != nil {
		t.Fatalf("LoadFunctionLimits: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if limit, ok := fl.ForFunction("src/lib/parse.ts", "scanTemplate"); !ok || limit != 220 {
		t.Errorf("per-function limit = %d, %v", limit, ok)
	}
	if limit, ok := fl.ForFunction("src/lib/parse.ts", "other"); !ok || limit != 150 {
		t.Errorf("file fallback = %d, %v", limit, ok)
	}
	if limit, ok := fl.ForFunction("src/lib/handlers.ts", "handleClick"); !ok || limit != 120 {
		t.Errorf("glob function match = %d, %v", limit, ok)
	}
	if _, ok := fl.ForFunction("src/lib/handlers.ts", "setup"); ok {
		t.Error("non-matching function got a limit")
	}
}

func TestMissingFilesAreEmpty(t *testing.T) {
	absent := filepath.Join(t.TempDir(), "none")
	th, _, err := LoadThresholds(absent)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := th.For("src/anything"); ok {
		t.Error("empty set matched")
	}
	fl, _, err := LoadFunctionLimits(absent)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fl.ForFile("src/anything.ts"); ok {
		t.Error("empty set matched")
	}
}

func writeNested(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNestedThresholdFileWins(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)
	writeNested(t, tmp, ".archcheck-exceptions",
		"src/lib/state: 1200  # flat store kept as one unit\n")
	writeNested(t, tmp, "src/lib/state/.archcheck-exceptions",
		"src/lib/state: 3000  # local raise during the store rewrite\n")
	writeNested(t, tmp, "src/lib/state/store.ts", "export const s = 1\n")

	th, warnings, err := LoadThresholds(".archcheck-exceptions")
	if err != nil {
		t.Fatal(err)
	}
	dw, err := th.Discover("src")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings)+len(dw) != 0 {
		t.Errorf("unexpected warnings: %v %v", warnings, dw)
	}

	if limit, ok := th.For("src/lib/state/store.ts"); !ok || limit != 3000 {
		t.Errorf("nested file should win, got %d, %v", limit, ok)
	}
	if limit, ok := th.For("src/lib/state"); !ok || limit != 3000 {
		t.Errorf("directory not covered by its own exception file, got %d, %v", limit, ok)
	}
	if limit, ok := th.For("src/lib/other/big.ts"); ok {
		t.Errorf("unrelated path matched: %d", limit)
	}
}

func TestRootThresholdFileIsFallback(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)
	writeNested(t, tmp, ".archcheck-exceptions",
		"src/lib/state: 1200  # flat store kept as one unit\n")
	writeNested(t, tmp, "src/lib/state/.archcheck-exceptions",
		"src/lib/state/gen: 9000  # generated tables, not hand written\n")

	th, _, err := LoadThresholds(".archcheck-exceptions")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := th.Discover("src"); err != nil {
		t.Fatal(err)
	}

	if limit, ok := th.For("src/lib/state/store.ts"); !ok || limit != 1200 {
		t.Errorf("root fallback = %d, %v, want 1200", limit, ok)
	}
	if limit, ok := th.For("src/lib/state/gen/tables.ts"); !ok || limit != 9000 {
		t.Errorf("nested entry = %d, %v, want 9000", limit, ok)
	}
}

func TestNestedFunctionFileWins(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)
	writeNested(t, tmp, ".ruleof6-exceptions",
		"src/lib/parse.ts:150  # tokenizer kept as one unit\n")
	writeNested(t, tmp, "src/lib/.ruleof6-exceptions",
		"src/lib/parse.ts:scanTemplate:220  # template scanning state machine\n")

	fl, _, err := LoadFunctionLimits(".ruleof6-exceptions")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fl.Discover("src"); err != nil {
		t.Fatal(err)
	}

	if limit, ok := fl.ForFunction("src/lib/parse.ts", "scanTemplate"); !ok || limit != 220 {
		t.Errorf("nested per-function limit = %d, %v", limit, ok)
	}
	if limit, ok := fl.ForFunction("src/lib/parse.ts", "other"); !ok || limit != 150 {
		t.Errorf("root file fallback = %d, %v", limit, ok)
	}
}

func TestDiscoverMissingRootIsEmpty(t *testing.T) {
	th, _, err := LoadThresholds(filepath.Join(t.TempDir(), ".archcheck-exceptions"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := th.Discover(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Errorf("missing scan root should not error: %v", err)
	}
}
