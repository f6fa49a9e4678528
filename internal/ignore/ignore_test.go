package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func loadFrom(t *testing.T, content string) *Set {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".architecture-ignore")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestExemptLiteralAndPrefix(t *testing.T) {
	s := loadFrom(t, "# generated code\nsrc/generated\nsrc/legacy/**\n")
	for _, path := range []string{
		"src/generated",
		"src/generated/deep/file.ts",
		"src/legacy/old.ts",
	} {
		if !s.Exempt(path) {
			t.Errorf("expected %q exempt", path)
		}
	}
	if s.Exempt("src/lib/state.ts") {
		t.Error("unrelated path exempted")
	}
	if s.Exempt("src/generated-extra/file.ts") {
		t.Error("prefix match must stop at path boundaries")
	}
}

func TestExemptGlob(t *testing.T) {
	s := loadFrom(t, "src/*/fixtures\n")
	if !s.Exempt("src/lib/fixtures") {
		t.Error("glob entry did not match")
	}
	if s.Exempt("src/lib/deep/fixtures") {
		t.Error("single wildcard crossed a separator")
	}
}

func TestTraversalOnlyForKnownNames(t *testing.T) {
	s := loadFrom(t, "node_modules\n__tests__/**\nsrc/vendor\n")
	if !s.SkipTraversal("src/a/node_modules") || !s.SkipTraversal("__tests__") {
		t.Error("known traversal names not skipped")
	}
	if s.SkipTraversal("src/vendor") {
		t.Error("arbitrary entry must not affect traversal")
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Exempt("src/components/button.tsx") {
		t.Error("default entry missing")
	}
}
