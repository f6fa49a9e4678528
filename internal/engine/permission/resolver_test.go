package permission

import (
	"os"
	"path/filepath"
	"testing"

	"archcheck/internal/core/model"
	"archcheck/internal/subsystem"
)

func buildTree(t *testing.T, files map[string]string) *subsystem.Tree {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	b := &subsystem.Builder{
		Root:       filepath.ToSlash(filepath.Join(dir, "src")),
		Extensions: []string{".ts", ".tsx"},
	}
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func mustLookup(t *testing.T, tree *subsystem.Tree, rel string) *subsystem.Subsystem {
	t.Helper()
	s, ok := tree.Lookup(tree.Root + "/" + rel)
	if !ok {
		t.Fatalf("subsystem %q not found", rel)
	}
	return s
}

func TestEffectiveIncludesAncestorsAndGrants(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/dependencies.json":       `{"allowedChildren": ["~/lib/shared"]}`,
		"src/lib/state/dependencies.json": `{"allowed": ["~/lib/widgets"]}`,
	})
	state := mustLookup(t, tree, "lib/state")
	set := NewResolver(tree).Effective(state)

	if !set.Contains("~/lib/widgets") {
		t.Error("declared entry missing from effective set")
	}
	if !set.Contains("~/lib") {
		t.Error("ancestor path not inherited")
	}
	if !set.Contains("~/lib/shared") {
		t.Error("allowedChildren grant not inherited")
	}
	if from := set.InheritedFrom("~/lib/shared"); from != tree.Root+"/lib" {
		t.Errorf("grant attributed to %q", from)
	}
	if set.InheritedFrom("~/lib/widgets") != "" {
		t.Error("declared entry tagged as inherited")
	}
}

func TestAllowedChildrenCascadesToGrandchildren(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/dependencies.json":            `{"allowedChildren": ["~/lib/shared"]}`,
		"src/lib/state/dependencies.json":      `{}`,
		"src/lib/state/deep/dependencies.json": `{}`,
	})
	deep := mustLookup(t, tree, "lib/state/deep")
	set := NewResolver(tree).Effective(deep)
	if !set.Contains("~/lib/shared") {
		t.Error("grant did not cascade past the intermediate subsystem")
	}
	if !set.Contains("~/lib/state") {
		t.Error("intermediate ancestor not inherited")
	}
}

func TestDomainObjectsImplicit(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/domains/billing/dependencies.json":          `{}`,
		"src/lib/domains/billing/invoices/dependencies.json": `{}`,
	})
	invoices := mustLookup(t, tree, "lib/domains/billing/invoices")
	set := NewResolver(tree).Effective(invoices)
	if !set.Contains("~/lib/domains/billing/_objects") {
		t.Error("domain _objects not implicitly allowed")
	}
}

func countRedundancy(vs []model.Violation) int {
	n := 0
	for _, v := range vs {
		if v.Category == model.CategoryRedundancy {
			n++
		}
	}
	return n
}

func TestRedundantInheritedDeclaration(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/dependencies.json":       `{"allowedChildren": ["~/lib/shared"]}`,
		"src/lib/state/dependencies.json": `{"allowed": ["~/lib/shared"]}`,
	})
	state := mustLookup(t, tree, "lib/state")
	got := NewResolver(tree).Redundancies(state)
	if countRedundancy(got) != 1 {
		t.Fatalf("expected 1 redundancy, got %+v", got)
	}
	if got[0].Severity != model.SeverityWarning {
		t.Error("redundancy must be a warning")
	}
}

func TestRedundantHierarchicalEntry(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/app/dependencies.json": `{"allowed": ["~/lib/widgets", "~/lib/widgets/button"]}`,
		"src/lib/widgets/dependencies.json": `{}`,
		"src/lib/widgets/button/button.ts":  "export const b = 1\n",
	})
	app := mustLookup(t, tree, "app")
	if countRedundancy(NewResolver(tree).Redundancies(app)) != 1 {
		t.Error("expected prefix-covered entry flagged")
	}
}

func TestNestedSubsystemEntryIsNotRedundant(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/app/dependencies.json": `{"allowed": ["~/lib/widgets", "~/lib/widgets/button"]}`,
		"src/lib/widgets/dependencies.json":        `{}`,
		"src/lib/widgets/button/dependencies.json": `{}`,
	})
	app := mustLookup(t, tree, "app")
	if n := countRedundancy(NewResolver(tree).Redundancies(app)); n != 0 {
		t.Errorf("nested subsystem grant flagged as redundant: %d", n)
	}
}

func TestDomainUtilsDeclarationIsRedundant(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/app/dependencies.json": `{"allowed": ["~/lib/domains/billing/utils"]}`,
	})
	app := mustLookup(t, tree, "app")
	if countRedundancy(NewResolver(tree).Redundancies(app)) != 1 {
		t.Error("explicit domain-utils declaration not flagged")
	}
}

func TestTrailingSlashEntriesNormalized(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/dependencies.json":       `{"allowedChildren": ["~/lib/shared/"]}`,
		"src/lib/state/dependencies.json": `{"allowed": ["~/lib/widgets/"]}`,
	})
	state := mustLookup(t, tree, "lib/state")
	set := NewResolver(tree).Effective(state)

	if !set.Contains("~/lib/widgets") {
		t.Error("trailing slash entry did not match the bare alias")
	}
	if !set.Contains("~/lib/shared") {
		t.Error("trailing slash grant did not match the bare alias")
	}
	for _, entry := range set.Entries() {
		if entry != "/" && entry[len(entry)-1] == '/' {
			t.Errorf("entry %q kept its trailing slash", entry)
		}
	}
}
