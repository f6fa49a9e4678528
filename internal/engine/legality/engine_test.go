package legality

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"archcheck/internal/core/model"
	"archcheck/internal/engine/permission"
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

func newEngine(tree *subsystem.Tree) *Engine {
	return New(tree, permission.NewResolver(tree), nil)
}

func mustSub(t *testing.T, tree *subsystem.Tree, rel string) *subsystem.Subsystem {
	t.Helper()
	s, ok := tree.Lookup(tree.Root + "/" + rel)
	if !ok {
		t.Fatalf("subsystem %q not found", rel)
	}
	return s
}

func TestExternalImportsAlwaysLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json": `{}`,
		"src/lib/state/store.ts": `import { useState } from 'react'
import pg from '@scope/driver'
export const s = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("external imports flagged: %+v", got)
	}
}

func TestSelfImportsAlwaysLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json": `{}`,
		"src/lib/state/store.ts": `import { helper } from '~/lib/state/internal/helper'
export const s = 1
`,
		"src/lib/state/internal/helper.ts": "export const helper = 1\n",
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("self import flagged: %+v", got)
	}
}

func TestAncestorAccessIsImplicit(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/dependencies.json":       `{}`,
		"src/lib/state/dependencies.json": `{}`,
		"src/lib/state/store.ts": `import { shared } from '~/lib'
export const s = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("ancestor import flagged: %+v", got)
	}
}

func TestUndeclaredImportIsBlocked(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":   `{}`,
		"src/lib/widgets/dependencies.json": `{}`,
		"src/lib/state/store.ts": `import { widget } from '~/lib/widgets'
export const s = 1
`,
	})
	e := newEngine(tree)
	got := e.CheckImports(mustSub(t, tree, "lib/state"))
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %+v", got)
	}
	v := got[0]
	if v.Severity != model.SeverityError || v.Category != model.CategoryImportBoundary {
		t.Errorf("unexpected classification: %+v", v)
	}
	if v.Remediation != model.RemediationAddAllowed {
		t.Errorf("unexpected remediation: %q", v.Remediation)
	}
	if v.Line != 1 {
		t.Errorf("line = %d, want 1", v.Line)
	}
}

func TestDeclaredImportIsLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":   `{"allowed": ["~/lib/widgets"]}`,
		"src/lib/widgets/dependencies.json": `{}`,
		"src/lib/state/store.ts": `import { widget } from '~/lib/widgets'
export const s = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("declared import flagged: %+v", got)
	}
}

func TestGrandchildSubsystemReblocked(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":        `{"allowed": ["~/lib/widgets"]}`,
		"src/lib/widgets/dependencies.json":      `{}`,
		"src/lib/widgets/menu/dependencies.json": `{}`,
		"src/lib/widgets/menu/item.ts":           "export const item = 1\n",
		"src/lib/state/store.ts": `import { item } from '~/lib/widgets/menu/item'
export const s = 1
`,
	})
	e := newEngine(tree)
	got := e.CheckImports(mustSub(t, tree, "lib/state"))
	if len(got) != 1 {
		t.Fatalf("expected grandchild re-block, got %+v", got)
	}
	if got[0].Remediation != model.RemediationAddAllowed {
		t.Errorf("unexpected remediation: %+v", got[0])
	}
}

func TestOneLevelBelowGrantIsLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":        `{"allowed": ["~/lib/widgets"]}`,
		"src/lib/widgets/dependencies.json":      `{}`,
		"src/lib/widgets/menu/dependencies.json": `{}`,
		"src/lib/state/store.ts": `import { menu } from '~/lib/widgets/menu'
export const s = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("one-level child import flagged: %+v", got)
	}
}

func TestDeepFileUnderGrantIsLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":   `{"allowed": ["~/lib/widgets"]}`,
		"src/lib/widgets/dependencies.json": `{}`,
		"src/lib/widgets/parts/knob.ts":     "export const knob = 1\n",
		"src/lib/state/store.ts": `import { knob } from '~/lib/widgets/parts/knob'
export const s = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("deep file under grant flagged by permission check: %+v", got)
	}
}

func TestSameDomainCrossingIsLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/domains/billing/dependencies.json":          `{}`,
		"src/lib/domains/billing/invoices/dependencies.json": `{}`,
		"src/lib/domains/billing/payments/dependencies.json": `{}`,
		"src/lib/domains/billing/invoices/list.ts": `import { pay } from '~/lib/domains/billing/payments/charge'
export const l = 1
`,
		"src/lib/domains/billing/payments/charge.ts": "export const pay = 1\n",
	})
	e := newEngine(tree)
	got := e.CheckImports(mustSub(t, tree, "lib/domains/billing/invoices"))
	if len(got) != 0 {
		t.Errorf("same-domain import flagged: %+v", got)
	}
}

func TestCheckImportsIsDeterministic(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":   `{}`,
		"src/lib/widgets/dependencies.json": `{}`,
		"src/lib/state/a.ts": `import { x } from '~/lib/widgets'
import { y } from '~/app/thing'
export const a = 1
`,
	})
	e := newEngine(tree)
	s := mustSub(t, tree, "lib/state")
	first := e.CheckImports(s)
	second := e.CheckImports(s)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs differ:\n%+v\n%+v", first, second)
	}
	if len(first) != 2 {
		t.Errorf("expected 2 violations, got %+v", first)
	}
}

func TestBoundaryDeepImportFlagged(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json": `{}`,
		"src/lib/state/internal.ts":       "export const i = 1\n",
		"src/app/page.ts": `import { i } from '~/lib/state/internal'
export const p = 1
`,
	})
	e := newEngine(tree)
	got := e.CheckBoundaries()
	if len(got) != 1 {
		t.Fatalf("expected 1 boundary violation, got %+v", got)
	}
	if got[0].Remediation != model.RemediationUseInterface {
		t.Errorf("unexpected remediation: %+v", got[0])
	}
}

func TestBoundaryIndexImportIsLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json": `{}`,
		"src/lib/state/index.ts":          "export const s = 1\n",
		"src/app/page.ts": `import { s } from '~/lib/state'
export const p = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckBoundaries(); len(got) != 0 {
		t.Errorf("index import flagged: %+v", got)
	}
}

func TestBoundarySkipsRouterSubsystems(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/routes/dependencies.json": `{"type": "router"}`,
		"src/lib/routes/user.ts":           "export const u = 1\n",
		"src/app/page.ts": `import { u } from '~/lib/routes/user'
export const p = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckBoundaries(); len(got) != 0 {
		t.Errorf("router internals flagged: %+v", got)
	}
}

func TestUpwardReexportFlagged(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/dependencies.json":       `{}`,
		"src/lib/state/dependencies.json": `{}`,
		"src/lib/state/index.ts": `export { shared } from '~/lib'
export const s = 1
`,
	})
	e := newEngine(tree)
	got := e.CheckReexports(mustSub(t, tree, "lib/state"))
	if len(got) != 1 {
		t.Fatalf("expected upward re-export violation, got %+v", got)
	}
	if got[0].Remediation != model.RemediationFixUpwardReexport {
		t.Errorf("unexpected remediation: %+v", got[0])
	}
}

func TestDownwardReexportIsLegal(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json": `{"subsystems": ["./machine"]}`,
		"src/lib/state/index.ts": `export { run } from './machine'
export { helper } from './helper'
export * from 'tiny-invariant'
`,
		"src/lib/state/helper.ts":                 "export const helper = 1\n",
		"src/lib/state/machine/dependencies.json": `{}`,
	})
	e := newEngine(tree)
	if got := e.CheckReexports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("downward re-exports flagged: %+v", got)
	}
}

func TestRelativeEscapeReexportFlagged(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json": `{}`,
		"src/lib/state/index.ts":          "export { x } from '../widgets/x'\n",
		"src/lib/widgets/x.ts":            "export const x = 1\n",
	})
	e := newEngine(tree)
	got := e.CheckReexports(mustSub(t, tree, "lib/state"))
	if len(got) != 1 {
		t.Fatalf("expected relative escape violation, got %+v", got)
	}
}

func TestStandaloneIndexUpwardReexport(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/helpers/index.ts": "export { thing } from '~/lib'\n",
		"src/lib/index.ts":         "export const thing = 1\n",
	})
	e := newEngine(tree)
	got := e.CheckStandaloneIndexes()
	if len(got) != 1 {
		t.Fatalf("expected standalone index violation, got %+v", got)
	}
}

func TestRouterIndexImportWarns(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/routes/dependencies.json":       `{"type": "router"}`,
		"src/lib/routes/users/dependencies.json": `{}`,
		"src/app/page.ts": `import { routes } from '~/lib/routes'
export const p = 1
`,
	})
	e := newEngine(tree)
	got := e.CheckOverlays()
	if len(got) != 1 {
		t.Fatalf("expected router warning, got %+v", got)
	}
	if got[0].Severity != model.SeverityWarning || got[0].Remediation != model.RemediationUseSpecificChild {
		t.Errorf("unexpected violation: %+v", got[0])
	}
}

func TestDeepDomainUtilsImportIsError(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/domains/billing/utils/dependencies.json": `{}`,
		"src/lib/domains/billing/utils/index.ts":          "export { fmt } from '~/lib/domains/billing/utils/fmt'\n",
		"src/lib/domains/billing/utils/fmt.ts":            "export const fmt = 1\n",
		"src/app/page.ts": `import { fmt } from '~/lib/domains/billing/utils/fmt'
export const p = 1
`,
	})
	e := newEngine(tree)
	got := e.CheckOverlays()
	if len(got) != 1 {
		t.Fatalf("expected deep utils violation, got %+v", got)
	}
	if got[0].File != tree.Root+"/app/page.ts" {
		t.Errorf("flagged wrong file: %+v", got[0])
	}
	if got[0].Severity != model.SeverityError {
		t.Errorf("deep utils import must be an error: %+v", got[0])
	}
}

func TestTestFilesNotImportChecked(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":   `{}`,
		"src/lib/widgets/dependencies.json": `{}`,
		"src/lib/state/store.ts":            "export const s = 1\n",
		"src/lib/state/store.test.ts": `import { widget } from '~/lib/widgets'
export const t = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("colocated test import flagged: %+v", got)
	}
}

func TestTrailingSlashAllowedEntry(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/state/dependencies.json":   `{"allowed": ["~/lib/widgets/"]}`,
		"src/lib/widgets/dependencies.json": `{}`,
		"src/lib/state/store.ts": `import { widget } from '~/lib/widgets'
import { button } from '~/lib/widgets/button'
export const s = 1
`,
	})
	e := newEngine(tree)
	if got := e.CheckImports(mustSub(t, tree, "lib/state")); len(got) != 0 {
		t.Errorf("trailing slash entry did not legalize imports: %+v", got)
	}
}

func TestDomainIndexReexportingOwnUtilsFlagged(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/domains/billing/dependencies.json": `{}`,
		"src/lib/domains/billing/index.ts":          "export { money } from './utils'\n",
		"src/lib/domains/billing/utils/index.ts":    "export const money = 1\n",
	})
	e := newEngine(tree)
	got := e.CheckReexports(mustSub(t, tree, "lib/domains/billing"))
	if len(got) != 1 {
		t.Fatalf("expected utils re-export violation, got %+v", got)
	}
	if got[0].Category != model.CategoryReexport || got[0].Remediation != model.RemediationFixReexport {
		t.Errorf("unexpected classification: %+v", got[0])
	}
}

func TestDomainUtilsMaySurfaceOwnDomain(t *testing.T) {
	tree := buildTree(t, map[string]string{
		"src/lib/domains/billing/dependencies.json":       `{}`,
		"src/lib/domains/billing/models.ts":               "export const m = 1\n",
		"src/lib/domains/billing/utils/dependencies.json": `{}`,
		"src/lib/domains/billing/utils/index.ts": `export { m } from '~/lib/domains/billing/models'
export { n } from '../models'
`,
	})
	e := newEngine(tree)
	if got := e.CheckReexports(mustSub(t, tree, "lib/domains/billing/utils")); len(got) != 0 {
		t.Errorf("same-domain utils re-exports flagged: %+v", got)
	}
}
