package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"archcheck/internal/checker"
	"archcheck/internal/core/config"
	"archcheck/internal/core/model"
	"archcheck/internal/history"
	"archcheck/internal/ui/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// createTestProject lays out a small TypeScript tree with one violation
// of each major kind: an undeclared cross-subsystem import, a subsystem
// without an index, a file with too many functions and a function with
// too many parameters.
func createTestProject(t *testing.T, root string) {
	writeFile(t, root, "src/index.ts", "export const app = 1\n")

	writeFile(t, root, "src/lib/state/dependencies.json",
		`{"description": "ui state", "allowed": []}`)
	writeFile(t, root, "src/lib/state/index.ts",
		"import { widget } from '~/lib/widgets'\nexport const store = () => widget\n")

	writeFile(t, root, "src/lib/widgets/dependencies.json",
		`{"description": "widgets", "allowed": []}`)
	writeFile(t, root, "src/lib/widgets/index.ts", "export const widget = 1\n")

	var grid strings.Builder
	for _, name := range []string{"row", "col", "cell", "span", "gap", "wrap", "pad"} {
		grid.WriteString("export function " + name + "() {\n  return 1\n}\n")
	}
	grid.WriteString("export function draw(a, b, c, d, e, f, g, h) {\n  return a\n}\n")
	writeFile(t, root, "src/lib/widgets/grid.ts", grid.String())

	writeFile(t, root, "src/lib/forms/dependencies.json",
		`{"description": "forms", "allowed": []}`)
	writeFile(t, root, "src/lib/forms/input.ts", "export const input = 1\n")
}

func TestFullPipelineIntegration(t *testing.T) {
	root := t.TempDir()
	createTestProject(t, root)
	t.Chdir(root)

	cfg := config.DefaultConfig()
	results, err := checker.New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, results.HasErrors())
	assert.Greater(t, results.FilesScanned, 0)
	assert.Equal(t, 3, results.SubsystemCount)

	byCategory := results.SummaryByCategory()
	assert.Equal(t, 1, byCategory[string(model.CategoryImportBoundary)], "undeclared import should be flagged")
	assert.Equal(t, 1, byCategory[string(model.CategoryStructure)], "missing forms index should be flagged")
	assert.Equal(t, 1, byCategory[string(model.CategoryFunctionArgs)], "8-parameter function should be flagged")
	assert.Equal(t, 1, byCategory[string(model.CategoryFileFunctions)], "grid.ts function count should warn")

	var importViolation *model.Violation
	for i, v := range results.Errors {
		if v.Category == model.CategoryImportBoundary {
			importViolation = &results.Errors[i]
		}
	}
	require.NotNil(t, importViolation)
	assert.Equal(t, "src/lib/state", importViolation.Subsystem)
	assert.Equal(t, "src/lib/state/index.ts", importViolation.File)
	assert.Equal(t, model.RemediationAddAllowed, importViolation.Remediation)

	// A second run over the same tree must produce identical findings.
	again, err := checker.New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, results.Errors, again.Errors)
	assert.Equal(t, results.Warnings, again.Warnings)
}

func TestReportAndHistoryRoundtrip(t *testing.T) {
	root := t.TempDir()
	createTestProject(t, root)
	t.Chdir(root)

	cfg := config.DefaultConfig()
	results, err := checker.New(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	reporter := report.New(&out, report.Options{
		Format:          report.FormatConsole,
		IncludeWarnings: true,
		ArtifactPath:    cfg.Output.ResultsPath,
	})
	artifact, err := reporter.Report(results)
	require.NoError(t, err)
	require.NotEmpty(t, artifact.RunID)
	assert.Contains(t, out.String(), "is not an allowed dependency")

	_, err = os.Stat(cfg.Output.ResultsPath)
	require.NoError(t, err, "results artifact should be written")

	store, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveRun(history.Run{
		RunID:        artifact.RunID,
		Timestamp:    artifact.Timestamp,
		TargetPath:   results.TargetPath,
		FileCount:    results.FilesScanned,
		ErrorCount:   len(results.Errors),
		WarningCount: len(results.Warnings),
		ByCategory:   results.SummaryByCategory(),
		DurationMS:   results.ExecutionTime.Milliseconds(),
	}))

	runs, err := store.LoadRuns("src", time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, len(results.Errors), runs[0].ErrorCount)
	assert.Equal(t, runs[0].ByCategory[string(model.CategoryImportBoundary)], 1)
}
