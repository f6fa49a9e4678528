package structure

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/parser"
	"archcheck/internal/shared/util"
)

// CheckComplexity measures every directory under the root. Past the
// documentation threshold a directory needs a README; past the
// complexity threshold it must be a subsystem of its own. Line totals
// stop at nested subsystem boundaries, which are measured separately.
func (c *Checker) CheckComplexity() []model.Violation {
	totals := c.directoryTotals()
	var out []model.Violation
	for _, dir := range util.SortedStringKeys(totals) {
		if dir == c.Tree.Root || c.exempt(dir) {
			continue
		}
		lines := totals[dir]
		limit := c.Thresholds.ComplexityLines
		docLimit := c.Thresholds.DocLines
		if c.Overrides != nil {
			if custom, ok := c.Overrides.For(dir); ok {
				// scale the documentation threshold with the raised limit
				docLimit = custom * c.Thresholds.DocLines / c.Thresholds.ComplexityLines
				limit = custom
			}
		}

		switch {
		case lines > limit:
			if !c.Tree.HasManifest(dir) {
				out = append(out, model.NewError(model.CategoryComplexity,
					fmt.Sprintf("directory has %d lines (limit %d) and is not a subsystem", lines, limit)).
					At(dir, 0).
					Recommend(model.RemediationCreateManifest,
						fmt.Sprintf("Split '%s' or make it a subsystem with its own %s", dir, "dependencies.json")))
			}
			if !c.hasReadme(dir) {
				out = append(out, model.NewError(model.CategoryComplexity,
					fmt.Sprintf("directory has %d lines (limit %d) without a README.md", lines, limit)).
					At(dir, 0).
					Recommend(model.RemediationCreateReadme,
						fmt.Sprintf("Document '%s' in a README.md", dir)))
			}
		case lines > docLimit:
			if !c.hasReadme(dir) {
				out = append(out, model.NewWarning(model.CategoryComplexity,
					fmt.Sprintf("directory has %d lines (documentation threshold %d) without a README.md", lines, docLimit)).
					At(dir, 0).
					Recommend(model.RemediationCreateReadme,
						fmt.Sprintf("Document '%s' in a README.md", dir)))
			}
		}
	}
	return out
}

// directoryTotals sums line counts per directory. A file contributes
// to every ancestor directory up to, but not across, the nearest
// subsystem boundary above it.
func (c *Checker) directoryTotals() map[string]int {
	totals := make(map[string]int)
	for _, file := range c.Tree.Files {
		if parser.IsTestPath(file) {
			continue
		}
		data, err := c.Tree.Cache().Content(file)
		if err != nil {
			continue
		}
		lines := bytes.Count(data, []byte{'\n'}) + 1
		for dir := path.Dir(file); strings.HasPrefix(dir, c.Tree.Root); dir = path.Dir(dir) {
			totals[dir] += lines
			if c.Tree.HasManifest(dir) || dir == c.Tree.Root {
				break
			}
		}
	}
	return totals
}

func (c *Checker) hasReadme(dir string) bool {
	_, err := os.Stat(path.Join(dir, "README.md"))
	return err == nil
}
