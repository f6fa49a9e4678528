package legality

import (
	"fmt"
	"path"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/parser"
)

// CheckBoundaries scans every file for imports that reach past another
// subsystem's index into its internals. Router and api subsystems are
// pass-through by design and are not enforced. Same-domain imports and
// domain utils are exempt.
func (e *Engine) CheckBoundaries() []model.Violation {
	var out []model.Violation
	for _, file := range e.Tree.Files {
		if path.Base(file) == "index.ts" || parser.IsTestPath(file) || e.exempt(file) {
			continue
		}
		src := e.Tree.Cache().Source(file)
		for _, p := range src.ImportPaths() {
			if p.Kind != parser.PathRootRelative {
				continue
			}
			if v, ok := e.checkBoundary(file, p); !ok {
				out = append(out, v)
			}
		}
	}
	return out
}

func (e *Engine) checkBoundary(file string, imp parser.ImportPath) (model.Violation, bool) {
	targetFs, ok := e.Tree.ResolveAlias(imp.Raw)
	if !ok {
		return model.Violation{}, true
	}
	target := e.Tree.Containing(targetFs)
	if target == nil || e.exempt(target.Path) {
		return model.Violation{}, true
	}
	if target.Owns(file) {
		return model.Violation{}, true
	}
	if target.Manifest.HasType("router", "api") {
		return model.Violation{}, true
	}
	alias := e.Tree.AliasFor(target.Path)
	if imp.Raw == alias || imp.Raw == alias+"/index" {
		return model.Violation{}, true
	}
	if e.sameDomain(file, target.Path) {
		return model.Violation{}, true
	}
	if domainUtilsImport.MatchString(imp.Raw) {
		return model.Violation{}, true
	}
	internal := strings.TrimPrefix(imp.Raw, alias+"/")
	return model.NewError(model.CategoryImportBoundary,
		fmt.Sprintf("'%s' bypasses the interface of '%s' to reach '%s'", imp.Raw, alias, internal)).
		In(target.Path).At(file, e.importLine(file, imp)).
		Recommend(model.RemediationUseInterface,
			fmt.Sprintf("Import '%s' and re-export '%s' from its index", alias, internal)), false
}
