package legality

import (
	"fmt"
	"regexp"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/parser"
)

var domainUtilsFile = regexp.MustCompile(`^(~/lib/domains/[^/]+/utils)/([^/]+)$`)

// CheckOverlays applies the advisory rules that sit on top of the
// permission model: router indexes should not be imported wholesale,
// and domain utils are consumed through their index, not file by file.
func (e *Engine) CheckOverlays() []model.Violation {
	var out []model.Violation
	for _, file := range e.Tree.Files {
		if parser.IsTestPath(file) || e.exempt(file) {
			continue
		}
		src := e.Tree.Cache().Source(file)
		for _, p := range src.ImportPaths() {
			if p.Kind != parser.PathRootRelative {
				continue
			}
			if v, flagged := e.routerIndexImport(file, p); flagged {
				out = append(out, v)
			}
			if v, flagged := e.deepUtilsImport(file, p); flagged {
				out = append(out, v)
			}
		}
	}
	return out
}

// routerIndexImport warns when a file imports a router subsystem's
// index instead of one of its children. Router indexes aggregate, so
// the import pulls in every route.
func (e *Engine) routerIndexImport(file string, imp parser.ImportPath) (model.Violation, bool) {
	raw := strings.TrimSuffix(imp.Raw, "/index")
	targetFs, ok := e.Tree.ResolveAlias(raw)
	if !ok {
		return model.Violation{}, false
	}
	target, ok := e.Tree.Lookup(targetFs)
	if !ok || !target.Manifest.HasType("router") || target.Owns(file) {
		return model.Violation{}, false
	}
	var children []string
	for _, c := range target.Children {
		children = append(children, e.Tree.AliasFor(c.Path))
	}
	advice := "Import the specific child subsystem you need"
	if len(children) > 0 {
		advice = fmt.Sprintf("Import one of: %s", strings.Join(children, ", "))
	}
	return model.NewWarning(model.CategoryImportBoundary,
		fmt.Sprintf("'%s' imports a router index; routers aggregate every child", imp.Raw)).
		In(target.Path).At(file, e.importLine(file, imp)).
		Recommend(model.RemediationUseSpecificChild, advice), true
}

// deepUtilsImport flags imports of individual files inside a domain's
// utils directory. Only the utils index itself may assemble them.
func (e *Engine) deepUtilsImport(file string, imp parser.ImportPath) (model.Violation, bool) {
	m := domainUtilsFile.FindStringSubmatch(imp.Raw)
	if m == nil || m[2] == "index" {
		return model.Violation{}, false
	}
	utilsFs, _ := e.Tree.ResolveAlias(m[1])
	if file == utilsFs+"/index.ts" || file == utilsFs+"/index.tsx" {
		return model.Violation{}, false
	}
	return model.NewError(model.CategoryImportBoundary,
		fmt.Sprintf("'%s' reaches into domain utils past the index", imp.Raw)).
		At(file, e.importLine(file, imp)).
		Recommend(model.RemediationUseUtilsInterface,
			fmt.Sprintf("Import '%s' and let its index re-export what you need", m[1])), true
}
