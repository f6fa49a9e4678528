// Package legality decides whether each import edge in the tree is
// permitted by the importing subsystem's effective permission set, and
// enforces subsystem interface boundaries.
package legality

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/engine/permission"
	"archcheck/internal/ignore"
	"archcheck/internal/parser"
	"archcheck/internal/shared/util"
	"archcheck/internal/subsystem"
)

var domainUtilsImport = regexp.MustCompile(`^~/lib/domains/[^/]+/utils(/.*)?$`)

// Engine checks import legality over one discovered tree.
type Engine struct {
	Tree     *subsystem.Tree
	Resolver *permission.Resolver
	Ignore   *ignore.Set
}

func New(tree *subsystem.Tree, resolver *permission.Resolver, ig *ignore.Set) *Engine {
	return &Engine{Tree: tree, Resolver: resolver, Ignore: ig}
}

func (e *Engine) exempt(p string) bool {
	return e.Ignore != nil && e.Ignore.Exempt(p)
}

// CheckImports validates every root-alias import in the subsystem's
// owned files against its effective permission set. External package
// imports and relative imports are always legal here.
func (e *Engine) CheckImports(s *subsystem.Subsystem) []model.Violation {
	if e.exempt(s.Path) {
		return nil
	}
	set := e.Resolver.Effective(s)
	var out []model.Violation
	for _, file := range s.Files {
		if e.exempt(file) {
			continue
		}
		src := e.Tree.Cache().Source(file)
		for _, p := range src.ImportPaths() {
			if p.Kind != parser.PathRootRelative {
				continue
			}
			if v, ok := e.checkEdge(s, set, file, p); !ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// checkEdge applies the permission rules to one root-alias import. The
// second return value is true when the edge is legal.
func (e *Engine) checkEdge(s *subsystem.Subsystem, set *permission.Set, file string, imp parser.ImportPath) (model.Violation, bool) {
	selfAlias := e.Tree.AliasFor(s.Path)
	if imp.Raw == selfAlias || strings.HasPrefix(imp.Raw, selfAlias+"/") {
		return model.Violation{}, true
	}
	if domainUtilsImport.MatchString(imp.Raw) {
		return model.Violation{}, true
	}
	if set.Contains(imp.Raw) {
		return model.Violation{}, true
	}

	blockedBy := ""
	for _, entry := range set.Entries() {
		rest, ok := strings.CutPrefix(imp.Raw, entry+"/")
		if !ok {
			continue
		}
		if !strings.Contains(rest, "/") {
			// one level below a granted subsystem is its interface
			// surface
			return model.Violation{}, true
		}
		entryFs, _ := e.Tree.ResolveAlias(entry)
		crossed := e.crossesNestedSubsystem(entryFs, imp.Raw)
		if crossed == "" {
			return model.Violation{}, true
		}
		if util.HasPathPrefix(s.Path, entryFs) {
			return model.Violation{}, true
		}
		if e.sameDomain(s.Path, crossed) {
			return model.Violation{}, true
		}
		blockedBy = crossed
	}

	if blockedBy != "" {
		crossedAlias := e.Tree.AliasFor(blockedBy)
		return model.NewError(model.CategoryImportBoundary,
			fmt.Sprintf("'%s' reaches into nested subsystem '%s'", imp.Raw, crossedAlias)).
			In(s.Path).At(file, e.importLine(file, imp)).
			Recommend(model.RemediationAddAllowed,
				fmt.Sprintf("Add '%s' to %s 'allowed' array and import it directly", crossedAlias, s.ManifestPath)), false
	}
	return model.NewError(model.CategoryImportBoundary,
		fmt.Sprintf("'%s' is not an allowed dependency", imp.Raw)).
		In(s.Path).At(file, e.importLine(file, imp)).
		Recommend(model.RemediationAddAllowed,
			fmt.Sprintf("Add '%s' to %s 'allowed' array", imp.Raw, s.ManifestPath)), false
}

// crossesNestedSubsystem resolves the import and walks up from the
// target looking for a manifest strictly below the granted entry.
// Returns the nested subsystem's path, or "".
func (e *Engine) crossesNestedSubsystem(entryFs, raw string) string {
	targetFs, ok := e.Tree.ResolveAlias(raw)
	if !ok {
		return ""
	}
	for dir := targetFs; strings.HasPrefix(dir, entryFs+"/"); dir = path.Dir(dir) {
		if e.Tree.HasManifest(dir) {
			return dir
		}
	}
	return ""
}

func (e *Engine) sameDomain(a, b string) bool {
	da := subsystem.DomainRoot(e.Tree.Root, a)
	return da != "" && da == subsystem.DomainRoot(e.Tree.Root, b)
}

// importLine finds the line of the first import of the given path in
// the file, for the violation record.
func (e *Engine) importLine(file string, imp parser.ImportPath) int {
	for _, i := range e.Tree.Cache().Source(file).Imports {
		if i.Path.Raw == imp.Raw {
			return i.Line
		}
	}
	return 0
}
