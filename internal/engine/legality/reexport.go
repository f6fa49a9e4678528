package legality

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/parser"
	"archcheck/internal/shared/util"
	"archcheck/internal/subsystem"
)

// CheckReexports validates the re-export surface of a subsystem's
// index. An index may only re-export downward: its own files, declared
// child subsystems, and external packages. Re-exporting something
// above or beside the subsystem inverts the dependency direction.
func (e *Engine) CheckReexports(s *subsystem.Subsystem) []model.Violation {
	index := s.IndexPath()
	if e.exempt(s.Path) || e.exempt(index) {
		return nil
	}
	if !e.fileExists(index) {
		return nil
	}
	var out []model.Violation
	src := e.Tree.Cache().Source(index)
	seen := make(map[string]struct{})
	for _, exp := range src.Reexports() {
		if _, dup := seen[exp.From.Raw]; dup {
			continue
		}
		seen[exp.From.Raw] = struct{}{}
		if v, ok := e.checkReexportEdge(s, index, exp); !ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine) checkReexportEdge(s *subsystem.Subsystem, index string, exp parser.Export) (model.Violation, bool) {
	from := exp.From
	alias := e.Tree.AliasFor(s.Path)
	isUtils := subsystem.IsDomainUtils(e.Tree.Root, s.Path)

	if upward, ref := e.isUpwardReexport(alias, from); upward {
		if isUtils && e.sameDomainRaw(s.Path, from.Raw) {
			// a domain's utils may surface siblings from its own domain
			return model.Violation{}, true
		}
		return model.NewError(model.CategoryReexport,
			fmt.Sprintf("index re-exports '%s', which sits above the subsystem", from.Raw)).
			In(s.Path).At(index, exp.Line).
			Recommend(model.RemediationFixUpwardReexport,
				fmt.Sprintf("Move the shared code below '%s' or import it where it is used instead of re-exporting %s", alias, ref)), false
	}

	if s.IsDomain(e.Tree.Root) && e.isOwnUtils(s, from) {
		return model.NewError(model.CategoryReexport,
			"domain index should not re-export utils").
			In(s.Path).At(index, exp.Line).
			Recommend(model.RemediationFixReexport,
				"Consumers import domain utils directly; drop the re-export from the domain index"), false
	}

	switch from.Kind {
	case parser.PathRelative:
		if strings.HasPrefix(from.Raw, "../") {
			if isUtils && e.sameDomainRaw(s.Path, from.Raw) {
				return model.Violation{}, true
			}
			return model.NewError(model.CategoryReexport,
				fmt.Sprintf("index re-exports '%s' from outside the subsystem directory", from.Raw)).
				In(s.Path).At(index, exp.Line).
				Recommend(model.RemediationFixUpwardReexport,
					"Re-export only modules inside the subsystem"), false
		}
		target := subsystem.ResolveRelative(index, from.Raw)
		name := strings.TrimPrefix(from.Raw, "./")
		if s.Manifest.DeclaresChild(name) {
			return model.Violation{}, true
		}
		if e.moduleExists(target) {
			return model.Violation{}, true
		}
		return model.NewError(model.CategoryReexport,
			fmt.Sprintf("index re-exports './%s', which does not resolve to a file or declared subsystem", name)).
			In(s.Path).At(index, exp.Line).
			Recommend(model.RemediationFixReexport,
				fmt.Sprintf("Create '%s' or declare it in the 'subsystems' array", name)), false

	case parser.PathRootRelative:
		if from.Raw == alias || strings.HasPrefix(from.Raw, alias+"/") {
			return model.Violation{}, true
		}
		if isUtils && e.sameDomainRaw(s.Path, from.Raw) {
			return model.Violation{}, true
		}
		return model.NewError(model.CategoryReexport,
			fmt.Sprintf("index re-exports '%s' from outside the subsystem", from.Raw)).
			In(s.Path).At(index, exp.Line).
			Recommend(model.RemediationFixReexport,
				"An index only re-exports its own subsystem's modules"), false

	default:
		// external packages may be surfaced as part of the interface
		return model.Violation{}, true
	}
}

// isUpwardReexport reports whether the source path points at or above
// the subsystem in the tree. "../" always does; a root-alias path does
// when it shares the subsystem's prefix but is no deeper than the
// subsystem itself.
func (e *Engine) isUpwardReexport(alias string, from parser.ImportPath) (bool, string) {
	if strings.HasPrefix(from.Raw, "../") {
		return true, "'" + from.Raw + "'"
	}
	if from.Kind != parser.PathRootRelative {
		return false, ""
	}
	aliasSegs := strings.Split(alias, "/")
	common := util.CommonSegmentPrefix(aliasSegs, from.Segments)
	if common >= 2 && len(from.Segments) <= len(aliasSegs) {
		return true, "'" + from.Raw + "'"
	}
	return false, ""
}

// isOwnUtils reports whether the domain's index re-export points at
// its own utils directory.
func (e *Engine) isOwnUtils(s *subsystem.Subsystem, from parser.ImportPath) bool {
	if from.Raw == "./utils" || strings.HasPrefix(from.Raw, "./utils/") {
		return true
	}
	if from.Kind != parser.PathRootRelative {
		return false
	}
	fs, _ := e.Tree.ResolveAlias(from.Raw)
	return subsystem.IsDomainUtils(e.Tree.Root, fs) &&
		subsystem.DomainRoot(e.Tree.Root, fs) == s.Path
}

// sameDomainRaw resolves raw (alias or relative to the subsystem's
// index) and compares domains with the subsystem path.
func (e *Engine) sameDomainRaw(sPath, raw string) bool {
	var target string
	if strings.HasPrefix(raw, "~") {
		target, _ = e.Tree.ResolveAlias(raw)
	} else {
		target = subsystem.ResolveRelative(path.Join(sPath, "index.ts"), raw)
	}
	domain := subsystem.DomainRoot(e.Tree.Root, sPath)
	return domain != "" && domain == subsystem.DomainRoot(e.Tree.Root, target)
}

// CheckStandaloneIndexes applies the upward rule to index files whose
// directory is not a subsystem root. Even without a manifest, an index
// that re-exports from above itself inverts the tree.
func (e *Engine) CheckStandaloneIndexes() []model.Violation {
	var out []model.Violation
	for _, file := range e.Tree.Files {
		if path.Base(file) != "index.ts" && path.Base(file) != "index.tsx" {
			continue
		}
		dir := path.Dir(file)
		if e.Tree.HasManifest(dir) || e.exempt(file) {
			continue
		}
		alias := e.Tree.AliasFor(dir)
		src := e.Tree.Cache().Source(file)
		for _, exp := range src.Reexports() {
			if upward, _ := e.isUpwardReexport(alias, exp.From); upward {
				out = append(out, model.NewError(model.CategoryReexport,
					fmt.Sprintf("index re-exports '%s', which sits above its directory", exp.From.Raw)).
					At(file, exp.Line).
					Recommend(model.RemediationFixUpwardReexport,
						"Re-export only modules at or below the index's directory"))
			}
		}
	}
	return out
}

// fileExists reports whether the exact path is a scanned source file.
func (e *Engine) fileExists(p string) bool {
	i := sort.SearchStrings(e.Tree.Files, p)
	return i < len(e.Tree.Files) && e.Tree.Files[i] == p
}

// moduleExists reports whether target resolves as a module: a source
// file with a known extension, a directory index, or a subsystem.
func (e *Engine) moduleExists(target string) bool {
	if e.Tree.HasManifest(target) {
		return true
	}
	for _, suffix := range []string{".ts", ".tsx", "/index.ts", "/index.tsx"} {
		if e.fileExists(target + suffix) {
			return true
		}
	}
	return e.fileExists(target)
}
