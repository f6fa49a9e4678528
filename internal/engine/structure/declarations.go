package structure

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/subsystem"
)

// CheckDeclarations verifies that every manifest matches the tree it
// describes: children are declared, declarations resolve, dependency
// paths are well formed and point at something real.
func (c *Checker) CheckDeclarations() []model.Violation {
	var out []model.Violation
	for _, s := range c.Tree.Subsystems {
		if c.exempt(s.Path) {
			continue
		}
		if s.ManifestErr != nil {
			out = append(out, model.NewError(model.CategoryDepFormat,
				"manifest could not be parsed and is treated as empty").
				In(s.Path).At(s.ManifestPath, 0).
				Recommend(model.RemediationOther,
					fmt.Sprintf("Fix the JSON syntax in %s", s.ManifestPath)))
			continue
		}
		out = append(out, c.checkChildren(s)...)
		out = append(out, c.checkDeclaredSubsystems(s)...)
		out = append(out, c.checkDependencyPaths(s)...)
		if !c.hasIndex(s) {
			out = append(out, model.NewError(model.CategoryStructure,
				"subsystem has no index").
				In(s.Path).At(s.Path, 0).
				Recommend(model.RemediationCreateIndex,
					fmt.Sprintf("Create %s/index.ts as the subsystem's interface", s.Path)))
		}
	}
	out = append(out, c.checkFileConflicts()...)
	return out
}

// checkChildren flags child subsystems the parent's manifest does not
// declare.
func (c *Checker) checkChildren(s *subsystem.Subsystem) []model.Violation {
	var out []model.Violation
	for _, child := range s.Children {
		rel := strings.TrimPrefix(child.Path, s.Path+"/")
		if s.Manifest.DeclaresChild(rel) || c.exempt(child.Path) {
			continue
		}
		out = append(out, model.NewError(model.CategoryStructure,
			fmt.Sprintf("child subsystem './%s' is not declared", rel)).
			In(s.Path).At(s.ManifestPath, 0).
			Recommend(model.RemediationCreateOrRemoveChild,
				fmt.Sprintf("Add './%s' to %s 'subsystems' array", rel, s.ManifestPath)))
	}
	return out
}

// checkDeclaredSubsystems flags declarations that do not resolve to a
// child with a manifest.
func (c *Checker) checkDeclaredSubsystems(s *subsystem.Subsystem) []model.Violation {
	var out []model.Violation
	for _, decl := range s.Manifest.Subsystems {
		name := strings.TrimPrefix(decl, "./")
		dir := path.Join(s.Path, name)
		if c.Tree.HasManifest(dir) {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, model.NewError(model.CategoryStructure,
				fmt.Sprintf("declared subsystem './%s' has no manifest", name)).
				In(s.Path).At(s.ManifestPath, 0).
				Recommend(model.RemediationCreateManifest,
					fmt.Sprintf("Create %s/dependencies.json or remove the declaration", dir)))
			continue
		}
		out = append(out, model.NewError(model.CategoryStructure,
			fmt.Sprintf("declared subsystem './%s' does not exist", name)).
			In(s.Path).At(s.ManifestPath, 0).
			Recommend(model.RemediationRemoveInvalidChild,
				fmt.Sprintf("Remove './%s' from %s 'subsystems' array", name, s.ManifestPath)))
	}
	return out
}

// checkDependencyPaths validates the allowed and allowedChildren
// arrays: entries are root-alias paths and resolve to something in
// the tree.
func (c *Checker) checkDependencyPaths(s *subsystem.Subsystem) []model.Violation {
	var out []model.Violation
	check := func(array string, entries []string) {
		for _, dep := range entries {
			if strings.HasPrefix(dep, "./") || strings.HasPrefix(dep, "../") {
				out = append(out, model.NewError(model.CategoryDepFormat,
					fmt.Sprintf("'%s' in '%s' is a relative path", dep, array)).
					In(s.Path).At(s.ManifestPath, 0).
					Recommend(model.RemediationFixPathFormat,
						fmt.Sprintf("Declare '%s' entries as ~/ paths from the source root", array)))
				continue
			}
			if !strings.HasPrefix(dep, "~") {
				continue
			}
			if c.dependencyExists(dep) {
				continue
			}
			out = append(out, model.NewError(model.CategoryNonexistentDep,
				fmt.Sprintf("'%s' in '%s' does not exist", dep, array)).
				In(s.Path).At(s.ManifestPath, 0).
				Recommend(model.RemediationRemoveNonexistent,
					fmt.Sprintf("Remove '%s' from %s '%s' array", dep, s.ManifestPath, array)))
		}
	}
	check("allowed", s.Manifest.Allowed)
	check("allowedChildren", s.Manifest.AllowedChildren)
	return out
}

// dependencyExists probes the resolved path the way the bundler would:
// as a subsystem, a directory with sources, or a file with one of the
// resolvable extensions.
func (c *Checker) dependencyExists(dep string) bool {
	p, ok := c.Tree.ResolveAlias(dep)
	if !ok {
		return false
	}
	if c.Tree.HasManifest(p) || len(c.Tree.FilesUnder(p)) > 0 {
		return true
	}
	candidates := []string{
		p + ".ts", p + ".tsx", p + ".js", p + ".jsx",
		p + "/index.ts", p + "/index.tsx",
		p + ".service.ts",
	}
	for _, candidate := range candidates {
		if c.fileKnown(candidate) {
			return true
		}
		if _, err := os.Stat(candidate); err == nil {
			return true
		}
	}
	return false
}

func (c *Checker) fileKnown(p string) bool {
	i := sort.SearchStrings(c.Tree.Files, p)
	return i < len(c.Tree.Files) && c.Tree.Files[i] == p
}

// checkFileConflicts flags a source file whose stem collides with a
// sibling directory. Imports of the shared name become ambiguous.
func (c *Checker) checkFileConflicts() []model.Violation {
	dirs := make(map[string]struct{})
	for _, f := range c.Tree.Files {
		for dir := path.Dir(f); strings.HasPrefix(dir, c.Tree.Root+"/"); dir = path.Dir(dir) {
			dirs[dir] = struct{}{}
		}
	}
	var out []model.Violation
	for _, f := range c.Tree.Files {
		stem := strings.TrimSuffix(path.Base(f), path.Ext(f))
		if stem == "index" || c.exempt(f) {
			continue
		}
		sibling := path.Join(path.Dir(f), stem)
		if _, ok := dirs[sibling]; !ok {
			continue
		}
		out = append(out, model.NewError(model.CategoryFileConflict,
			fmt.Sprintf("'%s' conflicts with sibling directory '%s'", path.Base(f), stem)).
			At(f, 0).
			Recommend(model.RemediationResolveFileConflict,
				fmt.Sprintf("Rename '%s' or fold it into '%s/'", path.Base(f), sibling)))
	}
	return out
}

func (c *Checker) hasIndex(s *subsystem.Subsystem) bool {
	return c.fileKnown(path.Join(s.Path, "index.ts")) ||
		c.fileKnown(path.Join(s.Path, "index.tsx"))
}
