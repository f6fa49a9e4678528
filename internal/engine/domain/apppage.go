package domain

import (
	"fmt"
	"path"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/parser"
	"archcheck/internal/subsystem"
)

// CheckAppLayer applies the rules around the app directory: app code
// is not a library, pages stay independent of each other, and route
// folders that render a page are subsystems.
func (c *Checker) CheckAppLayer() []model.Violation {
	var out []model.Violation
	out = append(out, c.checkAppImports()...)
	out = append(out, c.checkPageIsolation()...)
	out = append(out, c.checkRouteManifests()...)
	return out
}

// checkAppImports flags files outside the app directory importing from
// inside it. Code needed elsewhere belongs under lib.
func (c *Checker) checkAppImports() []model.Violation {
	appDir := c.Tree.Root + "/app"
	var out []model.Violation
	for _, file := range c.Tree.Files {
		if strings.HasPrefix(file, appDir+"/") || parser.IsTestPath(file) || c.exempt(file) {
			continue
		}
		src := c.Tree.Cache().Source(file)
		for _, p := range src.ImportPaths() {
			if p.Kind != parser.PathRootRelative {
				continue
			}
			if p.Raw != "~/app" && !strings.HasPrefix(p.Raw, "~/app/") {
				continue
			}
			out = append(out, model.NewError(model.CategoryDomainImport,
				fmt.Sprintf("'%s' is app code imported from outside the app directory", p.Raw)).
				At(file, importLine(src, p)).
				Recommend(model.RemediationMoveSharedCode,
					"Move the shared code under ~/lib and import it from there"))
		}
	}
	return out
}

// checkPageIsolation flags one page subsystem importing another. Pages
// compose shared libraries, never each other.
func (c *Checker) checkPageIsolation() []model.Violation {
	var out []model.Violation
	for _, s := range c.Tree.Subsystems {
		if !s.Manifest.HasType("page") || c.exempt(s.Path) {
			continue
		}
		for _, file := range s.Files {
			if parser.IsTestPath(file) || c.exempt(file) {
				continue
			}
			src := c.Tree.Cache().Source(file)
			for _, p := range src.ImportPaths() {
				if p.Kind != parser.PathRootRelative {
					continue
				}
				targetFs, _ := c.Tree.ResolveAlias(p.Raw)
				target := c.Tree.Containing(targetFs)
				if target == nil || target == s || !target.Manifest.HasType("page") {
					continue
				}
				out = append(out, model.NewError(model.CategoryDomainImport,
					fmt.Sprintf("page subsystem imports page '%s'", c.Tree.AliasFor(target.Path))).
					In(s.Path).At(file, importLine(src, p)).
					Recommend(model.RemediationRemoveForbidden,
						"Lift the shared pieces into a library both pages can use"))
			}
		}
	}
	return out
}

const routeManifestDepth = 3

// checkRouteManifests requires a manifest in every app route folder
// that renders a page. Private folders and deeply nested segments are
// left alone.
func (c *Checker) checkRouteManifests() []model.Violation {
	appDir := c.Tree.Root + "/app"
	var out []model.Violation
	for _, file := range c.Tree.Files {
		base := path.Base(file)
		if base != "page.tsx" && base != "page.ts" {
			continue
		}
		dir := path.Dir(file)
		if dir == appDir || !strings.HasPrefix(dir, appDir+"/") {
			continue
		}
		rel := strings.TrimPrefix(dir, appDir+"/")
		segments := strings.Split(rel, "/")
		if len(segments) > routeManifestDepth || hasPrivateSegment(segments) {
			continue
		}
		if c.Tree.HasManifest(dir) || c.exempt(dir) {
			continue
		}
		out = append(out, model.NewError(model.CategoryStructure,
			fmt.Sprintf("route folder '%s' renders a page without a manifest", rel)).
			At(dir, 0).
			Recommend(model.RemediationCreateManifest,
				fmt.Sprintf("Create %s/%s", dir, subsystem.ManifestName)))
	}
	return out
}

func hasPrivateSegment(segments []string) bool {
	for _, s := range segments {
		if strings.HasPrefix(s, "_") || strings.HasPrefix(s, ".") {
			return true
		}
	}
	return false
}
