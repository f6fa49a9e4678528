// Package domain enforces the conventions of the lib/domains area:
// how a domain is laid out inside, and which of its parts other
// domains may touch.
package domain

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/ignore"
	"archcheck/internal/parser"
	"archcheck/internal/subsystem"
)

// Checker runs the domain and app-layer rules over one tree.
type Checker struct {
	Tree   *subsystem.Tree
	Ignore *ignore.Set
}

func New(tree *subsystem.Tree) *Checker {
	return &Checker{Tree: tree}
}

func (c *Checker) exempt(p string) bool {
	return c.Ignore != nil && c.Ignore.Exempt(p)
}

// Check runs every domain rule and the app-layer rules.
func (c *Checker) Check() []model.Violation {
	var out []model.Violation
	for _, d := range c.domains() {
		out = append(out, c.checkLayout(d)...)
	}
	out = append(out, c.checkServiceImports()...)
	out = append(out, c.checkCrossDomainImports()...)
	out = append(out, c.CheckAppLayer()...)
	return out
}

// domains lists the domain root directories, discovered from both
// subsystems and plain paths under lib/domains.
func (c *Checker) domains() []string {
	seen := make(map[string]struct{})
	for _, f := range c.Tree.Files {
		if root := subsystem.DomainRoot(c.Tree.Root, f); root != "" {
			seen[root] = struct{}{}
		}
	}
	for _, s := range c.Tree.Subsystems {
		if root := subsystem.DomainRoot(c.Tree.Root, s.Path); root != "" {
			seen[root] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// checkLayout validates the internal shape of one domain: services and
// each infrastructure area are subsystems, services and utils publish
// an index.
func (c *Checker) checkLayout(domain string) []model.Violation {
	if c.exempt(domain) {
		return nil
	}
	var out []model.Violation

	services := domain + "/services"
	if c.dirHasFiles(services) {
		if !c.Tree.HasManifest(services) {
			out = append(out, model.NewError(model.CategoryDomainStruct,
				"domain services directory is not a subsystem").
				In(domain).At(services, 0).
				Recommend(model.RemediationCreateManifest,
					fmt.Sprintf("Create %s/dependencies.json", services)))
		}
		if !c.fileKnown(services+"/index.ts") && !c.fileKnown(services+"/index.tsx") {
			out = append(out, model.NewError(model.CategoryDomainStruct,
				"domain services directory has no index").
				In(domain).At(services, 0).
				Recommend(model.RemediationCreateIndex,
					fmt.Sprintf("Create %s/index.ts", services)))
		}
	}

	infra := domain + "/infrastructure"
	for _, sub := range c.childDirs(infra) {
		if c.Tree.HasManifest(sub) || c.exempt(sub) {
			continue
		}
		out = append(out, model.NewError(model.CategoryDomainStruct,
			fmt.Sprintf("infrastructure area '%s' is not a subsystem", path.Base(sub))).
			In(domain).At(sub, 0).
			Recommend(model.RemediationCreateManifest,
				fmt.Sprintf("Create %s/dependencies.json", sub)))
	}

	utils := domain + "/utils"
	if c.dirHasFiles(utils) && !c.fileKnown(utils+"/index.ts") && !c.fileKnown(utils+"/index.tsx") {
		out = append(out, model.NewError(model.CategoryDomainStruct,
			"domain utils directory has no index").
			In(domain).At(utils, 0).
			Recommend(model.RemediationCreateIndex,
				fmt.Sprintf("Create %s/index.ts, the only entry consumers may import", utils)))
	}
	return out
}

// checkServiceImports restricts who may import a domain's service
// modules: the domain's own index and the services directory itself.
// Server-side layers are exempt, that is where services are meant to
// be called.
func (c *Checker) checkServiceImports() []model.Violation {
	var out []model.Violation
	for _, file := range c.Tree.Files {
		if parser.IsTestPath(file) || c.exempt(file) {
			continue
		}
		if strings.Contains(file, "/api/") || strings.Contains(file, "/server/") {
			continue
		}
		src := c.Tree.Cache().Source(file)
		for _, p := range src.ImportPaths() {
			if p.Kind != parser.PathRootRelative {
				continue
			}
			targetFs, _ := c.Tree.ResolveAlias(p.Raw)
			domain := subsystem.DomainRoot(c.Tree.Root, targetFs)
			if domain == "" || !strings.HasPrefix(targetFs, domain+"/services/") {
				continue
			}
			if path.Base(targetFs) == "index" || targetFs == domain+"/services" {
				continue
			}
			if file == domain+"/index.ts" || file == domain+"/index.tsx" ||
				strings.HasPrefix(file, domain+"/services/") {
				continue
			}
			if subsystem.DomainRoot(c.Tree.Root, file) == domain {
				out = append(out, model.NewError(model.CategoryDomainImport,
					fmt.Sprintf("'%s' imports a domain service directly", p.Raw)).
					In(domain).At(file, importLine(src, p)).
					Recommend(model.RemediationFixServiceImport,
						"Call the service through the domain index or move the caller into services"))
				continue
			}
			out = append(out, model.NewError(model.CategoryDomainImport,
				fmt.Sprintf("'%s' is a domain service used outside its domain", p.Raw)).
				In(domain).At(file, importLine(src, p)).
				Recommend(model.RemediationMoveServiceToAPI,
					"Expose the operation through an API route instead of importing the service"))
		}
	}
	return out
}

var crossDomainForbidden = regexp.MustCompile(`^~/lib/domains/([^/]+)/(services(/.*)?|infrastructure(/.*)?|_[^/]*(/.*)?|index)$`)

// checkCrossDomainImports flags imports that reach into another
// domain's private areas. One finding per file keeps the report
// readable when a file does it repeatedly.
func (c *Checker) checkCrossDomainImports() []model.Violation {
	var out []model.Violation
	for _, file := range c.Tree.Files {
		if parser.IsTestPath(file) || c.exempt(file) {
			continue
		}
		fileDomain := subsystem.DomainRoot(c.Tree.Root, file)
		src := c.Tree.Cache().Source(file)
		for _, p := range src.ImportPaths() {
			if p.Kind != parser.PathRootRelative {
				continue
			}
			m := crossDomainForbidden.FindStringSubmatch(p.Raw)
			if m == nil {
				continue
			}
			targetFs, _ := c.Tree.ResolveAlias(p.Raw)
			targetDomain := subsystem.DomainRoot(c.Tree.Root, targetFs)
			if targetDomain == "" || targetDomain == fileDomain {
				continue
			}
			out = append(out, model.NewError(model.CategoryDomainImport,
				fmt.Sprintf("'%s' crosses into the private area of domain '%s'", p.Raw, m[1])).
				In(targetDomain).At(file, importLine(src, p)).
				Recommend(model.RemediationRemoveCrossDomain,
					fmt.Sprintf("Depend on '%s' through its public interface or an API route", m[1])))
			break
		}
	}
	return out
}

func importLine(src *parser.SourceFile, p parser.ImportPath) int {
	for _, i := range src.Imports {
		if i.Path.Raw == p.Raw {
			return i.Line
		}
	}
	return 0
}

func (c *Checker) fileKnown(p string) bool {
	i := sort.SearchStrings(c.Tree.Files, p)
	return i < len(c.Tree.Files) && c.Tree.Files[i] == p
}

func (c *Checker) dirHasFiles(dir string) bool {
	return len(c.Tree.FilesUnder(dir)) > 0
}

// childDirs lists the immediate subdirectories of dir that contain
// source files.
func (c *Checker) childDirs(dir string) []string {
	seen := make(map[string]struct{})
	for _, f := range c.Tree.FilesUnder(dir) {
		rest := strings.TrimPrefix(f, dir+"/")
		name, _, hasDir := strings.Cut(rest, "/")
		if hasDir {
			seen[name] = struct{}{}
		}
	}
	var out []string
	for name := range seen {
		out = append(out, dir+"/"+name)
	}
	sort.Strings(out)
	return out
}
