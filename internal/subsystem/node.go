package subsystem

import (
	"path"
	"strings"
)

// Subsystem is one manifest-bearing directory in the tree.
type Subsystem struct {
	Path         string // slash path relative to the working dir, e.g. "src/lib/state"
	Name         string
	Manifest     *Manifest
	ManifestPath string
	// ManifestErr is set when the manifest exists but could not be
	// parsed. The subsystem then behaves as if it declared nothing.
	ManifestErr error
	Parent      *Subsystem
	Children    []*Subsystem
	Files       []string // owned source files, sorted
	TotalLines  int
}

const domainsDir = "lib/domains"

// Type returns the declared subsystem type, or "domain" for an
// undeclared subsystem sitting directly under lib/domains.
func (s *Subsystem) Type(root string) string {
	if s.Manifest != nil && s.Manifest.Type != "" {
		return s.Manifest.Type
	}
	rel, ok := strings.CutPrefix(s.Path, root+"/")
	if ok {
		inner, found := strings.CutPrefix(rel, domainsDir+"/")
		if found && !strings.Contains(inner, "/") && inner != "" {
			return "domain"
		}
	}
	return ""
}

// IsDomain reports whether the subsystem is a domain root.
func (s *Subsystem) IsDomain(root string) bool { return s.Type(root) == "domain" }

// DomainRoot returns the enclosing domain directory for a path under
// lib/domains, or "" when the path is outside any domain.
func DomainRoot(root, p string) string {
	prefix := root + "/" + domainsDir + "/"
	rest, ok := strings.CutPrefix(p, prefix)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	if name == "" {
		return ""
	}
	return prefix + name
}

// IsDomainUtils reports whether p is a domain's utils directory or a
// file inside one.
func IsDomainUtils(root, p string) bool {
	domain := DomainRoot(root, p)
	if domain == "" {
		return false
	}
	utils := domain + "/utils"
	return p == utils || strings.HasPrefix(p, utils+"/")
}

// IndexPath returns the subsystem's public entry file.
func (s *Subsystem) IndexPath() string {
	return path.Join(s.Path, "index.ts")
}

// Owns reports whether the file path sits inside the subsystem's
// directory, including inside child subsystems.
func (s *Subsystem) Owns(file string) bool {
	return file == s.Path || strings.HasPrefix(file, s.Path+"/")
}
