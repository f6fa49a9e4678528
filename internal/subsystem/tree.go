package subsystem

import (
	"path"
	"sort"
	"strings"
)

// Tree is the discovered subsystem hierarchy under one source root.
type Tree struct {
	Root       string // scan root, e.g. "src"
	Subsystems []*Subsystem
	// Files is every source file under the root, sorted.
	Files []string

	byPath map[string]*Subsystem
	cache  *Cache
}

// Cache exposes the scan's shared file cache.
func (t *Tree) Cache() *Cache { return t.cache }

// Lookup finds the subsystem rooted exactly at dir.
func (t *Tree) Lookup(dir string) (*Subsystem, bool) {
	s, ok := t.byPath[dir]
	return s, ok
}

// HasManifest reports whether dir is a subsystem root.
func (t *Tree) HasManifest(dir string) bool {
	_, ok := t.byPath[dir]
	return ok
}

// Containing returns the nearest subsystem whose directory contains
// the given file or directory path, or nil.
func (t *Tree) Containing(p string) *Subsystem {
	if s, ok := t.byPath[p]; ok {
		return s
	}
	for dir := path.Dir(p); strings.HasPrefix(dir, t.Root); dir = path.Dir(dir) {
		if s, ok := t.byPath[dir]; ok {
			return s
		}
		if dir == t.Root {
			break
		}
	}
	return nil
}

// ResolveAlias maps a root-alias specifier like "~/lib/state" onto a
// filesystem path under the scan root. Non-alias input is returned
// unchanged with ok=false.
func (t *Tree) ResolveAlias(raw string) (string, bool) {
	if raw == "~" {
		return t.Root, true
	}
	rest, ok := strings.CutPrefix(raw, "~/")
	if !ok {
		return raw, false
	}
	return path.Join(t.Root, rest), true
}

// AliasFor maps a filesystem path under the root back to its alias
// form.
func (t *Tree) AliasFor(p string) string {
	if p == t.Root {
		return "~"
	}
	if rest, ok := strings.CutPrefix(p, t.Root+"/"); ok {
		return "~/" + rest
	}
	return p
}

// ResolveRelative resolves a "./" or "../" specifier against the
// directory of the importing file.
func ResolveRelative(fromFile, raw string) string {
	return path.Join(path.Dir(fromFile), raw)
}

// FilesUnder returns the source files at or below dir.
func (t *Tree) FilesUnder(dir string) []string {
	prefix := dir + "/"
	i := sort.SearchStrings(t.Files, prefix)
	var out []string
	for ; i < len(t.Files) && strings.HasPrefix(t.Files[i], prefix); i++ {
		out = append(out, t.Files[i])
	}
	return out
}

// SubsystemsUnder returns the subsystems strictly below dir.
func (t *Tree) SubsystemsUnder(dir string) []*Subsystem {
	var out []*Subsystem
	for _, s := range t.Subsystems {
		if strings.HasPrefix(s.Path, dir+"/") {
			out = append(out, s)
		}
	}
	return out
}
