// Package permission computes the effective import permissions of each
// subsystem from its own manifest and everything it inherits from its
// ancestors.
package permission

import (
	"strings"
	"sync"

	"archcheck/internal/subsystem"
)

// Set is the resolved permission set of one subsystem. All entries are
// in root-alias form ("~/lib/state").
type Set struct {
	Subsystem *subsystem.Subsystem
	// Declared is the subsystem's own allowed plus allowedChildren
	// entries, in manifest order.
	Declared []string
	// Inherited maps each inherited entry to the ancestor that
	// granted it. Ancestors grant their own path and everything in
	// their allowedChildren array.
	Inherited map[string]string

	members map[string]struct{}
	ordered []string
}

// Entries returns every effective entry, declared first, then
// inherited, without duplicates.
func (s *Set) Entries() []string { return s.ordered }

// Contains reports whether the exact entry is in the effective set.
func (s *Set) Contains(entry string) bool {
	_, ok := s.members[entry]
	return ok
}

// InheritedFrom returns the granting ancestor's path for an inherited
// entry, or "".
func (s *Set) InheritedFrom(entry string) string {
	return s.Inherited[entry]
}

// Resolver memoizes effective permission sets over one tree. Safe for
// concurrent use.
type Resolver struct {
	tree *subsystem.Tree

	mu   sync.Mutex
	memo map[string]*Set
}

func NewResolver(tree *subsystem.Tree) *Resolver {
	return &Resolver{tree: tree, memo: make(map[string]*Set)}
}

// Effective returns the subsystem's resolved permission set.
func (r *Resolver) Effective(s *subsystem.Subsystem) *Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.memo[s.Path]; ok {
		return set
	}
	set := r.resolve(s)
	r.memo[s.Path] = set
	return set
}

func (r *Resolver) resolve(s *subsystem.Subsystem) *Set {
	set := &Set{
		Subsystem: s,
		Inherited: make(map[string]string),
		members:   make(map[string]struct{}),
	}
	add := func(entry string) {
		entry = normalizeEntry(entry)
		if entry == "" {
			return
		}
		if _, ok := set.members[entry]; ok {
			return
		}
		set.members[entry] = struct{}{}
		set.ordered = append(set.ordered, entry)
	}

	if s.Manifest != nil {
		set.Declared = append(set.Declared, s.Manifest.Allowed...)
		set.Declared = append(set.Declared, s.Manifest.AllowedChildren...)
	}
	for _, entry := range set.Declared {
		add(entry)
	}

	// walk ancestors root-most first; when several ancestors repeat an
	// entry the outermost grant keeps the attribution
	for _, ancestor := range ancestry(s) {
		grants := []string{r.tree.AliasFor(ancestor.Path)}
		if ancestor.Manifest != nil {
			grants = append(grants, ancestor.Manifest.AllowedChildren...)
		}
		for _, entry := range grants {
			entry = normalizeEntry(entry)
			if entry == "" {
				continue
			}
			if _, ok := set.Inherited[entry]; !ok {
				set.Inherited[entry] = ancestor.Path
			}
			add(entry)
		}
	}

	// objects shared within a domain are implicitly importable by the
	// whole domain
	if domain := subsystem.DomainRoot(r.tree.Root, s.Path); domain != "" {
		add(r.tree.AliasFor(domain) + "/_objects")
	}
	return set
}

// normalizeEntry strips trailing slashes so "~/lib/state/" and
// "~/lib/state" produce the same effective entry.
func normalizeEntry(entry string) string {
	entry = strings.TrimSpace(entry)
	for strings.HasSuffix(entry, "/") && entry != "/" {
		entry = strings.TrimSuffix(entry, "/")
	}
	return entry
}

// ancestry lists the manifest-bearing ancestors of s, root-most first.
func ancestry(s *subsystem.Subsystem) []*subsystem.Subsystem {
	var chain []*subsystem.Subsystem
	for p := s.Parent; p != nil; p = p.Parent {
		chain = append([]*subsystem.Subsystem{p}, chain...)
	}
	return chain
}
