package subsystem

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"archcheck/internal/core/errors"
	"archcheck/internal/parser"
)

// Builder walks a source root and assembles the subsystem tree.
type Builder struct {
	Root       string
	Extensions []string
	// ManifestName overrides the default manifest file name.
	ManifestName string
	// SkipDir reports directories the walk must not descend into,
	// beyond the always-excluded set.
	SkipDir func(dir string) bool
	Cache   *Cache
	Log     *slog.Logger
}

var alwaysExcluded = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"dist":         {},
	"build":        {},
	".next":        {},
}

// Build discovers every manifest under the root and assigns each
// source file to its nearest enclosing subsystem. Malformed manifests
// are kept in the tree with ManifestErr set.
func (b *Builder) Build() (*Tree, error) {
	if b.Cache == nil {
		b.Cache = NewCache()
	}
	manifestName := b.ManifestName
	if manifestName == "" {
		manifestName = ManifestName
	}
	log := b.Log
	if log == nil {
		log = slog.Default()
	}

	tree := &Tree{Root: b.Root, byPath: make(map[string]*Subsystem), cache: b.Cache}

	err := filepath.WalkDir(b.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		p = filepath.ToSlash(p)
		if d.IsDir() {
			if _, excluded := alwaysExcluded[d.Name()]; excluded {
				return filepath.SkipDir
			}
			if b.SkipDir != nil && p != b.Root && b.SkipDir(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == manifestName {
			dir := path.Dir(p)
			tree.byPath[dir] = &Subsystem{
				Path:         dir,
				Name:         path.Base(dir),
				ManifestPath: p,
			}
			return nil
		}
		if b.matchesExtension(p) {
			tree.Files = append(tree.Files, p)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeNotFound, "scan root does not exist"),
				errors.CtxPath, b.Root)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "source walk failed")
	}
	sort.Strings(tree.Files)

	for _, s := range tree.byPath {
		m, merr := b.Cache.Manifest(s.ManifestPath)
		if merr != nil {
			log.Warn("manifest unreadable, treating as empty",
				"path", s.ManifestPath, "error", merr)
			s.Manifest = &Manifest{}
			s.ManifestErr = merr
			continue
		}
		s.Manifest = m
	}

	b.link(tree)
	b.assignFiles(tree)

	tree.Subsystems = make([]*Subsystem, 0, len(tree.byPath))
	for _, s := range tree.byPath {
		tree.Subsystems = append(tree.Subsystems, s)
	}
	sort.Slice(tree.Subsystems, func(i, j int) bool {
		return tree.Subsystems[i].Path < tree.Subsystems[j].Path
	})
	log.Debug("subsystem tree built",
		"subsystems", len(tree.Subsystems), "files", len(tree.Files))
	return tree, nil
}

func (b *Builder) matchesExtension(p string) bool {
	ext := path.Ext(p)
	for _, e := range b.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// link wires each subsystem to its nearest manifest-bearing ancestor.
func (b *Builder) link(tree *Tree) {
	for _, s := range tree.byPath {
		for dir := path.Dir(s.Path); strings.HasPrefix(dir, tree.Root); dir = path.Dir(dir) {
			if parent, ok := tree.byPath[dir]; ok {
				s.Parent = parent
				parent.Children = append(parent.Children, s)
				break
			}
			if dir == tree.Root {
				break
			}
		}
	}
	for _, s := range tree.byPath {
		sort.Slice(s.Children, func(i, j int) bool {
			return s.Children[i].Path < s.Children[j].Path
		})
	}
}

// assignFiles gives every source file to the subsystem whose directory
// most closely encloses it, and totals the owned line counts. Test
// files stay in tree.Files but are not owned: colocated tests may
// import across boundaries freely.
func (b *Builder) assignFiles(tree *Tree) {
	for _, f := range tree.Files {
		if parser.IsTestPath(f) {
			continue
		}
		owner := tree.Containing(f)
		if owner == nil {
			continue
		}
		owner.Files = append(owner.Files, f)
		data, err := b.Cache.Content(f)
		if err != nil {
			continue
		}
		owner.TotalLines += bytes.Count(data, []byte{'\n'}) + 1
	}
}
