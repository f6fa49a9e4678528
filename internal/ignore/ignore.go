// Package ignore loads the rule-exemption file that excludes paths
// from architecture checks.
package ignore

import (
	"bufio"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

// traversalNames are the only directory names an ignore entry can
// exclude from the walk itself. Everything else stays visible to the
// walk and is exempted from rules only.
var traversalNames = map[string]struct{}{
	"node_modules": {},
	"__tests__":    {},
	"__fixtures__": {},
	"__mocks__":    {},
}

// DefaultEntries apply when no ignore file exists.
var DefaultEntries = []string{"src/components"}

type entry struct {
	raw     string
	pattern glob.Glob // nil for literal entries
}

// Set is a parsed ignore file.
type Set struct {
	entries   []entry
	traversal []string
}

// Load reads the ignore file at path. A missing file yields the
// default set.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return build(DefaultEntries)
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return build(lines)
}

func build(lines []string) (*Set, error) {
	s := &Set{}
	for _, line := range lines {
		line = strings.TrimSuffix(strings.TrimSpace(line), "/")
		if line == "" {
			continue
		}
		base := strings.TrimSuffix(line, "/**")
		if _, ok := traversalNames[base]; ok {
			s.traversal = append(s.traversal, base)
		}
		// a trailing /** is the same as the bare directory entry
		if base != line && !strings.ContainsAny(base, "*?[") {
			line = base
		}
		e := entry{raw: line}
		if strings.ContainsAny(line, "*?[") {
			g, err := glob.Compile(line, '/')
			if err != nil {
				return nil, err
			}
			e.pattern = g
		}
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Exempt reports whether path is excluded from rule checking. Literal
// entries exempt the path itself and everything beneath it.
func (s *Set) Exempt(path string) bool {
	for _, e := range s.entries {
		if e.pattern != nil {
			if e.pattern.Match(path) {
				return true
			}
			continue
		}
		if path == e.raw || strings.HasPrefix(path, e.raw+"/") {
			return true
		}
	}
	return false
}

// SkipTraversal reports whether the walk should not descend into dir.
func (s *Set) SkipTraversal(dir string) bool {
	base := dir
	if idx := strings.LastIndexByte(dir, '/'); idx >= 0 {
		base = dir[idx+1:]
	}
	for _, name := range s.traversal {
		if base == name {
			return true
		}
	}
	return false
}
