// Package override loads the exception files that raise complexity
// thresholds for specific paths and functions. Every exception line
// must carry a justification comment.
//
// Exception files can live at the project root and in any directory
// under the scan root. When several files carry an entry for the same
// path, the file closest to that path wins.
package override

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

const minJustification = 10

// Thresholds holds per-path line-count limits from the threshold
// exception files. Lines look like:
//
//	src/lib/generated: 2500  # parser tables, regenerated weekly
type Thresholds struct {
	filename string
	entries  map[string]int
	// nested maps a directory to the entries of the exception file
	// found in it
	nested map[string]map[string]int
}

// LoadThresholds parses the root threshold exception file. A missing
// file yields an empty set. The returned strings are advisory problems
// with individual lines; bad lines are skipped, not fatal.
func LoadThresholds(file string) (*Thresholds, []string, error) {
	t := &Thresholds{
		filename: path.Base(filepath.ToSlash(file)),
		nested:   make(map[string]map[string]int),
	}
	entries, warnings, err := parseThresholdFile(file)
	t.entries = entries
	return t, warnings, err
}

// Discover collects exception files of the same name in every
// directory under root. Their entries shadow the root file for paths
// beneath them.
func (t *Thresholds) Discover(root string) ([]string, error) {
	var warnings []string
	err := eachExceptionFile(root, t.filename, func(file string) error {
		entries, w, err := parseThresholdFile(file)
		if err != nil {
			return err
		}
		warnings = append(warnings, w...)
		t.nested[path.Dir(file)] = entries
		return nil
	})
	return warnings, err
}

// For returns the override for the closest enclosing entry of p,
// consulting the nearest exception file first. p itself participates
// in the file walk, so a directory is covered by its own exception
// file.
func (t *Thresholds) For(p string) (int, bool) {
	for dir := p; dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if entries, ok := t.nested[dir]; ok {
			if limit, ok := lookupEntry(entries, p); ok {
				return limit, true
			}
		}
	}
	return lookupEntry(t.entries, p)
}

// lookupEntry walks p upward through one file's entries.
func lookupEntry(entries map[string]int, p string) (int, bool) {
	for cur := normalizeKey(p); cur != "." && cur != "/" && cur != ""; cur = path.Dir(cur) {
		if limit, ok := entries[cur]; ok {
			return limit, true
		}
	}
	return 0, false
}

func parseThresholdFile(file string) (map[string]int, []string, error) {
	entries := make(map[string]int)
	warnings, err := eachEntry(file, func(fields []string, warn func(string)) {
		if len(fields) != 2 {
			warn("expected 'path: threshold'")
			return
		}
		limit, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || limit <= 0 {
			warn("threshold is not a positive integer")
			return
		}
		entries[normalizeKey(fields[0])] = limit
	})
	return entries, warnings, err
}

type fnEntry struct {
	path    string
	name    glob.Glob
	rawName string
	limit   int
}

// fnSet holds the entries of one function exception file.
type fnSet struct {
	files     map[string]int
	functions []fnEntry
}

func (s *fnSet) forFunction(key, name string) (int, bool) {
	for _, e := range s.functions {
		if e.path == key && e.name.Match(name) {
			return e.limit, true
		}
	}
	limit, ok := s.files[key]
	return limit, ok
}

// FunctionLimits holds per-file and per-function line limits from the
// function exception files. Lines look like:
//
//	src/lib/parse.ts:150  # legacy tokenizer
//	src/lib/parse.ts:scanTemplate:220  # giant state switch
//
// Function names may use glob wildcards.
type FunctionLimits struct {
	filename string
	root     *fnSet
	nested   map[string]*fnSet
}

// LoadFunctionLimits parses the root function exception file. A
// missing file yields an empty set.
func LoadFunctionLimits(file string) (*FunctionLimits, []string, error) {
	l := &FunctionLimits{
		filename: path.Base(filepath.ToSlash(file)),
		nested:   make(map[string]*fnSet),
	}
	set, warnings, err := parseFunctionFile(file)
	l.root = set
	return l, warnings, err
}

// Discover collects function exception files of the same name in
// every directory under root.
func (l *FunctionLimits) Discover(root string) ([]string, error) {
	var warnings []string
	err := eachExceptionFile(root, l.filename, func(file string) error {
		set, w, err := parseFunctionFile(file)
		if err != nil {
			return err
		}
		warnings = append(warnings, w...)
		l.nested[path.Dir(file)] = set
		return nil
	})
	return warnings, err
}

// ForFunction returns the limit for one function. The nearest
// exception file wins; within a file a per-function entry wins over
// the file-wide entry.
func (l *FunctionLimits) ForFunction(p, name string) (int, bool) {
	key := normalizeKey(p)
	for dir := path.Dir(p); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if set, ok := l.nested[dir]; ok {
			if limit, ok := set.forFunction(key, name); ok {
				return limit, true
			}
		}
	}
	return l.root.forFunction(key, name)
}

// ForFile returns the file-wide limit, if any.
func (l *FunctionLimits) ForFile(p string) (int, bool) {
	key := normalizeKey(p)
	for dir := path.Dir(p); dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if set, ok := l.nested[dir]; ok {
			if limit, ok := set.files[key]; ok {
				return limit, true
			}
		}
	}
	limit, ok := l.root.files[key]
	return limit, ok
}

func parseFunctionFile(file string) (*fnSet, []string, error) {
	set := &fnSet{files: make(map[string]int)}
	warnings, err := eachEntry(file, func(fields []string, warn func(string)) {
		switch len(fields) {
		case 2:
			limit, err := strconv.Atoi(strings.TrimSpace(fields[1]))
			if err != nil || limit <= 0 {
				warn("threshold is not a positive integer")
				return
			}
			set.files[normalizeKey(fields[0])] = limit
		case 3:
			limit, err := strconv.Atoi(strings.TrimSpace(fields[2]))
			if err != nil || limit <= 0 {
				warn("threshold is not a positive integer")
				return
			}
			name := strings.TrimSpace(fields[1])
			g, err := glob.Compile(name)
			if err != nil {
				warn("function pattern does not compile")
				return
			}
			set.functions = append(set.functions, fnEntry{
				path:    normalizeKey(fields[0]),
				name:    g,
				rawName: name,
				limit:   limit,
			})
		default:
			warn("expected 'path:threshold' or 'path:function:threshold'")
		}
	})
	return set, warnings, err
}

// normalizeKey strips the scan-root prefix so entries work whether or
// not they carry it.
func normalizeKey(p string) string {
	p = strings.TrimSpace(p)
	return strings.TrimPrefix(p, "src/")
}

// eachExceptionFile walks root and hands every file named name to fn.
// A missing root is not an error.
func eachExceptionFile(root, name string, fn func(file string) error) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		p = filepath.ToSlash(p)
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name {
			return fn(p)
		}
		return nil
	})
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// eachEntry reads an exception file line by line. Each non-comment
// line is split on ":" and handed to fn together with a warn callback
// that records a problem for that line. A missing justification
// comment, or one shorter than a few words, is itself a problem.
func eachEntry(file string, fn func(fields []string, warn func(string))) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var warnings []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		no := lineNo
		warn := func(msg string) {
			warnings = append(warnings, fmt.Sprintf("%s:%d: %s", file, no, msg))
		}
		entry, justification, found := strings.Cut(line, "#")
		if !found || len(strings.TrimSpace(justification)) < minJustification {
			warn("exception needs a justification comment")
		}
		fields := strings.Split(strings.TrimSpace(entry), ":")
		fn(fields, warn)
	}
	return warnings, scanner.Err()
}
