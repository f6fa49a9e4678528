package parser

import "strings"

// Parse extracts all facts from one source file. Extraction is best
// effort: content that defeats the scanner yields fewer facts, never
// an error.
func Parse(path, content string) *SourceFile {
	lines := strings.Split(content, "\n")
	return &SourceFile{
		Path:      path,
		LineCount: len(lines),
		Imports:   extractImports(lines),
		Exports:   extractExports(lines),
		Functions: extractFunctions(lines),
	}
}

// ImportPaths returns the distinct specifiers imported by the file, in
// first-seen order.
func (f *SourceFile) ImportPaths() []ImportPath {
	seen := make(map[string]struct{}, len(f.Imports))
	var paths []ImportPath
	for _, imp := range f.Imports {
		if _, ok := seen[imp.Path.Raw]; ok {
			continue
		}
		seen[imp.Path.Raw] = struct{}{}
		paths = append(paths, imp.Path)
	}
	return paths
}

// Reexports returns the exports that re-export from another module.
func (f *SourceFile) Reexports() []Export {
	var out []Export
	for _, exp := range f.Exports {
		if exp.Reexport {
			out = append(out, exp)
		}
	}
	return out
}
