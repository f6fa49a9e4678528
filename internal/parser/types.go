// Package parser extracts imports, exports and function facts from
// TypeScript and JavaScript sources. It is a line-oriented lexical
// scanner, not a full grammar: facts it cannot recognize are skipped
// rather than failing the scan.
package parser

import "strings"

// PathKind classifies an import specifier at parse time.
type PathKind int

const (
	// PathExternal is a bare package specifier such as "react".
	PathExternal PathKind = iota
	// PathRootRelative is a root-alias specifier such as "~/lib/state".
	PathRootRelative
	// PathRelative is a "./" or "../" specifier.
	PathRelative
)

func (k PathKind) String() string {
	switch k {
	case PathExternal:
		return "external"
	case PathRootRelative:
		return "root-relative"
	case PathRelative:
		return "relative"
	default:
		return "unknown"
	}
}

// ImportPath is an import specifier with its classification resolved
// once, when the source is scanned. Segments is the raw specifier split
// on "/", including the leading alias segment for root-relative paths.
type ImportPath struct {
	Raw      string
	Kind     PathKind
	Segments []string
}

// ParsePath classifies a raw import specifier.
func ParsePath(raw string) ImportPath {
	kind := PathExternal
	switch {
	case strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") || raw == "." || raw == "..":
		kind = PathRelative
	case strings.HasPrefix(raw, "~/") || raw == "~":
		kind = PathRootRelative
	}
	return ImportPath{Raw: raw, Kind: kind, Segments: strings.Split(raw, "/")}
}

// IsExternal reports whether the path names a package outside the
// scanned tree.
func (p ImportPath) IsExternal() bool { return p.Kind == PathExternal }

// ImportKind distinguishes the binding forms of an import.
type ImportKind int

const (
	ImportNamed ImportKind = iota
	ImportDefault
	ImportNamespace
	ImportTypeOnly
	ImportDynamic
)

// Import is one imported binding. A statement importing several names
// yields one Import per name. Dynamic imports use the name "*".
type Import struct {
	Name     string
	Original string // pre-alias name for "X as Y" bindings, else empty
	Path     ImportPath
	Kind     ImportKind
	Line     int
}

// ExportKind distinguishes the forms of an export.
type ExportKind int

const (
	ExportNamed ExportKind = iota
	ExportTypeOnly
	ExportWildcard
	ExportDefault
	ExportDeclaration
)

// Export is one exported binding. Re-exports carry the source path in
// From; wildcard re-exports use the name "*".
type Export struct {
	Name     string
	Original string
	Kind     ExportKind
	Line     int
	From     ImportPath
	Reexport bool
}

// Function is a function-shaped declaration with its measured extent.
type Function struct {
	Name      string
	LineStart int
	LineEnd   int
	LineCount int
	ArgCount  int
}

// ObjectParam records a destructured object parameter whose key count
// exceeded the configured maximum.
type ObjectParam struct {
	Line     int
	KeyCount int
	Preview  string // first few keys, for the message
}

// SourceFile holds every fact extracted from one source file.
type SourceFile struct {
	Path      string
	LineCount int
	Imports   []Import
	Exports   []Export
	Functions []Function
}

// IsTestPath reports whether a path names a test source, which the
// complexity checks skip.
func IsTestPath(path string) bool {
	return strings.Contains(path, ".test.") ||
		strings.Contains(path, ".spec.") ||
		strings.Contains(path, "__tests__")
}
