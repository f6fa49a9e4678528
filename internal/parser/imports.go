package parser

import "strings"

// extractImports scans source lines for static import statements and
// dynamic import() calls. Multi-line named imports are joined before
// parsing. Statements the scanner cannot make sense of are skipped.
func extractImports(lines []string) []Import {
	var imports []Import
	for i := 0; i < len(lines); i++ {
		line := stripComments(lines[i])
		imports = append(imports, dynamicImports(line, i+1)...)

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "import{") {
			continue
		}
		stmt, consumed := collectStatement(lines, i)
		imports = append(imports, parseImportStatement(stmt, i+1)...)
		i += consumed
	}
	return imports
}

// collectStatement joins lines from start until the statement has
// balanced braces and a quoted module specifier, or until the lookahead
// limit. Returns the joined text and the number of extra lines used.
func collectStatement(lines []string, start int) (string, int) {
	const lookahead = 20
	var b strings.Builder
	depth := 0
	for i := start; i < len(lines) && i-start <= lookahead; i++ {
		line := stripComments(lines[i])
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(line))
		depth += braceDelta(line)
		stmt := b.String()
		if depth <= 0 {
			if _, ok := quotedSpecifier(stmt); ok || strings.HasSuffix(stmt, ";") {
				return stmt, i - start
			}
			// "import X" alone is complete only at end of input
			if i == len(lines)-1 {
				return stmt, i - start
			}
		}
	}
	return b.String(), 0
}

// parseImportStatement decomposes one joined import statement into its
// individual bindings.
func parseImportStatement(stmt string, line int) []Import {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(stmt), "import"))
	if rest == stmt {
		return nil
	}
	spec, ok := fromSpecifier(stmt)
	if !ok {
		// side-effect imports carry no bindings
		return nil
	}
	path := ParsePath(spec)

	typeOnly := false
	if strings.HasPrefix(rest, "type ") || strings.HasPrefix(rest, "type{") {
		typeOnly = true
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "type"))
	}

	var imports []Import
	if open := strings.IndexByte(rest, '{'); open >= 0 {
		head := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest[:open]), ","))
		if isIdent(head) && !typeOnly {
			imports = append(imports, Import{Name: head, Path: path, Kind: ImportDefault, Line: line})
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return imports
		}
		for _, raw := range splitTopLevel(rest[open+1 : open+closing]) {
			imp, ok := parseNamedBinding(raw, typeOnly)
			if !ok {
				continue
			}
			imp.Path = path
			imp.Line = line
			imports = append(imports, imp)
		}
		return imports
	}

	if strings.HasPrefix(rest, "*") {
		after := strings.TrimSpace(strings.TrimPrefix(rest, "*"))
		if strings.HasPrefix(after, "as ") {
			name := firstToken(strings.TrimPrefix(after, "as "))
			if isIdent(name) {
				return []Import{{Name: name, Path: path, Kind: ImportNamespace, Line: line}}
			}
		}
		return nil
	}

	name := firstToken(rest)
	if !isIdent(name) {
		return nil
	}
	kind := ImportDefault
	if typeOnly {
		kind = ImportTypeOnly
	}
	return []Import{{Name: name, Path: path, Kind: kind, Line: line}}
}

// parseNamedBinding parses one entry of a named import list, handling
// inline "type" qualifiers and "as" aliases.
func parseNamedBinding(raw string, typeOnly bool) (Import, bool) {
	entry := strings.TrimSpace(raw)
	kind := ImportNamed
	if typeOnly {
		kind = ImportTypeOnly
	}
	if strings.HasPrefix(entry, "type ") {
		kind = ImportTypeOnly
		entry = strings.TrimSpace(strings.TrimPrefix(entry, "type "))
	}
	original := ""
	if idx := strings.Index(entry, " as "); idx >= 0 {
		original = strings.TrimSpace(entry[:idx])
		entry = strings.TrimSpace(entry[idx+4:])
	}
	if !isIdent(entry) {
		return Import{}, false
	}
	return Import{Name: entry, Original: original, Kind: kind}, true
}

// fromSpecifier extracts the quoted module path following the "from"
// keyword.
func fromSpecifier(stmt string) (string, bool) {
	idx := lastKeyword(stmt, "from")
	if idx < 0 {
		return "", false
	}
	return quotedSpecifier(stmt[idx+len("from"):])
}

// lastKeyword finds the last occurrence of word in s bounded by
// non-identifier characters.
func lastKeyword(s, word string) int {
	for idx := strings.LastIndex(s, word); idx >= 0; idx = strings.LastIndex(s[:idx], word) {
		beforeOK := idx == 0 || !isIdentByte(s[idx-1])
		end := idx + len(word)
		afterOK := end == len(s) || !isIdentByte(s[end])
		if beforeOK && afterOK {
			return idx
		}
	}
	return -1
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '$'
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return s[:i]
		}
	}
	return s
}

// dynamicImports finds import("path") call sites on a line. Each one
// binds the whole module, recorded under the name "*".
func dynamicImports(line string, lineNo int) []Import {
	var imports []Import
	for idx := 0; ; {
		pos := strings.Index(line[idx:], "import")
		if pos < 0 {
			return imports
		}
		pos += idx
		idx = pos + len("import")
		if pos > 0 && isIdentByte(line[pos-1]) {
			continue
		}
		rest := strings.TrimSpace(line[idx:])
		if !strings.HasPrefix(rest, "(") {
			continue
		}
		closing := strings.IndexByte(rest, ')')
		if closing < 0 {
			continue
		}
		spec, ok := quotedSpecifier(rest[1:closing])
		if !ok {
			continue
		}
		imports = append(imports, Import{
			Name: "*",
			Path: ParsePath(spec),
			Kind: ImportDynamic,
			Line: lineNo,
		})
	}
}
