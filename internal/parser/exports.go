package parser

import "strings"

// declKeywords are the declaration forms that "export" can prefix
// directly.
var declKeywords = []string{
	"const", "let", "var", "function", "class", "interface", "type", "enum", "abstract class", "async function",
}

// extractExports scans source lines for export statements, including
// re-exports and direct declaration exports.
func extractExports(lines []string) []Export {
	var exports []Export
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(stripComments(lines[i]))
		if !strings.HasPrefix(trimmed, "export ") && !strings.HasPrefix(trimmed, "export{") {
			continue
		}
		stmt, consumed := collectStatement(lines, i)
		parsed, multiline := parseExportStatement(stmt, i+1)
		exports = append(exports, parsed...)
		if multiline {
			i += consumed
		}
	}
	return exports
}

// parseExportStatement decomposes one export statement. The second
// return value reports whether the statement may have spanned lines
// and the caller should skip the joined lines.
func parseExportStatement(stmt string, line int) ([]Export, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(stmt), "export"))

	typeOnly := false
	if strings.HasPrefix(rest, "type ") || strings.HasPrefix(rest, "type{") {
		after := strings.TrimSpace(strings.TrimPrefix(rest, "type"))
		// "export type Foo = ..." is a declaration, not a list
		if strings.HasPrefix(after, "{") || strings.HasPrefix(after, "*") {
			typeOnly = true
			rest = after
		}
	}

	if strings.HasPrefix(rest, "*") {
		spec, ok := fromSpecifier(stmt)
		if !ok {
			return nil, false
		}
		kind := ExportWildcard
		return []Export{{
			Name:     "*",
			Kind:     kind,
			Line:     line,
			From:     ParsePath(spec),
			Reexport: true,
		}}, false
	}

	if open := strings.IndexByte(rest, '{'); open == 0 {
		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return nil, false
		}
		spec, reexport := fromSpecifier(stmt)
		var from ImportPath
		if reexport {
			from = ParsePath(spec)
		}
		var exports []Export
		for _, raw := range splitTopLevel(rest[1:closing]) {
			entry := strings.TrimSpace(raw)
			kind := ExportNamed
			if typeOnly {
				kind = ExportTypeOnly
			}
			if strings.HasPrefix(entry, "type ") {
				kind = ExportTypeOnly
				entry = strings.TrimSpace(strings.TrimPrefix(entry, "type "))
			}
			original := ""
			if idx := strings.Index(entry, " as "); idx >= 0 {
				original = strings.TrimSpace(entry[:idx])
				entry = strings.TrimSpace(entry[idx+4:])
			}
			if entry != "default" && !isIdent(entry) {
				continue
			}
			exports = append(exports, Export{
				Name:     entry,
				Original: original,
				Kind:     kind,
				Line:     line,
				From:     from,
				Reexport: reexport,
			})
		}
		return exports, true
	}

	if strings.HasPrefix(rest, "default") {
		return []Export{{Name: "default", Kind: ExportDefault, Line: line}}, false
	}

	for _, kw := range declKeywords {
		if !strings.HasPrefix(rest, kw+" ") {
			continue
		}
		name := firstToken(strings.TrimPrefix(rest, kw+" "))
		if !isIdent(name) {
			return nil, false
		}
		return []Export{{Name: name, Kind: ExportDeclaration, Line: line}}, false
	}
	return nil, false
}
