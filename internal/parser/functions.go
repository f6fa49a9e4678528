package parser

import (
	"regexp"
	"strings"
)

var (
	funcDeclPattern   = regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(`)
	arrowConstPattern = regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?\(`)
	objectFnPattern   = regexp.MustCompile(`^\s*(\w+)\s*:\s*(?:async\s+)?\(`)
	classMethodPrefix = regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+|static\s+|async\s+|override\s+)*(\w+)\s*\(`)

	callPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\w+\([^)]*\)\s*;`),
		regexp.MustCompile(`\w+\.\w+\(`),
		regexp.MustCompile(`\bthis\.`),
		regexp.MustCompile(`\buse[A-Z]\w*\(`),
		regexp.MustCompile(`\b(?:console|setTimeout|setInterval|clearTimeout|clearInterval|require)\b`),
	}

	interfaceOpen = regexp.MustCompile(`^\s*(?:export\s+)?(?:interface\s+\w+|type\s+\w+\s*=)\s*.*\{`)
)

// excludedNames are keywords that match the function shapes but never
// name a function.
var excludedNames = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {},
	"return": {}, "typeof": {}, "new": {}, "else": {}, "do": {},
	"try": {}, "finally": {}, "await": {}, "yield": {}, "delete": {},
	"void": {}, "in": {}, "of": {}, "instanceof": {}, "throw": {},
}

// extractFunctions scans source lines for function-shaped declarations:
// function statements, const arrow functions, object methods and class
// methods. Shapes that look like plain calls, or that sit inside a
// type or interface block, are skipped.
func extractFunctions(lines []string) []Function {
	var functions []Function
	interfaceDepth := 0
	for i := 0; i < len(lines); i++ {
		line := stripComments(lines[i])

		if interfaceDepth > 0 {
			interfaceDepth += braceDelta(line)
			if interfaceDepth < 0 {
				interfaceDepth = 0
			}
			continue
		}
		if interfaceOpen.MatchString(line) {
			interfaceDepth = braceDelta(line)
			continue
		}

		name, ok := matchFunctionLine(lines, i, line)
		if !ok {
			continue
		}
		end := functionEnd(lines, i)
		functions = append(functions, Function{
			Name:      name,
			LineStart: i + 1,
			LineEnd:   end + 1,
			LineCount: end - i + 1,
			ArgCount:  countArgs(lines, i),
		})
	}
	return functions
}

// matchFunctionLine tries each declaration shape against a line and
// validates the match in context.
func matchFunctionLine(lines []string, i int, line string) (string, bool) {
	if m := funcDeclPattern.FindStringSubmatch(line); m != nil {
		return m[1], validName(m[1])
	}
	if m := arrowConstPattern.FindStringSubmatch(line); m != nil {
		if validName(m[1]) && hasArrowBody(lines, i) {
			return m[1], true
		}
		return "", false
	}
	if m := objectFnPattern.FindStringSubmatch(line); m != nil {
		if validName(m[1]) && hasArrowBody(lines, i) {
			return m[1], true
		}
		return "", false
	}
	if m := classMethodPrefix.FindStringSubmatch(line); m != nil {
		name := m[1]
		if !validName(name) || isObviousCall(line) || !inClassBody(lines, i) {
			return "", false
		}
		return name, true
	}
	return "", false
}

func validName(name string) bool {
	_, excluded := excludedNames[name]
	return !excluded
}

// hasArrowBody checks the declaration line and a short lookahead for
// the "=>" or "function" token that separates a function value from a
// plain assignment.
func hasArrowBody(lines []string, i int) bool {
	for j := i; j < len(lines) && j < i+5; j++ {
		line := stripComments(lines[j])
		if strings.Contains(line, "=>") || strings.Contains(line, "function") {
			return true
		}
	}
	return false
}

// isObviousCall filters lines that look like invocations rather than
// method declarations.
func isObviousCall(line string) bool {
	for _, p := range callPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	open := strings.Count(line, "(")
	closed := strings.Count(line, ")")
	// a declaration header opens its body; a completed call closes
	// everything it opened and moves on
	if open > 0 && open == closed && strings.Contains(line, ");") {
		return true
	}
	return false
}

// inClassBody walks backwards through the brace structure to find the
// line that opened the enclosing block, and reports whether that line
// declares a class.
func inClassBody(lines []string, i int) bool {
	depth := 0
	for j := i - 1; j >= 0; j-- {
		line := stripComments(lines[j])
		open, closed := braceCounts(line)
		depth += closed - open
		if depth < 0 {
			if strings.Contains(line, "class ") {
				return true
			}
			if strings.Contains(line, "interface ") || strings.Contains(line, "type ") {
				return false
			}
			depth = 0
		}
	}
	return false
}

// functionEnd locates the last line of the function starting at line i.
// Brace-bodied functions end where the brace balance returns to zero;
// single-expression arrows end where their parens balance out.
func functionEnd(lines []string, i int) int {
	line := stripComments(lines[i])

	if idx := strings.Index(line, "=>"); idx >= 0 && !strings.Contains(line[idx:], "{") {
		// single-expression arrow, possibly wrapping across lines
		depth := strings.Count(line, "(") - strings.Count(line, ")")
		for j := i; j < len(lines); j++ {
			if j > i {
				next := stripComments(lines[j])
				depth += strings.Count(next, "(") - strings.Count(next, ")")
			}
			if depth <= 0 {
				return j
			}
		}
		return len(lines) - 1
	}

	depth := 0
	opened := false
	for j := i; j < len(lines); j++ {
		open, closed := braceCounts(stripComments(lines[j]))
		if open > 0 {
			opened = true
		}
		depth += open - closed
		if opened && depth <= 0 {
			return j
		}
	}
	return len(lines) - 1
}

// countArgs extracts the parameter list of the function starting at
// line i and counts its top-level parameters. Rest parameters are not
// counted.
func countArgs(lines []string, i int) int {
	params, ok := parameterText(lines, i)
	if !ok {
		return 0
	}
	count := 0
	for _, raw := range splitTopLevel(params) {
		p := strings.TrimSpace(raw)
		if p == "" || strings.HasPrefix(p, "...") {
			continue
		}
		count++
	}
	return count
}

// parameterText collects the text between the declaration's opening
// paren and its balanced close, across lines.
func parameterText(lines []string, i int) (string, bool) {
	var b strings.Builder
	depth := 0
	started := false
	for j := i; j < len(lines) && j < i+30; j++ {
		line := stripComments(lines[j])
		start := 0
		if !started {
			idx := strings.IndexByte(line, '(')
			if idx < 0 {
				continue
			}
			started = true
			depth = 1
			start = idx + 1
		}
		var quote byte
		escaped := false
		for k := start; k < len(line); k++ {
			c := line[k]
			if escaped {
				b.WriteByte(c)
				escaped = false
				continue
			}
			if c == '\\' {
				b.WriteByte(c)
				escaped = true
				continue
			}
			if quote != 0 {
				b.WriteByte(c)
				if c == quote {
					quote = 0
				}
				continue
			}
			switch c {
			case '\'', '"', '`':
				quote = c
				b.WriteByte(c)
			case '(':
				depth++
				b.WriteByte(c)
			case ')':
				depth--
				if depth == 0 {
					return b.String(), true
				}
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte(' ')
	}
	return "", false
}

// ObjectParams finds destructured object parameters with more keys
// than max. The scan is per line and tolerant of false negatives on
// heavily wrapped signatures.
func ObjectParams(lines []string, max int) []ObjectParam {
	var violations []ObjectParam
	for i, raw := range lines {
		line := stripComments(raw)
		open := strings.IndexByte(line, '{')
		if open < 0 {
			continue
		}
		closed := strings.IndexByte(line[open:], '}')
		if closed < 0 {
			continue
		}
		inner := line[open+1 : open+closed]
		var keys []string
		valid := true
		for _, part := range splitTopLevel(inner) {
			key := strings.TrimSpace(part)
			if key == "" || strings.HasPrefix(key, "...") {
				continue
			}
			if idx := strings.IndexAny(key, ":="); idx >= 0 {
				key = strings.TrimSpace(key[:idx])
			}
			if !isIdent(key) {
				valid = false
				break
			}
			keys = append(keys, key)
		}
		if !valid || len(keys) <= max {
			continue
		}
		n := 3
		if len(keys) < n {
			n = len(keys)
		}
		preview := strings.Join(keys[:n], ", ")
		violations = append(violations, ObjectParam{
			Line:     i + 1,
			KeyCount: len(keys),
			Preview:  preview,
		})
	}
	return violations
}
