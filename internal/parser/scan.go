package parser

import "strings"

// braceDelta returns the net count of opening minus closing braces on a
// line, ignoring braces inside string and template literals.
func braceDelta(line string) int {
	open, close := braceCounts(line)
	return open - close
}

// braceCounts counts opening and closing braces outside string
// literals.
func braceCounts(line string) (open, closed int) {
	var quote byte
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '{':
			open++
		case '}':
			closed++
		}
	}
	return open, closed
}

// stripComments removes a trailing // comment from a line, leaving
// string contents intact. Block comments are not tracked across lines;
// a line that begins inside one is the caller's problem.
func stripComments(line string) string {
	var quote byte
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return line[:i]
			}
		}
	}
	return line
}

// splitTopLevel splits s on commas that sit at nesting depth zero with
// respect to parens, brackets, braces and string literals.
func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			cur.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			cur.WriteByte(c)
			escaped = true
			continue
		}
		if quote != 0 {
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
			cur.WriteByte(c)
		case '(', '[', '{':
			depth++
			cur.WriteByte(c)
		case ')', ']', '}':
			depth--
			cur.WriteByte(c)
		case ',':
			if depth == 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// isIdent reports whether s is a plausible identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		alpha := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// quotedSpecifier extracts the first quoted string from s, returning
// its contents and whether one was found.
func quotedSpecifier(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' || c == '"' {
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return "", false
			}
			return s[i+1 : i+1+end], true
		}
	}
	return "", false
}
