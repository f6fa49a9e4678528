package output

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"archcheck/internal/core/model"
	"archcheck/internal/subsystem"
)

// MermaidGenerator renders the subsystem tree and its declared
// dependencies as a flowchart. Subsystems with findings are styled by
// their worst severity.
type MermaidGenerator struct {
	tree *subsystem.Tree
}

func NewMermaidGenerator(tree *subsystem.Tree) *MermaidGenerator {
	return &MermaidGenerator{tree: tree}
}

func (m *MermaidGenerator) Generate(results *model.Results) (string, error) {
	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 60, 'rankSpacing': 90}}}%%\n")
	b.WriteString("flowchart LR\n")

	severity := severityBySubsystem(results)

	names := make([]string, 0, len(m.tree.Subsystems))
	byName := make(map[string]*subsystem.Subsystem, len(m.tree.Subsystems))
	for _, s := range m.tree.Subsystems {
		alias := m.tree.AliasFor(s.Path)
		names = append(names, alias)
		byName[alias] = s
	}
	sort.Strings(names)
	ids := makeMermaidIDs(names)

	var flagged []string
	for _, name := range names {
		label := name
		if lines := byName[name].TotalLines; lines > 0 {
			label = fmt.Sprintf("%s\\n%d lines", name, lines)
		}
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[name], label))
		if severity[byName[name].Path] != "" {
			flagged = append(flagged, name)
		}
	}

	for _, name := range names {
		s := byName[name]
		if s.Manifest == nil {
			continue
		}
		for _, dep := range append(append([]string{}, s.Manifest.Allowed...), s.Manifest.AllowedChildren...) {
			target, ok := m.tree.ResolveAlias(dep)
			if !ok {
				continue
			}
			targetAlias := m.tree.AliasFor(target)
			if _, known := ids[targetAlias]; !known {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s --> %s\n", ids[name], ids[targetAlias]))
		}
	}

	for _, name := range flagged {
		class := "warn"
		if severity[byName[name].Path] == string(model.SeverityError) {
			class = "bad"
		}
		b.WriteString(fmt.Sprintf("  class %s %s\n", ids[name], class))
	}
	b.WriteString("  classDef bad fill:#f8d7da,stroke:#842029\n")
	b.WriteString("  classDef warn fill:#fff3cd,stroke:#664d03\n")

	return b.String(), nil
}

// severityBySubsystem keeps the worst severity seen per subsystem path.
func severityBySubsystem(results *model.Results) map[string]string {
	out := make(map[string]string)
	for _, v := range results.Warnings {
		if v.Subsystem != "" {
			out[v.Subsystem] = string(model.SeverityWarning)
		}
	}
	for _, v := range results.Errors {
		if v.Subsystem != "" {
			out[v.Subsystem] = string(model.SeverityError)
		}
	}
	return out
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "s"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out == "" {
		return "s"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "s_" + out
	}
	return out
}

func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		id := sanitizeMermaidID(name)
		if n, clash := used[id]; clash {
			used[id] = n + 1
			id = fmt.Sprintf("%s_%d", id, n+1)
		} else {
			used[id] = 0
		}
		ids[name] = id
	}
	return ids
}
