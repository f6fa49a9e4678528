package permission

import (
	"fmt"
	"regexp"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/subsystem"
)

var domainUtilsEntry = regexp.MustCompile(`^~/lib/domains/[^/]+/utils/?$`)

// Redundancies reports declared dependencies that the subsystem would
// have been granted anyway, or that another declared entry already
// covers. These are warnings; the import still works.
func (r *Resolver) Redundancies(s *subsystem.Subsystem) []model.Violation {
	if s.Manifest == nil {
		return nil
	}
	set := r.Effective(s)
	var out []model.Violation

	childSet := make(map[string]struct{}, len(s.Manifest.AllowedChildren))
	for _, entry := range s.Manifest.AllowedChildren {
		childSet[entry] = struct{}{}
	}

	for _, dep := range s.Manifest.Allowed {
		if ancestor, ok := set.Inherited[dep]; ok {
			out = append(out, model.NewWarning(model.CategoryRedundancy,
				fmt.Sprintf("'%s' is already inherited from %s", dep, ancestor)).
				In(s.Path).At(s.ManifestPath, 0).
				Recommend(model.RemediationRemoveRedundant,
					fmt.Sprintf("Remove '%s' from %s 'allowed' array", dep, s.ManifestPath)))
			continue
		}
		if _, ok := childSet[dep]; ok {
			out = append(out, model.NewWarning(model.CategoryRedundancy,
				fmt.Sprintf("'%s' appears in both 'allowed' and 'allowedChildren'", dep)).
				In(s.Path).At(s.ManifestPath, 0).
				Recommend(model.RemediationRemoveRedundant,
					fmt.Sprintf("Keep '%s' in only one of the two arrays", dep)))
			continue
		}
		if domainUtilsEntry.MatchString(dep) {
			out = append(out, model.NewWarning(model.CategoryRedundancy,
				fmt.Sprintf("'%s' does not need to be declared, domain utils are always importable", dep)).
				In(s.Path).At(s.ManifestPath, 0).
				Recommend(model.RemediationRemoveRedundant,
					fmt.Sprintf("Remove '%s' from %s 'allowed' array", dep, s.ManifestPath)))
			continue
		}
		if covered, by := r.coveredByBroaderEntry(dep, s.Manifest.Allowed); covered {
			out = append(out, model.NewWarning(model.CategoryRedundancy,
				fmt.Sprintf("'%s' is already covered by '%s'", dep, by)).
				In(s.Path).At(s.ManifestPath, 0).
				Recommend(model.RemediationRemoveRedundant,
					fmt.Sprintf("Remove '%s' from %s 'allowed' array", dep, s.ManifestPath)))
		}
	}
	return out
}

// coveredByBroaderEntry reports whether another declared entry is a
// path prefix of dep and dep does not name a subsystem of its own. A
// nested subsystem needs its explicit grant, so it is never redundant.
func (r *Resolver) coveredByBroaderEntry(dep string, declared []string) (bool, string) {
	for _, other := range declared {
		if other == dep || !strings.HasPrefix(dep, other+"/") {
			continue
		}
		if fsPath, ok := r.tree.ResolveAlias(dep); ok && r.tree.HasManifest(fsPath) {
			continue
		}
		return true, other
	}
	return false, ""
}
