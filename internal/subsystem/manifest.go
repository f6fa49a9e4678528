// Package subsystem discovers the manifest-declared subsystem tree
// under a source root and owns file content and fact caching for the
// scan.
package subsystem

import (
	"encoding/json"
	"os"

	"archcheck/internal/core/errors"
)

// ManifestName is the file that marks a directory as a subsystem root.
const ManifestName = "dependencies.json"

// Manifest is the parsed dependencies.json of one subsystem.
type Manifest struct {
	Type            string   `json:"type,omitempty"`
	Description     string   `json:"description,omitempty"`
	Allowed         []string `json:"allowed,omitempty"`
	AllowedChildren []string `json:"allowedChildren,omitempty"`
	Subsystems      []string `json:"subsystems,omitempty"`
}

// LoadManifest reads and parses a manifest file. A malformed manifest
// is reported as a BAD_MANIFEST error; the caller degrades it to an
// empty manifest plus a violation rather than aborting the scan.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "manifest not readable"),
			errors.CtxPath, path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeBadManifest, "manifest is not valid JSON"),
			errors.CtxPath, path)
	}
	return &m, nil
}

// HasType reports whether the manifest declares one of the given types.
func (m *Manifest) HasType(types ...string) bool {
	if m == nil {
		return false
	}
	for _, t := range types {
		if m.Type == t {
			return true
		}
	}
	return false
}

// DeclaresChild reports whether name appears in the subsystems array,
// with or without a "./" prefix.
func (m *Manifest) DeclaresChild(name string) bool {
	if m == nil {
		return false
	}
	for _, s := range m.Subsystems {
		if s == name || s == "./"+name {
			return true
		}
	}
	return false
}
