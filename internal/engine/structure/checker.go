// Package structure enforces the size and declaration rules: directory
// complexity limits, manifest declarations that match the filesystem,
// and the Rule of 6 caps on subsystems, functions and arguments.
package structure

import (
	"archcheck/internal/core/config"
	"archcheck/internal/core/model"
	"archcheck/internal/ignore"
	"archcheck/internal/override"
	"archcheck/internal/subsystem"
)

// Checker runs the structural rules over one discovered tree.
type Checker struct {
	Tree       *subsystem.Tree
	Thresholds config.Thresholds
	Overrides  *override.Thresholds
	FnLimits   *override.FunctionLimits
	Ignore     *ignore.Set
}

func New(tree *subsystem.Tree, thresholds config.Thresholds) *Checker {
	return &Checker{Tree: tree, Thresholds: thresholds}
}

func (c *Checker) exempt(p string) bool {
	return c.Ignore != nil && c.Ignore.Exempt(p)
}

// Check runs every structural rule and returns the combined findings.
func (c *Checker) Check() []model.Violation {
	var out []model.Violation
	out = append(out, c.CheckComplexity()...)
	out = append(out, c.CheckDeclarations()...)
	out = append(out, c.CheckRuleOfSix()...)
	return out
}
