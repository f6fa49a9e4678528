package structure

import (
	"fmt"
	"path"
	"strings"

	"archcheck/internal/core/model"
	"archcheck/internal/parser"
)

// CheckRuleOfSix applies the count caps: at most six child subsystems
// per subsystem, six functions per file, six arguments per function,
// six keys in a destructured parameter, and the function length
// limits. Test sources and type definition files are out of scope.
func (c *Checker) CheckRuleOfSix() []model.Violation {
	var out []model.Violation
	for _, s := range c.Tree.Subsystems {
		if c.exempt(s.Path) {
			continue
		}
		if n := len(s.Children); n > c.Thresholds.MaxSubsystems {
			out = append(out, model.NewWarning(model.CategorySubsystemCount,
				fmt.Sprintf("subsystem has %d child subsystems (max %d)", n, c.Thresholds.MaxSubsystems)).
				In(s.Path).At(s.Path, 0).
				Recommend(model.RemediationReduceSubsystems,
					"Group related children under an intermediate subsystem"))
		}
	}
	for _, file := range c.Tree.Files {
		if parser.IsTestPath(file) || isTypeFile(file) || c.exempt(file) {
			continue
		}
		out = append(out, c.checkFileFunctions(file)...)
	}
	return out
}

func isTypeFile(file string) bool {
	return path.Base(file) == "types.ts" || strings.Contains(file, "/types/")
}

func (c *Checker) checkFileFunctions(file string) []model.Violation {
	src := c.Tree.Cache().Source(file)
	var out []model.Violation

	fileLimit := c.Thresholds.MaxFunctionsPerFile
	if n := len(src.Functions); n > fileLimit {
		out = append(out, model.NewWarning(model.CategoryFileFunctions,
			fmt.Sprintf("file defines %d functions (max %d)", n, fileLimit)).
			At(file, 0).
			Recommend(model.RemediationReduceFunctions,
				fmt.Sprintf("Split '%s' into focused modules", path.Base(file))))
	}

	for _, fn := range src.Functions {
		out = append(out, c.checkFunction(file, fn)...)
	}

	data, err := c.Tree.Cache().Content(file)
	if err == nil {
		for _, op := range parser.ObjectParams(strings.Split(string(data), "\n"), c.Thresholds.MaxObjectKeys) {
			out = append(out, model.NewError(model.CategoryFunctionArgs,
				fmt.Sprintf("destructured parameter has %d keys (max %d): %s, ...", op.KeyCount, c.Thresholds.MaxObjectKeys, op.Preview)).
				At(file, op.Line).
				Recommend(model.RemediationReduceFunctionArgs,
					"Pass a named options object type instead of a wide destructure"))
		}
	}
	return out
}

func (c *Checker) checkFunction(file string, fn parser.Function) []model.Violation {
	var out []model.Violation

	warnLimit := c.Thresholds.FunctionLinesWarning
	errLimit := c.Thresholds.FunctionLinesError
	overridden := false
	if c.FnLimits != nil {
		if custom, ok := c.FnLimits.ForFunction(file, fn.Name); ok {
			errLimit = custom
			overridden = true
		}
	}
	switch {
	case fn.LineCount > errLimit:
		out = append(out, model.NewError(model.CategoryFunctionLines,
			fmt.Sprintf("function '%s' is %d lines (enforced max %d)", fn.Name, fn.LineCount, errLimit)).
			At(file, fn.LineStart).
			Recommend(model.RemediationReduceFunctionLines,
				fmt.Sprintf("Extract helpers from '%s'", fn.Name)))
	case !overridden && fn.LineCount > warnLimit:
		out = append(out, model.NewWarning(model.CategoryFunctionLines,
			fmt.Sprintf("function '%s' is %d lines (recommended max %d)", fn.Name, fn.LineCount, warnLimit)).
			At(file, fn.LineStart).
			Recommend(model.RemediationReduceFunctionLines,
				fmt.Sprintf("Consider splitting '%s'", fn.Name)))
	}

	if fn.ArgCount > c.Thresholds.MaxFunctionArgs {
		out = append(out, model.NewError(model.CategoryFunctionArgs,
			fmt.Sprintf("function '%s' takes %d arguments (max %d)", fn.Name, fn.ArgCount, c.Thresholds.MaxFunctionArgs)).
			At(file, fn.LineStart).
			Recommend(model.RemediationReduceFunctionArgs,
				"Group related arguments into an options object"))
	}
	return out
}
