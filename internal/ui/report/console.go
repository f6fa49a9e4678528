package report

import (
	"fmt"
	"io"
	"sort"

	"archcheck/internal/core/model"
	"archcheck/internal/shared/util"
)

const (
	topAdviceLimit     = 10
	topRemediationRows = 8
)

// console renders the human summary: totals, breakdowns, the most
// frequent fixes, and the individual findings.
func (r *Reporter) console(results *model.Results) {
	w := r.Out

	fmt.Fprintf(w, "Architecture check of %s\n", results.TargetPath)
	fmt.Fprintf(w, "  %d errors, %d warnings in %.2fs\n\n",
		len(results.Errors), len(results.Warnings), results.ExecutionTime.Seconds())

	if len(results.Errors) == 0 && len(results.Warnings) == 0 {
		fmt.Fprintln(w, "No violations found.")
		return
	}

	r.printBreakdown(w, "By rule", results.SummaryByCategory(), 0)
	r.printBreakdown(w, "By subsystem", results.SummaryBySubsystem(), 0)
	r.printBreakdown(w, "By fix", results.SummaryByRemediation(), topRemediationRows)

	if advice := results.TopAdvice(topAdviceLimit); len(advice) > 0 {
		fmt.Fprintln(w, "Most frequent fixes:")
		for _, a := range advice {
			fmt.Fprintf(w, "  (%dx) %s\n", a.Count, a.Advice)
		}
		fmt.Fprintln(w)
	}

	for _, v := range results.Errors {
		r.printViolation(v)
	}
	if r.Opts.IncludeWarnings {
		for _, v := range results.Warnings {
			r.printViolation(v)
		}
	} else if len(results.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d warnings suppressed, rerun with --include-warnings to see them\n",
			len(results.Warnings))
	}

	if r.Opts.ArtifactPath != "" {
		fmt.Fprintf(w, "\nFull results written to %s\n", r.Opts.ArtifactPath)
	}
}

func (r *Reporter) printBreakdown(w io.Writer, title string, counts map[string]int, limit int) {
	if len(counts) == 0 {
		return
	}
	type row struct {
		key   string
		count int
	}
	rows := make([]row, 0, len(counts))
	for _, key := range util.SortedStringKeys(counts) {
		rows = append(rows, row{key, counts[key]})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].count > rows[j].count })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, row := range rows {
		fmt.Fprintf(w, "  %4d  %s\n", row.count, row.key)
	}
	fmt.Fprintln(w)
}

func (r *Reporter) printViolation(v model.Violation) {
	location := v.File
	if v.Line > 0 {
		location = fmt.Sprintf("%s:%d", v.File, v.Line)
	}
	fmt.Fprintf(r.Out, "[%s] %s: %s\n", v.Severity, location, v.Message)
	if v.Advice != "" {
		fmt.Fprintf(r.Out, "        fix: %s\n", v.Advice)
	}
}
