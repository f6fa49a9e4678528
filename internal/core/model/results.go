package model

import (
	"sort"
	"time"
)

// Results collects every violation from one check run.
type Results struct {
	TargetPath     string
	Errors         []Violation
	Warnings       []Violation
	FilesScanned   int
	SubsystemCount int
	ExecutionTime  time.Duration
}

func NewResults(targetPath string) *Results {
	return &Results{TargetPath: targetPath}
}

func (r *Results) Add(v Violation) {
	if v.Severity == SeverityError {
		r.Errors = append(r.Errors, v)
		return
	}
	r.Warnings = append(r.Warnings, v)
}

func (r *Results) AddAll(violations []Violation) {
	for _, v := range violations {
		r.Add(v)
	}
}

func (r *Results) HasErrors() bool {
	return len(r.Errors) > 0
}

// AllIssues returns errors followed by warnings.
func (r *Results) AllIssues() []Violation {
	out := make([]Violation, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	return out
}

// Sort orders both lists deterministically so repeated runs over an unchanged
// tree produce identical output.
func (r *Results) Sort() {
	sortViolations(r.Errors)
	sortViolations(r.Warnings)
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Category != vs[j].Category {
			return vs[i].Category < vs[j].Category
		}
		if vs[i].Subsystem != vs[j].Subsystem {
			return vs[i].Subsystem < vs[j].Subsystem
		}
		if vs[i].File != vs[j].File {
			return vs[i].File < vs[j].File
		}
		if vs[i].Line != vs[j].Line {
			return vs[i].Line < vs[j].Line
		}
		return vs[i].Message < vs[j].Message
	})
}

func (r *Results) SummaryByCategory() map[string]int {
	summary := make(map[string]int)
	for _, issue := range r.AllIssues() {
		summary[string(issue.Category)]++
	}
	return summary
}

func (r *Results) SummaryBySubsystem() map[string]int {
	summary := make(map[string]int)
	for _, issue := range r.AllIssues() {
		if issue.Subsystem != "" {
			summary[issue.Subsystem]++
		}
	}
	return summary
}

func (r *Results) SummaryByRemediation() map[string]int {
	summary := make(map[string]int)
	for _, issue := range r.AllIssues() {
		rem := issue.Remediation
		if rem == "" {
			rem = RemediationOther
		}
		summary[string(rem)]++
	}
	return summary
}

type AdviceCount struct {
	Advice string
	Count  int
}

// TopAdvice returns the most frequent exact remediation texts, capped at limit.
func (r *Results) TopAdvice(limit int) []AdviceCount {
	counts := make(map[string]int)
	for _, issue := range r.AllIssues() {
		if issue.Advice != "" {
			counts[issue.Advice]++
		}
	}
	out := make([]AdviceCount, 0, len(counts))
	for advice, count := range counts {
		out = append(out, AdviceCount{Advice: advice, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Advice < out[j].Advice
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
