// Package report renders check results for the console and writes the
// JSON artifact other tooling consumes.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"archcheck/internal/core/model"
	"archcheck/internal/shared/util"
)

// Format selects the console rendering.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Options control what the reporter emits.
type Options struct {
	Format Format
	// IncludeWarnings prints warnings alongside errors on the console.
	IncludeWarnings bool
	// ArtifactPath receives the JSON artifact; empty disables it.
	ArtifactPath string
}

// Artifact is the JSON document written after every run.
type Artifact struct {
	RunID         string            `json:"run_id"`
	Timestamp     time.Time         `json:"timestamp"`
	TargetPath    string            `json:"target_path"`
	ExecutionTime float64           `json:"execution_time"`
	Summary       ArtifactSummary   `json:"summary"`
	Errors        []model.Violation `json:"errors"`
	Warnings      []model.Violation `json:"warnings"`
}

type ArtifactSummary struct {
	TotalErrors      int            `json:"total_errors"`
	TotalWarnings    int            `json:"total_warnings"`
	ByType           map[string]int `json:"by_type"`
	BySubsystem      map[string]int `json:"by_subsystem"`
	ByRecommendation map[string]int `json:"by_recommendation"`
}

// Reporter writes one run's results.
type Reporter struct {
	Out  io.Writer
	Opts Options
}

func New(out io.Writer, opts Options) *Reporter {
	return &Reporter{Out: out, Opts: opts}
}

// Report renders the results and writes the artifact. It returns the
// artifact so callers can persist or inspect it.
func (r *Reporter) Report(results *model.Results) (*Artifact, error) {
	artifact := buildArtifact(results)

	if r.Opts.ArtifactPath != "" {
		data, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := util.WriteFileWithDirs(r.Opts.ArtifactPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("write results artifact: %w", err)
		}
	}

	switch r.Opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(artifact); err != nil {
			return nil, err
		}
	default:
		r.console(results)
	}
	return artifact, nil
}

func buildArtifact(results *model.Results) *Artifact {
	return &Artifact{
		RunID:         uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		TargetPath:    results.TargetPath,
		ExecutionTime: results.ExecutionTime.Seconds(),
		Summary: ArtifactSummary{
			TotalErrors:      len(results.Errors),
			TotalWarnings:    len(results.Warnings),
			ByType:           results.SummaryByCategory(),
			BySubsystem:      results.SummaryBySubsystem(),
			ByRecommendation: results.SummaryByRemediation(),
		},
		Errors:   emptyIfNil(results.Errors),
		Warnings: emptyIfNil(results.Warnings),
	}
}

func emptyIfNil(vs []model.Violation) []model.Violation {
	if vs == nil {
		return []model.Violation{}
	}
	return vs
}
