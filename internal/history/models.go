package history

import "time"

const SchemaVersion = 1

// Run is one persisted check of a target tree.
type Run struct {
	SchemaVersion  int            `json:"schema_version"`
	RunID          string         `json:"run_id"`
	Timestamp      time.Time      `json:"timestamp"`
	TargetPath     string         `json:"target_path"`
	FileCount      int            `json:"file_count"`
	SubsystemCount int            `json:"subsystem_count"`
	ErrorCount     int            `json:"error_count"`
	WarningCount   int            `json:"warning_count"`
	ByCategory     map[string]int `json:"by_category,omitempty"`
	DurationMS     int64          `json:"duration_ms"`
}

type TrendPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	RunID         string    `json:"run_id"`
	ErrorCount    int       `json:"error_count"`
	WarningCount  int       `json:"warning_count"`
	FileCount     int       `json:"file_count"`
	DeltaErrors   int       `json:"delta_errors"`
	DeltaWarnings int       `json:"delta_warnings"`
	DeltaFiles    int       `json:"delta_files"`
	AvgErrors     float64   `json:"avg_errors"`
	AvgWarnings   float64   `json:"avg_warnings"`
	WindowHours   float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	TargetPath    string       `json:"target_path"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
