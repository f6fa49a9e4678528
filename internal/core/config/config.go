package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"archcheck/internal/core/errors"
)

type Config struct {
	Version    int        `toml:"version"`
	TargetPath string     `toml:"target_path"`
	Workers    int        `toml:"workers"`
	Scan       Scan       `toml:"scan"`
	Thresholds Thresholds `toml:"thresholds"`
	Overrides  Overrides  `toml:"overrides"`
	Output     Output     `toml:"output"`
	History    History    `toml:"history"`
	Watch      Watch      `toml:"watch"`
}

type Scan struct {
	ManifestName string   `toml:"manifest_name"`
	Extensions   []string `toml:"extensions"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	IgnoreFile   string   `toml:"ignore_file"`
}

type Thresholds struct {
	ComplexityLines      int `toml:"complexity_lines"`
	DocLines             int `toml:"doc_lines"`
	MaxSubsystems        int `toml:"max_subsystems"`
	MaxFunctionsPerFile  int `toml:"max_functions_per_file"`
	FunctionLinesWarning int `toml:"function_lines_warning"`
	FunctionLinesError   int `toml:"function_lines_error"`
	MaxFunctionArgs      int `toml:"max_function_args"`
	MaxObjectKeys        int `toml:"max_object_keys"`
}

type Overrides struct {
	ThresholdFile string `toml:"threshold_file"`
	FunctionFile  string `toml:"function_file"`
}

type Output struct {
	ResultsPath string `toml:"results_path"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateThresholds(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.TargetPath) == "" {
		cfg.TargetPath = "src"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	if strings.TrimSpace(cfg.Scan.ManifestName) == "" {
		cfg.Scan.ManifestName = "dependencies.json"
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = []string{".ts", ".tsx"}
	}
	if len(cfg.Scan.ExcludeDirs) == 0 {
		cfg.Scan.ExcludeDirs = []string{"node_modules", ".git"}
	}
	if strings.TrimSpace(cfg.Scan.IgnoreFile) == "" {
		cfg.Scan.IgnoreFile = ".architecture-ignore"
	}

	if cfg.Thresholds.ComplexityLines == 0 {
		cfg.Thresholds.ComplexityLines = 1000
	}
	if cfg.Thresholds.DocLines == 0 {
		cfg.Thresholds.DocLines = 500
	}
	if cfg.Thresholds.MaxSubsystems == 0 {
		cfg.Thresholds.MaxSubsystems = 6
	}
	if cfg.Thresholds.MaxFunctionsPerFile == 0 {
		cfg.Thresholds.MaxFunctionsPerFile = 6
	}
	if cfg.Thresholds.FunctionLinesWarning == 0 {
		cfg.Thresholds.FunctionLinesWarning = 50
	}
	if cfg.Thresholds.FunctionLinesError == 0 {
		cfg.Thresholds.FunctionLinesError = 100
	}
	if cfg.Thresholds.MaxFunctionArgs == 0 {
		cfg.Thresholds.MaxFunctionArgs = 6
	}
	if cfg.Thresholds.MaxObjectKeys == 0 {
		cfg.Thresholds.MaxObjectKeys = 6
	}

	if strings.TrimSpace(cfg.Overrides.ThresholdFile) == "" {
		cfg.Overrides.ThresholdFile = ".archcheck-exceptions"
	}
	if strings.TrimSpace(cfg.Overrides.FunctionFile) == "" {
		cfg.Overrides.FunctionFile = ".ruleof6-exceptions"
	}

	if strings.TrimSpace(cfg.Output.ResultsPath) == "" {
		cfg.Output.ResultsPath = "test-results/architecture-check.json"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/state/archcheck-history.db"
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	return nil
}

func validateThresholds(cfg *Config) error {
	t := cfg.Thresholds
	if t.DocLines > t.ComplexityLines {
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("doc_lines (%d) must not exceed complexity_lines (%d)", t.DocLines, t.ComplexityLines))
	}
	if t.FunctionLinesWarning > t.FunctionLinesError {
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("function_lines_warning (%d) must not exceed function_lines_error (%d)",
				t.FunctionLinesWarning, t.FunctionLinesError))
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if strings.ContainsAny(cfg.Output.ResultsPath, "*?[") {
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("results_path %q must be a plain path, not a pattern", cfg.Output.ResultsPath))
	}
	return nil
}
