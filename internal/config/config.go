// Package config loads and validates .trustdebt/config.json. Every
// tunable named by the pipeline contract lives here; validation failures
// are fatal at startup, never silently defaulted.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"trustdebt/internal/errors"
)

// ConfigDir is the repo-relative directory holding config and artifacts.
const ConfigDir = ".trustdebt"

// Config represents the complete trustdebt configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Corpus    CorpusConfig    `json:"corpus" mapstructure:"corpus"`
	Taxonomy  TaxonomyConfig  `json:"taxonomy" mapstructure:"taxonomy"`
	Matrix    MatrixConfig    `json:"matrix" mapstructure:"matrix"`
	Grades    GradesConfig    `json:"grades" mapstructure:"grades"`
	Timeline  TimelineConfig  `json:"timeline" mapstructure:"timeline"`
	Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// CorpusConfig defines the two disjoint file sets. Globs use doublestar
// syntax relative to the repo root.
type CorpusConfig struct {
	Intent           []string `json:"intent" mapstructure:"intent"`
	Reality          []string `json:"reality" mapstructure:"reality"`
	Exclude          []string `json:"exclude" mapstructure:"exclude"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// TaxonomyConfig tunes category generation and the refinement loop.
type TaxonomyConfig struct {
	TargetCount            int     `json:"targetCount" mapstructure:"targetCount"`
	OrthogonalityThreshold float64 `json:"orthogonalityThreshold" mapstructure:"orthogonalityThreshold"`
	BalanceCVThreshold     float64 `json:"balanceCvThreshold" mapstructure:"balanceCvThreshold"`
	MaxIterations          int     `json:"maxIterations" mapstructure:"maxIterations"`
	// MinCategories is the documented floor: a non-converged taxonomy
	// never shrinks below this size.
	MinCategories int `json:"minCategories" mapstructure:"minCategories"`
}

// MatrixConfig tunes matrix construction.
type MatrixConfig struct {
	// DiagonalWeight scales diagonal drift; must be > 1 (self-consistency
	// outweighs pairwise coupling).
	DiagonalWeight float64 `json:"diagonalWeight" mapstructure:"diagonalWeight"`
	// ColdThreshold is the per-hundred share below which both sides of a
	// cell count as inactive.
	ColdThreshold float64 `json:"coldThreshold" mapstructure:"coldThreshold"`
}

// GradeBoundary maps a contiguous half-open unit range [minUnits, maxUnits)
// to a letter. The terminal boundary sets Unbounded and covers
// [minUnits, +inf).
type GradeBoundary struct {
	MinUnits  float64 `json:"minUnits" mapstructure:"minUnits"`
	MaxUnits  float64 `json:"maxUnits" mapstructure:"maxUnits"`
	Unbounded bool    `json:"unbounded,omitempty" mapstructure:"unbounded"`
	Letter    string  `json:"letter" mapstructure:"letter"`
}

// GradesConfig holds the boundary table and numerical guards.
type GradesConfig struct {
	Boundaries []GradeBoundary `json:"boundaries" mapstructure:"boundaries"`
	// Epsilon floors the denominator of the asymmetry ratio.
	Epsilon float64 `json:"epsilon" mapstructure:"epsilon"`
}

// TimelineConfig tunes the historical replay.
type TimelineConfig struct {
	// SampleInterval replays every Nth commit.
	SampleInterval int `json:"sampleInterval" mapstructure:"sampleInterval"`
	MaxCommits     int `json:"maxCommits" mapstructure:"maxCommits"`
	GitTimeoutMs   int `json:"gitTimeoutMs" mapstructure:"gitTimeoutMs"`
	Workers        int `json:"workers" mapstructure:"workers"`
}

// ArtifactsConfig controls the bucket-handoff store.
type ArtifactsConfig struct {
	// Namespace isolates parallel runs (e.g. "ci" vs "default").
	Namespace string `json:"namespace" mapstructure:"namespace"`
	// CompressMinBytes zstd-compresses payloads at or above this size;
	// 0 disables compression.
	CompressMinBytes int `json:"compressMinBytes" mapstructure:"compressMinBytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Corpus: CorpusConfig{
			Intent:           []string{"README.md", "docs/**/*.md", "*.md"},
			Reality:          []string{"**/*.go", "src/**/*", "internal/**/*", "cmd/**/*"},
			Exclude:          []string{"node_modules/**", "vendor/**", ".git/**", ConfigDir + "/**"},
			MaxFileSizeBytes: 1000000,
		},
		Taxonomy: TaxonomyConfig{
			TargetCount:            20,
			OrthogonalityThreshold: 0.95,
			BalanceCVThreshold:     0.30,
			MaxIterations:          7,
			MinCategories:          2,
		},
		Matrix: MatrixConfig{
			DiagonalWeight: 2.0,
			ColdThreshold:  1.0,
		},
		Grades: GradesConfig{
			Boundaries: []GradeBoundary{
				{MinUnits: 0, MaxUnits: 50, Letter: "A"},
				{MinUnits: 50, MaxUnits: 150, Letter: "B"},
				{MinUnits: 150, MaxUnits: 400, Letter: "C"},
				{MinUnits: 400, Unbounded: true, Letter: "D"},
			},
			Epsilon: 0.001,
		},
		Timeline: TimelineConfig{
			SampleInterval: 10,
			MaxCommits:     500,
			GitTimeoutMs:   5000,
			Workers:        4,
		},
		Artifacts: ArtifactsConfig{
			Namespace:        "default",
			CompressMinBytes: 262144,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .trustdebt/config.json, falling
// back to defaults when no file exists. The result is always validated.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			cfg.RepoRoot = repoRoot
			return cfg, nil
		}
		return nil, errors.New(errors.ConfigInvalid, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "failed to parse config file", err)
	}
	cfg.RepoRoot = repoRoot

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .trustdebt/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks the configuration at startup. Violations are fatal.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return invalid("version", "unsupported config version")
	}
	if len(c.Corpus.Intent) == 0 {
		return invalid("corpus.intent", "at least one intent glob is required")
	}
	if len(c.Corpus.Reality) == 0 {
		return invalid("corpus.reality", "at least one reality glob is required")
	}
	if c.Taxonomy.TargetCount <= 0 {
		return invalid("taxonomy.targetCount", "must be positive")
	}
	if c.Taxonomy.MinCategories < 2 {
		return invalid("taxonomy.minCategories", "must be at least 2")
	}
	if c.Taxonomy.MinCategories > c.Taxonomy.TargetCount {
		return invalid("taxonomy.minCategories", "must not exceed targetCount")
	}
	if c.Taxonomy.OrthogonalityThreshold <= 0 || c.Taxonomy.OrthogonalityThreshold > 1 {
		return invalid("taxonomy.orthogonalityThreshold", "must be in (0, 1]")
	}
	if c.Taxonomy.BalanceCVThreshold <= 0 {
		return invalid("taxonomy.balanceCvThreshold", "must be positive")
	}
	if c.Taxonomy.MaxIterations < 1 {
		return invalid("taxonomy.maxIterations", "must be at least 1")
	}
	if c.Matrix.DiagonalWeight <= 1 {
		return invalid("matrix.diagonalWeight", "must be greater than 1")
	}
	if c.Matrix.ColdThreshold < 0 {
		return invalid("matrix.coldThreshold", "must not be negative")
	}
	if c.Grades.Epsilon <= 0 {
		return invalid("grades.epsilon", "must be positive")
	}
	if err := ValidateBoundaries(c.Grades.Boundaries); err != nil {
		return err
	}
	if c.Timeline.SampleInterval < 1 {
		return invalid("timeline.sampleInterval", "must be at least 1")
	}
	if c.Timeline.Workers < 1 {
		return invalid("timeline.workers", "must be at least 1")
	}
	return nil
}

// ValidateBoundaries checks that the grade table covers every
// non-negative total exactly once: starts at 0, contiguous, strictly
// increasing, and terminated by exactly one unbounded range.
func ValidateBoundaries(boundaries []GradeBoundary) error {
	if len(boundaries) == 0 {
		return invalid("grades.boundaries", "at least one boundary is required")
	}

	if boundaries[0].MinUnits != 0 {
		return invalid("grades.boundaries", "first boundary must start at 0")
	}

	seen := make(map[string]bool)
	for i, b := range boundaries {
		if b.Letter == "" {
			return invalid("grades.boundaries", fmt.Sprintf("boundary %d has no letter", i))
		}
		if seen[b.Letter] {
			return invalid("grades.boundaries", fmt.Sprintf("duplicate letter %q", b.Letter))
		}
		seen[b.Letter] = true

		terminal := i == len(boundaries)-1
		if b.Unbounded != terminal {
			if b.Unbounded {
				return invalid("grades.boundaries", fmt.Sprintf("boundary %d is unbounded but not terminal", i))
			}
			return invalid("grades.boundaries", "terminal boundary must be unbounded")
		}
		if !b.Unbounded {
			if b.MaxUnits <= b.MinUnits {
				return invalid("grades.boundaries", fmt.Sprintf("boundary %d range is empty or inverted", i))
			}
			if boundaries[i+1].MinUnits != b.MaxUnits {
				return invalid("grades.boundaries", fmt.Sprintf("gap or overlap after boundary %d", i))
			}
		}
	}

	return nil
}

func invalid(field, message string) error {
	return errors.New(errors.ConfigInvalid, fmt.Sprintf("config field %q: %s", field, message), nil).
		WithFixes(errors.FixAction{
			Type:        errors.EditConfig,
			Description: "Fix " + field + " in " + ConfigDir + "/config.json",
		})
}
