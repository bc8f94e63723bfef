package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/lexika/pkg/lexika/internalerr"
)

// Config is the full option surface of a vocabulary computation. It is
// validated eagerly, before any accumulation begins.
type Config struct {
	// TopK caps the global vocabulary size. Nil means unbounded.
	TopK *int
	// FrequencyThreshold drops tokens below the threshold before top-K
	// selection. Nil disables the filter.
	FrequencyThreshold *float64
	// NumOOVBuckets is the number of apply-time overflow buckets.
	NumOOVBuckets int
	// DefaultValue is the apply-time index for unknown tokens when no
	// overflow buckets are configured.
	DefaultValue int64
	// StoreFrequency writes "<frequency> <token>" lines instead of bare
	// tokens.
	StoreFrequency bool
	// FingerprintShuffle orders the emitted vocabulary by token fingerprint
	// instead of score, decorrelating index from frequency.
	FingerprintShuffle bool
	// UseAdjustedMutualInfo subtracts the chance-level mutual information
	// from each labeled token's score.
	UseAdjustedMutualInfo bool
	// MinDiffFromAvg snaps scores within the threshold of their
	// chance-level value to zero. Only meaningful with labels.
	MinDiffFromAvg float64
	// KeyFn groups tokens for coverage selection. Programmatic only.
	KeyFn func(token string) string
	// CoverageTopK guarantees up to K tokens per key group. Requires KeyFn.
	CoverageTopK *int
	// CoverageFrequencyThreshold filters coverage candidates independently
	// of FrequencyThreshold.
	CoverageFrequencyThreshold *float64
	// VocabFilename names the artifact file.
	VocabFilename string
	// OutputDir is the directory the artifact is written to.
	OutputDir string
}

// Default returns a configuration with conventional defaults: no truncation,
// no thresholds, default value -1, artifact named "vocabulary".
func Default() Config {
	return Config{
		DefaultValue:  -1,
		VocabFilename: "vocabulary",
	}
}

// Validate checks the configuration. It is called by the builder before the
// first observation so that bad options fail fast, not mid-pipeline.
func (c *Config) Validate() error {
	if c.TopK != nil && *c.TopK < 0 {
		return fmt.Errorf("top_k must be non-negative, got %d: %w", *c.TopK, internalerr.ErrInvalidConfig)
	}
	if c.NumOOVBuckets < 0 {
		return fmt.Errorf("num_oov_buckets must be non-negative, got %d: %w", c.NumOOVBuckets, internalerr.ErrInvalidConfig)
	}
	if c.CoverageTopK != nil && *c.CoverageTopK < 0 {
		return fmt.Errorf("coverage_top_k must be non-negative, got %d: %w", *c.CoverageTopK, internalerr.ErrInvalidConfig)
	}
	if c.CoverageTopK != nil && c.KeyFn == nil {
		return fmt.Errorf("coverage_top_k requires a key function: %w", internalerr.ErrInvalidConfig)
	}
	if c.CoverageFrequencyThreshold != nil && c.CoverageTopK == nil {
		return fmt.Errorf("coverage_frequency_threshold requires coverage_top_k: %w", internalerr.ErrInvalidConfig)
	}
	if c.MinDiffFromAvg < 0 {
		return fmt.Errorf("min_diff_from_avg must be non-negative, got %g: %w", c.MinDiffFromAvg, internalerr.ErrInvalidConfig)
	}
	if c.VocabFilename == "" {
		return fmt.Errorf("vocab_filename must not be empty: %w", internalerr.ErrInvalidConfig)
	}
	if strings.ContainsAny(c.VocabFilename, "/\\\n") {
		return fmt.Errorf("vocab_filename %q contains path or newline characters: %w", c.VocabFilename, internalerr.ErrInvalidConfig)
	}
	return nil
}

// IntOption parses an integer option that may arrive as a string (e.g. from
// a config file or a CLI). Empty input means unset.
func IntOption(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q: %w", s, internalerr.ErrInvalidConfig)
	}
	return &v, nil
}

// FloatOption parses a float option that may arrive as a string. Empty input
// means unset.
func FloatOption(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q: %w", s, internalerr.ErrInvalidConfig)
	}
	return &v, nil
}
