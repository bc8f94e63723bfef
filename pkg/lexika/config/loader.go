package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML representation. Numeric options are read as strings
// so that both bare numbers and quoted values are accepted; they are parsed
// to their numeric types at load time.
type fileConfig struct {
	TopK                       string  `yaml:"top_k"`
	FrequencyThreshold         string  `yaml:"frequency_threshold"`
	NumOOVBuckets              int     `yaml:"num_oov_buckets"`
	DefaultValue               *int64  `yaml:"default_value"`
	StoreFrequency             bool    `yaml:"store_frequency"`
	FingerprintShuffle         bool    `yaml:"fingerprint_shuffle"`
	UseAdjustedMutualInfo      bool    `yaml:"use_adjusted_mutual_info"`
	MinDiffFromAvg             float64 `yaml:"min_diff_from_avg"`
	CoverageTopK               string  `yaml:"coverage_top_k"`
	CoverageFrequencyThreshold string  `yaml:"coverage_frequency_threshold"`
	VocabFilename              string  `yaml:"vocab_filename"`
	OutputDir                  string  `yaml:"output_dir"`
}

// Load reads a configuration from a YAML file. The key function cannot be
// expressed in a file and is set programmatically on the returned Config.
// Parse or validation failures are reported here, before any data is read.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML configuration document.
func Parse(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg := Default()

	var err error
	if cfg.TopK, err = IntOption(fc.TopK); err != nil {
		return Config{}, fmt.Errorf("load config: top_k: %w", err)
	}
	if cfg.FrequencyThreshold, err = FloatOption(fc.FrequencyThreshold); err != nil {
		return Config{}, fmt.Errorf("load config: frequency_threshold: %w", err)
	}
	if cfg.CoverageTopK, err = IntOption(fc.CoverageTopK); err != nil {
		return Config{}, fmt.Errorf("load config: coverage_top_k: %w", err)
	}
	if cfg.CoverageFrequencyThreshold, err = FloatOption(fc.CoverageFrequencyThreshold); err != nil {
		return Config{}, fmt.Errorf("load config: coverage_frequency_threshold: %w", err)
	}

	cfg.NumOOVBuckets = fc.NumOOVBuckets
	if fc.DefaultValue != nil {
		cfg.DefaultValue = *fc.DefaultValue
	}
	cfg.StoreFrequency = fc.StoreFrequency
	cfg.FingerprintShuffle = fc.FingerprintShuffle
	cfg.UseAdjustedMutualInfo = fc.UseAdjustedMutualInfo
	cfg.MinDiffFromAvg = fc.MinDiffFromAvg
	if fc.VocabFilename != "" {
		cfg.VocabFilename = fc.VocabFilename
	}
	cfg.OutputDir = fc.OutputDir

	// Coverage options from a file are validated once the caller has
	// attached a key function; everything else is checked now.
	check := cfg
	check.KeyFn = func(string) string { return "" }
	if err := check.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
