// Package config loads the screening and correction thresholds from an
// optional YAML file, with environment variable overrides and deployment
// defaults. Threshold validation happens here, at construction time, so
// the analysis packages never see a malformed configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Screener holds the quality-screener thresholds.
type Screener struct {
	MinTimePerItem        float64 `yaml:"min_time_per_item"`
	LongstringThreshold   int     `yaml:"longstring_threshold"`
	CorrelationThreshold  float64 `yaml:"correlation_threshold"`
	MahalanobisPThreshold float64 `yaml:"mahalanobis_p_threshold"`
	VarianceThreshold     float64 `yaml:"variance_threshold"`
}

// Styles holds the response-style corrector thresholds.
type Styles struct {
	ExtremeThreshold      float64 `yaml:"extreme_threshold"`
	MidpointThreshold     float64 `yaml:"midpoint_threshold"`
	AcquiescenceThreshold float64 `yaml:"acquiescence_threshold"`
}

// Config is the full deployment configuration.
type Config struct {
	ItemCount int      `yaml:"item_count"`
	Screener  Screener `yaml:"screener"`
	Styles    Styles   `yaml:"styles"`
}

// Default returns the configuration with every threshold at its
// documented default.
func Default() Config {
	return Config{
		ItemCount: 50,
		Screener: Screener{
			MinTimePerItem:        2.0,
			LongstringThreshold:   10,
			CorrelationThreshold:  0.3,
			MahalanobisPThreshold: 0.001,
			VarianceThreshold:     0.3,
		},
		Styles: Styles{
			ExtremeThreshold:      0.7,
			MidpointThreshold:     0.7,
			AcquiescenceThreshold: 0.7,
		},
	}
}

// Load reads the YAML file at path (skipped if it does not exist), applies
// env overrides on top, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	// Env vars override YAML values
	envOverrideInt(&cfg.ItemCount, "ITEM_COUNT")
	envOverrideFloat(&cfg.Screener.MinTimePerItem, "MIN_TIME_PER_ITEM")
	envOverrideInt(&cfg.Screener.LongstringThreshold, "LONGSTRING_THRESHOLD")
	envOverrideFloat(&cfg.Screener.CorrelationThreshold, "CORRELATION_THRESHOLD")
	envOverrideFloat(&cfg.Screener.MahalanobisPThreshold, "MAHALANOBIS_P_THRESHOLD")
	envOverrideFloat(&cfg.Screener.VarianceThreshold, "VARIANCE_THRESHOLD")
	envOverrideFloat(&cfg.Styles.ExtremeThreshold, "EXTREME_THRESHOLD")
	envOverrideFloat(&cfg.Styles.MidpointThreshold, "MIDPOINT_THRESHOLD")
	envOverrideFloat(&cfg.Styles.AcquiescenceThreshold, "ACQUIESCENCE_THRESHOLD")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on thresholds a deployment could plausibly get wrong.
func (c Config) Validate() error {
	if c.ItemCount <= 0 {
		return fmt.Errorf("config: item_count must be positive, got %d", c.ItemCount)
	}
	if c.Screener.MinTimePerItem <= 0 {
		return fmt.Errorf("config: min_time_per_item must be positive, got %g", c.Screener.MinTimePerItem)
	}
	if c.Screener.LongstringThreshold < 2 {
		return fmt.Errorf("config: longstring_threshold must be at least 2, got %d", c.Screener.LongstringThreshold)
	}
	if c.Screener.VarianceThreshold < 0 {
		return fmt.Errorf("config: variance_threshold must be non-negative, got %g", c.Screener.VarianceThreshold)
	}
	ratios := map[string]float64{
		"correlation_threshold":   c.Screener.CorrelationThreshold,
		"mahalanobis_p_threshold": c.Screener.MahalanobisPThreshold,
		"extreme_threshold":       c.Styles.ExtremeThreshold,
		"midpoint_threshold":      c.Styles.MidpointThreshold,
		"acquiescence_threshold":  c.Styles.AcquiescenceThreshold,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s must be in [0,1], got %g", name, v)
		}
	}
	return nil
}

func envOverrideFloat(target *float64, key string) {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			*target = f
		}
	}
}

func envOverrideInt(target *int, key string) {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			*target = n
		}
	}
}
