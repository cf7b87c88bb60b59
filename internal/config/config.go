// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

// Package config loads and validates the engine configuration.
//
// Configuration is merged from three layers, later layers overriding
// earlier ones: built-in defaults, a YAML config file, and environment
// variables prefixed CONTRIBMATCH_ (nesting with underscores, e.g.
// CONTRIBMATCH_SERVER_PORT).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/contribmatch/config.yaml",
	"/etc/contribmatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "CONTRIBMATCH_"

// Config is the root engine configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Cache     CacheConfig     `koanf:"cache"`
	Training  TrainingConfig  `koanf:"training"`
	Embedding EmbeddingConfig `koanf:"embedding"`
}

// ServerConfig configures the HTTP listener for health and metrics.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the BadgerDB store.
type DatabaseConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory runs the store without persistence; for tests and
	// ephemeral deployments.
	InMemory bool `koanf:"in_memory"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ScoringConfig configures the rule-based scorer and the hybrid blend.
type ScoringConfig struct {
	// SkillWeight is the weight of the skill-match percentage.
	SkillWeight float64 `koanf:"skill_weight"`

	// CodeFocusBonus multiplies totals for bug/feature/refactoring issues.
	CodeFocusBonus float64 `koanf:"code_focus_bonus"`

	// MLWeight scales the classifier adjustment into the total.
	MLWeight float64 `koanf:"ml_weight"`

	// ConfidenceFloor is the classifier confidence dead-zone boundary.
	ConfidenceFloor float64 `koanf:"confidence_floor"`

	// BatchPageSize is the batch-scoring page size.
	BatchPageSize int `koanf:"batch_page_size"`

	// BatchParallelism bounds concurrent scoring workers per page.
	BatchParallelism int `koanf:"batch_parallelism"`

	// TopMatchesTTL is the ranked-listing cache TTL.
	TopMatchesTTL time.Duration `koanf:"top_matches_ttl"`
}

// CacheConfig configures the model cache tiers.
type CacheConfig struct {
	ModelMemoryTTL time.Duration `koanf:"model_memory_ttl"`
	ModelSharedTTL time.Duration `koanf:"model_shared_ttl"`
}

// TrainingConfig configures training gates and defaults.
type TrainingConfig struct {
	MinExamples         int   `koanf:"min_examples"`
	RecommendedExamples int   `koanf:"recommended_examples"`
	TopFeatures         int   `koanf:"top_features"`
	TuneIterations      int   `koanf:"tune_iterations"`
	Seed                int64 `koanf:"seed"`
}

// EmbeddingConfig configures the optional embedding provider used for
// advanced features.
type EmbeddingConfig struct {
	// Enabled turns on embedding features. When false, embedding feature
	// slots are zero.
	Enabled bool `koanf:"enabled"`

	// URL is the embedding service endpoint.
	URL string `koanf:"url"`

	// Model is the embedding model name, part of embedding cache keys.
	Model string `koanf:"model"`

	// RequestsPerSecond limits calls to the embedding service.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size.
	Burst int `koanf:"burst"`

	// Timeout bounds a single embedding call.
	Timeout time.Duration `koanf:"timeout"`

	// CacheSize is the per-issue embedding LRU capacity.
	CacheSize int `koanf:"cache_size"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8475,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:     "/data/contribmatch",
			InMemory: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scoring: ScoringConfig{
			SkillWeight:      40,
			CodeFocusBonus:   1.10,
			MLWeight:         0.45,
			ConfidenceFloor:  0.7,
			BatchPageSize:    100,
			BatchParallelism: 4,
			TopMatchesTTL:    5 * time.Minute,
		},
		Cache: CacheConfig{
			ModelMemoryTTL: 1 * time.Minute,
			ModelSharedTTL: 10 * time.Minute,
		},
		Training: TrainingConfig{
			MinExamples:         8,
			RecommendedExamples: 200,
			TopFeatures:         100,
			TuneIterations:      20,
			Seed:                42,
		},
		Embedding: EmbeddingConfig{
			Enabled:           false,
			Model:             "all-MiniLM-L6-v2",
			RequestsPerSecond: 10,
			Burst:             5,
			Timeout:           5 * time.Second,
			CacheSize:         4096,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it. path may be empty, in which
// case CONFIG_PATH and the default search paths are consulted.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if resolved := resolveConfigPath(path); resolved != "" {
		if err := k.Load(file.Provider(resolved), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", resolved, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", envTransform), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envTransform maps environment variable names to koanf config paths. All
// sections are single words, so the first underscore separates the section
// from the field and later underscores belong to the field name.
//
// Examples:
//   - CONTRIBMATCH_SERVER_PORT -> server.port
//   - CONTRIBMATCH_DATABASE_IN_MEMORY -> database.in_memory
//   - CONTRIBMATCH_SCORING_ML_WEIGHT -> scoring.ml_weight
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// resolveConfigPath picks the config file to load: explicit path, then
// CONFIG_PATH, then the default search paths. Empty means no file.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		return envPath
	}
	for _, candidate := range DefaultConfigPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}
	if c.Scoring.MLWeight < 0 || c.Scoring.MLWeight > 1 {
		return fmt.Errorf("scoring.ml_weight must be in [0, 1], got %g", c.Scoring.MLWeight)
	}
	if c.Scoring.ConfidenceFloor < 0.5 || c.Scoring.ConfidenceFloor >= 1 {
		return fmt.Errorf("scoring.confidence_floor must be in [0.5, 1), got %g", c.Scoring.ConfidenceFloor)
	}
	if c.Training.MinExamples < 2 {
		return fmt.Errorf("training.min_examples must be at least 2, got %d", c.Training.MinExamples)
	}
	if c.Training.RecommendedExamples < c.Training.MinExamples {
		return fmt.Errorf("training.recommended_examples (%d) must be at least training.min_examples (%d)",
			c.Training.RecommendedExamples, c.Training.MinExamples)
	}
	if c.Embedding.Enabled && c.Embedding.URL == "" {
		return fmt.Errorf("embedding.url is required when embedding.enabled is set")
	}
	return nil
}
