package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// fileName is the single YAML configuration file this service reads:
// registry seed, rule-profile defaults, relatedness threshold, dedup
// settings, chat-session turn cap, LLM client settings, and server
// settings. Retry timings are not read from it.
const fileName = "kgqa.yaml"

// Initialize loads kgqa.yaml and .env from configDir, merges the parsed
// YAML onto the built-in defaults, validates the result, and returns a
// ready-to-use Config. This is the primary entry point, mirroring the
// teacher's config.Initialize.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("component", "config", "config_dir", configDir)
	log.Info("initializing configuration")

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		log.Info("loaded environment file", "path", envPath)
	}

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"databases", stats.DatabaseSeedCount,
		"rule_completeness_min", stats.RuleCompleteness,
		"relatedness_threshold", stats.RelatednessThresh,
		"dedup_threshold", stats.DedupThreshold)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	cfg := &Config{configDir: configDir, yamlConfig: builtin()}

	user, err := loadYAML(configDir)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return cfg, nil
	}

	// Non-zero fields in user override the built-in defaults — the same
	// dario.cat/mergo.WithOverride idiom the teacher's loader uses for its
	// scalar config sections (Defaults, Queue). A non-empty Registry.Seed
	// replaces the (empty) built-in list wholesale rather than appending.
	if err := mergo.Merge(&cfg.yamlConfig, user, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge user configuration: %w", err)
	}
	return cfg, nil
}

// loadYAML reads and parses kgqa.yaml from configDir, returning (nil, nil)
// when the file is absent — an absent user file is not an error, the
// built-in defaults are a complete, runnable configuration on their own.
func loadYAML(configDir string) (*yamlConfig, error) {
	path := filepath.Join(configDir, fileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, NewLoadError(fileName, err)
	}

	data = ExpandEnv(data)

	var parsed yamlConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, NewLoadError(fileName, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	return &parsed, nil
}
