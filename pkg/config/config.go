// Package config loads, merges, and validates the service's static
// configuration (spec.md's "[ADD 4.18] Configuration"), grounded directly
// on the teacher's pkg/config: built-in defaults merged with a user YAML
// file via dario.cat/mergo, environment variables expanded into the YAML
// before parsing, and a Validator running ordered, fail-fast checks.
package config

import (
	"time"

	"github.com/graphqa/kgqa/pkg/dedup"
	"github.com/graphqa/kgqa/pkg/rules"
)

// yamlConfig holds every field kgqa.yaml can set. It is kept separate from
// Config (rather than Config merging itself) so the built-in/user merge
// pass in loader.go only ever sees exported fields — mergo needs settable
// reflect.Value fields, and Config carries an unexported configDir that
// must never participate in the merge.
type yamlConfig struct {
	Registry    RegistryConfig    `yaml:"registry"`
	Rules       RulesConfig       `yaml:"rules"`
	Relatedness RelatednessConfig `yaml:"relatedness"`
	Dedup       DedupConfig       `yaml:"dedup"`
	ChatSession ChatSessionConfig `yaml:"chat_session"`
	LLM         LLMConfig         `yaml:"llm"`
	Server      ServerConfig      `yaml:"server"`
}

// Config is the umbrella object Initialize returns: every component of
// the service that needs static configuration reads it from here rather
// than touching the filesystem or environment itself.
type Config struct {
	configDir string
	yamlConfig
}

// RegistryConfig seeds the process-wide database registry (C4).
type RegistryConfig struct {
	Seed []string `yaml:"seed"`
}

// RulesConfig parameterizes the Rule Engine's inference thresholds
// (spec.md §4.13).
type RulesConfig struct {
	CompletenessMin float64 `yaml:"completeness_min"`
	EnumMaxValues   int     `yaml:"enum_max_values"`
	EnumMaxRatio    float64 `yaml:"enum_max_ratio"`
}

// Thresholds converts RulesConfig to the rules package's own parameter
// struct.
func (r RulesConfig) Thresholds() rules.Thresholds {
	return rules.Thresholds{
		CompletenessMin: r.CompletenessMin,
		EnumMaxValues:   r.EnumMaxValues,
		EnumMaxRatio:    r.EnumMaxRatio,
	}
}

// RelatednessConfig parameterizes the runtime ingestor's overlap-ratio
// gate (spec.md §4.15 step 3).
type RelatednessConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// DedupConfig parameterizes the Deduplicator (C14, spec.md §4.14).
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	CanonicalBound      int     `yaml:"canonical_bound"`
}

// Defaults mirrors dedup.New's (threshold, bound) argument pair.
func (d DedupConfig) Defaults() (threshold float64, bound int) {
	return d.SimilarityThreshold, d.CanonicalBound
}

// ChatSessionConfig parameterizes the Session/Platform Façade's history
// cap (spec.md §4.16, §3).
type ChatSessionConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

// LLMConfig parameterizes the llmclient HTTP boundary (spec.md §4.2).
// Only APIKeyEnv's name lives here — never the key itself.
type LLMConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	EmbedModel     string        `yaml:"embed_model"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ServerConfig parameterizes the HTTP surface (pkg/api).
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin.SetMode value: debug, release, test
}

// Stats summarizes loaded configuration for the health endpoint, mirroring
// the teacher's ConfigStats/Config.Stats().
type Stats struct {
	DatabaseSeedCount int
	RuleCompleteness  float64
	RelatednessThresh float64
	DedupThreshold    float64
	ChatMaxTurns      int
}

// Stats returns a snapshot for GET /health.
func (c *Config) Stats() Stats {
	return Stats{
		DatabaseSeedCount: len(c.Registry.Seed),
		RuleCompleteness:  c.Rules.CompletenessMin,
		RelatednessThresh: c.Relatedness.Threshold,
		DedupThreshold:    c.Dedup.SimilarityThreshold,
		ChatMaxTurns:      c.ChatSession.MaxTurns,
	}
}

// ConfigDir returns the directory Initialize loaded this Config from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// defaultDedupThreshold/defaultDedupBound re-expose the dedup package's own
// implementation defaults so builtin() has one place to read them from
// rather than duplicating the literals.
var (
	defaultDedupThreshold = dedup.DefaultThreshold
	defaultDedupBound     = dedup.DefaultCanonicalBound
)
