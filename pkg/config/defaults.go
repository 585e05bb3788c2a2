package config

import (
	"time"

	"github.com/graphqa/kgqa/pkg/chatsession"
	"github.com/graphqa/kgqa/pkg/rules"
)

// builtin returns the built-in Config, mirroring the teacher's
// GetBuiltinConfig: every value a user's kgqa.yaml can override, pre-filled
// with safe working defaults so an empty or partial YAML file still
// produces a runnable service.
func builtin() yamlConfig {
	defaults := rules.DefaultThresholds()
	return yamlConfig{
		Registry: RegistryConfig{Seed: nil},
		Rules: RulesConfig{
			CompletenessMin: defaults.CompletenessMin,
			EnumMaxValues:   defaults.EnumMaxValues,
			EnumMaxRatio:    defaults.EnumMaxRatio,
		},
		Relatedness: RelatednessConfig{Threshold: 0.2},
		Dedup: DedupConfig{
			SimilarityThreshold: defaultDedupThreshold,
			CanonicalBound:      defaultDedupBound,
		},
		ChatSession: ChatSessionConfig{MaxTurns: chatsession.DefaultMaxTurns},
		LLM: LLMConfig{
			BaseURL:        "http://localhost:11434",
			Model:          "kgqa-default",
			EmbedModel:     "kgqa-embed-default",
			APIKeyEnv:      "KGQA_LLM_API_KEY",
			RequestTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Port: 8080,
			Mode: "debug",
		},
	}
}
