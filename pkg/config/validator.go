package config

import (
	"fmt"

	"github.com/graphqa/kgqa/pkg/graph"
)

// Validator runs ordered, fail-fast validation over a loaded Config,
// mirroring the teacher's pkg/config/validator.go.
type Validator struct {
	cfg *Config
}

// NewValidator builds a Validator for cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll validates in order: registry seed → rules → relatedness →
// dedup → chat session → LLM → server, stopping at the first failure.
func (v *Validator) ValidateAll() error {
	if err := v.validateRegistry(); err != nil {
		return NewValidationError("registry", err)
	}
	if err := v.validateRules(); err != nil {
		return NewValidationError("rules", err)
	}
	if err := v.validateRelatedness(); err != nil {
		return NewValidationError("relatedness", err)
	}
	if err := v.validateDedup(); err != nil {
		return NewValidationError("dedup", err)
	}
	if err := v.validateChatSession(); err != nil {
		return NewValidationError("chat_session", err)
	}
	if err := v.validateLLM(); err != nil {
		return NewValidationError("llm", err)
	}
	if err := v.validateServer(); err != nil {
		return NewValidationError("server", err)
	}
	return nil
}

// validateRegistry checks every seed name against the same pattern
// graph.Registry.Register enforces, by actually registering it — reusing
// the real validation logic rather than duplicating the regex here.
func (v *Validator) validateRegistry() error {
	r := graph.NewRegistry()
	for _, name := range v.cfg.Registry.Seed {
		if err := r.Register(name); err != nil {
			return fmt.Errorf("invalid database name %q: %w", name, err)
		}
	}
	return nil
}

func (v *Validator) validateRules() error {
	rc := v.cfg.Rules
	if rc.CompletenessMin <= 0 || rc.CompletenessMin > 1 {
		return fmt.Errorf("completeness_min must be in (0, 1], got %v", rc.CompletenessMin)
	}
	if rc.EnumMaxValues < 1 {
		return fmt.Errorf("enum_max_values must be at least 1, got %d", rc.EnumMaxValues)
	}
	if rc.EnumMaxRatio <= 0 || rc.EnumMaxRatio > 1 {
		return fmt.Errorf("enum_max_ratio must be in (0, 1], got %v", rc.EnumMaxRatio)
	}
	return nil
}

func (v *Validator) validateRelatedness() error {
	t := v.cfg.Relatedness.Threshold
	if t < 0 || t > 1 {
		return fmt.Errorf("threshold must be in [0, 1], got %v", t)
	}
	return nil
}

func (v *Validator) validateDedup() error {
	d := v.cfg.Dedup
	if d.SimilarityThreshold <= 0 || d.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1], got %v", d.SimilarityThreshold)
	}
	if d.CanonicalBound < 1 {
		return fmt.Errorf("canonical_bound must be at least 1, got %d", d.CanonicalBound)
	}
	return nil
}

func (v *Validator) validateChatSession() error {
	if v.cfg.ChatSession.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be at least 1, got %d", v.cfg.ChatSession.MaxTurns)
	}
	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM
	if l.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if l.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if l.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", l.RequestTimeout)
	}
	return nil
}

func (v *Validator) validateServer() error {
	s := v.cfg.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be in [1, 65535], got %d", s.Port)
	}
	switch s.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("mode must be one of debug, release, test, got %q", s.Mode)
	}
	return nil
}
