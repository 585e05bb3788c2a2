package api

import (
	"github.com/graphqa/kgqa/pkg/ingest"
	"github.com/graphqa/kgqa/pkg/platform"
	"github.com/graphqa/kgqa/pkg/semantic"
)

// RunAgentRequest is the body of POST /run_agent and POST /run_debate
// (spec.md §6: "same input").
type RunAgentRequest struct {
	Query       string `json:"query" binding:"required"`
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id" binding:"required"`
}

// RunAgentSemanticRequest is the body of POST /run_agent_semantic.
type RunAgentSemanticRequest struct {
	Query           string              `json:"query" binding:"required"`
	WorkspaceID     string              `json:"workspace_id" binding:"required"`
	Databases       []string            `json:"databases,omitempty"`
	EntityOverrides []semantic.Override `json:"entity_overrides,omitempty"`
}

// ChatSendRequest is the body of POST /platform/chat/send.
type ChatSendRequest struct {
	SessionID       string              `json:"session_id,omitempty"`
	Message         string              `json:"message" binding:"required"`
	Mode            platform.Mode       `json:"mode" binding:"required"`
	WorkspaceID     string              `json:"workspace_id" binding:"required"`
	Databases       []string            `json:"databases,omitempty"`
	EntityOverrides []semantic.Override `json:"entity_overrides,omitempty"`
}

// IngestRawRequest is the body of POST /platform/ingest/raw.
type IngestRawRequest struct {
	WorkspaceID    string          `json:"workspace_id" binding:"required"`
	TargetDatabase string          `json:"target_database" binding:"required"`
	Records        []ingest.Record `json:"records" binding:"required"`
}

// FulltextEnsureRequest is the body of POST /indexes/fulltext/ensure.
type FulltextEnsureRequest struct {
	WorkspaceID string   `json:"workspace_id" binding:"required"`
	Databases   []string `json:"databases" binding:"required"`
	IndexName   string   `json:"index_name,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Properties  []string `json:"properties,omitempty"`
}
