// Package api is the HTTP surface for the knowledge-graph question-
// answering service (spec.md §6): a gin.Engine exposing the router/debate/
// semantic query endpoints, the chat platform façade, runtime ingestion,
// and registry introspection. Grounded on the teacher's pkg/api/server.go
// for its Server-struct-plus-setupRoutes shape and per-handler-file
// layout, translated from echo/v5 to gin — the framework this module's
// go.mod actually carries.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/graphqa/kgqa/pkg/config"
	"github.com/graphqa/kgqa/pkg/debate"
	"github.com/graphqa/kgqa/pkg/fulltext"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/ingest"
	"github.com/graphqa/kgqa/pkg/llmclient"
	"github.com/graphqa/kgqa/pkg/platform"
	"github.com/graphqa/kgqa/pkg/semantic"
	"github.com/graphqa/kgqa/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	engine *gin.Engine

	cfg       *config.Config
	registry  *graph.Registry
	connector *graphdb.Connector
	llm       llmclient.Client
	memCap    int // per-request Shared Memory cache capacity (spec.md §4.3)

	debateOrch *debate.Orchestrator
	semPipe    *semantic.Pipeline
	ftManager  *fulltext.Manager
	ingestor   *ingest.Ingestor
	platform   *platform.Facade
	store      *store.Store     // nil when operational audit persistence is disabled
	files      *store.FileStore // nil when rule-profile/artifact persistence is disabled
}

// NewServer creates a new API server. auditStore and fileStore may both be
// nil: audit rows and rule-profile artifacts simply aren't recorded in that
// case, exactly as pkg/worker's MCP-health fields are nil-checked in the
// teacher's Server.
func NewServer(
	cfg *config.Config,
	registry *graph.Registry,
	connector *graphdb.Connector,
	llm llmclient.Client,
	memCap int,
	debateOrch *debate.Orchestrator,
	semPipe *semantic.Pipeline,
	ftManager *fulltext.Manager,
	ingestor *ingest.Ingestor,
	platformFacade *platform.Facade,
	auditStore *store.Store,
	fileStore *store.FileStore,
) *Server {
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		cfg:        cfg,
		registry:   registry,
		connector:  connector,
		llm:        llm,
		memCap:     memCap,
		debateOrch: debateOrch,
		semPipe:    semPipe,
		ftManager:  ftManager,
		ingestor:   ingestor,
		platform:   platformFacade,
		store:      auditStore,
		files:      fileStore,
	}

	engine.Use(requestIDMiddleware())
	engine.Use(securityHeaders())
	s.setupRoutes()
	return s
}

// Engine exposes the underlying gin.Engine, e.g. for httptest.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run starts the HTTP server on addr (e.g. ":8080").
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	readOnly := s.engine.Group("/", requireRole("admin", "user", "viewer"))
	readOnly.GET("/databases", s.listDatabasesHandler)
	readOnly.GET("/agents", s.listAgentsHandler)
	readOnly.GET("/platform/chat/session/:id", s.getChatSessionHandler)

	write := s.engine.Group("/", requireRole("admin", "user"))
	write.POST("/run_agent", s.runAgentHandler)
	write.POST("/run_debate", s.runDebateHandler)
	write.POST("/run_agent_semantic", s.runAgentSemanticHandler)
	write.POST("/platform/chat/send", s.chatSendHandler)
	write.DELETE("/platform/chat/session/:id", s.deleteChatSessionHandler)
	write.POST("/platform/ingest/raw", s.ingestRawHandler)
	write.POST("/indexes/fulltext/ensure", s.ensureFulltextIndexHandler)
}

// healthHandler handles GET /health. Unauthenticated by design, mirroring
// the teacher's healthHandler — a minimal, safe response for orchestrator
// probes.
func (s *Server) healthHandler(c *gin.Context) {
	_, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"stats":  s.cfg.Stats(),
	})
}
