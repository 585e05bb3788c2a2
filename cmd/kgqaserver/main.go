// Command kgqaserver runs the knowledge-graph question-answering HTTP
// service: router/debate/semantic query endpoints, the chat platform
// façade, and runtime ingestion, backed by a property-graph Postgres store.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/graphqa/kgqa/pkg/api"
	"github.com/graphqa/kgqa/pkg/chatsession"
	"github.com/graphqa/kgqa/pkg/config"
	"github.com/graphqa/kgqa/pkg/debate"
	"github.com/graphqa/kgqa/pkg/dedup"
	"github.com/graphqa/kgqa/pkg/fulltext"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/ingest"
	"github.com/graphqa/kgqa/pkg/llmclient"
	"github.com/graphqa/kgqa/pkg/ontology"
	"github.com/graphqa/kgqa/pkg/platform"
	"github.com/graphqa/kgqa/pkg/resolver"
	"github.com/graphqa/kgqa/pkg/semantic"
	"github.com/graphqa/kgqa/pkg/specialist"
	"github.com/graphqa/kgqa/pkg/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	ctx := context.Background()

	log.Printf("Starting kgqaserver")
	log.Printf("Config Directory: %s", *configDir)

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	pgCfg, err := graphdb.PostgresConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load graph database config: %v", err)
	}
	driver, err := graphdb.NewPostgresDriver(ctx, pgCfg)
	if err != nil {
		log.Fatalf("Failed to connect to graph database: %v", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Printf("Error closing graph database driver: %v", err)
		}
	}()
	log.Println("Connected to graph database")

	registry := graph.NewRegistry(cfg.Registry.Seed...)
	connector := graphdb.NewConnector(driver, registry)
	ftManager := fulltext.New(connector)

	llm := llmclient.NewHTTPClient(llmclient.HTTPConfig{
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		EmbedModel:     cfg.LLM.EmbedModel,
		APIKeyEnv:      cfg.LLM.APIKeyEnv,
		RequestTimeout: cfg.LLM.RequestTimeout,
	})

	r := resolver.New(connector, ftManager, resolver.NewOntologyHints())
	s := specialist.New(connector)
	semPipe := semantic.New(r, s)
	debateOrch := debate.New(llm)

	dedupThreshold, dedupBound := cfg.Dedup.Defaults()
	deduper := dedup.New(llm, dedupThreshold, dedupBound)
	ingestor := ingest.New(connector, ontology.New(llm), deduper, llm)

	sessions := chatsession.NewManager(cfg.ChatSession.MaxTurns)
	facade := platform.New(sessions, connector, registry, llm, debateOrch, semPipe, 0)

	auditStore := initAuditStore(ctx, *configDir)
	if auditStore != nil {
		defer func() {
			if err := auditStore.Close(); err != nil {
				log.Printf("Error closing audit store: %v", err)
			}
		}()
	}

	artifactsDir := filepath.Join(*configDir, "artifacts")
	fileStore, err := store.NewFileStore(auditStore, artifactsDir)
	if err != nil {
		log.Fatalf("Failed to initialize artifact file store: %v", err)
	}

	log.Println("Services initialized")

	server := api.NewServer(cfg, registry, connector, llm, 0, debateOrch, semPipe, ftManager, ingestor, facade, auditStore, fileStore)

	addr := ":" + getEnv("HTTP_PORT", "8080")
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("Health check available at: http://localhost%s/health", addr)
	if err := server.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initAuditStore opens the optional Postgres-backed audit store
// (pkg/store), gated on ENABLE_AUDIT_STORE so a dev environment without a
// second Postgres instance can still run the service — operational
// audit rows are additive, not required for request handling.
func initAuditStore(ctx context.Context, configDir string) *store.Store {
	if getEnv("ENABLE_AUDIT_STORE", "") != "true" {
		log.Println("Audit store disabled (set ENABLE_AUDIT_STORE=true to enable)")
		return nil
	}

	auditCfg, err := store.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load audit store config: %v", err)
	}
	auditStore, err := store.New(ctx, auditCfg)
	if err != nil {
		log.Fatalf("Failed to connect to audit store: %v", err)
	}
	log.Println("Connected to audit store")

	return auditStore
}
