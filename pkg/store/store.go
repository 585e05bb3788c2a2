// Package store is the audit and artifact persistence layer for the
// knowledge-graph question-answering service (spec.md's "[ADD 4.17] Audit
// & Artifact Store"). Grounded on pkg/graphdb.PostgresDriver's connection
// and golang-migrate wiring rather than the teacher's entgo.io/ent-based
// pkg/database, since this module has no ent dependency: plain
// database/sql over the pgx stdlib driver, schema managed by embedded
// migrations.
//
// Two concerns live here:
//   - an append-only operational audit trail (ingest_runs, debate_runs)
//     recorded in Postgres;
//   - rule-profile and semantic-artifact JSON blobs, still written to disk
//     per spec.md §6, with Postgres rows indexing workspace_id/id -> path
//     so the API can page through history without re-reading the
//     filesystem on every request (files.go).
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/graphqa/kgqa/pkg/errs"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds Postgres connection settings, mirroring
// graphdb.PostgresConfig's shape.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Store persists operational audit rows and indexes on-disk JSON
// artifacts.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// ConfigFromEnv loads Config from AUDIT_DB_* environment variables with
// production-ready defaults, mirroring graphdb.PostgresConfigFromEnv.
func ConfigFromEnv() (Config, error) {
	port, err := strconv.Atoi(getenv("AUDIT_DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid AUDIT_DB_PORT: %w", err)
	}
	maxOpen, _ := strconv.Atoi(getenv("AUDIT_DB_MAX_OPEN_CONNS", "10"))
	maxIdle, _ := strconv.Atoi(getenv("AUDIT_DB_MAX_IDLE_CONNS", "5"))
	maxLifetime, err := time.ParseDuration(getenv("AUDIT_DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid AUDIT_DB_CONN_MAX_LIFETIME: %w", err)
	}
	maxIdleTime, err := time.ParseDuration(getenv("AUDIT_DB_CONN_MAX_IDLE_TIME", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid AUDIT_DB_CONN_MAX_IDLE_TIME: %w", err)
	}

	return Config{
		Host:            getenv("AUDIT_DB_HOST", "localhost"),
		Port:            port,
		User:            getenv("AUDIT_DB_USER", "kgqa"),
		Password:        os.Getenv("AUDIT_DB_PASSWORD"),
		Database:        getenv("AUDIT_DB_NAME", "kgqa_audit"),
		SSLMode:         getenv("AUDIT_DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: maxLifetime,
		ConnMaxIdleTime: maxIdleTime,
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// New opens a connection pool against cfg and applies pending migrations.
func New(ctx context.Context, cfg Config) (*Store, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindInfrastructure, "store", fmt.Errorf("failed to open audit store: %w", err))
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.KindInfrastructure, "store", fmt.Errorf("failed to ping audit store: %w", err))
	}

	if err := runMigrations(db, cfg.Database); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.KindInfrastructure, "store", fmt.Errorf("failed to run audit store migrations: %w", err))
	}

	return &Store{db: db, log: slog.With("component", "store")}, nil
}

func runMigrations(db *sql.DB, databaseName string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, databaseName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return sourceDriver.Close()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// wrapTransient classifies a raw sql error as an infrastructure error the
// caller may retry, mirroring graphdb.wrapTransient.
func wrapTransient(component string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection reset", "broken pipe", "connection refused", "i/o timeout", "context deadline exceeded", "server closed the connection"} {
		if strings.Contains(msg, marker) {
			return errs.Wrap(errs.KindInfrastructure, component, err)
		}
	}
	return err
}

// IngestRun is one row of the append-only ingest audit trail: one row per
// ingest.Ingestor.Ingest call.
type IngestRun struct {
	ID                int64
	WorkspaceID       string
	TargetDatabase    string
	Status            string
	RuleProfileID     string
	TotalRecords      int
	SucceededRecords  int
	FailedRecords     int
	WarningCount      int
	CreatedAt         time.Time
}

// RecordIngestRun appends one ingest_runs row.
func (s *Store) RecordIngestRun(ctx context.Context, run IngestRun) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ingest_runs (workspace_id, target_database, status, rule_profile_id, total_records, succeeded_records, failed_records, warning_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		run.WorkspaceID, run.TargetDatabase, run.Status, nullIfEmpty(run.RuleProfileID),
		run.TotalRecords, run.SucceededRecords, run.FailedRecords, run.WarningCount,
	).Scan(&id)
	if err != nil {
		return 0, wrapTransient("store.ingest_runs", err)
	}
	return id, nil
}

// ListIngestRuns returns the most recent ingest runs for a workspace,
// newest first.
func (s *Store) ListIngestRuns(ctx context.Context, workspaceID string, limit int) ([]IngestRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, target_database, status, COALESCE(rule_profile_id, ''), total_records, succeeded_records, failed_records, warning_count, created_at
		FROM ingest_runs WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT $2`, workspaceID, limit)
	if err != nil {
		return nil, wrapTransient("store.ingest_runs", err)
	}
	defer rows.Close()

	var out []IngestRun
	for rows.Next() {
		var r IngestRun
		if err := rows.Scan(&r.ID, &r.WorkspaceID, &r.TargetDatabase, &r.Status, &r.RuleProfileID, &r.TotalRecords, &r.SucceededRecords, &r.FailedRecords, &r.WarningCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DebateRun is one row of the append-only debate audit trail: one row per
// debate orchestration.
type DebateRun struct {
	ID               int64
	WorkspaceID      string
	Query            string
	ReadyWorkerCount int
	FinalStatus      string
	CreatedAt        time.Time
}

// RecordDebateRun appends one debate_runs row.
func (s *Store) RecordDebateRun(ctx context.Context, run DebateRun) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO debate_runs (workspace_id, query, ready_worker_count, final_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		run.WorkspaceID, run.Query, run.ReadyWorkerCount, run.FinalStatus,
	).Scan(&id)
	if err != nil {
		return 0, wrapTransient("store.debate_runs", err)
	}
	return id, nil
}

// ListDebateRuns returns the most recent debate runs for a workspace,
// newest first.
func (s *Store) ListDebateRuns(ctx context.Context, workspaceID string, limit int) ([]DebateRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, query, ready_worker_count, final_status, created_at
		FROM debate_runs WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT $2`, workspaceID, limit)
	if err != nil {
		return nil, wrapTransient("store.debate_runs", err)
	}
	defer rows.Close()

	var out []DebateRun
	for rows.Next() {
		var r DebateRun
		if err := rows.Scan(&r.ID, &r.WorkspaceID, &r.Query, &r.ReadyWorkerCount, &r.FinalStatus, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
