package graphdb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
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

	"github.com/graphqa/kgqa/pkg/graph"
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresConfig holds connection settings for PostgresDriver, mirroring
// the teacher's database.Config (pkg/database/config.go) pool-tuning knobs.
type PostgresConfig struct {
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

// PostgresConfigFromEnv loads PostgresConfig from GRAPH_DB_* environment
// variables with production-ready defaults, mirroring
// database.LoadConfigFromEnv.
func PostgresConfigFromEnv() (PostgresConfig, error) {
	port, err := strconv.Atoi(getenv("GRAPH_DB_PORT", "5432"))
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("invalid GRAPH_DB_PORT: %w", err)
	}
	maxOpen, _ := strconv.Atoi(getenv("GRAPH_DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getenv("GRAPH_DB_MAX_IDLE_CONNS", "10"))
	maxLifetime, err := time.ParseDuration(getenv("GRAPH_DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("invalid GRAPH_DB_CONN_MAX_LIFETIME: %w", err)
	}
	maxIdleTime, err := time.ParseDuration(getenv("GRAPH_DB_CONN_MAX_IDLE_TIME", "15m"))
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("invalid GRAPH_DB_CONN_MAX_IDLE_TIME: %w", err)
	}

	cfg := PostgresConfig{
		Host:            getenv("GRAPH_DB_HOST", "localhost"),
		Port:            port,
		User:            getenv("GRAPH_DB_USER", "kgqa"),
		Password:        os.Getenv("GRAPH_DB_PASSWORD"),
		Database:        getenv("GRAPH_DB_NAME", "kgqa"),
		SSLMode:         getenv("GRAPH_DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: maxLifetime,
		ConnMaxIdleTime: maxIdleTime,
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		return PostgresConfig{}, fmt.Errorf("GRAPH_DB_MAX_IDLE_CONNS (%d) cannot exceed GRAPH_DB_MAX_OPEN_CONNS (%d)", cfg.MaxIdleConns, cfg.MaxOpenConns)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// PostgresDriver implements Driver and Loader backed by a property-graph
// schema on Postgres, reached through the pgx stdlib driver, with schema
// managed by golang-migrate (spec.md §1: the real graph-database engine is
// out of scope; this is the concrete, swappable Driver the rest of the
// system is built against).
type PostgresDriver struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresDriver opens a connection pool and applies pending migrations.
func NewPostgresDriver(ctx context.Context, cfg PostgresConfig) (*PostgresDriver, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph store: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping graph store: %w", err)
	}

	if err := runMigrations(db, cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run graph store migrations: %w", err)
	}

	return &PostgresDriver{db: db, log: slog.With("component", "postgres_driver")}, nil
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
func (p *PostgresDriver) Close() error { return p.db.Close() }

// wrapTransient classifies a raw sql error as transient (connection-level)
// vs. a plain data/syntax error the caller should not retry.
func wrapTransient(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection reset", "broken pipe", "connection refused", "i/o timeout", "context deadline exceeded", "server closed the connection"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
	}
	return err
}

// Execute implements Driver.
func (p *PostgresDriver) Execute(ctx context.Context, database string, spec QuerySpec) ([]Row, error) {
	switch spec.Kind {
	case KindCatalogIndexesPrimary, KindCatalogIndexesFallback:
		return p.listIndexes(ctx, database)
	case KindIndexExists:
		name, _ := spec.Params["name"].(string)
		return p.indexExists(ctx, database, name)
	case KindCreateIndexDDL, KindCreateIndexLegacy:
		return p.createIndex(ctx, database, spec)
	case KindNeighbors:
		return p.neighbors(ctx, database, spec)
	case KindResourceLookup:
		return p.resourceLookup(ctx, database, spec)
	case KindLabelCount:
		return p.labelCount(ctx, database)
	case KindFulltextSearch:
		return p.fulltextSearch(ctx, database, spec)
	case KindContainsSearch:
		return p.containsSearch(ctx, database, spec)
	case KindEntityNames:
		return p.entityNames(ctx, database)
	default:
		return nil, fmt.Errorf("unsupported query kind: %s", spec.Kind)
	}
}

func (p *PostgresDriver) listIndexes(ctx context.Context, database string) ([]Row, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name, labels, properties FROM graph_indexes WHERE database = $1`, database)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var name string
		var labels, properties []string
		if err := rows.Scan(&name, (*stringArray)(&labels), (*stringArray)(&properties)); err != nil {
			return nil, err
		}
		out = append(out, Row{"name": name, "labels": labels, "properties": properties})
	}
	return out, rows.Err()
}

func (p *PostgresDriver) indexExists(ctx context.Context, database, name string) ([]Row, error) {
	row := p.db.QueryRowContext(ctx, `SELECT name, labels, properties FROM graph_indexes WHERE database = $1 AND name = $2`, database, name)
	var n string
	var labels, properties []string
	if err := row.Scan(&n, (*stringArray)(&labels), (*stringArray)(&properties)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapTransient(err)
	}
	return []Row{{"name": n, "labels": labels, "properties": properties}}, nil
}

func (p *PostgresDriver) createIndex(ctx context.Context, database string, spec QuerySpec) ([]Row, error) {
	name, _ := spec.Params["name"].(string)
	labels := toStringSlice(spec.Params["labels"])
	properties := toStringSlice(spec.Params["properties"])
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO graph_indexes (database, name, labels, properties) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (database, name) DO UPDATE SET labels = EXCLUDED.labels, properties = EXCLUDED.properties`,
		database, name, stringArray(labels), stringArray(properties))
	if err != nil {
		return nil, wrapTransient(err)
	}
	return []Row{{"created": true}}, nil
}

func (p *PostgresDriver) neighbors(ctx context.Context, database string, spec QuerySpec) ([]Row, error) {
	nodeID, _ := spec.Params["node_id"].(string)
	limit, _ := spec.Params["limit"].(int)
	if limit <= 0 {
		limit = 10
	}

	entityName, err := p.displayName(ctx, database, nodeID)
	if err != nil {
		return nil, err
	}
	if entityName == "" {
		return nil, nil
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT r.type, other.id, other.label, other.properties
		FROM graph_relationships r
		JOIN graph_nodes other ON other.database = $1
			AND other.id = CASE WHEN r.source_id = $2 THEN r.target_id ELSE r.source_id END
		WHERE r.database = $1 AND (r.source_id = $2 OR r.target_id = $2)
		LIMIT $3`, database, nodeID, limit)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var relType, otherID, otherLabel string
		var propsJSON []byte
		if err := rows.Scan(&relType, &otherID, &otherLabel, &propsJSON); err != nil {
			return nil, err
		}
		props := map[string]any{}
		_ = json.Unmarshal(propsJSON, &props)
		name := otherID
		if v, ok := props["name"].(string); ok && v != "" {
			name = v
		}
		out = append(out, Row{
			"entity_id":     nodeID,
			"entity_name":   entityName,
			"type":          relType,
			"target":        otherID,
			"target_name":   name,
			"target_labels": []string{otherLabel},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (p *PostgresDriver) displayName(ctx context.Context, database, nodeID string) (string, error) {
	row := p.db.QueryRowContext(ctx, `SELECT properties FROM graph_nodes WHERE database = $1 AND id = $2`, database, nodeID)
	var propsJSON []byte
	if err := row.Scan(&propsJSON); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", wrapTransient(err)
	}
	props := map[string]any{}
	_ = json.Unmarshal(propsJSON, &props)
	if v, ok := props["name"].(string); ok && v != "" {
		return v, nil
	}
	return nodeID, nil
}

func (p *PostgresDriver) resourceLookup(ctx context.Context, database string, spec QuerySpec) ([]Row, error) {
	nodeID, _ := spec.Params["node_id"].(string)
	row := p.db.QueryRowContext(ctx, `SELECT id, label, properties FROM graph_nodes WHERE database = $1 AND id = $2`, database, nodeID)
	var id, label string
	var propsJSON []byte
	if err := row.Scan(&id, &label, &propsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapTransient(err)
	}
	props := map[string]any{}
	_ = json.Unmarshal(propsJSON, &props)
	uri, _ := props["uri"].(string)
	name := id
	if v, ok := props["name"].(string); ok && v != "" {
		name = v
	}
	return []Row{{"id": id, "label": label, "uri": uri, "name": name}}, nil
}

func (p *PostgresDriver) labelCount(ctx context.Context, database string) ([]Row, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM graph_nodes WHERE database = $1 GROUP BY label ORDER BY label`, database)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		out = append(out, Row{"label": label, "count": count})
	}
	return out, rows.Err()
}

func (p *PostgresDriver) entityNames(ctx context.Context, database string) ([]Row, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, COALESCE(properties->>'name', id) FROM graph_nodes WHERE database = $1`, database)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, Row{"id": id, "name": name})
	}
	return out, rows.Err()
}

func (p *PostgresDriver) fulltextSearch(ctx context.Context, database string, spec QuerySpec) ([]Row, error) {
	indexName, _ := spec.Params["index"].(string)
	text, _ := spec.Params["text"].(string)
	limit, _ := spec.Params["limit"].(int)
	if limit <= 0 {
		limit = 10
	}

	var labels, properties []string
	row := p.db.QueryRowContext(ctx, `SELECT labels, properties FROM graph_indexes WHERE database = $1 AND name = $2`, database, indexName)
	if err := row.Scan((*stringArray)(&labels), (*stringArray)(&properties)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapTransient(err)
	}

	return p.searchProperties(ctx, database, labels, properties, text, limit, 0.6)
}

func (p *PostgresDriver) containsSearch(ctx context.Context, database string, spec QuerySpec) ([]Row, error) {
	properties := toStringSlice(spec.Params["properties"])
	text, _ := spec.Params["text"].(string)
	limit, _ := spec.Params["limit"].(int)
	if limit <= 0 {
		limit = 10
	}
	return p.searchProperties(ctx, database, nil, properties, text, limit, 0.4)
}

func (p *PostgresDriver) searchProperties(ctx context.Context, database string, labels, properties []string, text string, limit int, score float64) ([]Row, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, label, properties FROM graph_nodes WHERE database = $1`, database)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	text = strings.ToLower(text)
	var out []Row
	for rows.Next() {
		var id, label string
		var propsJSON []byte
		if err := rows.Scan(&id, &label, &propsJSON); err != nil {
			return nil, err
		}
		if len(labels) > 0 && !labelInSet(label, labels) {
			continue
		}
		props := map[string]any{}
		_ = json.Unmarshal(propsJSON, &props)
		for _, prop := range properties {
			v, ok := props[prop].(string)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(v), text) {
				s := score
				if strings.EqualFold(v, text) {
					s = 1.0
				}
				out = append(out, Row{"node_id": id, "label": label, "display_name": v, "score": s})
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// Load implements Loader: upserts nodes and appends relationships under
// sourceID, tagging each node's properties with _source_id.
func (p *PostgresDriver) Load(ctx context.Context, database, sourceID string, payload graph.Payload) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapTransient(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range payload.Nodes {
		props := map[string]any{}
		for k, v := range n.Properties {
			props[k] = v
		}
		props["_source_id"] = sourceID
		propsJSON, err := json.Marshal(props)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO graph_nodes (database, id, label, properties, source_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (database, id) DO UPDATE SET label = EXCLUDED.label, properties = EXCLUDED.properties, source_id = EXCLUDED.source_id`,
			database, n.ID, n.Label, propsJSON, sourceID); err != nil {
			return wrapTransient(err)
		}
	}

	for _, r := range payload.Relationships {
		propsJSON, err := json.Marshal(r.Properties)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO graph_relationships (database, source_id, target_id, type, properties)
			VALUES ($1, $2, $3, $4, $5)`,
			database, r.SourceID, r.TargetID, r.Type, propsJSON); err != nil {
			return wrapTransient(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapTransient(err)
	}
	return nil
}
