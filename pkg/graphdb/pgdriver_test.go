package graphdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/graphqa/kgqa/pkg/graph"
)

func newTestPostgresDriver(t *testing.T) *PostgresDriver {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("kgqa_test"),
		postgres.WithUsername("kgqa"),
		postgres.WithPassword("kgqa"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := PostgresConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "kgqa",
		Password:        "kgqa",
		Database:        "kgqa_test",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	}

	driver, err := NewPostgresDriver(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	return driver
}

func TestPostgresDriver_LoadAndNeighbors(t *testing.T) {
	driver := newTestPostgresDriver(t)
	ctx := context.Background()

	payload := graph.Payload{
		Nodes: []graph.Node{
			{ID: "n1", Label: "Person", Properties: map[string]any{"name": "Ada Lovelace"}},
			{ID: "n2", Label: "Organization", Properties: map[string]any{"name": "Analytical Engine Co"}},
		},
		Relationships: []graph.Relationship{
			{SourceID: "n1", TargetID: "n2", Type: "WORKS_AT", Properties: map[string]any{}},
		},
	}
	require.NoError(t, driver.Load(ctx, "graphdb_test", "src-1", payload))

	rows, err := driver.Execute(ctx, "graphdb_test", QuerySpec{
		Kind:   KindNeighbors,
		Params: map[string]any{"node_id": "n1", "limit": 10},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada Lovelace", rows[0]["entity_name"])

	countRows, err := driver.Execute(ctx, "graphdb_test", QuerySpec{Kind: KindLabelCount})
	require.NoError(t, err)
	assert.Len(t, countRows, 2)
}

func TestPostgresDriver_IndexLifecycle(t *testing.T) {
	driver := newTestPostgresDriver(t)
	ctx := context.Background()

	exists, err := driver.Execute(ctx, "graphdb_test", QuerySpec{Kind: KindIndexExists, Params: map[string]any{"name": "by_name"}})
	require.NoError(t, err)
	assert.Empty(t, exists)

	_, err = driver.Execute(ctx, "graphdb_test", QuerySpec{
		Kind: KindCreateIndexDDL,
		Params: map[string]any{
			"name":       "by_name",
			"labels":     []string{"Person"},
			"properties": []string{"name"},
		},
	})
	require.NoError(t, err)

	exists, err = driver.Execute(ctx, "graphdb_test", QuerySpec{Kind: KindIndexExists, Params: map[string]any{"name": "by_name"}})
	require.NoError(t, err)
	require.Len(t, exists, 1)
	assert.ElementsMatch(t, []string{"Person"}, exists[0]["labels"])
}

func TestPostgresConfig_Validate(t *testing.T) {
	t.Setenv("GRAPH_DB_HOST", "localhost")
	t.Setenv("GRAPH_DB_PASSWORD", "secret")
	t.Setenv("GRAPH_DB_MAX_OPEN_CONNS", "5")
	t.Setenv("GRAPH_DB_MAX_IDLE_CONNS", "10")

	_, err := PostgresConfigFromEnv()
	assert.Error(t, err, "idle conns exceeding open conns should be rejected")
}
