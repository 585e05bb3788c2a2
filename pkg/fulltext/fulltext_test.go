package fulltext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
)

func TestManager_Ensure_CreatedThenExists(t *testing.T) {
	driver := graphdb.NewMemDriver()
	registry := graph.NewRegistry("kgnormal")
	m := New(graphdb.NewConnector(driver, registry))
	ctx := context.Background()

	created, exists, err := m.Ensure(ctx, "kgnormal", "by_name", []string{"Technology"}, []string{"name"}, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, exists)

	// Idempotent: calling again finds it already present, creates nothing new.
	created, exists, err = m.Ensure(ctx, "kgnormal", "by_name", []string{"Technology"}, []string{"name"}, true)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, exists)
}

func TestManager_Ensure_LegacyFallbackOnDDLFailure(t *testing.T) {
	driver := graphdb.NewMemDriver()
	driver.ForceDDLFailureOnce("kgnormal", "by_title")
	registry := graph.NewRegistry("kgnormal")
	m := New(graphdb.NewConnector(driver, registry))

	created, exists, err := m.Ensure(context.Background(), "kgnormal", "by_title", []string{"Document"}, []string{"title"}, true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, exists)
}

func TestManager_List_UnionsCatalogProbes(t *testing.T) {
	driver := graphdb.NewMemDriver()
	driver.SeedIndex("kgnormal", graphdb.IndexInfo{Name: "by_name", Labels: []string{"Technology"}, Properties: []string{"name"}})
	registry := graph.NewRegistry("kgnormal")
	m := New(graphdb.NewConnector(driver, registry))

	indexes, err := m.List(context.Background(), "kgnormal")
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Equal(t, "by_name", indexes[0].Name)
}
