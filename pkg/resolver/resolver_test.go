package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/fulltext"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
)

func newTestResolver(t *testing.T) (*Resolver, *graphdb.MemDriver) {
	t.Helper()
	driver := graphdb.NewMemDriver()
	driver.SeedNodes("kgnormal",
		graph.Node{ID: "n1", Label: "Technology", Properties: map[string]any{"name": "Neo4j"}},
		graph.Node{ID: "n2", Label: "Technology", Properties: map[string]any{"name": "Neo4j Aura"}},
	)
	driver.SeedIndex("kgnormal", graphdb.IndexInfo{Name: "by_name", Labels: []string{"Technology"}, Properties: []string{"name"}})

	registry := graph.NewRegistry("kgnormal")
	connector := graphdb.NewConnector(driver, registry)
	ft := fulltext.New(connector)
	hints := NewOntologyHints()
	return New(connector, ft, hints), driver
}

func TestResolver_Resolve_FulltextExactMatchIsConfident(t *testing.T) {
	r, _ := newTestResolver(t)
	result := r.Resolve(context.Background(), `"Neo4j" neighbors`, []string{"kgnormal"})

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, "n1", m.Candidates[0].NodeID)
	assert.True(t, m.IsConfident)
}

func TestResolver_Resolve_AliasRewrite(t *testing.T) {
	r, _ := newTestResolver(t)
	hints := r.hints
	hints.Set("the graph db", "Neo4j")

	result := r.Resolve(context.Background(), `Tell me about "the graph db"`, []string{"kgnormal"})
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Neo4j", result.AliasResolved["the graph db"])
	assert.Equal(t, "n1", result.Matches[0].Candidates[0].NodeID)
	assert.Greater(t, result.Matches[0].Candidates[0].AliasBoost, 0.0)
}

func TestResolver_Resolve_UnresolvedWhenNoMatch(t *testing.T) {
	r, _ := newTestResolver(t)
	result := r.Resolve(context.Background(), `"Nonexistent Entity"`, []string{"kgnormal"})
	assert.Contains(t, result.Unresolved, "Nonexistent Entity")
}

func TestResolver_Resolve_ContainsFallbackWhenNoIndex(t *testing.T) {
	driver := graphdb.NewMemDriver()
	driver.SeedNodes("kgalt", graph.Node{ID: "n9", Label: "Document", Properties: map[string]any{"title": "Annual Report"}})
	registry := graph.NewRegistry("kgalt")
	connector := graphdb.NewConnector(driver, registry)
	r := New(connector, fulltext.New(connector), NewOntologyHints())

	result := r.Resolve(context.Background(), `"Annual Report"`, []string{"kgalt"})
	require.Len(t, result.Matches, 1)
	assert.Equal(t, SourceContains, result.Matches[0].Candidates[0].Source)
}
