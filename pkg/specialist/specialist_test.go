package specialist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/resolver"
)

func newTestSpecialist(t *testing.T) (*Specialist, *graphdb.MemDriver) {
	t.Helper()
	driver := graphdb.NewMemDriver()
	driver.SeedNodes("kg1",
		graph.Node{ID: "n1", Label: "Person", Properties: map[string]any{"name": "Ada Lovelace"}},
		graph.Node{ID: "n2", Label: "Organization", Properties: map[string]any{"name": "Analytical Engine Co"}},
		graph.Node{ID: "n3", Label: "Resource", Properties: map[string]any{"uri": "https://example.org/n3"}},
	)
	driver.SeedRelationships("kg1", graph.Relationship{SourceID: "n1", TargetID: "n2", Type: "WORKS_AT"})
	registry := graph.NewRegistry("kg1")
	connector := graphdb.NewConnector(driver, registry)
	return New(connector), driver
}

func resolvedResult(database, nodeID, name string) resolver.Result {
	return resolver.Result{
		Matches: []resolver.EntityResolution{{
			Entity: name,
			Candidates: []resolver.CandidateMatch{
				{Database: database, NodeID: nodeID, DisplayName: name, FinalScore: 1.0},
			},
		}},
	}
}

func TestSpecialist_RunLPG_NeighborhoodQuery(t *testing.T) {
	s, _ := newTestSpecialist(t)
	result := resolvedResult("kg1", "n1", "Ada Lovelace")

	out, err := s.RunLPG(context.Background(), result, []string{"kg1"}, 10)
	require.NoError(t, err)
	require.Len(t, out.Neighbors, 1)
	assert.Equal(t, "WORKS_AT", out.Neighbors[0].RelationshipType)
	assert.False(t, out.UsedFallback)
}

func TestSpecialist_RunLPG_FallsBackToLabelCountWhenUnresolved(t *testing.T) {
	s, _ := newTestSpecialist(t)
	out, err := s.RunLPG(context.Background(), resolver.Result{}, []string{"kg1"}, 10)
	require.NoError(t, err)
	assert.True(t, out.UsedFallback)
	assert.NotEmpty(t, out.LabelCounts)
}

func TestSpecialist_RunRDF_ResourceSignatureLookup(t *testing.T) {
	s, _ := newTestSpecialist(t)
	result := resolvedResult("kg1", "n3", "n3 resource")

	out, err := s.RunRDF(context.Background(), result, []string{"kg1"})
	require.NoError(t, err)
	require.Len(t, out.Resources, 1)
	assert.Equal(t, "https://example.org/n3", out.Resources[0].URI)
}

func TestSpecialist_RunRDF_RejectsNonResourceNode(t *testing.T) {
	s, _ := newTestSpecialist(t)
	result := resolvedResult("kg1", "n2", "Analytical Engine Co")

	out, err := s.RunRDF(context.Background(), result, []string{"kg1"})
	require.NoError(t, err)
	assert.Empty(t, out.Resources)
	assert.False(t, out.UsedFallback)
}

func TestSpecialist_RunRDF_FallsBackToLabelCountWhenUnresolved(t *testing.T) {
	s, _ := newTestSpecialist(t)
	out, err := s.RunRDF(context.Background(), resolver.Result{}, []string{"kg1"})
	require.NoError(t, err)
	assert.True(t, out.UsedFallback)
}
