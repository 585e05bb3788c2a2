package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/fulltext"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
	"github.com/graphqa/kgqa/pkg/resolver"
	"github.com/graphqa/kgqa/pkg/router"
	"github.com/graphqa/kgqa/pkg/specialist"
)

func newTestPipeline() (*Pipeline, *graphdb.MemDriver) {
	driver := graphdb.NewMemDriver()
	registry := graph.NewRegistry("kgnormal")
	connector := graphdb.NewConnector(driver, registry)
	r := resolver.New(connector, fulltext.New(connector), resolver.NewOntologyHints())
	s := specialist.New(connector)
	return New(r, s), driver
}

func TestPipeline_LPGRouteReturnsNeighborsForResolvedEntity(t *testing.T) {
	pipeline, driver := newTestPipeline()
	driver.SeedNodes("kgnormal", graph.Node{ID: "n1", Label: "Database", Properties: map[string]any{"name": "Neo4j"}})

	outcome, err := pipeline.Run(context.Background(), "what nodes are connected to Neo4j", []string{"kgnormal"}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, router.ModeLPG, outcome.Route)
	require.NotNil(t, outcome.LPG)
	assert.NotEmpty(t, outcome.TraceSteps)
}

func TestPipeline_EntityOverrideOutranksLexicalMatchAndIsRecorded(t *testing.T) {
	pipeline, driver := newTestPipeline()
	driver.SeedNodes("kgnormal", graph.Node{ID: "n1", Label: "Database", Properties: map[string]any{"name": "Neo4j"}})

	overrides := []Override{{
		QuestionEntity: "Neo4j",
		Database:       "kgnormal",
		NodeID:         "777",
		DisplayName:    "Neo4j Override",
		Labels:         []string{"Database"},
	}}

	outcome, err := pipeline.Run(context.Background(), "what nodes are connected to Neo4j", []string{"kgnormal"}, overrides, 0)
	require.NoError(t, err)

	require.Contains(t, outcome.OverridesApplied, "Neo4j")
	assert.Equal(t, "777", outcome.OverridesApplied["Neo4j"])

	var found bool
	for _, m := range outcome.Resolution.Matches {
		if m.Entity != "Neo4j" {
			continue
		}
		require.NotEmpty(t, m.Candidates)
		top := m.Candidates[0]
		assert.Equal(t, resolver.SourceOverride, top.Source)
		assert.Equal(t, 10.0, top.FinalScore)
		found = true
	}
	assert.True(t, found, "expected a match entry for the overridden entity")
}

func TestPipeline_OverrideForUnresolvedEntityPromotesItIntoMatches(t *testing.T) {
	pipeline, _ := newTestPipeline()

	overrides := []Override{{
		QuestionEntity: "Neo4j",
		Database:       "kgnormal",
		NodeID:         "777",
		DisplayName:    "Neo4j Override",
	}}

	outcome, err := pipeline.Run(context.Background(), "what nodes are connected to Neo4j", []string{"kgnormal"}, overrides, 0)
	require.NoError(t, err)

	assert.NotContains(t, outcome.Resolution.Unresolved, "Neo4j")
	var found bool
	for _, m := range outcome.Resolution.Matches {
		if m.Entity == "Neo4j" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPipeline_RDFRouteRunsOnOntologyVocabulary(t *testing.T) {
	pipeline, _ := newTestPipeline()

	outcome, err := pipeline.Run(context.Background(), "list the ontology classes", []string{"kgnormal"}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, router.ModeRDF, outcome.Route)
	require.NotNil(t, outcome.RDF)
	assert.Nil(t, outcome.LPG)
}
