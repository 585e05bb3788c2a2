package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/llmclient"
)

func TestResolve_ExactNameHitReusesCanonical(t *testing.T) {
	d := New(llmclient.NewMockClient(), 0, 0)
	ctx := context.Background()

	id1, isNew1, err := d.Resolve(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.True(t, isNew1)

	id2, isNew2, err := d.Resolve(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.False(t, isNew2)
	assert.Equal(t, id1, id2)
}

func TestResolve_DistinctNamesGetDistinctCanonicals(t *testing.T) {
	d := New(llmclient.NewMockClient(), 0, 0)
	ctx := context.Background()

	id1, _, err := d.Resolve(ctx, "Ada Lovelace")
	require.NoError(t, err)
	id2, _, err := d.Resolve(ctx, "Charles Babbage")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestDeduplicator_CanonicalTableEvictsOldestOverBound(t *testing.T) {
	d := New(llmclient.NewMockClient(), 0, 2)
	ctx := context.Background()

	_, _, err := d.Resolve(ctx, "Alpha")
	require.NoError(t, err)
	_, _, err = d.Resolve(ctx, "Beta")
	require.NoError(t, err)
	_, _, err = d.Resolve(ctx, "Gamma")
	require.NoError(t, err)

	assert.Equal(t, 2, d.order.Len())
	_, stillPresent := d.elems["Alpha"]
	assert.False(t, stillPresent, "Alpha was registered first and should have been evicted")
}

func TestDedupNodes_MergesDuplicateNamesIntoOneNode(t *testing.T) {
	d := New(llmclient.NewMockClient(), 0, 0)
	nodes := []graph.Node{
		{ID: "a", Label: "Person", Properties: map[string]any{"name": "Ada Lovelace"}},
		{ID: "b", Label: "Person", Properties: map[string]any{"name": "Ada Lovelace"}},
	}

	out, remap, err := d.DedupNodes(context.Background(), nodes)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, remap["a"], remap["b"])
}

func TestDedupRelationships_DropsDuplicateTriples(t *testing.T) {
	remap := map[string]string{"a": "canonical-a", "b": "canonical-b"}
	rels := []graph.Relationship{
		{SourceID: "a", TargetID: "b", Type: "KNOWS"},
		{SourceID: "a", TargetID: "b", Type: "KNOWS"},
	}
	out := DedupRelationships(rels, remap)
	require.Len(t, out, 1)
	assert.Equal(t, "canonical-a", out[0].SourceID)
	assert.Equal(t, "canonical-b", out[0].TargetID)
}
