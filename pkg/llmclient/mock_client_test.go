package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_EmbedDeterministic(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()

	v1, err := m.Embed(ctx, "Ada Lovelace")
	require.NoError(t, err)
	v2, err := m.Embed(ctx, "ada lovelace")
	require.NoError(t, err)
	v3, err := m.Embed(ctx, "Charles Babbage")
	require.NoError(t, err)

	assert.Equal(t, v1, v2, "normalization should make casing irrelevant")
	assert.NotEqual(t, v1, v3, "distinct strings should embed distinctly")
	assert.Len(t, v1, 16)
}

func TestMockClient_CompleteJSON_SeededFixture(t *testing.T) {
	m := NewMockClient()
	m.Seed("describe the graph", map[string]any{"entities": []any{"Ada Lovelace"}})

	out, err := m.CompleteJSON(context.Background(), "system prompt", "describe the graph")
	require.NoError(t, err)
	assert.Equal(t, []any{"Ada Lovelace"}, out["entities"])
}

func TestMockClient_CompleteJSON_Fallback(t *testing.T) {
	m := NewMockClient()
	out, err := m.CompleteJSON(context.Background(), "system prompt", "unseeded prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "notes")
}
