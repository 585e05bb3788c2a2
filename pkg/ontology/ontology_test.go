package ontology

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/llmclient"
)

type erroringClient struct {
	failOn map[string]bool
}

func (e *erroringClient) CompleteJSON(_ context.Context, system, _ string) (map[string]any, error) {
	if e.failOn[system] {
		return nil, errors.New("simulated provider failure")
	}
	return map[string]any{}, nil
}

func (e *erroringClient) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("not used")
}

func TestOrchestrator_Run_FullSequenceWithSeededFixtures(t *testing.T) {
	mock := llmclient.NewMockClient()
	sourceText := "Ada Lovelace worked at the Analytical Engine Company."

	mock.Seed(sourceText, map[string]any{
		"ontology_name": "people",
		"classes": []any{
			map[string]any{"name": "Person", "description": "a person", "properties": []any{"name"}},
		},
		"relationships": []any{
			map[string]any{"type": "WORKS_AT", "source": "Person", "target": "Organization", "description": "employment"},
		},
	})

	o := New(mock)
	result, err := o.Run(context.Background(), sourceText)
	require.NoError(t, err)
	assert.Equal(t, "people", result.Ontology.OntologyName)
	assert.Len(t, result.Ontology.Classes, 1)
	assert.Empty(t, result.PassErrors)
}

func TestOrchestrator_Run_DegradesOntologyPassOnFailure(t *testing.T) {
	client := &erroringClient{failOn: map[string]bool{ontologySystemPrompt: true}}
	o := New(client)

	result, err := o.Run(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, OntologyDraft{}, result.Ontology)
	assert.Contains(t, result.PassErrors, "ontology")
}

func TestOrchestrator_Run_FailsWhenEntityGraphPassErrors(t *testing.T) {
	client := &erroringClient{failOn: map[string]bool{entityGraphSystemPrompt: true}}
	o := New(client)

	_, err := o.Run(context.Background(), "some text")
	assert.Error(t, err)
}
