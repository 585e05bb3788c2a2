package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities_QuotedSpanTakesPriority(t *testing.T) {
	entities := ExtractEntities(`What does "Neo4j" connect to?`)
	assert.Contains(t, entities, "Neo4j")
}

func TestExtractEntities_CapitalizedNGram(t *testing.T) {
	entities := ExtractEntities("Tell me about Ada Lovelace and her work")
	assert.Contains(t, entities, "Ada Lovelace")
}

func TestExtractEntities_RejectsStopwords(t *testing.T) {
	entities := ExtractEntities("What is the database about?")
	for _, e := range entities {
		assert.NotEqual(t, "what", e)
		assert.NotEqual(t, "the", e)
	}
}

func TestExtractEntities_LongToken(t *testing.T) {
	entities := ExtractEntities("lookup identifier abcdefgh please")
	assert.Contains(t, entities, "abcdefgh")
}
