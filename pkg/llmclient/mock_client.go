package llmclient

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"strings"
)

// MockClient is a deterministic Client, so the ontology/rule-profile passes
// and dedup embeddings are exercisable without a live provider. It is
// constructed directly by callers; cmd/kgqaserver always uses HTTPClient,
// and no environment variable switches the server to MockClient. Every call is a pure function
// of its input: same text in, same response out.
type MockClient struct {
	// Responses, if set, is consulted before the built-in fallback: a
	// caller can seed deterministic fixtures keyed on the user prompt.
	Responses map[string]map[string]any
}

// NewMockClient builds a MockClient with no seeded fixtures.
func NewMockClient() *MockClient {
	return &MockClient{Responses: make(map[string]map[string]any)}
}

// Seed registers a fixed response for an exact user prompt.
func (m *MockClient) Seed(userPrompt string, response map[string]any) {
	m.Responses[userPrompt] = response
}

// CompleteJSON implements Client. Absent a seeded fixture, it returns a
// minimal well-formed envelope so callers that only check for structural
// validity (rather than semantic content) still exercise their downstream
// parsing path.
func (m *MockClient) CompleteJSON(_ context.Context, _, user string) (map[string]any, error) {
	if resp, ok := m.Responses[user]; ok {
		return resp, nil
	}
	return map[string]any{
		"entities":     []any{},
		"relationships": []any{},
		"notes":        "mock completion: no fixture seeded for this prompt",
	}, nil
}

// Embed implements Client with a deterministic, content-derived vector:
// the MD5 digest of text is expanded into a fixed-length float vector so
// identical strings always embed identically and distinct strings embed
// distinctly (sufficient for dedup's cosine-similarity threshold logic
// without a live embedding model).
func (m *MockClient) Embed(_ context.Context, text string) ([]float64, error) {
	const dims = 16
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := md5.Sum([]byte(normalized))

	vec := make([]float64, dims)
	for i := 0; i < dims; i++ {
		shiftedSum := md5.Sum(append(sum[:], byte(i)))
		byteIdx := i % (len(shiftedSum) - 4)
		v := binary.BigEndian.Uint32(shiftedSum[byteIdx : byteIdx+4])
		vec[i] = float64(v%1000) / 1000.0
	}
	return vec, nil
}
