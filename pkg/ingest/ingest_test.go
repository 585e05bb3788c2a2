package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/graphdb"
)

// stubLinker always links any extracted name to the one existing id it was
// constructed with, regardless of prompt content — exercising the LM
// linking path without depending on the exact rendered prompt text.
type stubLinker struct {
	existingID string
}

func (s *stubLinker) CompleteJSON(_ context.Context, _, user string) (map[string]any, error) {
	links := map[string]any{}
	if strings.Contains(user, s.existingID) {
		links["Ada Lovelace"] = s.existingID
	}
	return map[string]any{"links": links}, nil
}

func (s *stubLinker) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("not used")
}

func newTestConnector() (*graphdb.Connector, *graphdb.MemDriver) {
	driver := graphdb.NewMemDriver()
	registry := graph.NewRegistry("kg1")
	return graphdb.NewConnector(driver, registry), driver
}

func TestIngest_FallbackExtractionSucceedsWithoutOrchestrator(t *testing.T) {
	connector, _ := newTestConnector()
	ing := New(connector, nil, nil, nil)

	records := []Record{{SourceType: SourceText, Content: "Ada Lovelace worked with Charles Babbage."}}
	summary, err := ing.Ingest(context.Background(), "kg1", records, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccessWithFallback, summary.Status)
	assert.Equal(t, 1, summary.Loaded)
	assert.Equal(t, 0, summary.Failed)
	assert.True(t, summary.UsedFallback)
	require.Len(t, summary.Outcomes, 1)
	assert.True(t, summary.Outcomes[0].Loaded)

	names, err := connector.EntityNames(context.Background(), "kg1")
	require.NoError(t, err)
	assert.Contains(t, names, "Ada Lovelace")
	assert.Contains(t, names, "Charles Babbage")
}

func TestIngest_ParseFailureIsRecordedPerRecordNotFatal(t *testing.T) {
	connector, _ := newTestConnector()
	ing := New(connector, nil, nil, nil)

	records := []Record{
		{SourceType: SourcePDF, Content: "not valid base64!!"},
		{SourceType: SourceText, Content: "Grace Hopper wrote a compiler."},
	}
	summary, err := ing.Ingest(context.Background(), "kg1", records, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusPartialSuccess, summary.Status)
	assert.Equal(t, 1, summary.Loaded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Outcomes, 2)
	assert.NotEmpty(t, summary.Outcomes[0].Error)
	assert.True(t, summary.Outcomes[1].Loaded)
}

func TestIngest_AllRecordsFailYieldsFailedStatus(t *testing.T) {
	connector, _ := newTestConnector()
	ing := New(connector, nil, nil, nil)

	records := []Record{{SourceType: "unknown", Content: "x"}}
	summary, err := ing.Ingest(context.Background(), "kg1", records, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, summary.Status)
	assert.Equal(t, 0, summary.Loaded)
	assert.Equal(t, 1, summary.Failed)
}

func TestIngest_RelatednessLinksNewMentionToExistingEntity(t *testing.T) {
	connector, driver := newTestConnector()
	driver.SeedNodes("kg1", graph.Node{ID: "existing_ada", Label: "Person", Properties: map[string]any{"name": "Ada Lovelace"}})

	ing := New(connector, nil, nil, nil)
	records := []Record{{SourceType: SourceText, Content: "Ada Lovelace collaborated with Charles Babbage."}}
	summary, err := ing.Ingest(context.Background(), "kg1", records, Options{RelatednessThreshold: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Loaded)

	names, err := connector.EntityNames(context.Background(), "kg1")
	require.NoError(t, err)
	count := 0
	for _, n := range names {
		if n == "Ada Lovelace" {
			count++
		}
	}
	assert.Equal(t, 1, count, "Ada Lovelace should not be duplicated once linked to the existing node")
}

func TestIngest_LMLinkerResolvesMentionDeterministicMatchingWouldMiss(t *testing.T) {
	connector, driver := newTestConnector()
	driver.SeedNodes("kg1", graph.Node{ID: "existing_ada", Label: "Person", Properties: map[string]any{"name": "A. Lovelace"}})

	ing := New(connector, nil, nil, &stubLinker{existingID: "existing_ada"})
	records := []Record{{SourceType: SourceText, Content: "Ada Lovelace collaborated with Charles Babbage."}}
	// RelatednessThreshold 0 clears the gate on ratio alone (no lowercase
	// overlap exists between "Ada Lovelace" and "A. Lovelace"), so linking
	// is decided entirely by the LM linker, not the deterministic fallback.
	summary, err := ing.Ingest(context.Background(), "kg1", records, Options{RelatednessThreshold: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Loaded)

	names, err := connector.EntityNames(context.Background(), "kg1")
	require.NoError(t, err)
	count := 0
	for _, n := range names {
		if n == "A. Lovelace" {
			count++
		}
	}
	assert.Equal(t, 1, count, "Ada Lovelace should have been linked onto the existing A. Lovelace node by the LM linker")
}

func TestIngest_CSVRecordIsParsedIntoRowText(t *testing.T) {
	connector, _ := newTestConnector()
	ing := New(connector, nil, nil, nil)

	csvContent := "name,role\nAda Lovelace,Mathematician\n"
	records := []Record{{SourceType: SourceCSV, Content: csvContent}}
	summary, err := ing.Ingest(context.Background(), "kg1", records, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Loaded)
}

func TestIngest_PDFRecordDecodesBase64BeforeExtraction(t *testing.T) {
	connector, _ := newTestConnector()
	ing := New(connector, nil, nil, nil)

	encoded := base64.StdEncoding.EncodeToString([]byte("no pdf structure here"))
	records := []Record{{SourceType: SourcePDF, Content: encoded}}
	summary, err := ing.Ingest(context.Background(), "kg1", records, DefaultOptions())
	require.NoError(t, err)
	// No recoverable content streams; extraction still succeeds with an
	// (empty) Document node rather than failing the record.
	assert.Equal(t, 1, summary.Loaded)
}
