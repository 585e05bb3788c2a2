package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestStore(t *testing.T) *Store {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("kgqa_store_test"),
		postgres.WithUsername("kgqa"),
		postgres.WithPassword("kgqa"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := Config{
		Host:            host,
		Port:            port.Int(),
		User:            "kgqa",
		Password:        "kgqa",
		Database:        "kgqa_store_test",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	}

	s, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_RecordAndListIngestRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.RecordIngestRun(ctx, IngestRun{
		WorkspaceID:      "ws1",
		TargetDatabase:   "kgnormal",
		Status:           "success",
		RuleProfileID:    "profile-1",
		TotalRecords:     10,
		SucceededRecords: 9,
		FailedRecords:    1,
		WarningCount:     2,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	runs, err := s.ListIngestRuns(ctx, "ws1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "success", runs[0].Status)
	assert.Equal(t, "profile-1", runs[0].RuleProfileID)
	assert.Equal(t, 9, runs[0].SucceededRecords)
}

func TestStore_ListIngestRunsIsolatesByWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordIngestRun(ctx, IngestRun{WorkspaceID: "ws1", TargetDatabase: "kgnormal", Status: "success"})
	require.NoError(t, err)
	_, err = s.RecordIngestRun(ctx, IngestRun{WorkspaceID: "ws2", TargetDatabase: "kgnormal", Status: "failed"})
	require.NoError(t, err)

	runs, err := s.ListIngestRuns(ctx, "ws1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ws1", runs[0].WorkspaceID)
}

func TestStore_RecordAndListDebateRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordDebateRun(ctx, DebateRun{
		WorkspaceID:      "ws1",
		Query:            "who discovered the transistor?",
		ReadyWorkerCount: 3,
		FinalStatus:      "completed",
	})
	require.NoError(t, err)

	runs, err := s.ListDebateRuns(ctx, "ws1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 3, runs[0].ReadyWorkerCount)
	assert.Equal(t, "completed", runs[0].FinalStatus)
}

func TestFileStore_SaveAndLoadRuleProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fs, err := NewFileStore(s, t.TempDir())
	require.NoError(t, err)

	rec := RuleProfileRecord{
		ProfileID:     "profile-1",
		WorkspaceID:   "ws1",
		Name:          "default",
		CreatedAt:     time.Now().UTC(),
		SchemaVersion: 1,
		RuleCount:     4,
		RuleProfile:   map[string]any{"shapes": []string{"Person"}},
	}
	path, err := fs.SaveRuleProfile(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	loaded, err := fs.LoadRuleProfile("ws1", "profile-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Name, loaded.Name)
	assert.Equal(t, rec.RuleCount, loaded.RuleCount)
}

func TestFileStore_SaveAndLoadSemanticArtifact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fs, err := NewFileStore(s, t.TempDir())
	require.NoError(t, err)

	rec := SemanticArtifactRecord{
		ArtifactID:        "artifact-1",
		Status:            "draft",
		SourceSummary:     "ingested 12 records",
		OntologyCandidate: map[string]any{"classes": []string{"Person"}},
		SHACLCandidate:    map[string]any{"shapes": []string{}},
	}
	_, err = fs.SaveSemanticArtifact(ctx, "ws1", rec)
	require.NoError(t, err)

	loaded, err := fs.LoadSemanticArtifact("ws1", "artifact-1")
	require.NoError(t, err)
	assert.Equal(t, "draft", loaded.Status)
	assert.Equal(t, "ingested 12 records", loaded.SourceSummary)
}

func TestFileStore_LoadMissingArtifactReturnsError(t *testing.T) {
	fs, err := NewFileStore(nil, t.TempDir())
	require.NoError(t, err)

	_, err = fs.LoadRuleProfile("ws1", "missing")
	require.Error(t, err)
}
