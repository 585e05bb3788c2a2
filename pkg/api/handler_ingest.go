package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/graphqa/kgqa/pkg/errs"
	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/ingest"
	"github.com/graphqa/kgqa/pkg/store"
)

// ingestRawHandler handles POST /platform/ingest/raw: the Runtime
// Ingestor's parse/extract/relatedness/load pipeline over caller-supplied
// records (spec.md §4.15).
func (s *Server) ingestRawHandler(c *gin.Context) {
	var req IngestRawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Wrap(errs.KindValidation, "api", err))
		return
	}
	if err := graph.ValidateWorkspaceID(req.WorkspaceID); err != nil {
		respondError(c, err)
		return
	}
	if !s.registry.IsValid(req.TargetDatabase) {
		respondError(c, errs.New(errs.KindValidation, "api", "unknown target_database: "+req.TargetDatabase))
		return
	}

	summary, err := s.ingestor.Ingest(c.Request.Context(), req.TargetDatabase, req.Records, ingest.DefaultOptions())
	if err != nil {
		respondError(c, err)
		return
	}

	var profileID string
	if s.files != nil && len(summary.RuleProfile) > 0 {
		profileID = uuid.NewString()
		_, err := s.files.SaveRuleProfile(c.Request.Context(), store.RuleProfileRecord{
			ProfileID:   profileID,
			WorkspaceID: req.WorkspaceID,
			Name:        req.TargetDatabase + " inferred profile",
			CreatedAt:   time.Now(),
			RuleCount:   len(summary.RuleProfile),
			RuleProfile: summary.RuleProfile,
		})
		if err != nil {
			respondError(c, err)
			return
		}
	}

	if s.store != nil {
		warnings := 0
		for _, o := range summary.Outcomes {
			warnings += len(o.Warnings)
		}
		_, _ = s.store.RecordIngestRun(c.Request.Context(), store.IngestRun{
			WorkspaceID:      req.WorkspaceID,
			TargetDatabase:   req.TargetDatabase,
			Status:           string(summary.Status),
			RuleProfileID:    profileID,
			TotalRecords:     summary.TotalRecords,
			SucceededRecords: summary.Loaded,
			FailedRecords:    summary.Failed,
			WarningCount:     warnings,
		})
	}

	outcomes := make([]ingestOutcomeView, len(summary.Outcomes))
	for i, o := range summary.Outcomes {
		outcomes[i] = ingestOutcomeView{Index: o.Index, Loaded: o.Loaded, Error: o.Error, Warnings: o.Warnings}
	}

	c.JSON(http.StatusOK, IngestResponse{
		TotalRecords:  summary.TotalRecords,
		Loaded:        summary.Loaded,
		Failed:        summary.Failed,
		UsedFallback:  summary.UsedFallback,
		Status:        string(summary.Status),
		Outcomes:      outcomes,
		RuleProfileID: profileID,
	})
}
