package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphqa/kgqa/pkg/errs"
	"github.com/graphqa/kgqa/pkg/graph"
)

// listDatabasesHandler handles GET /databases: every user-facing database
// the registry currently knows about.
func (s *Server) listDatabasesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, DatabasesResponse{Databases: s.registry.ListUserDatabases()})
}

// listAgentsHandler handles GET /agents: one specialist worker is
// provisionable per registered database (spec.md §4.6's lazy provisioning,
// named here without actually provisioning any of them).
func (s *Server) listAgentsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, AgentsResponse{Agents: s.registry.ListUserDatabases()})
}

// ensureFulltextIndexHandler handles POST /indexes/fulltext/ensure:
// idempotently ensures a fulltext index exists across the requested
// databases, one result per database.
func (s *Server) ensureFulltextIndexHandler(c *gin.Context) {
	var req FulltextEnsureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Wrap(errs.KindValidation, "api", err))
		return
	}
	if err := graph.ValidateWorkspaceID(req.WorkspaceID); err != nil {
		respondError(c, err)
		return
	}

	results := make([]fulltextResultView, 0, len(req.Databases))
	for _, db := range req.Databases {
		created, exists, err := s.ftManager.Ensure(c.Request.Context(), db, req.IndexName, req.Labels, req.Properties, true)
		view := fulltextResultView{Database: db, Created: created, Exists: exists}
		if err != nil {
			view.Error = err.Error()
		}
		results = append(results, view)
	}

	c.JSON(http.StatusOK, FulltextEnsureResponse{Results: results})
}
