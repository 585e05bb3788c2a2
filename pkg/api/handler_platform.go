package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphqa/kgqa/pkg/errs"
	"github.com/graphqa/kgqa/pkg/platform"
)

func toSendRequest(req ChatSendRequest) platform.SendRequest {
	return platform.SendRequest{
		SessionID:       req.SessionID,
		Message:         req.Message,
		Mode:            req.Mode,
		WorkspaceID:     req.WorkspaceID,
		Databases:       req.Databases,
		EntityOverrides: req.EntityOverrides,
	}
}

// chatSendHandler handles POST /platform/chat/send: one turn through the
// Session/Platform Façade, whichever of router/debate/semantic mode the
// caller selected.
func (s *Server) chatSendHandler(c *gin.Context) {
	var req ChatSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Wrap(errs.KindValidation, "api", err))
		return
	}

	resp, err := s.platform.Send(c.Request.Context(), toSendRequest(req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatSendResponse{
		SessionID:        resp.SessionID,
		AssistantMessage: resp.AssistantMessage,
		History:          resp.History,
		ModeUsed:         resp.ModeUsed,
		FellBackToMode:   resp.FellBackToMode,
		TraceSteps:       resp.TraceSteps,
		UICards:          resp.UICards,
	})
}

// getChatSessionHandler handles GET /platform/chat/session/:id.
func (s *Server) getChatSessionHandler(c *gin.Context) {
	session, err := s.platform.Session(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatSessionResponse{
		SessionID: session.ID,
		State:     session.State,
		History:   session.Turns,
	})
}

// deleteChatSessionHandler handles DELETE /platform/chat/session/:id: a
// reset, not a retirement of the session id (spec.md §4.16's cleared state).
func (s *Server) deleteChatSessionHandler(c *gin.Context) {
	if err := s.platform.Reset(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
