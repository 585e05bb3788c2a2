package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/graphqa/kgqa/pkg/errs"
)

// ErrorBody is the non-2xx response shape, per spec.md §6:
// {"error": {"error_code", "message", "request_id"}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error kind, a human-readable message, and the
// request id it occurred under.
type ErrorDetail struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// statusForKind maps an errs.Kind to its HTTP status, per spec.md §6's
// "Status-code mapping".
func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindConfiguration:
		return http.StatusBadRequest
	case errs.KindValidation, errs.KindPipeline:
		return http.StatusUnprocessableEntity
	case errs.KindPermission:
		return http.StatusForbidden
	case errs.KindInfrastructure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as the standard error body, classifying it by
// errs.Kind (defaulting to KindUnknown -> 500 for untyped errors).
func respondError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	c.JSON(statusForKind(kind), ErrorBody{Error: ErrorDetail{
		ErrorCode: string(kind),
		Message:   err.Error(),
		RequestID: requestIDFromContext(c),
	}})
}
