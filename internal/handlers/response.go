package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/types"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the domain sentinels onto HTTP statuses so every
// handler reports validation failures the same way.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, types.ErrCircularDependency):
		RespondError(c, http.StatusConflict, "circular_dependency", err)
	case errors.Is(err, types.ErrDuplicateMapping), errors.Is(err, types.ErrDuplicateEdge):
		RespondError(c, http.StatusConflict, "duplicate", err)
	case errors.Is(err, types.ErrInvalidHierarchy),
		errors.Is(err, types.ErrInvalidWeight),
		errors.Is(err, types.ErrInvalidTargetLevel),
		errors.Is(err, types.ErrInvalidDeadline),
		errors.Is(err, types.ErrEmptyPath),
		errors.Is(err, types.ErrNotFullyComplete),
		errors.Is(err, types.ErrAlreadyAtMax):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return parsed, true
}
