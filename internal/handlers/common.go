package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/elimu-cbe/cbe-platform/internal/services"
	"github.com/elimu-cbe/cbe-platform/internal/utils"
)

// ErrorResponse is the wire shape of every error reply
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps data payloads for endpoints without a richer response type
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// BaseHandler carries the pieces every handler needs
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a handler-level event with request context attached
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	requestArgs := append([]any{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}, args...)
	h.logger.InfoContext(c.Request.Context(), msg, requestArgs...)
}

// LogError logs a handler-level failure with request context attached
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	requestArgs := append([]any{
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}, args...)
	h.logger.ErrorContext(c.Request.Context(), msg, requestArgs...)
}

// parseIDParam parses a numeric path parameter; on failure it writes the 400
// and returns 0
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// parsePagination reads page/size query parameters into limit and offset
func (h *BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// parseSinceQuery reads an optional RFC3339 "since" query parameter
func (h *BaseHandler) parseSinceQuery(c *gin.Context) *time.Time {
	raw := c.Query("since")
	if raw == "" {
		return nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &since
}

// handleServiceError maps service-layer errors onto HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		var ve services.ValidationErrors
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_failed",
				Message: "Request validation failed",
				Details: ve,
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})

	case errors.Is(err, services.ErrEmptyRubric):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "empty_rubric",
			Message: "Assessment rubric has no keywords",
		})

	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})

	case services.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})

	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})

	case services.IsBusinessRule(err),
		errors.Is(err, services.ErrAssessmentNotEditable),
		errors.Is(err, services.ErrAssessmentInvalidStatus),
		errors.Is(err, services.ErrAssessmentNotPublished),
		errors.Is(err, services.ErrAssessmentHasNoQuestions),
		errors.Is(err, services.ErrResourceEmptyFile):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "business_rule_violation",
			Message: err.Error(),
		})

	case errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})

	default:
		h.logger.ErrorContext(c.Request.Context(), "Unhandled service error",
			"error", err,
			"path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
