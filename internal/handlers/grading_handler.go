package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimu-cbe/cbe-platform/internal/services"
	"github.com/elimu-cbe/cbe-platform/internal/utils"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	validator      *validator.Validator
}

func NewGradingHandler(
	gradingService services.GradingService,
	validator *validator.Validator,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		validator:      validator,
	}
}

// SubmitFreeText grades one free-text answer and records it in the ledger
// @Summary Submit free-text answer
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param submission body services.FreeTextSubmissionRequest true "Answer"
// @Success 200 {object} services.FreeTextGradeResponse
// @Failure 422 {object} ErrorResponse
// @Router /assessments/{id}/submit [post]
func (h *GradingHandler) SubmitFreeText(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.FreeTextSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Grading free-text submission", "assessment_id", id, "student_id", userID)

	result, err := h.gradingService.SubmitFreeText(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PreviewGrade grades an answer without persisting anything
// @Summary Preview rubric grade
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param submission body services.FreeTextSubmissionRequest true "Answer"
// @Success 200 {object} SuccessResponse
// @Router /assessments/{id}/grade-preview [post]
func (h *GradingHandler) PreviewGrade(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.FreeTextSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	score, level, err := h.gradingService.GradeFreeText(c.Request.Context(), id, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{
		"score":     score,
		"cbc_level": level,
	}})
}
