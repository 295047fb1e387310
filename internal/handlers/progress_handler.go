package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/services"
	"github.com/elimu-cbe/cbe-platform/internal/utils"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
	validator       *validator.Validator
}

func NewProgressHandler(
	progressService services.ProgressService,
	validator *validator.Validator,
	logger utils.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
		validator:       validator,
	}
}

// GetMyProgress returns the authenticated student's own ledger
// @Summary Get own progress
// @Tags progress
// @Produce json
// @Success 200 {object} services.ProgressListResponse
// @Router /students/me/progress [get]
func (h *ProgressHandler) GetMyProgress(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	progress, err := h.progressService.GetStudentProgress(c.Request.Context(), userID, h.parseProgressFilters(c), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetStudentProgress returns one student's ledger
// @Summary Get student progress
// @Tags progress
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.ProgressListResponse
// @Failure 403 {object} ErrorResponse
// @Router /progress/students/{student_id} [get]
func (h *ProgressHandler) GetStudentProgress(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid student_id parameter",
		})
		return
	}

	requesterID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	progress, err := h.progressService.GetStudentProgress(c.Request.Context(), studentID, h.parseProgressFilters(c), requesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetAssessmentProgress returns every ledger row for one assessment
// @Summary Get assessment progress
// @Tags progress
// @Produce json
// @Param assessment_id path uint true "Assessment ID"
// @Success 200 {object} services.ProgressListResponse
// @Router /progress/assessments/{assessment_id} [get]
func (h *ProgressHandler) GetAssessmentProgress(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}

	requesterID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	progress, err := h.progressService.GetAssessmentProgress(c.Request.Context(), assessmentID, h.parseProgressFilters(c), requesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetPair returns the single ledger row for one student and one assessment
// @Summary Get progress pair
// @Tags progress
// @Produce json
// @Param student_id path string true "Student ID"
// @Param assessment_id path uint true "Assessment ID"
// @Success 200 {object} models.Progress
// @Failure 404 {object} ErrorResponse
// @Router /progress/students/{student_id}/assessments/{assessment_id} [get]
func (h *ProgressHandler) GetPair(c *gin.Context) {
	studentID := c.Param("student_id")
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}

	requesterID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	record, err := h.progressService.GetPair(c.Request.Context(), studentID, assessmentID, requesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// UpsertScore writes a score directly into the ledger
// @Summary Upsert ledger score
// @Tags progress
// @Accept json
// @Produce json
// @Param score body services.UpsertScoreRequest true "Score data"
// @Success 200 {object} models.Progress
// @Failure 403 {object} ErrorResponse
// @Router /progress [put]
func (h *ProgressHandler) UpsertScore(c *gin.Context) {
	var req services.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	requesterID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Upserting ledger score",
		"student_id", req.StudentID,
		"assessment_id", req.AssessmentID)

	record, err := h.progressService.UpsertScore(c.Request.Context(), &req, requesterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *ProgressHandler) parseProgressFilters(c *gin.Context) repositories.ProgressFilters {
	limit, offset := h.parsePagination(c)
	filters := repositories.ProgressFilters{
		Since:  h.parseSinceQuery(c),
		Limit:  limit,
		Offset: offset,
	}
	if id := h.parseOptionalID(c, "assessment_id"); id != nil {
		filters.AssessmentID = id
	}
	return filters
}

// parseOptionalID reads an optional numeric query parameter
func (h *ProgressHandler) parseOptionalID(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(parsed)
	return &id
}
