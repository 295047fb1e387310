package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/elimu-cbe/cbe-platform/internal/services"
	"github.com/elimu-cbe/cbe-platform/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetDashboard returns the aggregated analytics view for one window
// @Summary Analytics dashboard
// @Tags analytics
// @Produce json
// @Param window query string false "Time window (7d, 30d, 90d, 1y)" default(30d)
// @Success 200 {object} services.DashboardResponse
// @Failure 400 {object} ErrorResponse
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.analyticsService.Dashboard(c.Request.Context(), c.Query("window"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetCompetencyStats returns per-competency rollups
// @Summary Competency statistics
// @Tags analytics
// @Produce json
// @Param window query string false "Time window (7d, 30d, 90d, 1y)" default(30d)
// @Param subject query string false "Subject filter"
// @Success 200 {object} SuccessResponse
// @Router /analytics/competencies [get]
func (h *AnalyticsHandler) GetCompetencyStats(c *gin.Context) {
	var subject *string
	if s := c.Query("subject"); s != "" {
		subject = &s
	}

	stats, err := h.analyticsService.CompetencyStats(c.Request.Context(), c.Query("window"), subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: stats})
}

// GetStudentMastery returns one student's per-competency standing
// @Summary Student competency mastery
// @Tags analytics
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.StudentMasteryResponse
// @Router /analytics/students/{student_id}/mastery [get]
func (h *AnalyticsHandler) GetStudentMastery(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid student_id parameter",
		})
		return
	}

	mastery, err := h.analyticsService.StudentMastery(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mastery)
}

// GetAtRiskStudents lists students whose windowed average falls below a threshold
// @Summary At-risk students
// @Tags analytics
// @Produce json
// @Param window query string false "Time window (7d, 30d, 90d, 1y)" default(30d)
// @Param threshold query number false "Average-score threshold" default(50)
// @Success 200 {object} services.AtRiskResponse
// @Router /analytics/at-risk [get]
func (h *AnalyticsHandler) GetAtRiskStudents(c *gin.Context) {
	threshold, err := strconv.ParseFloat(c.DefaultQuery("threshold", "50"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid threshold parameter",
		})
		return
	}

	atRisk, err := h.analyticsService.AtRiskStudents(c.Request.Context(), c.Query("window"), threshold)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, atRisk)
}

// ExportDashboard downloads the dashboard as an xlsx workbook
// @Summary Export analytics dashboard
// @Tags analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param window query string false "Time window (7d, 30d, 90d, 1y)" default(30d)
// @Success 200 {file} binary
// @Router /analytics/dashboard/export [get]
func (h *AnalyticsHandler) ExportDashboard(c *gin.Context) {
	h.LogRequest(c, "Exporting analytics dashboard", "window", c.Query("window"))

	data, err := h.analyticsService.ExportDashboard(c.Request.Context(), c.Query("window"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	fileName := fmt.Sprintf("dashboard-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
