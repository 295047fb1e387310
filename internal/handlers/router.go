package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/elimu-cbe/cbe-platform/internal/config"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/relay"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/services"
	"github.com/elimu-cbe/cbe-platform/internal/utils"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

type HandlerManager struct {
	assessmentHandler   *AssessmentHandler
	gradingHandler      *GradingHandler
	progressHandler     *ProgressHandler
	analyticsHandler    *AnalyticsHandler
	resourceHandler     *ResourceHandler
	notificationHandler *NotificationHandler
	userHandler         *UserHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	hub *relay.Hub,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		assessmentHandler:   NewAssessmentHandler(serviceManager.Assessment(), validator, logger),
		gradingHandler:      NewGradingHandler(serviceManager.Grading(), validator, logger),
		progressHandler:     NewProgressHandler(serviceManager.Progress(), validator, logger),
		analyticsHandler:    NewAnalyticsHandler(serviceManager.Analytics(), logger),
		resourceHandler:     NewResourceHandler(serviceManager.Resource(), validator, logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), hub, validator, logger),
		userHandler:         NewUserHandler(userRepo, logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Assessment routes
		assessments := v1.Group("/assessments")
		{
			// Create/modify assessments - Teachers and Admins only
			assessments.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assessmentHandler.CreateAssessment)
			assessments.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assessmentHandler.DeleteAssessment)
			assessments.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assessmentHandler.PublishAssessment)
			assessments.POST("/:id/archive", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assessmentHandler.ArchiveAssessment)

			// View assessments - All authenticated users
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.GET("/:id/questions", hm.assessmentHandler.GetAssessmentWithQuestions)

			// Submission flow - students submit, owners review
			assessments.POST("/:id/submit", hm.gradingHandler.SubmitFreeText)
			assessments.POST("/:id/submissions", hm.assessmentHandler.SubmitQuestionSet)
			assessments.GET("/:id/submissions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assessmentHandler.GetSubmissions)

			// Preview grading - Teachers and Admins only
			assessments.POST("/:id/grade-preview", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.gradingHandler.PreviewGrade)

			// Creator-specific routes - Teachers and Admins only
			assessments.GET("/creator/:creator_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.assessmentHandler.GetAssessmentsByCreator)
		}

		// Progress ledger routes
		progress := v1.Group("/progress")
		{
			progress.GET("/students/:student_id", hm.progressHandler.GetStudentProgress)
			progress.GET("/students/:student_id/assessments/:assessment_id", hm.progressHandler.GetPair)
			progress.GET("/assessments/:assessment_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleStakeholder, models.RoleAdmin), hm.progressHandler.GetAssessmentProgress)

			// Direct ledger writes - Teachers and Admins only
			progress.PUT("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.progressHandler.UpsertScore)
		}

		// Student self-service routes
		students := v1.Group("/students")
		students.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			students.GET("/me/progress", hm.progressHandler.GetMyProgress)
		}

		// Analytics routes - Teachers, Stakeholders and Admins only
		analytics := v1.Group("/analytics")
		analytics.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleStakeholder, models.RoleAdmin))
		{
			analytics.GET("/dashboard", hm.analyticsHandler.GetDashboard)
			analytics.GET("/dashboard/export", hm.analyticsHandler.ExportDashboard)
			analytics.GET("/competencies", hm.analyticsHandler.GetCompetencyStats)
			analytics.GET("/students/:student_id/mastery", hm.analyticsHandler.GetStudentMastery)
			analytics.GET("/at-risk", hm.analyticsHandler.GetAtRiskStudents)
		}

		// Learning resource routes
		resources := v1.Group("/resources")
		{
			resources.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.resourceHandler.UploadResource)
			resources.GET("", hm.resourceHandler.ListResources)
			resources.GET("/:id", hm.resourceHandler.GetResource)
			resources.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.resourceHandler.DeleteResource)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		{
			notifications.POST("/announcements", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.notificationHandler.SendAnnouncement)
			notifications.GET("/online", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.notificationHandler.GetOnlineUsers)
		}

		// Websocket relay
		v1.GET("/ws", hm.notificationHandler.Connect)

		// User routes
		users := v1.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/search", hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "cbe-platform",
		})
	})
}
