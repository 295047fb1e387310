package services

import (
	"context"
	"io"
	"time"

	"github.com/elimu-cbe/cbe-platform/internal/grading"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type CreateAssessmentRequest = validator.AssessmentCreateRequest
type UpdateAssessmentRequest = validator.AssessmentUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type FreeTextSubmissionRequest = validator.FreeTextSubmissionRequest
type QuestionSetSubmissionRequest = validator.QuestionSetSubmissionRequest
type UpsertScoreRequest = validator.UpsertScoreRequest
type CreateResourceRequest = validator.ResourceCreateRequest
type AnnouncementRequest = validator.AnnouncementRequest

type AssessmentResponse struct {
	*models.Assessment
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type AssessmentListResponse struct {
	Assessments []*AssessmentResponse `json:"assessments"`
	Total       int64                 `json:"total"`
	Page        int                   `json:"page"`
	Size        int                   `json:"size"`
}

// FreeTextGradeResponse is the outcome of rubric grading one free-text answer
type FreeTextGradeResponse struct {
	AssessmentID uint    `json:"assessment_id"`
	StudentID    string  `json:"student_id"`
	Score        int     `json:"score"`
	CBCLevel     string  `json:"cbc_level"`
	MasteryBand  string  `json:"mastery_band"`
	Progress     *models.Progress `json:"progress"`
}

// QuestionSetGradeResponse is the outcome of grading a full question set
type QuestionSetGradeResponse struct {
	SubmissionID     uint                       `json:"submission_id"`
	AssessmentID     uint                       `json:"assessment_id"`
	StudentID        string                     `json:"student_id"`
	TotalScore       float64                    `json:"total_score"`
	MaxScore         int                        `json:"max_score"`
	Percentage       float64                    `json:"percentage"`
	CBCLevel         string                     `json:"cbc_level"`
	CompetencyScores []grading.CompetencyResult `json:"competency_scores"`
}

type ProgressListResponse struct {
	Records []*models.Progress `json:"records"`
	Total   int64              `json:"total"`
	Page    int                `json:"page"`
	Size    int                `json:"size"`
}

type SubmissionListResponse struct {
	Submissions []*models.Submission `json:"submissions"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Size        int                  `json:"size"`
}

type ResourceListResponse struct {
	Resources []*models.Resource `json:"resources"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
}

// DashboardResponse is the aggregated analytics view for one time window
type DashboardResponse struct {
	Window       string                       `json:"window"`
	Since        time.Time                    `json:"since"`
	Ledger       *repositories.LedgerStats    `json:"ledger"`
	BySubject    []repositories.SubjectStats  `json:"by_subject"`
	CBCLevels    []repositories.LevelCount    `json:"cbc_levels"`
	MasteryBands []repositories.LevelCount    `json:"mastery_bands"`
	Competencies []repositories.CompetencyStats `json:"competencies"`
}

type StudentMasteryResponse struct {
	StudentID    string                           `json:"student_id"`
	Competencies []repositories.CompetencyMastery `json:"competencies"`
}

type AtRiskResponse struct {
	Window    string                       `json:"window"`
	Threshold float64                      `json:"threshold"`
	Students  []repositories.AtRiskStudent `json:"students"`
}

// UploadedFile describes the incoming multipart file for a resource
type UploadedFile struct {
	Reader      io.Reader
	FileName    string
	Size        int64
	ContentType string
}

// ===== SERVICE INTERFACES =====

type AssessmentService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*AssessmentResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*AssessmentResponse, error)
	Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID string) (*AssessmentResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List operations
	List(ctx context.Context, filters repositories.AssessmentFilters, userID string) (*AssessmentListResponse, error)
	GetByCreator(ctx context.Context, creatorID string, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)

	// Status management
	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	// Submission flow for question-set assessments
	SubmitQuestionSet(ctx context.Context, assessmentID uint, req *QuestionSetSubmissionRequest, studentID string) (*QuestionSetGradeResponse, error)
	GetSubmissions(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters, userID string) (*SubmissionListResponse, error)

	// Permission checks
	CanEdit(ctx context.Context, assessmentID uint, userID string) (bool, error)
	CanDelete(ctx context.Context, assessmentID uint, userID string) (bool, error)
}

type GradingService interface {
	// SubmitFreeText grades one free-text answer against the assessment's
	// keyword rubric and upserts the result into the progress ledger
	SubmitFreeText(ctx context.Context, assessmentID uint, req *FreeTextSubmissionRequest, studentID string) (*FreeTextGradeResponse, error)

	// GradeFreeText grades without persisting (preview)
	GradeFreeText(ctx context.Context, assessmentID uint, answer string) (int, string, error)
}

type ProgressService interface {
	// Ledger reads
	GetStudentProgress(ctx context.Context, studentID string, filters repositories.ProgressFilters, requesterID string) (*ProgressListResponse, error)
	GetAssessmentProgress(ctx context.Context, assessmentID uint, filters repositories.ProgressFilters, requesterID string) (*ProgressListResponse, error)
	GetPair(ctx context.Context, studentID string, assessmentID uint, requesterID string) (*models.Progress, error)

	// Direct ledger write (teacher override / import); the CBC level is
	// always recomputed from the score
	UpsertScore(ctx context.Context, req *UpsertScoreRequest, requesterID string) (*models.Progress, error)
}

type AnalyticsService interface {
	Dashboard(ctx context.Context, window string) (*DashboardResponse, error)
	CompetencyStats(ctx context.Context, window string, subject *string) ([]repositories.CompetencyStats, error)
	StudentMastery(ctx context.Context, studentID string) (*StudentMasteryResponse, error)
	AtRiskStudents(ctx context.Context, window string, threshold float64) (*AtRiskResponse, error)

	// ExportDashboard renders the dashboard as an xlsx workbook
	ExportDashboard(ctx context.Context, window string) ([]byte, error)
}

type ResourceService interface {
	Upload(ctx context.Context, req *CreateResourceRequest, file UploadedFile, uploaderID string) (*models.Resource, error)
	GetByID(ctx context.Context, id uint) (*models.Resource, error)
	List(ctx context.Context, filters repositories.ResourceFilters) (*ResourceListResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type NotificationEventService interface {
	NotifyAssessmentPublished(ctx context.Context, assessment *models.Assessment) error
	NotifySubmissionGraded(ctx context.Context, submission *models.Submission, percentage float64, cbcLevel string) error
	NotifyProgressUpdated(ctx context.Context, record *models.Progress, assessmentTitle string) error
	NotifyResourceUploaded(ctx context.Context, resource *models.Resource) error
	SendAnnouncement(ctx context.Context, req *AnnouncementRequest, senderID string) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Assessment() AssessmentService
	Grading() GradingService
	Progress() ProgressService
	Analytics() AnalyticsService
	Resource() ResourceService
	Notification() NotificationEventService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
