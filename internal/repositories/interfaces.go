package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	Status     *models.AssessmentStatus `json:"status"`
	Subject    *string                  `json:"subject"`
	GradeLevel *string                  `json:"grade_level"`
	CreatedBy  *string                  `json:"created_by"`
	DateFrom   *time.Time               `json:"date_from"`
	DateTo     *time.Time               `json:"date_to"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
	SortBy     string                   `json:"sort_by"`    // "created_at", "title", "subject"
	SortOrder  string                   `json:"sort_order"` // "asc", "desc"
}

type ProgressFilters struct {
	AssessmentID *uint      `json:"assessment_id"`
	Since        *time.Time `json:"since"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}

type SubmissionFilters struct {
	Since  *time.Time `json:"since"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type ResourceFilters struct {
	Subject    *string              `json:"subject"`
	GradeLevel *string              `json:"grade_level"`
	Type       *models.ResourceType `json:"type"`
	UploadedBy *string              `json:"uploaded_by"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// AssessmentRepository interface for assessment-specific operations
type AssessmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error // Soft delete

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters AssessmentFilters) ([]*models.Assessment, int64, error)

	// Status management
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AssessmentStatus) error

	// Permission checks
	IsOwner(ctx context.Context, tx *gorm.DB, assessmentID uint, userID string) (bool, error)

	// Validation helpers
	ExistsByTitle(ctx context.Context, tx *gorm.DB, title string, creatorID string, excludeID *uint) (bool, error)
}

// ProgressRepository is the ledger store. Upsert is atomic on the
// (student_id, assessment_id) unique index; there is no read-then-write path.
type ProgressRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, record *models.Progress) error
	GetByPair(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Progress, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters ProgressFilters) ([]*models.Progress, int64, error)
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, filters ProgressFilters) ([]*models.Progress, int64, error)
	ListSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*models.Progress, error)
}

// SubmissionRepository stores the derived grading history
type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, filters SubmissionFilters) ([]*models.Submission, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters SubmissionFilters) ([]*models.Submission, int64, error)
}

// ResourceRepository stores learning resource metadata
type ResourceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, resource *models.Resource) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Resource, error)
	List(ctx context.Context, tx *gorm.DB, filters ResourceFilters) ([]*models.Resource, int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

// ===== ANALYTICS ROLLUP STRUCTS =====

// LedgerStats summarizes the progress ledger over a window. Averages are
// pointers: an empty window reports nil, never zero.
type LedgerStats struct {
	RecordCount  int64    `json:"record_count"`
	StudentCount int64    `json:"student_count"`
	AverageScore *float64 `json:"average_score"`
	StdDevScore  *float64 `json:"std_dev_score"`
}

type SubjectStats struct {
	Subject      string   `json:"subject"`
	RecordCount  int64    `json:"record_count"`
	AverageScore *float64 `json:"average_score"`
}

type LevelCount struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

type CompetencyStats struct {
	Competency   string   `json:"competency"`
	SampleCount  int64    `json:"sample_count"`
	StudentCount int64    `json:"student_count"`
	AverageScore *float64 `json:"average_score"`
	StdDevScore  *float64 `json:"std_dev_score"`
}

// CompetencyMastery is one student's standing in one competency. LatestScore
// is the last value in time order; ties on timestamp resolve by insertion
// (primary key) order.
type CompetencyMastery struct {
	Competency   string   `json:"competency"`
	SampleCount  int64    `json:"sample_count"`
	AverageScore *float64 `json:"average_score"`
	LatestScore  *float64 `json:"latest_score"`
	LatestLevel  int      `json:"latest_level"`
}

type AtRiskStudent struct {
	StudentID    string   `json:"student_id"`
	RecordCount  int64    `json:"record_count"`
	AverageScore *float64 `json:"average_score"`
}

// AnalyticsRepository serves read-only rollups over the ledger and
// submissions. It never mutates source data.
type AnalyticsRepository interface {
	LedgerStats(ctx context.Context, since time.Time) (*LedgerStats, error)
	ScoresBySubject(ctx context.Context, since time.Time) ([]SubjectStats, error)
	CBCLevelDistribution(ctx context.Context, since time.Time) ([]LevelCount, error)
	MasteryBandDistribution(ctx context.Context, since time.Time) ([]LevelCount, error)
	CompetencyStats(ctx context.Context, since time.Time, subject *string) ([]CompetencyStats, error)
	StudentCompetencyMastery(ctx context.Context, studentID string) ([]CompetencyMastery, error)
	AtRiskStudents(ctx context.Context, since time.Time, threshold float64) ([]AtRiskStudent, error)
}
