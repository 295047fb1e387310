package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssessmentStatus string

const (
	StatusDraft     AssessmentStatus = "Draft"
	StatusPublished AssessmentStatus = "Published"
	StatusArchived  AssessmentStatus = "Archived"
)

type AssessmentType string

const (
	AssessmentFormative   AssessmentType = "formative"
	AssessmentSummative   AssessmentType = "summative"
	AssessmentDiagnostic  AssessmentType = "diagnostic"
	AssessmentPerformance AssessmentType = "performance"
)

type Assessment struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Title       string           `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string          `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Subject     string           `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`
	GradeLevel  string           `json:"grade_level" gorm:"not null;size:50;index" validate:"required,max=50"`
	Type        AssessmentType   `json:"type" gorm:"default:formative" validate:"omitempty,oneof=formative summative diagnostic performance"`
	Status      AssessmentStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Published Archived"`

	// KeywordRubric is the comma-separated list of required terms for
	// free-text auto-grading. May be empty for question-set assessments.
	KeywordRubric string `json:"keyword_rubric" gorm:"type:text"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:AssessmentID"`
	Creator   User       `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

type QuestionType string

const (
	MultipleChoice  QuestionType = "multiple_choice"
	ShortAnswer     QuestionType = "short_answer"
	Essay           QuestionType = "essay"
	PerformanceTask QuestionType = "performance_task"
)

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;index"`
	Position     int          `json:"position" gorm:"not null;default:0"`
	Text         string       `json:"text" gorm:"type:text;not null" validate:"required,min=1,max=2000"`
	Type         QuestionType `json:"type" gorm:"not null" validate:"required,oneof=multiple_choice short_answer essay performance_task"`

	// Options holds the answer choices for multiple-choice questions
	Options       datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`
	CorrectAnswer *string        `json:"correct_answer,omitempty" gorm:"type:text"`
	Points        int            `json:"points" gorm:"not null;default:1" validate:"min=1,max=100"`

	// CompetencyMapping labels the skill dimension this question rolls up into
	CompetencyMapping *string `json:"competency_mapping,omitempty" gorm:"size:100;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (Question) TableName() string {
	return "questions"
}
