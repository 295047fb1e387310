package validator

import (
	"github.com/elimu-cbe/cbe-platform/internal/models"
)

// AssessmentCreateRequest represents the request structure for creating assessments
type AssessmentCreateRequest struct {
	Title         string                  `json:"title" validate:"required,min=1,max=200"`
	Description   *string                 `json:"description" validate:"omitempty,max=1000"`
	Subject       string                  `json:"subject" validate:"required,max=100"`
	GradeLevel    string                  `json:"grade_level" validate:"required,max=50"`
	Type          models.AssessmentType   `json:"type" validate:"omitempty,oneof=formative summative diagnostic performance"`
	KeywordRubric string                  `json:"keyword_rubric" validate:"omitempty,max=2000"`
	Questions     []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// AssessmentUpdateRequest represents the request structure for updating assessments
type AssessmentUpdateRequest struct {
	Title         *string               `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string               `json:"description" validate:"omitempty,max=1000"`
	Subject       *string               `json:"subject" validate:"omitempty,max=100"`
	GradeLevel    *string               `json:"grade_level" validate:"omitempty,max=50"`
	Type          *models.AssessmentType `json:"type" validate:"omitempty,oneof=formative summative diagnostic performance"`
	KeywordRubric *string               `json:"keyword_rubric" validate:"omitempty,max=2000"`
}

// QuestionCreateRequest represents a question attached to an assessment
type QuestionCreateRequest struct {
	Text              string              `json:"text" validate:"required,min=1,max=2000"`
	Type              models.QuestionType `json:"type" validate:"required,question_type"`
	Options           []string            `json:"options" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer     *string             `json:"correct_answer" validate:"omitempty,max=500"`
	Points            int                 `json:"points" validate:"required,min=1,max=100"`
	CompetencyMapping *string             `json:"competency_mapping" validate:"omitempty,max=100"`
	Position          int                 `json:"position" validate:"omitempty,min=0"`
}

// FreeTextSubmissionRequest carries one free-text answer for rubric grading.
// An empty answer is valid input; the grader scores it zero.
type FreeTextSubmissionRequest struct {
	Answer string `json:"answer" validate:"max=10000"`
}

// AnswerSubmission pairs a question with the student's answer
type AnswerSubmission struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"max=10000"`
}

// QuestionSetSubmissionRequest carries answers for a whole question set
type QuestionSetSubmissionRequest struct {
	Answers []AnswerSubmission `json:"answers" validate:"required,min=1,dive"`
}

// UpsertScoreRequest writes a score directly into the progress ledger
type UpsertScoreRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	AssessmentID uint    `json:"assessment_id" validate:"required"`
	Score        float64 `json:"score" validate:"min=0,max=100"`
}

// ResourceCreateRequest carries resource metadata; the file arrives as multipart
type ResourceCreateRequest struct {
	Title       string              `json:"title" form:"title" validate:"required,min=1,max=200"`
	Description *string             `json:"description" form:"description" validate:"omitempty,max=1000"`
	Subject     string              `json:"subject" form:"subject" validate:"required,max=100"`
	GradeLevel  string              `json:"grade_level" form:"grade_level" validate:"required,max=50"`
	Type        models.ResourceType `json:"type" form:"type" validate:"omitempty,oneof=document video worksheet rubric"`
	Tags        []string            `json:"tags" form:"tags" validate:"omitempty,max=10,dive,max=50"`
}

// AnnouncementRequest broadcasts a message to a role room or everyone
type AnnouncementRequest struct {
	Title    string          `json:"title" validate:"required,max=200"`
	Message  string          `json:"message" validate:"required,max=2000"`
	Role     models.UserRole `json:"role" validate:"omitempty,user_role"`
	Priority models.NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high"`
}
