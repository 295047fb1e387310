package models

import (
	"time"
)

// Submission is the derived history of question-set grading runs. The
// Progress ledger remains the single score authority; rows here exist for
// review and analytics only.
type Submission struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	AssessmentID uint      `json:"assessment_id" gorm:"not null;index"`
	StudentID    string    `json:"student_id" gorm:"not null;size:255;index"`
	TotalScore   float64   `json:"total_score" gorm:"not null"`
	MaxScore     int       `json:"max_score" gorm:"not null"`
	SubmittedAt  time.Time `json:"submitted_at" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Answers          []SubmissionAnswer `json:"answers" gorm:"foreignKey:SubmissionID"`
	CompetencyScores []CompetencyScore  `json:"competency_scores" gorm:"foreignKey:SubmissionID"`
	Assessment       Assessment         `json:"assessment" gorm:"foreignKey:AssessmentID"`
}

type SubmissionAnswer struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	SubmissionID uint    `json:"submission_id" gorm:"not null;index"`
	QuestionID   uint    `json:"question_id" gorm:"not null"`
	Answer       string  `json:"answer" gorm:"type:text"`
	Score        float64 `json:"score" gorm:"not null"`
}

// CompetencyScore is a (competency, score, level) triple rolled up from the
// question scores of one submission that share a competency-mapping label.
type CompetencyScore struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	SubmissionID uint    `json:"submission_id" gorm:"not null;index"`
	Competency   string  `json:"competency" gorm:"not null;size:100;index"`
	Score        float64 `json:"score" gorm:"not null"`
	Level        int     `json:"level" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (SubmissionAnswer) TableName() string {
	return "submission_answers"
}

func (CompetencyScore) TableName() string {
	return "competency_scores"
}
