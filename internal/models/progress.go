package models

import (
	"time"
)

// Progress is the ledger of record for per-student assessment scores.
// Exactly one row exists per (student, assessment) pair; the unique index
// backs the atomic upsert in the repository layer.
type Progress struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentID    string `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_progress_student_assessment"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;uniqueIndex:idx_progress_student_assessment"`

	// Score is a percentage in [0, 100]. CBCLevel is always classify(Score);
	// the two are written together on every upsert.
	Score    float64 `json:"score" gorm:"not null" validate:"min=0,max=100"`
	CBCLevel string  `json:"cbc_level" gorm:"not null;size:50;index"`

	SubmittedAnswer string `json:"submitted_answer" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment `json:"assessment" gorm:"foreignKey:AssessmentID"`
	Student    User       `json:"student" gorm:"foreignKey:StudentID"`
}

func (Progress) TableName() string {
	return "progress_records"
}
