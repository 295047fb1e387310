package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create persists a submission with its answers and competency scores
func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	if err := s.getDB(tx).WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission with its answers and competency scores
func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Answers").
		Preload("CompetencyScores").
		First(&submission, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// GetByAssessment retrieves submissions for an assessment, newest first
func (s *SubmissionPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	query := s.getDB(tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("assessment_id = ?", assessmentID)

	if filters.Since != nil {
		query = query.Where("submitted_at >= ?", *filters.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = query.Order("submitted_at DESC, id DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var submissions []*models.Submission
	if err := query.Preload("CompetencyScores").Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get assessment submissions: %w", err)
	}

	return submissions, total, nil
}

// GetByStudent retrieves a student's submissions, newest first
func (s *SubmissionPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	query := s.getDB(tx).WithContext(ctx).
		Model(&models.Submission{}).
		Where("student_id = ?", studentID)

	if filters.Since != nil {
		query = query.Where("submitted_at >= ?", *filters.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = query.Order("submitted_at DESC, id DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var submissions []*models.Submission
	if err := query.Preload("Assessment").Preload("CompetencyScores").Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get student submissions: %w", err)
	}

	return submissions, total, nil
}
