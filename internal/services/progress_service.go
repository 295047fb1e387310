package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/grading"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

type progressService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	notification NotificationEventService
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notification NotificationEventService) ProgressService {
	return &progressService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		notification: notification,
	}
}

// ===== LEDGER READS =====

func (s *progressService) GetStudentProgress(ctx context.Context, studentID string, filters repositories.ProgressFilters, requesterID string) (*ProgressListResponse, error) {
	if err := s.checkStudentAccess(ctx, studentID, requesterID); err != nil {
		return nil, err
	}

	records, total, err := s.repo.Progress().GetByStudent(ctx, s.db, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get student progress: %w", err)
	}

	return &ProgressListResponse{
		Records: records,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    filters.Limit,
	}, nil
}

func (s *progressService) GetAssessmentProgress(ctx context.Context, assessmentID uint, filters repositories.ProgressFilters, requesterID string) (*ProgressListResponse, error) {
	isOwner, err := s.repo.Assessment().IsOwner(ctx, s.db, assessmentID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if !isOwner {
		if err := s.checkElevatedRole(ctx, requesterID); err != nil {
			return nil, err
		}
	}

	records, total, err := s.repo.Progress().GetByAssessment(ctx, s.db, assessmentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment progress: %w", err)
	}

	return &ProgressListResponse{
		Records: records,
		Total:   total,
		Page:    pageFromOffset(filters.Offset, filters.Limit),
		Size:    filters.Limit,
	}, nil
}

func (s *progressService) GetPair(ctx context.Context, studentID string, assessmentID uint, requesterID string) (*models.Progress, error) {
	if err := s.checkStudentAccess(ctx, studentID, requesterID); err != nil {
		return nil, err
	}

	record, err := s.repo.Progress().GetByPair(ctx, s.db, studentID, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress record: %w", err)
	}

	return record, nil
}

// ===== LEDGER WRITE =====

// UpsertScore writes a score directly into the ledger. The CBC level is
// recomputed from the score on every write; callers cannot supply a level
// that disagrees with the stored score.
func (s *progressService) UpsertScore(ctx context.Context, req *UpsertScoreRequest, requesterID string) (*models.Progress, error) {
	s.logger.Info("Upserting ledger score",
		"student_id", req.StudentID,
		"assessment_id", req.AssessmentID,
		"requester_id", requesterID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Score < 0 || req.Score > 100 {
		return nil, ErrScoreOutOfRange
	}

	if err := s.checkElevatedRole(ctx, requesterID); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, req.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	record := &models.Progress{
		StudentID:    req.StudentID,
		AssessmentID: req.AssessmentID,
		Score:        req.Score,
		CBCLevel:     string(grading.ClassifyCBCLevel(req.Score)),
	}
	if err := s.repo.Progress().Upsert(ctx, s.db, record); err != nil {
		return nil, fmt.Errorf("failed to upsert progress record: %w", err)
	}

	if err := s.notification.NotifyProgressUpdated(ctx, record, assessment.Title); err != nil {
		s.logger.Error("Failed to send progress notification",
			"student_id", req.StudentID,
			"assessment_id", req.AssessmentID,
			"error", err)
	}

	return record, nil
}

// ===== PERMISSION HELPERS =====

// checkStudentAccess allows students to read their own ledger and any
// teacher, stakeholder, or admin to read anyone's.
func (s *progressService) checkStudentAccess(ctx context.Context, studentID, requesterID string) error {
	if studentID == requesterID {
		return nil
	}
	return s.checkElevatedRole(ctx, requesterID)
}

func (s *progressService) checkElevatedRole(ctx context.Context, requesterID string) error {
	user, err := s.repo.User().GetByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("failed to resolve requester: %w", err)
	}
	switch user.Role {
	case models.RoleTeacher, models.RoleStakeholder, models.RoleAdmin:
		return nil
	}
	return NewPermissionError(requesterID, 0, "progress", "read", "student records are private")
}
