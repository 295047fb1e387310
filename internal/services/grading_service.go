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

type gradingService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	notification NotificationEventService
}

func NewGradingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notification NotificationEventService) GradingService {
	return &gradingService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		notification: notification,
	}
}

// SubmitFreeText grades a free-text answer against the assessment's keyword
// rubric and writes the result through the progress ledger. Resubmission
// overwrites the previous row; the ledger keeps one row per pair.
func (s *gradingService) SubmitFreeText(ctx context.Context, assessmentID uint, req *FreeTextSubmissionRequest, studentID string) (*FreeTextGradeResponse, error) {
	s.logger.Info("Grading free-text submission", "assessment_id", assessmentID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.loadPublishedAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	score, err := grading.AutoGradeRubric(req.Answer, assessment.KeywordRubric)
	if err != nil {
		return nil, err
	}

	cbcLevel := string(grading.ClassifyCBCLevel(float64(score)))
	masteryBand := string(grading.ClassifyMasteryBand(float64(score)))

	record := &models.Progress{
		StudentID:       studentID,
		AssessmentID:    assessmentID,
		Score:           float64(score),
		CBCLevel:        cbcLevel,
		SubmittedAnswer: req.Answer,
	}
	if err := s.repo.Progress().Upsert(ctx, s.db, record); err != nil {
		return nil, fmt.Errorf("failed to record progress: %w", err)
	}

	if err := s.notification.NotifyProgressUpdated(ctx, record, assessment.Title); err != nil {
		s.logger.Error("Failed to send progress notification",
			"student_id", studentID,
			"assessment_id", assessmentID,
			"error", err)
	}

	return &FreeTextGradeResponse{
		AssessmentID: assessmentID,
		StudentID:    studentID,
		Score:        score,
		CBCLevel:     cbcLevel,
		MasteryBand:  masteryBand,
		Progress:     record,
	}, nil
}

// GradeFreeText grades without persisting, for teacher-side previews
func (s *gradingService) GradeFreeText(ctx context.Context, assessmentID uint, answer string) (int, string, error) {
	assessment, err := s.loadPublishedAssessment(ctx, assessmentID)
	if err != nil {
		return 0, "", err
	}

	score, err := grading.AutoGradeRubric(answer, assessment.KeywordRubric)
	if err != nil {
		return 0, "", err
	}

	return score, string(grading.ClassifyCBCLevel(float64(score))), nil
}

func (s *gradingService) loadPublishedAssessment(ctx context.Context, assessmentID uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if assessment.Status != models.StatusPublished {
		return nil, ErrAssessmentNotPublished
	}

	return assessment, nil
}
