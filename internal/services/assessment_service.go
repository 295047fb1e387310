package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/grading"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

type assessmentService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	scorer       grading.QuestionScorer
	notification NotificationEventService
}

func NewAssessmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, notification NotificationEventService) AssessmentService {
	return &assessmentService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		scorer:       grading.NewDefaultScorer(),
		notification: notification,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error) {
	s.logger.Info("Creating assessment", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	canCreate, err := s.canCreateAssessment(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canCreate {
		return nil, NewPermissionError(creatorID, 0, "assessment", "create", "insufficient role permissions")
	}

	// Title must be unique per creator
	exists, err := s.repo.Assessment().ExistsByTitle(ctx, s.db, req.Title, creatorID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check title uniqueness: %w", err)
	}
	if exists {
		return nil, ErrAssessmentDuplicateTitle
	}

	assessmentType := req.Type
	if assessmentType == "" {
		assessmentType = models.AssessmentFormative
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		Title:         req.Title,
		Description:   req.Description,
		Subject:       req.Subject,
		GradeLevel:    req.GradeLevel,
		Type:          assessmentType,
		Status:        models.StatusDraft,
		KeywordRubric: req.KeywordRubric,
		CreatedBy:     creatorID,
		Questions:     questions,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Assessment().Create(ctx, nil, assessment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment created successfully", "assessment_id", assessment.ID)

	return s.GetByIDWithQuestions(ctx, assessment.ID, creatorID)
}

func (s *assessmentService) GetByID(ctx context.Context, id uint, userID string) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return s.buildAssessmentResponse(assessment, userID), nil
}

func (s *assessmentService) GetByIDWithQuestions(ctx context.Context, id uint, userID string) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment with questions: %w", err)
	}

	return s.buildAssessmentResponse(assessment, userID), nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID string) (*AssessmentResponse, error) {
	s.logger.Info("Updating assessment", "assessment_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	canEdit, err := s.CanEdit(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(userID, id, "assessment", "update", "not owner or assessment not editable")
	}

	if req.Title != nil && *req.Title != assessment.Title {
		exists, err := s.repo.Assessment().ExistsByTitle(ctx, s.db, *req.Title, assessment.CreatedBy, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to check title uniqueness: %w", err)
		}
		if exists {
			return nil, ErrAssessmentDuplicateTitle
		}
	}

	applyAssessmentUpdates(assessment, req)
	assessment.UpdatedAt = time.Now()

	if err := s.repo.Assessment().Update(ctx, s.db, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	return s.GetByID(ctx, id, userID)
}

func (s *assessmentService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting assessment", "assessment_id", id, "user_id", userID)

	canDelete, err := s.CanDelete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !canDelete {
		return NewPermissionError(userID, id, "assessment", "delete", "not owner or insufficient permissions")
	}

	if err := s.repo.Assessment().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	return nil
}

// ===== LIST OPERATIONS =====

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters, userID string) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	return s.buildListResponse(assessments, total, filters, userID), nil
}

func (s *assessmentService) GetByCreator(ctx context.Context, creatorID string, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().GetByCreator(ctx, s.db, creatorID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list creator assessments: %w", err)
	}

	return s.buildListResponse(assessments, total, filters, creatorID), nil
}

// ===== STATUS MANAGEMENT =====

func (s *assessmentService) Publish(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Publishing assessment", "assessment_id", id, "user_id", userID)

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	canEdit, err := s.CanEdit(ctx, id, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, id, "assessment", "publish", "not owner or insufficient permissions")
	}

	if assessment.Status != models.StatusDraft {
		return ErrAssessmentInvalidStatus
	}

	// A publishable assessment needs something to grade against: either a
	// keyword rubric or a question set
	if len(grading.SplitRubric(assessment.KeywordRubric)) == 0 && len(assessment.Questions) == 0 {
		return ErrAssessmentHasNoQuestions
	}

	if err := s.repo.Assessment().UpdateStatus(ctx, s.db, id, models.StatusPublished); err != nil {
		return fmt.Errorf("failed to publish assessment: %w", err)
	}

	assessment.Status = models.StatusPublished
	if err := s.notification.NotifyAssessmentPublished(ctx, assessment); err != nil {
		s.logger.Error("Failed to send publish notification", "assessment_id", id, "error", err)
	}

	return nil
}

func (s *assessmentService) Archive(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Archiving assessment", "assessment_id", id, "user_id", userID)

	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	canEdit, err := s.CanEdit(ctx, id, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, id, "assessment", "archive", "not owner or insufficient permissions")
	}

	if assessment.Status != models.StatusPublished {
		return ErrAssessmentInvalidStatus
	}

	if err := s.repo.Assessment().UpdateStatus(ctx, s.db, id, models.StatusArchived); err != nil {
		return fmt.Errorf("failed to archive assessment: %w", err)
	}

	return nil
}

// ===== SUBMISSION FLOW =====

// SubmitQuestionSet grades a question-set submission, persists the derived
// history and competency rollup in one transaction, and writes the percentage
// through the progress ledger. The ledger row stays the single score
// authority; the submission row exists for review and analytics.
func (s *assessmentService) SubmitQuestionSet(ctx context.Context, assessmentID uint, req *QuestionSetSubmissionRequest, studentID string) (*QuestionSetGradeResponse, error) {
	s.logger.Info("Grading question-set submission", "assessment_id", assessmentID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if assessment.Status != models.StatusPublished {
		return nil, ErrAssessmentNotPublished
	}
	if len(assessment.Questions) == 0 {
		return nil, ErrAssessmentHasNoQuestions
	}

	questionsByID := make(map[uint]*models.Question, len(assessment.Questions))
	for i := range assessment.Questions {
		questionsByID[assessment.Questions[i].ID] = &assessment.Questions[i]
	}

	answersByQuestion := make(map[uint]string, len(req.Answers))
	for _, a := range req.Answers {
		if _, ok := questionsByID[a.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: question %d", ErrAnswerCountMismatch, a.QuestionID)
		}
		answersByQuestion[a.QuestionID] = a.Answer
	}

	// Score every question in the set; unanswered questions earn zero
	var totalScore float64
	maxScore := 0
	submittedAt := time.Now()
	submissionAnswers := make([]models.SubmissionAnswer, 0, len(assessment.Questions))
	rollupInput := make([]grading.QuestionResult, 0, len(assessment.Questions))

	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		maxScore += q.Points

		answer, answered := answersByQuestion[q.ID]
		var score float64
		if answered {
			score = s.scorer.Score(q, answer)
		}
		totalScore += score

		submissionAnswers = append(submissionAnswers, models.SubmissionAnswer{
			QuestionID: q.ID,
			Answer:     answer,
			Score:      score,
		})

		// Rollup operates on per-question percentages so competency levels
		// are comparable across questions with different point values
		questionPct := 0.0
		if q.Points > 0 {
			questionPct = 100 * score / float64(q.Points)
		}
		rollupInput = append(rollupInput, grading.QuestionResult{Question: q, Score: questionPct})
	}

	competencies := grading.RollupCompetencies(rollupInput)

	percentage := 0.0
	if maxScore > 0 {
		percentage = math.Round(100 * totalScore / float64(maxScore))
	}
	cbcLevel := string(grading.ClassifyCBCLevel(percentage))

	submission := &models.Submission{
		AssessmentID: assessmentID,
		StudentID:    studentID,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		SubmittedAt:  submittedAt,
		Answers:      submissionAnswers,
	}
	for _, c := range competencies {
		submission.CompetencyScores = append(submission.CompetencyScores, models.CompetencyScore{
			Competency: c.Competency,
			Score:      c.Score,
			Level:      c.Level,
		})
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Submission().Create(ctx, nil, submission); err != nil {
			return err
		}

		record := &models.Progress{
			StudentID:    studentID,
			AssessmentID: assessmentID,
			Score:        percentage,
			CBCLevel:     cbcLevel,
		}
		return txRepo.Progress().Upsert(ctx, nil, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	if err := s.notification.NotifySubmissionGraded(ctx, submission, percentage, cbcLevel); err != nil {
		s.logger.Error("Failed to send grading notification",
			"submission_id", submission.ID,
			"error", err)
	}

	return &QuestionSetGradeResponse{
		SubmissionID:     submission.ID,
		AssessmentID:     assessmentID,
		StudentID:        studentID,
		TotalScore:       totalScore,
		MaxScore:         maxScore,
		Percentage:       percentage,
		CBCLevel:         cbcLevel,
		CompetencyScores: competencies,
	}, nil
}

func (s *assessmentService) GetSubmissions(ctx context.Context, assessmentID uint, filters repositories.SubmissionFilters, userID string) (*SubmissionListResponse, error) {
	isOwner, err := s.repo.Assessment().IsOwner(ctx, s.db, assessmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if !isOwner {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil || !isAdmin {
			return nil, NewPermissionError(userID, assessmentID, "assessment", "read_submissions", "not owner")
		}
	}

	submissions, total, err := s.repo.Submission().GetByAssessment(ctx, s.db, assessmentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	return &SubmissionListResponse{
		Submissions: submissions,
		Total:       total,
		Page:        pageFromOffset(filters.Offset, filters.Limit),
		Size:        filters.Limit,
	}, nil
}

// ===== PERMISSION CHECKS =====

func (s *assessmentService) CanEdit(ctx context.Context, assessmentID uint, userID string) (bool, error) {
	isOwner, err := s.repo.Assessment().IsOwner(ctx, s.db, assessmentID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	if isOwner {
		return true, nil
	}
	return s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
}

func (s *assessmentService) CanDelete(ctx context.Context, assessmentID uint, userID string) (bool, error) {
	return s.CanEdit(ctx, assessmentID, userID)
}

// ===== HELPERS =====

func (s *assessmentService) canCreateAssessment(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == models.RoleTeacher || user.Role == models.RoleAdmin, nil
}

func (s *assessmentService) buildAssessmentResponse(assessment *models.Assessment, userID string) *AssessmentResponse {
	canEdit := assessment.CreatedBy == userID
	return &AssessmentResponse{
		Assessment: assessment,
		CanEdit:    canEdit,
		CanDelete:  canEdit,
	}
}

func (s *assessmentService) buildListResponse(assessments []*models.Assessment, total int64, filters repositories.AssessmentFilters, userID string) *AssessmentListResponse {
	responses := make([]*AssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		responses = append(responses, s.buildAssessmentResponse(a, userID))
	}
	return &AssessmentListResponse{
		Assessments: responses,
		Total:       total,
		Page:        pageFromOffset(filters.Offset, filters.Limit),
		Size:        filters.Limit,
	}
}

func buildQuestions(reqs []CreateQuestionRequest) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(reqs))
	for i, q := range reqs {
		position := q.Position
		if position == 0 {
			position = i
		}

		var options datatypes.JSON
		if len(q.Options) > 0 {
			var err error
			options, err = optionsJSON(q.Options)
			if err != nil {
				return nil, fmt.Errorf("failed to encode options for question %d: %w", i, err)
			}
		}

		questions = append(questions, models.Question{
			Position:          position,
			Text:              q.Text,
			Type:              q.Type,
			Options:           options,
			CorrectAnswer:     q.CorrectAnswer,
			Points:            q.Points,
			CompetencyMapping: q.CompetencyMapping,
		})
	}
	return questions, nil
}

func applyAssessmentUpdates(assessment *models.Assessment, req *UpdateAssessmentRequest) {
	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.Subject != nil {
		assessment.Subject = *req.Subject
	}
	if req.GradeLevel != nil {
		assessment.GradeLevel = *req.GradeLevel
	}
	if req.Type != nil {
		assessment.Type = *req.Type
	}
	if req.KeywordRubric != nil {
		assessment.KeywordRubric = *req.KeywordRubric
	}
}

func optionsJSON(options []string) (datatypes.JSON, error) {
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func pageFromOffset(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return (offset / limit) + 1
}
