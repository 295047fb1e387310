package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elimu-cbe/cbe-platform/internal/events"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/relay"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

// notificationEventService fans domain events out on two paths: the Kafka
// event bus for downstream consumers and the websocket relay for connected
// clients. Relay delivery is process-local best-effort; the bus is durable.
type notificationEventService struct {
	publisher events.EventPublisher
	hub       *relay.Hub
	logger    *slog.Logger
	validator *validator.Validator
}

func NewNotificationEventService(publisher events.EventPublisher, hub *relay.Hub, logger *slog.Logger, validator *validator.Validator) NotificationEventService {
	return &notificationEventService{
		publisher: publisher,
		hub:       hub,
		logger:    logger,
		validator: validator,
	}
}

func (s *notificationEventService) NotifyAssessmentPublished(ctx context.Context, assessment *models.Assessment) error {
	event := events.NewAssessmentPublishedEvent(
		assessment.ID,
		assessment.Title,
		assessment.Subject,
		assessment.GradeLevel,
		assessment.CreatedBy,
	)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish assessment published event: %w", err)
	}

	// Students learn about new work through the relay
	s.hub.NotifyRole(models.RoleStudent, relay.Message{
		Type: string(events.EventAssessmentPublished),
		Data: event.Data,
	})

	return nil
}

func (s *notificationEventService) NotifySubmissionGraded(ctx context.Context, submission *models.Submission, percentage float64, cbcLevel string) error {
	event := events.NewSubmissionGradedEvent(
		submission.ID,
		submission.AssessmentID,
		submission.Assessment.Title,
		submission.StudentID,
		submission.TotalScore,
		submission.MaxScore,
		percentage,
		cbcLevel,
		submission.SubmittedAt,
	)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish submission graded event: %w", err)
	}

	msg := relay.Message{
		Type: string(events.EventSubmissionGraded),
		Data: event.Data,
	}
	s.hub.NotifyUser(submission.StudentID, msg)
	s.hub.NotifyRole(models.RoleTeacher, msg)

	return nil
}

func (s *notificationEventService) NotifyProgressUpdated(ctx context.Context, record *models.Progress, assessmentTitle string) error {
	event := events.NewProgressUpdatedEvent(
		record.StudentID,
		record.AssessmentID,
		assessmentTitle,
		record.Score,
		record.CBCLevel,
	)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish progress updated event: %w", err)
	}

	msg := relay.Message{
		Type: string(events.EventProgressUpdated),
		Data: event.Data,
	}
	s.hub.NotifyUser(record.StudentID, msg)
	s.hub.NotifyRole(models.RoleTeacher, msg)

	return nil
}

func (s *notificationEventService) NotifyResourceUploaded(ctx context.Context, resource *models.Resource) error {
	event := events.NewResourceUploadedEvent(
		resource.ID,
		resource.Title,
		resource.Subject,
		resource.GradeLevel,
		resource.UploadedBy,
	)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish resource uploaded event: %w", err)
	}

	s.hub.Broadcast(relay.Message{
		Type: string(events.EventResourceUploaded),
		Data: event.Data,
	})

	return nil
}

// SendAnnouncement pushes a manual announcement to a role room, or to
// everyone when no role is given
func (s *notificationEventService) SendAnnouncement(ctx context.Context, req *AnnouncementRequest, senderID string) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	var roles []models.UserRole
	if req.Role != "" {
		roles = []models.UserRole{req.Role}
	}

	event := events.NewAnnouncementEvent(nil, roles, models.NotificationAnnouncement, req.Title, req.Message, priority, senderID)
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish announcement event: %w", err)
	}

	msg := relay.Message{
		Type: string(events.EventAnnouncement),
		Data: event.Data,
	}
	if req.Role != "" {
		s.hub.NotifyRole(req.Role, msg)
	} else {
		s.hub.Broadcast(msg)
	}

	s.logger.Info("Announcement sent", "sender_id", senderID, "role", req.Role, "priority", priority)

	return nil
}
