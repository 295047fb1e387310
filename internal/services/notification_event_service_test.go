package services

import (
	"context"
	"testing"
	"time"

	"github.com/elimu-cbe/cbe-platform/internal/events"
	"github.com/elimu-cbe/cbe-platform/internal/models"
)

func TestNotificationEventService_PublishEvents(t *testing.T) {
	service, publisher := newTestNotification(t)
	ctx := context.Background()

	t.Run("progress updated", func(t *testing.T) {
		publisher.ClearEvents()

		record := &models.Progress{
			StudentID:    "student-1",
			AssessmentID: 7,
			Score:        85,
			CBCLevel:     "Exceeding Expectations",
		}
		if err := service.NotifyProgressUpdated(ctx, record, "Fractions Quiz"); err != nil {
			t.Fatalf("NotifyProgressUpdated failed: %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("expected 1 event, got %d", len(published))
		}
		event := published[0]
		if event.Type != events.EventProgressUpdated {
			t.Errorf("expected progress.updated, got %s", event.Type)
		}

		data, ok := event.Data.(events.ProgressUpdatedEvent)
		if !ok {
			t.Fatalf("unexpected payload type %T", event.Data)
		}
		if data.StudentID != "student-1" || data.AssessmentID != 7 {
			t.Errorf("payload mismatch: %+v", data)
		}
		if data.CBCLevel != "Exceeding Expectations" {
			t.Errorf("expected level on payload, got %s", data.CBCLevel)
		}
	})

	t.Run("submission graded", func(t *testing.T) {
		publisher.ClearEvents()

		submission := &models.Submission{
			ID:           3,
			AssessmentID: 7,
			StudentID:    "student-1",
			TotalScore:   8,
			MaxScore:     10,
			SubmittedAt:  time.Now(),
			Assessment:   models.Assessment{ID: 7, Title: "Fractions Quiz"},
		}
		if err := service.NotifySubmissionGraded(ctx, submission, 80, "Exceeding Expectations"); err != nil {
			t.Fatalf("NotifySubmissionGraded failed: %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("expected 1 event, got %d", len(published))
		}
		data, ok := published[0].Data.(events.SubmissionGradedEvent)
		if !ok {
			t.Fatalf("unexpected payload type %T", published[0].Data)
		}
		if data.Percentage != 80 || data.AssessmentTitle != "Fractions Quiz" {
			t.Errorf("payload mismatch: %+v", data)
		}
	})

	t.Run("event envelope structure", func(t *testing.T) {
		publisher.ClearEvents()

		assessment := &models.Assessment{
			ID:         7,
			Title:      "Fractions Quiz",
			Subject:    "Mathematics",
			GradeLevel: "Grade 5",
			CreatedBy:  "teacher-1",
		}
		if err := service.NotifyAssessmentPublished(ctx, assessment); err != nil {
			t.Fatalf("NotifyAssessmentPublished failed: %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("expected 1 event, got %d", len(published))
		}

		event := published[0]
		if event.ID == "" {
			t.Error("event ID should not be empty")
		}
		if event.Source != "cbe-platform" {
			t.Errorf("expected source 'cbe-platform', got '%s'", event.Source)
		}
		if event.Version != "1.0" {
			t.Errorf("expected version '1.0', got '%s'", event.Version)
		}
		if event.Timestamp.IsZero() {
			t.Error("event timestamp should not be zero")
		}
	})
}

func TestNotificationEventService_SendAnnouncement(t *testing.T) {
	service, publisher := newTestNotification(t)
	ctx := context.Background()

	t.Run("role-scoped announcement", func(t *testing.T) {
		publisher.ClearEvents()

		req := &AnnouncementRequest{
			Title:    "Term Reports Ready",
			Message:  "Term 2 reports are now available.",
			Role:     models.RoleTeacher,
			Priority: models.PriorityHigh,
		}
		if err := service.SendAnnouncement(ctx, req, "admin-1"); err != nil {
			t.Fatalf("SendAnnouncement failed: %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("expected 1 event, got %d", len(published))
		}
		data, ok := published[0].Data.(events.AnnouncementEvent)
		if !ok {
			t.Fatalf("unexpected payload type %T", published[0].Data)
		}
		if len(data.Roles) != 1 || data.Roles[0] != models.RoleTeacher {
			t.Errorf("expected teacher role scope, got %+v", data.Roles)
		}
		if data.SenderID != "admin-1" {
			t.Errorf("expected sender admin-1, got %s", data.SenderID)
		}
	})

	t.Run("missing title fails validation", func(t *testing.T) {
		publisher.ClearEvents()

		req := &AnnouncementRequest{Message: "no title"}
		if err := service.SendAnnouncement(ctx, req, "admin-1"); err == nil {
			t.Fatal("expected validation error")
		}
		if len(publisher.GetPublishedEvents()) != 0 {
			t.Error("invalid announcement must not publish")
		}
	})
}
