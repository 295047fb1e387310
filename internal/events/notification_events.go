package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/elimu-cbe/cbe-platform/internal/models"
)

// EventType represents different types of notification events
type EventType string

const (
	// Assessment events
	EventAssessmentPublished EventType = "assessment.published"
	EventAssessmentArchived  EventType = "assessment.archived"

	// Grading events
	EventSubmissionGraded EventType = "submission.graded"
	EventProgressUpdated  EventType = "progress.updated"

	// Resource events
	EventResourceUploaded EventType = "resource.uploaded"

	// System events
	EventAnnouncement EventType = "system.announcement"
)

const eventSource = "cbe-platform"

// NotificationEvent is the base event structure for all notification events
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Assessment notification event payloads

type AssessmentPublishedEvent struct {
	AssessmentID    uint   `json:"assessment_id"`
	AssessmentTitle string `json:"assessment_title"`
	Subject         string `json:"subject"`
	GradeLevel      string `json:"grade_level"`
	CreatorID       string `json:"creator_id"`
}

type AssessmentArchivedEvent struct {
	AssessmentID    uint      `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	ArchivedAt      time.Time `json:"archived_at"`
	CreatorID       string    `json:"creator_id"`
}

// Grading notification event payloads

type SubmissionGradedEvent struct {
	SubmissionID    uint      `json:"submission_id"`
	AssessmentID    uint      `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	StudentID       string    `json:"student_id"`
	TotalScore      float64   `json:"total_score"`
	MaxScore        int       `json:"max_score"`
	Percentage      float64   `json:"percentage"`
	CBCLevel        string    `json:"cbc_level"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

type ProgressUpdatedEvent struct {
	StudentID       string  `json:"student_id"`
	AssessmentID    uint    `json:"assessment_id"`
	AssessmentTitle string  `json:"assessment_title"`
	Score           float64 `json:"score"`
	CBCLevel        string  `json:"cbc_level"`
}

// Resource notification event payload

type ResourceUploadedEvent struct {
	ResourceID uint   `json:"resource_id"`
	Title      string `json:"title"`
	Subject    string `json:"subject"`
	GradeLevel string `json:"grade_level"`
	UploadedBy string `json:"uploaded_by"`
}

// System notification event payload

type AnnouncementEvent struct {
	RecipientIDs []string                    `json:"recipient_ids,omitempty"`
	Roles        []models.UserRole           `json:"roles,omitempty"`
	Type         models.NotificationType     `json:"type"`
	Title        string                      `json:"title"`
	Message      string                      `json:"message"`
	Priority     models.NotificationPriority `json:"priority"`
	SenderID     string                      `json:"sender_id"`
}

// Event factory functions

func NewAssessmentPublishedEvent(assessmentID uint, title, subject, gradeLevel, creatorID string) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventAssessmentPublished,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: AssessmentPublishedEvent{
			AssessmentID:    assessmentID,
			AssessmentTitle: title,
			Subject:         subject,
			GradeLevel:      gradeLevel,
			CreatorID:       creatorID,
		},
	}
}

func NewSubmissionGradedEvent(submissionID, assessmentID uint, title, studentID string, totalScore float64, maxScore int, percentage float64, cbcLevel string, submittedAt time.Time) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventSubmissionGraded,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: SubmissionGradedEvent{
			SubmissionID:    submissionID,
			AssessmentID:    assessmentID,
			AssessmentTitle: title,
			StudentID:       studentID,
			TotalScore:      totalScore,
			MaxScore:        maxScore,
			Percentage:      percentage,
			CBCLevel:        cbcLevel,
			SubmittedAt:     submittedAt,
		},
	}
}

func NewProgressUpdatedEvent(studentID string, assessmentID uint, title string, score float64, cbcLevel string) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventProgressUpdated,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ProgressUpdatedEvent{
			StudentID:       studentID,
			AssessmentID:    assessmentID,
			AssessmentTitle: title,
			Score:           score,
			CBCLevel:        cbcLevel,
		},
	}
}

func NewResourceUploadedEvent(resourceID uint, title, subject, gradeLevel, uploadedBy string) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventResourceUploaded,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: ResourceUploadedEvent{
			ResourceID: resourceID,
			Title:      title,
			Subject:    subject,
			GradeLevel: gradeLevel,
			UploadedBy: uploadedBy,
		},
	}
}

func NewAnnouncementEvent(recipientIDs []string, roles []models.UserRole, notificationType models.NotificationType, title, message string, priority models.NotificationPriority, senderID string) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      EventAnnouncement,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: AnnouncementEvent{
			RecipientIDs: recipientIDs,
			Roles:        roles,
			Type:         notificationType,
			Title:        title,
			Message:      message,
			Priority:     priority,
			SenderID:     senderID,
		},
	}
}

// GenerateEventID returns a unique message ID for the event envelope
func GenerateEventID() string {
	return uuid.NewString()
}
