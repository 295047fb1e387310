package models

type NotificationType string

const (
	NotificationAssessmentPublished NotificationType = "assessment_published"
	NotificationSubmissionGraded    NotificationType = "submission_graded"
	NotificationProgressUpdated     NotificationType = "progress_updated"
	NotificationResourceUploaded    NotificationType = "resource_uploaded"
	NotificationAnnouncement        NotificationType = "announcement"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)
