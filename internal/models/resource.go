package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ResourceType string

const (
	ResourceDocument  ResourceType = "document"
	ResourceVideo     ResourceType = "video"
	ResourceWorksheet ResourceType = "worksheet"
	ResourceRubric    ResourceType = "rubric"
)

// Resource is a learning material: metadata here, file bytes in object storage.
type Resource struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Subject     string       `json:"subject" gorm:"not null;size:100;index" validate:"required,max=100"`
	GradeLevel  string       `json:"grade_level" gorm:"not null;size:50;index" validate:"required,max=50"`
	Type        ResourceType `json:"type" gorm:"default:document" validate:"omitempty,oneof=document video worksheet rubric"`
	Tags        datatypes.JSON `json:"tags,omitempty" gorm:"type:jsonb"`

	// Object storage reference
	ObjectKey   string `json:"-" gorm:"not null;size:500"`
	FileName    string `json:"file_name" gorm:"not null;size:255"`
	FileSize    int64  `json:"file_size" gorm:"not null"`
	ContentType string `json:"content_type" gorm:"size:100"`

	UploadedBy string         `json:"uploaded_by" gorm:"not null;index;size:255"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed: presigned download URL, filled by the service
	URL string `json:"url,omitempty" gorm:"-"`
}

func (Resource) TableName() string {
	return "resources"
}
