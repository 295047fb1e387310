package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/storage"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

// presignedExpiry bounds how long a download link stays valid
const presignedExpiry = 15 * time.Minute

type resourceService struct {
	repo         repositories.Repository
	db           *gorm.DB
	store        storage.ObjectStore
	logger       *slog.Logger
	validator    *validator.Validator
	notification NotificationEventService
}

func NewResourceService(repo repositories.Repository, db *gorm.DB, store storage.ObjectStore, logger *slog.Logger, validator *validator.Validator, notification NotificationEventService) ResourceService {
	return &resourceService{
		repo:         repo,
		db:           db,
		store:        store,
		logger:       logger,
		validator:    validator,
		notification: notification,
	}
}

// Upload stores the file bytes in object storage first, then the metadata row.
// A row never references an object that was not written.
func (s *resourceService) Upload(ctx context.Context, req *CreateResourceRequest, file UploadedFile, uploaderID string) (*models.Resource, error) {
	s.logger.Info("Uploading resource", "title", req.Title, "uploader_id", uploaderID, "size", file.Size)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if file.Size <= 0 || file.Reader == nil {
		return nil, ErrResourceEmptyFile
	}

	if err := s.checkUploaderRole(ctx, uploaderID); err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("resources/%s%s", uuid.NewString(), path.Ext(file.FileName))
	if err := s.store.Upload(ctx, objectKey, file.Reader, file.Size, file.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store resource file: %w", err)
	}

	resourceType := req.Type
	if resourceType == "" {
		resourceType = models.ResourceDocument
	}

	resource := &models.Resource{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		GradeLevel:  req.GradeLevel,
		Type:        resourceType,
		Tags:        tagsJSON(req.Tags),
		ObjectKey:   objectKey,
		FileName:    file.FileName,
		FileSize:    file.Size,
		ContentType: file.ContentType,
		UploadedBy:  uploaderID,
	}
	if err := s.repo.Resource().Create(ctx, s.db, resource); err != nil {
		// The row failed; clean the orphaned object best-effort
		if rmErr := s.store.Remove(ctx, objectKey); rmErr != nil {
			s.logger.Error("Failed to remove orphaned object", "object_key", objectKey, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := s.notification.NotifyResourceUploaded(ctx, resource); err != nil {
		s.logger.Error("Failed to send resource notification", "resource_id", resource.ID, "error", err)
	}

	return resource, nil
}

// GetByID returns the resource with a fresh presigned download URL
func (s *resourceService) GetByID(ctx context.Context, id uint) (*models.Resource, error) {
	resource, err := s.repo.Resource().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	url, err := s.store.PresignedURL(ctx, resource.ObjectKey, presignedExpiry)
	if err != nil {
		// Metadata is still useful when the store is briefly down
		s.logger.Error("Failed to presign resource", "resource_id", id, "error", err)
	} else {
		resource.URL = url
	}

	return resource, nil
}

func (s *resourceService) List(ctx context.Context, filters repositories.ResourceFilters) (*ResourceListResponse, error) {
	resources, total, err := s.repo.Resource().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	return &ResourceListResponse{
		Resources: resources,
		Total:     total,
		Page:      pageFromOffset(filters.Offset, filters.Limit),
		Size:      filters.Limit,
	}, nil
}

// Delete removes the metadata row, then the stored object best-effort. A
// dangling object is recoverable garbage; a dangling row is a broken link.
func (s *resourceService) Delete(ctx context.Context, id uint, userID string) error {
	resource, err := s.repo.Resource().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("failed to get resource: %w", err)
	}

	if resource.UploadedBy != userID {
		user, err := s.repo.User().GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to resolve requester: %w", err)
		}
		if user.Role != models.RoleAdmin {
			return NewPermissionError(userID, id, "resource", "delete", "only the uploader or an admin can delete a resource")
		}
	}

	if err := s.repo.Resource().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}

	if err := s.store.Remove(ctx, resource.ObjectKey); err != nil {
		s.logger.Error("Failed to remove stored object", "resource_id", id, "object_key", resource.ObjectKey, "error", err)
	}

	return nil
}

func (s *resourceService) checkUploaderRole(ctx context.Context, uploaderID string) error {
	user, err := s.repo.User().GetByID(ctx, uploaderID)
	if err != nil {
		return fmt.Errorf("failed to resolve uploader: %w", err)
	}
	switch user.Role {
	case models.RoleTeacher, models.RoleAdmin:
		return nil
	}
	return NewPermissionError(uploaderID, 0, "resource", "upload", "only teachers and admins can upload resources")
}

func tagsJSON(tags []string) datatypes.JSON {
	if len(tags) == 0 {
		return nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
