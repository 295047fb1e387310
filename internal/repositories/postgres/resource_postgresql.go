package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/cache"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
)

type ResourcePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResourcePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResourceRepository {
	return &ResourcePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *ResourcePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create persists resource metadata and invalidates cached listings
func (r *ResourcePostgreSQL) Create(ctx context.Context, tx *gorm.DB, resource *models.Resource) error {
	if err := r.getDB(tx).WithContext(ctx).Create(resource).Error; err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, r.cacheManager.Resource, "list:*")

	return nil
}

// GetByID retrieves a resource with caching
func (r *ResourcePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Resource, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var resource models.Resource

	err := r.cacheManager.Resource.CacheOrExecute(ctx, cacheKey, &resource, cache.ResourceCacheConfig.TTL, func() (interface{}, error) {
		var dbResource models.Resource
		if err := r.getDB(tx).WithContext(ctx).First(&dbResource, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get resource: %w", err)
		}
		return &dbResource, nil
	})

	if err != nil {
		return nil, err
	}

	return &resource, nil
}

// List retrieves resources with filters and pagination
func (r *ResourcePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResourceFilters) ([]*models.Resource, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.Resource{})

	query = r.helpers.ApplyResourceFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}

	query = r.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	var resources []*models.Resource
	if err := query.Find(&resources).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list resources: %w", err)
	}

	return resources, total, nil
}

// Delete soft deletes a resource row; the object store cleanup is the
// service's responsibility.
func (r *ResourcePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := r.getDB(tx).WithContext(ctx).Delete(&models.Resource{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete resource: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateResourceCache(ctx, r.cacheManager, id)

	return nil
}
