package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elimu-cbe/cbe-platform/internal/cache"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
)

type ProgressPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

// Upsert writes one ledger row per (student, assessment) pair. The conflict
// target is the unique index on those two columns, so concurrent writes for
// the same pair serialize in the database and the last one wins; there is no
// read-then-write race here. Score-only writes (teacher overrides, question-set
// rollups) carry an empty submitted_answer, which must not clobber a stored
// free-text answer, hence the COALESCE/NULLIF guard.
func (p *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, record *models.Progress) error {
	err := p.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "assessment_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score":            gorm.Expr("excluded.score"),
				"cbc_level":        gorm.Expr("excluded.cbc_level"),
				"submitted_answer": gorm.Expr("COALESCE(NULLIF(excluded.submitted_answer, ''), progress_records.submitted_answer)"),
				"updated_at":       gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert progress record: %w", err)
	}

	cache.InvalidateProgressCache(ctx, p.cacheManager, record.StudentID, record.AssessmentID)

	return nil
}

// GetByPair retrieves the single ledger row for a student and assessment
func (p *ProgressPostgreSQL) GetByPair(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.Progress, error) {
	cacheKey := fmt.Sprintf("pair:%s:%d", studentID, assessmentID)
	var record models.Progress

	err := p.cacheManager.Progress.CacheOrExecute(ctx, cacheKey, &record, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
		var dbRecord models.Progress
		err := p.getDB(tx).WithContext(ctx).
			Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
			First(&dbRecord).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get progress record: %w", err)
		}
		return &dbRecord, nil
	})

	if err != nil {
		return nil, err
	}

	return &record, nil
}

// GetByStudent retrieves a student's ledger rows with assessment metadata
func (p *ProgressPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ProgressFilters) ([]*models.Progress, int64, error) {
	query := p.getDB(tx).WithContext(ctx).
		Model(&models.Progress{}).
		Where("student_id = ?", studentID)

	query = p.helpers.ApplyProgressFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count progress records: %w", err)
	}

	query = p.helpers.ApplyPaginationAndSort(query, "updated_at", "desc", filters.Limit, filters.Offset)

	var records []*models.Progress
	if err := query.Preload("Assessment").Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get student progress: %w", err)
	}

	return records, total, nil
}

// GetByAssessment retrieves all ledger rows for one assessment
func (p *ProgressPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, filters repositories.ProgressFilters) ([]*models.Progress, int64, error) {
	query := p.getDB(tx).WithContext(ctx).
		Model(&models.Progress{}).
		Where("assessment_id = ?", assessmentID)

	if filters.Since != nil {
		query = query.Where("updated_at >= ?", *filters.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count progress records: %w", err)
	}

	query = p.helpers.ApplyPaginationAndSort(query, "score", "desc", filters.Limit, filters.Offset)

	var records []*models.Progress
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get assessment progress: %w", err)
	}

	return records, total, nil
}

// ListSince retrieves every ledger row touched on or after the cutoff
func (p *ProgressPostgreSQL) ListSince(ctx context.Context, tx *gorm.DB, since time.Time) ([]*models.Progress, error) {
	var records []*models.Progress
	err := p.getDB(tx).WithContext(ctx).
		Where("updated_at >= ?", since).
		Order("updated_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list progress records: %w", err)
	}
	return records, nil
}
