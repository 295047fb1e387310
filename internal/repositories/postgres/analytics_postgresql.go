package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/elimu-cbe/cbe-platform/internal/cache"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
)

// AnalyticsPostgreSQL computes read-only rollups in the database. Averages
// scan into pointers so empty windows come back nil, not zero.
type AnalyticsPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnalyticsPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnalyticsRepository {
	return &AnalyticsPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// LedgerStats summarizes the progress ledger since the cutoff
func (a *AnalyticsPostgreSQL) LedgerStats(ctx context.Context, since time.Time) (*repositories.LedgerStats, error) {
	cacheKey := fmt.Sprintf("ledger:%d", since.Unix())
	var stats repositories.LedgerStats

	err := a.cacheManager.Analytics.CacheOrExecute(ctx, cacheKey, &stats, cache.AnalyticsCacheConfig.TTL, func() (interface{}, error) {
		var dbStats repositories.LedgerStats
		err := a.db.WithContext(ctx).
			Model(&models.Progress{}).
			Select("COUNT(*) AS record_count, COUNT(DISTINCT student_id) AS student_count, AVG(score) AS average_score, STDDEV_POP(score) AS std_dev_score").
			Where("updated_at >= ?", since).
			Scan(&dbStats).Error
		if err != nil {
			return nil, fmt.Errorf("failed to compute ledger stats: %w", err)
		}
		return &dbStats, nil
	})

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// ScoresBySubject averages ledger scores grouped by assessment subject
func (a *AnalyticsPostgreSQL) ScoresBySubject(ctx context.Context, since time.Time) ([]repositories.SubjectStats, error) {
	var stats []repositories.SubjectStats
	err := a.db.WithContext(ctx).
		Model(&models.Progress{}).
		Select("assessments.subject AS subject, COUNT(*) AS record_count, AVG(progress_records.score) AS average_score").
		Joins("JOIN assessments ON assessments.id = progress_records.assessment_id").
		Where("progress_records.updated_at >= ?", since).
		Group("assessments.subject").
		Order("assessments.subject ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute subject stats: %w", err)
	}
	return stats, nil
}

// CBCLevelDistribution counts ledger rows per stored CBC level
func (a *AnalyticsPostgreSQL) CBCLevelDistribution(ctx context.Context, since time.Time) ([]repositories.LevelCount, error) {
	var counts []repositories.LevelCount
	err := a.db.WithContext(ctx).
		Model(&models.Progress{}).
		Select("cbc_level AS level, COUNT(*) AS count").
		Where("updated_at >= ?", since).
		Group("cbc_level").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute cbc level distribution: %w", err)
	}
	return counts, nil
}

// MasteryBandDistribution buckets ledger scores into the four mastery bands.
// Bands live only in SQL here; thresholds mirror the grading package.
func (a *AnalyticsPostgreSQL) MasteryBandDistribution(ctx context.Context, since time.Time) ([]repositories.LevelCount, error) {
	var counts []repositories.LevelCount
	err := a.db.WithContext(ctx).Raw(`
		SELECT band AS level, COUNT(*) AS count
		FROM (
			SELECT CASE
				WHEN score >= 90 THEN 'Advanced'
				WHEN score >= 75 THEN 'Proficient'
				WHEN score >= 60 THEN 'Developing'
				ELSE 'Beginning'
			END AS band
			FROM progress_records
			WHERE updated_at >= ?
		) banded
		GROUP BY band
		ORDER BY count DESC`, since).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute mastery band distribution: %w", err)
	}
	return counts, nil
}

// CompetencyStats aggregates competency scores across submissions, optionally
// restricted to one subject
func (a *AnalyticsPostgreSQL) CompetencyStats(ctx context.Context, since time.Time, subject *string) ([]repositories.CompetencyStats, error) {
	query := a.db.WithContext(ctx).
		Model(&models.CompetencyScore{}).
		Select("competency_scores.competency AS competency, COUNT(*) AS sample_count, COUNT(DISTINCT submissions.student_id) AS student_count, AVG(competency_scores.score) AS average_score, STDDEV_POP(competency_scores.score) AS std_dev_score").
		Joins("JOIN submissions ON submissions.id = competency_scores.submission_id").
		Where("submissions.submitted_at >= ?", since)

	if subject != nil {
		query = query.
			Joins("JOIN assessments ON assessments.id = submissions.assessment_id").
			Where("assessments.subject = ?", *subject)
	}

	var stats []repositories.CompetencyStats
	err := query.
		Group("competency_scores.competency").
		Order("competency_scores.competency ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute competency stats: %w", err)
	}
	return stats, nil
}

// StudentCompetencyMastery reports one student's standing per competency.
// The latest value is taken in submission time order; ties on timestamp fall
// back to insertion order.
func (a *AnalyticsPostgreSQL) StudentCompetencyMastery(ctx context.Context, studentID string) ([]repositories.CompetencyMastery, error) {
	var mastery []repositories.CompetencyMastery
	err := a.db.WithContext(ctx).Raw(`
		WITH scores AS (
			SELECT cs.id, cs.competency, cs.score, cs.level, s.submitted_at
			FROM competency_scores cs
			JOIN submissions s ON s.id = cs.submission_id
			WHERE s.student_id = ?
		),
		latest AS (
			SELECT DISTINCT ON (competency) competency, score, level
			FROM scores
			ORDER BY competency, submitted_at DESC, id DESC
		)
		SELECT sc.competency AS competency,
			COUNT(*) AS sample_count,
			AVG(sc.score) AS average_score,
			l.score AS latest_score,
			l.level AS latest_level
		FROM scores sc
		JOIN latest l ON l.competency = sc.competency
		GROUP BY sc.competency, l.score, l.level
		ORDER BY sc.competency ASC`, studentID).
		Scan(&mastery).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute student competency mastery: %w", err)
	}
	return mastery, nil
}

// AtRiskStudents lists students whose ledger average sits below the threshold
func (a *AnalyticsPostgreSQL) AtRiskStudents(ctx context.Context, since time.Time, threshold float64) ([]repositories.AtRiskStudent, error) {
	var students []repositories.AtRiskStudent
	err := a.db.WithContext(ctx).
		Model(&models.Progress{}).
		Select("student_id AS student_id, COUNT(*) AS record_count, AVG(score) AS average_score").
		Where("updated_at >= ?", since).
		Group("student_id").
		Having("AVG(score) < ?", threshold).
		Order("AVG(score) ASC").
		Scan(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute at-risk students: %w", err)
	}
	return students, nil
}
