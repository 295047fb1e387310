package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether err is a missing-row error from any
// repository method, unwrapping any message wrapping added along the way.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Repository aggregates all repository interfaces
type Repository interface {
	// Assessment domain
	Assessment() AssessmentRepository

	// Progress ledger and derived history
	Progress() ProgressRepository
	Submission() SubmissionRepository

	// Learning resources
	Resource() ResourceRepository

	// Read-only rollups
	Analytics() AnalyticsRepository

	// User domain (read-only; identity lives in Casdoor)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
