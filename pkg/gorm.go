package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/elimu-cbe/cbe-platform/internal/config"
	"github.com/elimu-cbe/cbe-platform/internal/models"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// MigrateDatabase creates or updates the schema for all platform models
func MigrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Assessment{},
		&models.Question{},
		&models.Progress{},
		&models.Submission{},
		&models.SubmissionAnswer{},
		&models.CompetencyScore{},
		&models.Resource{},
	)
}
