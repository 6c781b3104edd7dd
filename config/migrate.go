package config

import (
	"fmt"

	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.CustomerMeasurement{},
		&models.BespokeOrder{},
		&models.BespokeStatusLog{},
		&models.ProductionTask{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
