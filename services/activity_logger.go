package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
)

// Activity log actions
const (
	ActionBespokeCreated       = "bespoke_order.created"
	ActionBespokeUpdated       = "bespoke_order.updated"
	ActionBespokeStatusChanged = "bespoke_order.status_changed"
	ActionBespokeDeleted       = "bespoke_order.deleted"
	ActionBespokeImageUploaded = "bespoke_order.design_image_uploaded"
	ActionTaskCreated          = "production_task.created"
	ActionTaskUpdated          = "production_task.updated"
	ActionTaskStatusChanged    = "production_task.status_changed"
	ActionTaskDeleted          = "production_task.deleted"
	ActionMeasurementCreated   = "measurement.created"
)

// Entity types recorded in the activity log
const (
	EntityBespokeOrder   = "bespoke_order"
	EntityProductionTask = "production_task"
	EntityMeasurement    = "measurement"
)

// ActivityLogger records mutating actions in the system-wide activity log
type ActivityLogger interface {
	Log(ctx context.Context, userID uint, action, entityType string, entityID uint, metadata map[string]interface{}) error
}

// GormActivityLogger appends activity rows with gorm
type GormActivityLogger struct {
	db *gorm.DB
}

var activityLoggerInstance ActivityLogger

// NewGormActivityLogger creates an activity logger writing to db
func NewGormActivityLogger(db *gorm.DB) *GormActivityLogger {
	return &GormActivityLogger{db: db}
}

// GetActivityLogger returns the process-wide activity logger
func GetActivityLogger() ActivityLogger {
	return activityLoggerInstance
}

// SetActivityLogger sets the process-wide activity logger
func SetActivityLogger(l ActivityLogger) {
	activityLoggerInstance = l
}

// Log appends one activity row
func (l *GormActivityLogger) Log(ctx context.Context, userID uint, action, entityType string, entityID uint, metadata map[string]interface{}) error {
	encoded := "{}"
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode activity metadata: %w", err)
		}
		encoded = string(raw)
	}

	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   encoded,
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}
