package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
)

// MeasurementService stores measurement profiles referenced by bespoke orders.
type MeasurementService struct {
	db   *gorm.DB
	deps WorkflowDeps
}

// NewMeasurementService creates a measurement service
func NewMeasurementService(db *gorm.DB, deps WorkflowDeps) *MeasurementService {
	return &MeasurementService{db: db, deps: deps.withDefaults()}
}

// Create records a new measurement profile.
func (s *MeasurementService) Create(ctx context.Context, m models.CustomerMeasurement, actor *models.User) (*models.CustomerMeasurement, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	m.ID = 0
	m.Label = strings.TrimSpace(m.Label)
	if m.Label == "" {
		m.Label = "Default"
	}
	for _, v := range []*float64{m.Chest, m.Shoulder, m.Sleeve, m.Neck, m.Back, m.Waist, m.Hip, m.Inseam, m.Outseam, m.Thigh, m.Height, m.Weight} {
		if v != nil && *v <= 0 {
			return nil, invalid("", "measurements must be positive")
		}
	}
	if m.MeasuredBy == nil {
		name := actor.Name
		m.MeasuredBy = &name
	}
	if m.MeasuredAt == nil {
		now := timeNow()
		m.MeasuredAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, m.UserID, nil); err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to create measurement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.recordActivity(ctx, actor.ID, ActionMeasurementCreated, EntityMeasurement, m.ID, map[string]interface{}{
		"label": m.Label,
	})
	return &m, nil
}

// Get loads a measurement profile.
func (s *MeasurementService) Get(ctx context.Context, id uint) (*models.CustomerMeasurement, error) {
	var m models.CustomerMeasurement
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("measurement", id)
		}
		return nil, fmt.Errorf("failed to load measurement: %w", err)
	}
	return &m, nil
}

// ListForUser returns a customer's measurement profiles, most recent first.
func (s *MeasurementService) ListForUser(ctx context.Context, userID uint) ([]models.CustomerMeasurement, error) {
	out := []models.CustomerMeasurement{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("measured_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	return out, nil
}
