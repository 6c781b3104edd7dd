package models

import (
	"time"

	"gorm.io/gorm"
)

// CustomerMeasurement is a measurement profile taken in the shop. All
// measurements are in centimetres (height) and kilograms (weight).
type CustomerMeasurement struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	Label      string         `gorm:"not null" json:"label"`
	Chest      *float64       `json:"chest"`
	Shoulder   *float64       `json:"shoulder"`
	Sleeve     *float64       `json:"sleeve"`
	Neck       *float64       `json:"neck"`
	Back       *float64       `json:"back"`
	Waist      *float64       `json:"waist"`
	Hip        *float64       `json:"hip"`
	Inseam     *float64       `json:"inseam"`
	Outseam    *float64       `json:"outseam"`
	Thigh      *float64       `json:"thigh"`
	Height     *float64       `json:"height"`
	Weight     *float64       `json:"weight"`
	Notes      *string        `gorm:"type:text" json:"notes"`
	MeasuredBy *string        `json:"measured_by"`
	MeasuredAt *time.Time     `json:"measured_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the CustomerMeasurement model
func (CustomerMeasurement) TableName() string {
	return "customer_measurements"
}
