package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductionTask is one unit of fabrication work on a bespoke order
// (cutting, sewing, a fitting...). Stage is a free-form label, separate
// from the order status.
type ProductionTask struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	BespokeOrderID uint           `gorm:"not null;index" json:"bespoke_order_id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    *string        `gorm:"type:text" json:"description"`
	Stage          string         `gorm:"not null;index" json:"stage"`
	Status         TaskStatus     `gorm:"type:varchar(32);not null;default:'NOT_STARTED';index" json:"status"`
	AssignedToID   *uint          `gorm:"index" json:"assigned_to_id"`
	Assignee       *UserSummary   `gorm:"-" json:"assignee,omitempty"`
	Priority       int            `gorm:"not null;default:0" json:"priority"` // higher is more urgent
	SortOrder      int            `gorm:"not null;default:0" json:"sort_order"`
	EstimatedHours *float64       `json:"estimated_hours"`
	ActualHours    *float64       `json:"actual_hours"`
	DueDate        *time.Time     `json:"due_date"`
	CompletedAt    *time.Time     `json:"completed_at"` // non-nil exactly when Status is COMPLETED
	Notes          *string        `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ProductionTask model
func (ProductionTask) TableName() string {
	return "production_tasks"
}
