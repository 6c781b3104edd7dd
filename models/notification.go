package models

import "time"

// Notification is an in-app message shown to a signed-in user.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Title     string     `gorm:"not null" json:"title"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	Category  string     `gorm:"not null;index" json:"category"`
	LinkURL   *string    `json:"link_url"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

// ActivityLog is the system-wide record of who did what to which entity.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Action     string    `gorm:"not null;index" json:"action"`
	EntityType string    `gorm:"not null;index:idx_activity_entity" json:"entity_type"`
	EntityID   uint      `gorm:"not null;index:idx_activity_entity" json:"entity_id"`
	Metadata   string    `gorm:"type:text" json:"metadata"` // JSON object
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}
