package models

import (
	"time"

	"gorm.io/gorm"
)

// BespokeOrder is a custom tailoring order tracked from inquiry to delivery.
// Status only changes through the status workflow; every other field is
// freely editable by staff.
type BespokeOrder struct {
	ID                      uint                 `gorm:"primaryKey" json:"id"`
	OrderNumber             string               `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerName            string               `gorm:"not null" json:"customer_name"`
	CustomerPhone           string               `gorm:"not null" json:"customer_phone"`
	CustomerEmail           *string              `json:"customer_email"`
	UserID                  *uint                `gorm:"index" json:"user_id"` // nullable, walk-in customers have no account
	User                    *User                `gorm:"foreignKey:UserID" json:"-"`
	EstimatedPrice          *float64             `json:"estimated_price"`
	FinalPrice              *float64             `json:"final_price"`
	DepositAmount           *float64             `json:"deposit_amount"`
	DepositPaid             bool                 `gorm:"not null;default:false" json:"deposit_paid"`
	DesignDescription       *string              `gorm:"type:text" json:"design_description"`
	FabricDetails           *string              `gorm:"type:text" json:"fabric_details"`
	CustomerNotes           *string              `gorm:"type:text" json:"customer_notes"`
	InternalNotes           *string              `gorm:"type:text" json:"internal_notes,omitempty"` // staff only
	MeasurementID           *uint                `gorm:"index" json:"measurement_id"`
	Measurement             *CustomerMeasurement `gorm:"foreignKey:MeasurementID" json:"measurement,omitempty"`
	DesignImageKey          *string              `json:"design_image_key,omitempty"`
	DesignImageURL          *string              `gorm:"-" json:"design_image_url,omitempty"` // computed, resolved through the image service
	Status                  BespokeStatus        `gorm:"type:varchar(32);not null;default:'INQUIRY';index" json:"status"`
	EstimatedCompletionDate *time.Time           `json:"estimated_completion_date"`
	ActualCompletionDate    *time.Time           `json:"actual_completion_date"` // set when the order is delivered
	Tasks                   []ProductionTask     `gorm:"foreignKey:BespokeOrderID" json:"tasks,omitempty"`
	StatusLogs              []BespokeStatusLog   `gorm:"foreignKey:BespokeOrderID" json:"status_logs,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
	UpdatedAt               time.Time            `json:"updated_at"`
	DeletedAt               gorm.DeletedAt       `gorm:"index" json:"-"`
}

// TableName specifies the table name for the BespokeOrder model
func (BespokeOrder) TableName() string {
	return "bespoke_orders"
}

// CustomerView strips fields the customer must not see: internal notes,
// production tasks and who changed the status (with their notes).
func (o BespokeOrder) CustomerView() BespokeOrder {
	o.InternalNotes = nil
	o.Tasks = nil
	if o.StatusLogs != nil {
		logs := make([]BespokeStatusLog, len(o.StatusLogs))
		for i, l := range o.StatusLogs {
			l.Note = nil
			l.ChangedBy = nil
			l.ChangedByUserID = 0
			logs[i] = l
		}
		o.StatusLogs = logs
	}
	return o
}

// BespokeStatusLog is one immutable row of an order's status history.
// OldStatus is empty for the creation entry.
type BespokeStatusLog struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	BespokeOrderID  uint          `gorm:"not null;index" json:"bespoke_order_id"`
	ChangedByUserID uint          `gorm:"not null;index" json:"changed_by_user_id,omitempty"`
	ChangedBy       *UserSummary  `gorm:"-" json:"changed_by,omitempty"`
	OldStatus       BespokeStatus `gorm:"type:varchar(32);not null;default:''" json:"old_status"`
	NewStatus       BespokeStatus `gorm:"type:varchar(32);not null" json:"new_status"`
	Note            *string       `gorm:"type:text" json:"note"`
	CreatedAt       time.Time     `json:"created_at"`
}

// TableName specifies the table name for the BespokeStatusLog model
func (BespokeStatusLog) TableName() string {
	return "bespoke_status_logs"
}
