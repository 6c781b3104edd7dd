package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold. Customers only see their own orders; everyone else is staff.
const (
	RoleCustomer   = "CUSTOMER"
	RoleStaff      = "STAFF"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// User represents an account in the system (customer or back-office staff)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone     *string        `json:"phone,omitempty"`
	Role      string         `gorm:"not null;default:'CUSTOMER'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user works in the back office at any level.
func (u User) IsStaff() bool {
	return u.Role == RoleStaff || u.IsAdmin()
}

// IsAdmin reports whether the user is an ADMIN or SUPER_ADMIN.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// Summary returns the display-safe subset of the user.
func (u User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name}
}

// UserSummary is what other users get to see about a staff member.
type UserSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleStaff, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
