package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
)

// NotFoundError means the referenced order, task or other entity does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ForbiddenError means the caller is authenticated but may not perform this mutation.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// ValidationError means the input was malformed. Field is empty when the
// problem is not tied to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// NoOpTransitionError means the order is already in the requested status.
// It usually indicates a stale client view.
type NoOpTransitionError struct {
	OrderID uint
	Status  models.BespokeStatus
}

func (e *NoOpTransitionError) Error() string {
	return fmt.Sprintf("bespoke order %d is already in status %s", e.OrderID, e.Status)
}

// ConflictError means the request breaks a structural rule, such as deleting a delivered order.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func notFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func forbidden(format string, args ...interface{}) error {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsUniqueViolation recognises duplicate key errors from PostgreSQL and SQLite.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
