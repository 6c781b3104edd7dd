package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
)

// Notification categories
const (
	CategoryBespoke = "bespoke"
)

// Dispatcher delivers customer-facing notifications. Both calls are best
// effort from the caller's point of view.
type Dispatcher interface {
	// Notify stores an in-app notification for a user
	Notify(ctx context.Context, userID uint, title, body, category, linkURL string) error

	// SendEmail sends an email; textBody may be empty
	SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// NotificationDispatcher stores in-app notifications with gorm and sends
// email through a Mailer
type NotificationDispatcher struct {
	db     *gorm.DB
	mailer Mailer
}

var dispatcherInstance Dispatcher

// NewNotificationDispatcher creates a dispatcher writing to db and mailing through mailer
func NewNotificationDispatcher(db *gorm.DB, mailer Mailer) *NotificationDispatcher {
	return &NotificationDispatcher{db: db, mailer: mailer}
}

// GetDispatcher returns the process-wide dispatcher
func GetDispatcher() Dispatcher {
	return dispatcherInstance
}

// SetDispatcher sets the process-wide dispatcher (also used by tests)
func SetDispatcher(d Dispatcher) {
	dispatcherInstance = d
}

// Notify inserts a notification row for the user
func (d *NotificationDispatcher) Notify(ctx context.Context, userID uint, title, body, category, linkURL string) error {
	notification := models.Notification{
		UserID:   userID,
		Title:    title,
		Body:     body,
		Category: category,
	}
	if linkURL != "" {
		notification.LinkURL = &linkURL
	}

	if err := d.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// SendEmail forwards to the configured mailer
func (d *NotificationDispatcher) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if d.mailer == nil {
		return ErrMailerNotConfigured
	}
	return d.mailer.Send(ctx, to, subject, htmlBody, textBody)
}

// NotificationService serves a user's own notification feed
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a notification feed service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// ListForUser returns the newest notifications first. unreadOnly filters out read ones.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	notifications := []models.Notification{}
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read. Marking an
// already-read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("notification", notificationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}

	if notification.ReadAt == nil {
		now := timeNow()
		if err := s.db.WithContext(ctx).Model(&notification).Update("read_at", now).Error; err != nil {
			return nil, fmt.Errorf("failed to mark notification read: %w", err)
		}
		notification.ReadAt = &now
	}
	return &notification, nil
}
