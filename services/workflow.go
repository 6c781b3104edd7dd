package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
)

// WorkflowDeps are the collaborators the workflow services call once a
// write has committed. Failures in any of them are logged, never returned.
type WorkflowDeps struct {
	Dispatcher Dispatcher
	Activity   ActivityLogger
	Events     EventPublisher
	Logger     logger.Logger
	AppBaseURL string
}

// DefaultWorkflowDeps wires the process-wide collaborators.
func DefaultWorkflowDeps() WorkflowDeps {
	deps := WorkflowDeps{
		Dispatcher: GetDispatcher(),
		Activity:   GetActivityLogger(),
		Events:     GetEventPublisher(),
		Logger:     logger.Get(),
	}
	if cfg := config.GetConfig(); cfg != nil {
		deps.AppBaseURL = cfg.AppBaseURL
	}
	return deps
}

func (d WorkflowDeps) withDefaults() WorkflowDeps {
	if d.Events == nil {
		d.Events = NoopEventPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Get()
	}
	d.AppBaseURL = strings.TrimRight(d.AppBaseURL, "/")
	return d
}

// recordActivity writes the activity entry for a committed mutation.
func (d WorkflowDeps) recordActivity(ctx context.Context, actorID uint, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if d.Activity == nil {
		return
	}
	err := callSafely(func() error {
		return d.Activity.Log(ctx, actorID, action, entityType, entityID, metadata)
	})
	if err != nil {
		d.Logger.WithFields(map[string]interface{}{
			"action":      action,
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		}).Error("Failed to write activity log")
	}
}

func (d WorkflowDeps) publish(ctx context.Context, channel string, event StatusChangedEvent) {
	err := callSafely(func() error {
		return d.Events.Publish(ctx, channel, event)
	})
	if err != nil {
		d.Logger.WithFields(map[string]interface{}{
			"channel":    channel,
			"entity_id":  event.EntityID,
			"new_status": event.NewStatus,
			"error":      err.Error(),
		}).Warn("Failed to publish status event")
	}
}

// callSafely runs fn and turns a panic into an error.
func callSafely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func requireStaff(actor *models.User) error {
	if actor == nil || !actor.IsStaff() {
		return forbidden("Only staff members can manage bespoke orders")
	}
	return nil
}

func requireAdmin(actor *models.User) error {
	if actor == nil || !actor.IsAdmin() {
		return forbidden("Only administrators can perform this action")
	}
	return nil
}

// userSummaries loads {id, name} for the given user ids.
func userSummaries(db *gorm.DB, ids []uint) (map[uint]*models.UserSummary, error) {
	out := make(map[uint]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := db.Unscoped().Select("id", "name").Where("id IN ?", uniqueIDs(ids)).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u.Summary()
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// trimmedOrNil returns nil for nil or blank strings.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
