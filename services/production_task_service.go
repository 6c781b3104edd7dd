package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityProductionTask = "production task"

// TaskInput holds the fields of a new production task. Status and sort
// order are always assigned by the service.
type TaskInput struct {
	Title          string
	Description    *string
	Stage          string
	AssignedToID   *uint
	Priority       int
	EstimatedHours *float64
	DueDate        *time.Time
	Notes          *string
}

// TaskUpdate is a partial update of a task's non-status fields.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Stage          *string
	AssignedToID   *uint
	Priority       *int
	SortOrder      *int
	EstimatedHours *float64
	DueDate        *time.Time
	Notes          *string
	Unassign       bool // clear the assignee; conflicts with AssignedToID
}

// ProductionTaskService manages the fabrication tasks of bespoke orders.
type ProductionTaskService struct {
	db   *gorm.DB
	deps WorkflowDeps
}

// NewProductionTaskService creates a production task service
func NewProductionTaskService(db *gorm.DB, deps WorkflowDeps) *ProductionTaskService {
	return &ProductionTaskService{db: db, deps: deps.withDefaults()}
}

// CreateTask appends a task to an order. It starts NOT_STARTED at the end of the list.
func (s *ProductionTaskService) CreateTask(ctx context.Context, orderID uint, input TaskInput, actor *models.User) (*models.ProductionTask, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	stage := strings.TrimSpace(input.Stage)
	if title == "" {
		return nil, invalid("title", "title is required")
	}
	if stage == "" {
		return nil, invalid("stage", "stage is required")
	}
	if err := checkHours("estimated_hours", input.EstimatedHours); err != nil {
		return nil, err
	}

	task := models.ProductionTask{
		BespokeOrderID: orderID,
		Title:          title,
		Description:    trimmedOrNil(input.Description),
		Stage:          stage,
		Status:         models.TaskNotStarted,
		AssignedToID:   input.AssignedToID,
		Priority:       input.Priority,
		EstimatedHours: input.EstimatedHours,
		DueDate:        input.DueDate,
		Notes:          trimmedOrNil(input.Notes),
	}

	var order models.BespokeOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locking the parent serialises concurrent appends to the same order.
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := checkAssignee(tx, task.AssignedToID); err != nil {
			return err
		}

		var maxSort int
		row := tx.Unscoped().Model(&models.ProductionTask{}).
			Where("bespoke_order_id = ?", orderID).
			Select("COALESCE(MAX(sort_order), 0)").
			Row()
		if err := row.Scan(&maxSort); err != nil {
			return fmt.Errorf("failed to compute sort order: %w", err)
		}
		task.SortOrder = maxSort + 1

		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("failed to create production task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.resolveAssignees(ctx, []*models.ProductionTask{&task}); err != nil {
		return nil, err
	}
	s.deps.recordActivity(ctx, actor.ID, ActionTaskCreated, EntityProductionTask, task.ID, map[string]interface{}{
		"bespoke_order_id": orderID,
		"order_number":     order.OrderNumber,
		"title":            task.Title,
	})
	return &task, nil
}

// GetTask loads a single task with its assignee.
func (s *ProductionTaskService) GetTask(ctx context.Context, taskID uint) (*models.ProductionTask, error) {
	var task models.ProductionTask
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(entityProductionTask, taskID)
		}
		return nil, fmt.Errorf("failed to load production task: %w", err)
	}
	if err := s.resolveAssignees(ctx, []*models.ProductionTask{&task}); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns an order's tasks in sort order.
func (s *ProductionTaskService) ListTasks(ctx context.Context, orderID uint) ([]models.ProductionTask, error) {
	if err := orderExists(s.db.WithContext(ctx), orderID); err != nil {
		return nil, err
	}

	tasks := []models.ProductionTask{}
	err := s.db.WithContext(ctx).
		Where("bespoke_order_id = ?", orderID).
		Order("sort_order ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list production tasks: %w", err)
	}
	return tasks, s.resolveAssigneeSlice(ctx, tasks)
}

// ListAssigned returns the tasks assigned to userID, most urgent first.
// An empty status returns every status.
func (s *ProductionTaskService) ListAssigned(ctx context.Context, userID uint, status string) ([]models.ProductionTask, error) {
	query := s.db.WithContext(ctx).Where("assigned_to_id = ?", userID)
	if status != "" {
		parsed, err := models.ParseTaskStatus(status)
		if err != nil {
			return nil, invalid("status", "%s", err.Error())
		}
		query = query.Where("status = ?", string(parsed))
	}

	tasks := []models.ProductionTask{}
	err := query.Order("priority DESC").Order("due_date IS NULL").Order("due_date ASC").Order("id ASC").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned tasks: %w", err)
	}
	return tasks, s.resolveAssigneeSlice(ctx, tasks)
}

// UpdateTask edits a task's non-status fields. Staff may edit their own
// tasks; reassigning or editing someone else's task needs an administrator.
func (s *ProductionTaskService) UpdateTask(ctx context.Context, taskID uint, input TaskUpdate, actor *models.User) (*models.ProductionTask, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	updates, err := input.changes()
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, invalid("", "no fields to update")
	}

	var task models.ProductionTask
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := authorizeTaskEdit(actor, &task); err != nil {
			return err
		}
		if _, reassigning := updates["assigned_to_id"]; reassigning {
			if !actor.IsAdmin() {
				return forbidden("Only administrators can reassign production tasks")
			}
			if err := checkAssignee(tx, input.AssignedToID); err != nil {
				return err
			}
		}
		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update production task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.recordActivity(ctx, actor.ID, ActionTaskUpdated, EntityProductionTask, task.ID, map[string]interface{}{
		"bespoke_order_id": task.BespokeOrderID,
	})
	return s.GetTask(ctx, taskID)
}

// UpdateTaskStatus changes a task's status and merges actual hours and notes.
// completed_at is set on the first move into COMPLETED and cleared on any
// other status. The same status is accepted so hours and notes can be
// recorded on their own.
func (s *ProductionTaskService) UpdateTaskStatus(ctx context.Context, taskID uint, newStatus string, actor *models.User, actualHours *float64, notes *string) (*models.ProductionTask, error) {
	target, err := models.ParseTaskStatus(strings.TrimSpace(newStatus))
	if err != nil {
		return nil, invalid("status", "%s", err.Error())
	}
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := checkHours("actual_hours", actualHours); err != nil {
		return nil, err
	}

	var (
		task models.ProductionTask
		prev models.TaskStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := authorizeTaskEdit(actor, &task); err != nil {
			return err
		}
		prev = task.Status

		updates := map[string]interface{}{"status": string(target)}
		completedAt := task.CompletedAt
		if target == models.TaskCompleted {
			if prev != models.TaskCompleted || completedAt == nil {
				now := timeNow()
				completedAt = &now
				updates["completed_at"] = now
			}
		} else {
			completedAt = nil
			updates["completed_at"] = nil
		}
		if actualHours != nil {
			updates["actual_hours"] = *actualHours
			task.ActualHours = actualHours
		}
		if notes != nil {
			updates["notes"] = *notes
			task.Notes = notes
		}

		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update production task status: %w", err)
		}
		task.Status = target
		task.CompletedAt = completedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.resolveAssignees(ctx, []*models.ProductionTask{&task}); err != nil {
		return nil, err
	}
	if prev != target {
		s.deps.publish(ctx, ChannelTaskStatusChanged, StatusChangedEvent{
			EntityType: EntityProductionTask,
			EntityID:   task.ID,
			OrderID:    task.BespokeOrderID,
			OldStatus:  string(prev),
			NewStatus:  string(target),
			ChangedBy:  actor.ID,
			Note:       derefString(notes),
			OccurredAt: timeNow(),
		})
	}
	s.deps.recordActivity(ctx, actor.ID, ActionTaskStatusChanged, EntityProductionTask, task.ID, map[string]interface{}{
		"bespoke_order_id": task.BespokeOrderID,
		"old_status":       string(prev),
		"new_status":       string(target),
	})
	return &task, nil
}

// DeleteTask soft-deletes a task. Administrators only.
func (s *ProductionTaskService) DeleteTask(ctx context.Context, taskID uint, actor *models.User) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	var task models.ProductionTask
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTask(tx, taskID, &task); err != nil {
			return err
		}
		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("failed to delete production task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.recordActivity(ctx, actor.ID, ActionTaskDeleted, EntityProductionTask, task.ID, map[string]interface{}{
		"bespoke_order_id": task.BespokeOrderID,
		"title":            task.Title,
	})
	return nil
}

func (s *ProductionTaskService) resolveAssigneeSlice(ctx context.Context, tasks []models.ProductionTask) error {
	ptrs := make([]*models.ProductionTask, len(tasks))
	for i := range tasks {
		ptrs[i] = &tasks[i]
	}
	return s.resolveAssignees(ctx, ptrs)
}

func (s *ProductionTaskService) resolveAssignees(ctx context.Context, tasks []*models.ProductionTask) error {
	ids := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		if t.AssignedToID != nil {
			ids = append(ids, *t.AssignedToID)
		}
	}
	people, err := userSummaries(s.db.WithContext(ctx), ids)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.AssignedToID != nil {
			t.Assignee = people[*t.AssignedToID]
		}
	}
	return nil
}

func (u TaskUpdate) changes() (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return nil, invalid("title", "title cannot be empty")
		}
		updates["title"] = title
	}
	if u.Stage != nil {
		stage := strings.TrimSpace(*u.Stage)
		if stage == "" {
			return nil, invalid("stage", "stage cannot be empty")
		}
		updates["stage"] = stage
	}
	if err := checkHours("estimated_hours", u.EstimatedHours); err != nil {
		return nil, err
	}
	if u.SortOrder != nil && *u.SortOrder < 0 {
		return nil, invalid("sort_order", "sort order cannot be negative")
	}

	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Unassign {
		if u.AssignedToID != nil {
			return nil, invalid("assigned_to_id", "cannot assign and unassign at once")
		}
		updates["assigned_to_id"] = nil
	}
	if u.AssignedToID != nil {
		updates["assigned_to_id"] = *u.AssignedToID
	}
	if u.Priority != nil {
		updates["priority"] = *u.Priority
	}
	if u.SortOrder != nil {
		updates["sort_order"] = *u.SortOrder
	}
	if u.EstimatedHours != nil {
		updates["estimated_hours"] = *u.EstimatedHours
	}
	if u.DueDate != nil {
		updates["due_date"] = *u.DueDate
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	return updates, nil
}

// authorizeTaskEdit lets administrators edit any task and staff only their own.
func authorizeTaskEdit(actor *models.User, task *models.ProductionTask) error {
	if actor.IsAdmin() {
		return nil
	}
	if task.AssignedToID == nil || *task.AssignedToID != actor.ID {
		return forbidden("You can only update production tasks assigned to you")
	}
	return nil
}

func lockTask(tx *gorm.DB, taskID uint, dest *models.ProductionTask) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(entityProductionTask, taskID)
		}
		return fmt.Errorf("failed to load production task: %w", err)
	}
	return nil
}

// checkAssignee requires the assignee to be an existing staff member.
func checkAssignee(tx *gorm.DB, userID *uint) error {
	if userID == nil {
		return nil
	}
	var user models.User
	if err := tx.First(&user, *userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("assigned_to_id", "user %d does not exist", *userID)
		}
		return fmt.Errorf("failed to load assignee: %w", err)
	}
	if !user.IsStaff() {
		return invalid("assigned_to_id", "user %d is not a staff member", *userID)
	}
	return nil
}

func checkHours(field string, hours *float64) error {
	if hours != nil && *hours < 0 {
		return invalid(field, "hours cannot be negative")
	}
	return nil
}
