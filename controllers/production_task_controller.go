package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/services"
)

// CreateTaskRequest represents the request body for adding a production task.
// Status and sort order are assigned by the server.
type CreateTaskRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    *string    `json:"description"`
	Stage          string     `json:"stage" binding:"required"`
	AssignedToID   *uint      `json:"assigned_to_id"`
	Priority       int        `json:"priority"`
	EstimatedHours *float64   `json:"estimated_hours" binding:"omitempty,gte=0"`
	DueDate        *time.Time `json:"due_date"`
	Notes          *string    `json:"notes"`
}

// UpdateTaskRequest represents a partial update of a task's non-status fields
type UpdateTaskRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Stage          *string    `json:"stage"`
	AssignedToID   *uint      `json:"assigned_to_id"`
	Priority       *int       `json:"priority"`
	SortOrder      *int       `json:"sort_order" binding:"omitempty,gte=0"`
	EstimatedHours *float64   `json:"estimated_hours" binding:"omitempty,gte=0"`
	DueDate        *time.Time `json:"due_date"`
	Notes          *string    `json:"notes"`
	Unassign       bool       `json:"unassign"`
}

// UpdateTaskStatusRequest represents the request body for a task status change
type UpdateTaskStatusRequest struct {
	Status      string   `json:"status" binding:"required"`
	ActualHours *float64 `json:"actual_hours" binding:"omitempty,gte=0"`
	Notes       *string  `json:"notes"`
}

func taskService() *services.ProductionTaskService {
	return services.NewProductionTaskService(config.GetDB(), services.DefaultWorkflowDeps())
}

// CreateProductionTask handles POST /api/v1/bespoke-orders/:id/tasks
func CreateProductionTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	task, err := taskService().CreateTask(c.Request.Context(), orderID, services.TaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Stage:          req.Stage,
		AssignedToID:   req.AssignedToID,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		Notes:          req.Notes,
	}, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    task,
	})
}

// ListProductionTasks handles GET /api/v1/bespoke-orders/:id/tasks
func ListProductionTasks(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	tasks, err := taskService().ListTasks(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tasks,
	})
}

// ListMyProductionTasks handles GET /api/v1/production-tasks/mine?status=
func ListMyProductionTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := taskService().ListAssigned(c.Request.Context(), user.ID, c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tasks,
	})
}

// GetProductionTask handles GET /api/v1/production-tasks/:id
func GetProductionTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	task, err := taskService().GetTask(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}

// UpdateProductionTask handles PUT /api/v1/production-tasks/:id
func UpdateProductionTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	task, err := taskService().UpdateTask(c.Request.Context(), id, services.TaskUpdate{
		Title:          req.Title,
		Description:    req.Description,
		Stage:          req.Stage,
		AssignedToID:   req.AssignedToID,
		Priority:       req.Priority,
		SortOrder:      req.SortOrder,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		Notes:          req.Notes,
		Unassign:       req.Unassign,
	}, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}

// UpdateProductionTaskStatus handles PUT /api/v1/production-tasks/:id/status
func UpdateProductionTaskStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	task, err := taskService().UpdateTaskStatus(c.Request.Context(), id, req.Status, user, req.ActualHours, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}

// DeleteProductionTask handles DELETE /api/v1/production-tasks/:id
func DeleteProductionTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := taskService().DeleteTask(c.Request.Context(), id, user); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"id": id, "deleted": true},
	})
}
