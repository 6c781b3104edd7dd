package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (api *testAPI) createTask(t *testing.T, orderID uint, body gin.H) models.ProductionTask {
	t.Helper()
	w, env := api.do(t, api.admin, http.MethodPost, fmt.Sprintf("/api/v1/bespoke-orders/%d/tasks", orderID), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.ProductionTask
	decode(t, env, &task)
	return task
}

func TestCreateProductionTask_ServerAssignsStatusAndSortOrder(t *testing.T) {
	api := setupAPI(t)
	order := api.createOrder(t)

	first := api.createTask(t, order.ID, gin.H{"title": "Pattern", "stage": "design", "status": "COMPLETED", "sort_order": 40})
	second := api.createTask(t, order.ID, gin.H{"title": "Cut", "stage": "cutting", "assigned_to_id": api.staff.ID})

	assert.Equal(t, models.TaskNotStarted, first.Status)
	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, 2, second.SortOrder)
	require.NotNil(t, second.Assignee)
	assert.Equal(t, "sol", second.Assignee.Name)

	w, env := api.do(t, api.staff, http.MethodGet, fmt.Sprintf("/api/v1/bespoke-orders/%d/tasks", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.ProductionTask
	decode(t, env, &tasks)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Pattern", tasks[0].Title)

	t.Run("customer assignee rejected", func(t *testing.T) {
		w, env := api.do(t, api.admin, http.MethodPost, fmt.Sprintf("/api/v1/bespoke-orders/%d/tasks", order.ID), gin.H{
			"title": "x", "stage": "y", "assigned_to_id": api.customer.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		w, _ := api.do(t, api.admin, http.MethodPost, "/api/v1/bespoke-orders/9999/tasks", gin.H{"title": "x", "stage": "y"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateProductionTaskStatus(t *testing.T) {
	api := setupAPI(t)
	order := api.createOrder(t)
	task := api.createTask(t, order.ID, gin.H{"title": "Sew", "stage": "construction", "assigned_to_id": api.staff.ID})
	path := fmt.Sprintf("/api/v1/production-tasks/%d/status", task.ID)

	w, _ := api.do(t, api.staff2, http.MethodPut, path, gin.H{"status": "IN_PROGRESS"})
	assert.Equal(t, http.StatusForbidden, w.Code, "other staff cannot touch the task")

	w, env := api.do(t, api.admin, http.MethodPut, path, gin.H{"status": "COMPLETED", "actual_hours": 4.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var done models.ProductionTask
	decode(t, env, &done)
	assert.Equal(t, models.TaskCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, 4.5, *done.ActualHours)

	w, env = api.do(t, api.staff, http.MethodPut, path, gin.H{"status": "IN_PROGRESS", "notes": "collar rework"})
	require.Equal(t, http.StatusOK, w.Code)
	var reopened models.ProductionTask
	decode(t, env, &reopened)
	assert.Nil(t, reopened.CompletedAt)
	assert.Equal(t, 4.5, *reopened.ActualHours)

	w, _ = api.do(t, api.staff, http.MethodPut, path, gin.H{"status": "FINISHED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(t, api.staff, http.MethodPut, path, gin.H{"status": "IN_PROGRESS", "actual_hours": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(t, api.customer, http.MethodPut, path, gin.H{"status": "ON_HOLD"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMyProductionTasksAndUpdates(t *testing.T) {
	api := setupAPI(t)
	order := api.createOrder(t)
	mine := api.createTask(t, order.ID, gin.H{"title": "Mine", "stage": "x", "assigned_to_id": api.staff.ID, "priority": 3})
	api.createTask(t, order.ID, gin.H{"title": "Theirs", "stage": "x", "assigned_to_id": api.staff2.ID})

	w, env := api.do(t, api.staff, http.MethodGet, "/api/v1/production-tasks/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.ProductionTask
	decode(t, env, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, mine.ID, tasks[0].ID)

	path := fmt.Sprintf("/api/v1/production-tasks/%d", mine.ID)
	w, env = api.do(t, api.staff, http.MethodPut, path, gin.H{"notes": "use silk thread", "status": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.ProductionTask
	decode(t, env, &updated)
	assert.Equal(t, "use silk thread", *updated.Notes)
	assert.Equal(t, models.TaskNotStarted, updated.Status, "status only changes through the status route")

	w, _ = api.do(t, api.staff, http.MethodPut, path, gin.H{"assigned_to_id": api.staff2.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(t, api.staff, http.MethodPut, path, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "an empty update is rejected")

	w, env = api.do(t, api.admin, http.MethodPut, path, gin.H{"unassign": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var unassigned models.ProductionTask
	decode(t, env, &unassigned)
	assert.Nil(t, unassigned.AssignedToID)

	w, env = api.do(t, api.staff, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.ProductionTask
	decode(t, env, &fetched)
	assert.Equal(t, "Mine", fetched.Title)
}

func TestDeleteProductionTask(t *testing.T) {
	api := setupAPI(t)
	order := api.createOrder(t)
	task := api.createTask(t, order.ID, gin.H{"title": "Cut", "stage": "cutting", "assigned_to_id": api.staff.ID})
	path := fmt.Sprintf("/api/v1/production-tasks/%d", task.ID)

	w, _ := api.do(t, api.staff, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(t, api.admin, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(t, api.admin, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
