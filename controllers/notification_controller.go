package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/services"
)

// ListMyNotifications handles GET /api/v1/notifications?unread=true&limit=
func ListMyNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	list, err := services.NewNotificationService(config.GetDB()).
		ListForUser(c.Request.Context(), user.ID, unreadOnly, queryInt(c, "limit", 0))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
	})
}

// MarkNotificationRead handles PUT /api/v1/notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	n, err := services.NewNotificationService(config.GetDB()).MarkRead(c.Request.Context(), user.ID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    n,
	})
}
