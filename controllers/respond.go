package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/middleware"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/services"
	"github.com/kendall-kelly/atelier-api/utils"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError maps service errors onto HTTP responses. Anything
// unrecognised is logged and reported as a 500 without internals.
func respondServiceError(c *gin.Context, err error) {
	var (
		notFound   *services.NotFoundError
		forbidden  *services.ForbiddenError
		validation *services.ValidationError
		noOp       *services.NoOpTransitionError
		conflict   *services.ConflictError
		upload     *utils.FileUploadError
	)

	switch {
	case errors.As(err, &notFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &forbidden):
		respondError(c, http.StatusForbidden, "FORBIDDEN", forbidden.Message)
	case errors.As(err, &validation):
		body := gin.H{"code": "VALIDATION_ERROR", "message": validation.Message}
		if validation.Field != "" {
			body["details"] = gin.H{"field": validation.Field}
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": body})
	case errors.As(err, &noOp):
		respondError(c, http.StatusConflict, "STATUS_UNCHANGED", err.Error())
	case errors.As(err, &conflict):
		respondError(c, http.StatusConflict, "CONFLICT", conflict.Message)
	case errors.As(err, &upload):
		respondError(c, http.StatusBadRequest, upload.Code, upload.Message)
	default:
		logger.Get().WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		}).Error("Request failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

// currentUser returns the user loaded by the role guard, writing a 401 when absent.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return nil, false
	}
	return user, true
}

// idParam parses a positive numeric path parameter, writing a 400 when invalid.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
