package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/services"
	"github.com/kendall-kelly/atelier-api/utils"
)

const defaultUploadDir = "./uploads"

func uploadDir() string {
	if cfg := config.GetConfig(); cfg != nil && cfg.UploadDir != "" {
		return cfg.UploadDir
	}
	return defaultUploadDir
}

// UploadDesignImage handles POST /api/v1/bespoke-orders/:id/design-image
// with a multipart "image" field. A previous image is removed once the new
// key is stored.
func UploadDesignImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	images := services.GetImageService()
	if images == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Image storage is not configured")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the \"image\" field")
		return
	}

	ctx := c.Request.Context()
	svc := bespokeService()
	order, err := svc.GetOrder(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	previous := order.DesignImageKey

	key, err := images.UploadDesignImage(ctx, order.OrderNumber, fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	updated, err := svc.SetDesignImage(ctx, id, key, user)
	if err != nil {
		if delErr := images.DeleteImage(ctx, key); delErr != nil {
			logger.Get().WithField("key", key).WithField("error", delErr.Error()).Warn("Failed to remove orphaned design image")
		}
		respondServiceError(c, err)
		return
	}

	if previous != nil && *previous != "" && *previous != key {
		if err := images.DeleteImage(ctx, *previous); err != nil {
			logger.Get().WithField("key", *previous).WithField("error", err.Error()).Warn("Failed to remove replaced design image")
		}
	}

	attachDesignImageURL(ctx, updated)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"id":               updated.ID,
			"order_number":     updated.OrderNumber,
			"design_image_key": key,
			"design_image_url": updated.DesignImageURL,
		},
	})
}

// GetUploadedImage handles GET /uploads/*key and serves locally stored PNG images
func GetUploadedImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	if key == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	if strings.Contains(key, "..") || strings.Contains(key, "\\") {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	if strings.ToLower(filepath.Ext(key)) != utils.AllowedImageFormat {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PNG files are supported")
		return
	}

	filePath, err := utils.ResolveKey(uploadDir(), key)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	c.Header("Content-Type", utils.ImageContentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(filePath)
}
