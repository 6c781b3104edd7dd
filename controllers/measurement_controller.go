package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/services"
)

// CreateMeasurementRequest represents the request body for recording measurements
type CreateMeasurementRequest struct {
	UserID     *uint      `json:"user_id"`
	Label      string     `json:"label"`
	Chest      *float64   `json:"chest" binding:"omitempty,gt=0"`
	Shoulder   *float64   `json:"shoulder" binding:"omitempty,gt=0"`
	Sleeve     *float64   `json:"sleeve" binding:"omitempty,gt=0"`
	Neck       *float64   `json:"neck" binding:"omitempty,gt=0"`
	Back       *float64   `json:"back" binding:"omitempty,gt=0"`
	Waist      *float64   `json:"waist" binding:"omitempty,gt=0"`
	Hip        *float64   `json:"hip" binding:"omitempty,gt=0"`
	Inseam     *float64   `json:"inseam" binding:"omitempty,gt=0"`
	Outseam    *float64   `json:"outseam" binding:"omitempty,gt=0"`
	Thigh      *float64   `json:"thigh" binding:"omitempty,gt=0"`
	Height     *float64   `json:"height" binding:"omitempty,gt=0"`
	Weight     *float64   `json:"weight" binding:"omitempty,gt=0"`
	Notes      *string    `json:"notes"`
	MeasuredBy *string    `json:"measured_by"`
	MeasuredAt *time.Time `json:"measured_at"`
}

func measurementService() *services.MeasurementService {
	return services.NewMeasurementService(config.GetDB(), services.DefaultWorkflowDeps())
}

// CreateMeasurement handles POST /api/v1/measurements
func CreateMeasurement(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	m, err := measurementService().Create(c.Request.Context(), models.CustomerMeasurement{
		UserID:     req.UserID,
		Label:      req.Label,
		Chest:      req.Chest,
		Shoulder:   req.Shoulder,
		Sleeve:     req.Sleeve,
		Neck:       req.Neck,
		Back:       req.Back,
		Waist:      req.Waist,
		Hip:        req.Hip,
		Inseam:     req.Inseam,
		Outseam:    req.Outseam,
		Thigh:      req.Thigh,
		Height:     req.Height,
		Weight:     req.Weight,
		Notes:      req.Notes,
		MeasuredBy: req.MeasuredBy,
		MeasuredAt: req.MeasuredAt,
	}, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    m,
	})
}

// GetMeasurement handles GET /api/v1/measurements/:id
func GetMeasurement(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	m, err := measurementService().Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    m,
	})
}

// ListUserMeasurements handles GET /api/v1/users/:id/measurements
func ListUserMeasurements(c *gin.Context) {
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	list, err := measurementService().ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
	})
}
