package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/services"
)

// CreateBespokeOrderRequest represents the request body for creating a bespoke order
type CreateBespokeOrderRequest struct {
	CustomerName            string     `json:"customer_name" binding:"required"`
	CustomerPhone           string     `json:"customer_phone" binding:"required"`
	CustomerEmail           *string    `json:"customer_email" binding:"omitempty,email"`
	UserID                  *uint      `json:"user_id"`
	EstimatedPrice          *float64   `json:"estimated_price" binding:"omitempty,gte=0"`
	FinalPrice              *float64   `json:"final_price" binding:"omitempty,gte=0"`
	DepositAmount           *float64   `json:"deposit_amount" binding:"omitempty,gte=0"`
	DepositPaid             bool       `json:"deposit_paid"`
	DesignDescription       *string    `json:"design_description"`
	FabricDetails           *string    `json:"fabric_details"`
	CustomerNotes           *string    `json:"customer_notes"`
	InternalNotes           *string    `json:"internal_notes"`
	MeasurementID           *uint      `json:"measurement_id"`
	EstimatedCompletionDate *time.Time `json:"estimated_completion_date"`
}

// UpdateBespokeOrderRequest represents a partial update; status is changed through its own endpoint
type UpdateBespokeOrderRequest struct {
	CustomerName            *string    `json:"customer_name"`
	CustomerPhone           *string    `json:"customer_phone"`
	CustomerEmail           *string    `json:"customer_email"`
	UserID                  *uint      `json:"user_id"`
	EstimatedPrice          *float64   `json:"estimated_price" binding:"omitempty,gte=0"`
	FinalPrice              *float64   `json:"final_price" binding:"omitempty,gte=0"`
	DepositAmount           *float64   `json:"deposit_amount" binding:"omitempty,gte=0"`
	DepositPaid             *bool      `json:"deposit_paid"`
	DesignDescription       *string    `json:"design_description"`
	FabricDetails           *string    `json:"fabric_details"`
	CustomerNotes           *string    `json:"customer_notes"`
	InternalNotes           *string    `json:"internal_notes"`
	MeasurementID           *uint      `json:"measurement_id"`
	EstimatedCompletionDate *time.Time `json:"estimated_completion_date"`
	UnlinkUser              bool       `json:"unlink_user"`
}

// UpdateBespokeStatusRequest represents the request body for a status transition
type UpdateBespokeStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Note   *string `json:"note"`
}

func bespokeService() *services.BespokeService {
	return services.NewBespokeService(config.GetDB(), services.DefaultWorkflowDeps())
}

// CreateBespokeOrder handles POST /api/v1/bespoke-orders
func CreateBespokeOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateBespokeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := bespokeService().CreateOrder(c.Request.Context(), services.BespokeOrderInput{
		CustomerName:            req.CustomerName,
		CustomerPhone:           req.CustomerPhone,
		CustomerEmail:           req.CustomerEmail,
		UserID:                  req.UserID,
		EstimatedPrice:          req.EstimatedPrice,
		FinalPrice:              req.FinalPrice,
		DepositAmount:           req.DepositAmount,
		DepositPaid:             req.DepositPaid,
		DesignDescription:       req.DesignDescription,
		FabricDetails:           req.FabricDetails,
		CustomerNotes:           req.CustomerNotes,
		InternalNotes:           req.InternalNotes,
		MeasurementID:           req.MeasurementID,
		EstimatedCompletionDate: req.EstimatedCompletionDate,
	}, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListBespokeOrders handles GET /api/v1/bespoke-orders?status=&page=&limit=
func ListBespokeOrders(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	orders, total, err := bespokeService().ListOrders(c.Request.Context(), services.BespokeOrderFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetBespokeOrder handles GET /api/v1/bespoke-orders/:id
func GetBespokeOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := bespokeService().GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	attachDesignImageURL(c.Request.Context(), order)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateBespokeOrder handles PUT /api/v1/bespoke-orders/:id
func UpdateBespokeOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBespokeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := bespokeService().UpdateOrder(c.Request.Context(), id, services.BespokeOrderUpdate{
		CustomerName:            req.CustomerName,
		CustomerPhone:           req.CustomerPhone,
		CustomerEmail:           req.CustomerEmail,
		UserID:                  req.UserID,
		EstimatedPrice:          req.EstimatedPrice,
		FinalPrice:              req.FinalPrice,
		DepositAmount:           req.DepositAmount,
		DepositPaid:             req.DepositPaid,
		DesignDescription:       req.DesignDescription,
		FabricDetails:           req.FabricDetails,
		CustomerNotes:           req.CustomerNotes,
		InternalNotes:           req.InternalNotes,
		MeasurementID:           req.MeasurementID,
		EstimatedCompletionDate: req.EstimatedCompletionDate,
		UnlinkUser:              req.UnlinkUser,
	}, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	attachDesignImageURL(c.Request.Context(), order)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateBespokeStatus handles PUT /api/v1/bespoke-orders/:id/status
func UpdateBespokeStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBespokeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := bespokeService().TransitionStatus(c.Request.Context(), id, req.Status, user, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteBespokeOrder handles DELETE /api/v1/bespoke-orders/:id
func DeleteBespokeOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := bespokeService().DeleteOrder(c.Request.Context(), id, user); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"id": id, "deleted": true},
	})
}

// ListBespokeStatusLog handles GET /api/v1/bespoke-orders/:id/status-log
func ListBespokeStatusLog(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	logs, err := bespokeService().ListStatusLog(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

// ListMyBespokeOrders handles GET /api/v1/me/bespoke-orders
func ListMyBespokeOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 10)

	orders, total, err := bespokeService().ListForCustomer(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetMyBespokeOrder handles GET /api/v1/me/bespoke-orders/:id
func GetMyBespokeOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := bespokeService().GetCustomerOrder(c.Request.Context(), id, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	attachDesignImageURL(c.Request.Context(), order)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// attachDesignImageURL resolves the design image URL. A storage failure
// only drops the URL from the response.
func attachDesignImageURL(ctx context.Context, order *models.BespokeOrder) {
	images := services.GetImageService()
	if images == nil || order.DesignImageKey == nil || *order.DesignImageKey == "" {
		return
	}

	url, err := images.GetImageURL(ctx, *order.DesignImageKey)
	if err != nil {
		logger.Get().WithFields(map[string]interface{}{
			"order_id": order.ID,
			"key":      *order.DesignImageKey,
			"error":    err.Error(),
		}).Warn("Failed to resolve design image URL")
		return
	}
	order.DesignImageURL = &url
}
