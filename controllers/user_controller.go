package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/middleware"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/kendall-kelly/atelier-api/services"
	"gorm.io/gorm"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string  `json:"name" binding:"omitempty"`
	Email string  `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone"`
}

// UpdateUserRoleRequest represents the request body for changing a user's role
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=CUSTOMER STAFF ADMIN SUPER_ADMIN"`
}

// CreateUser handles POST /api/v1/users - registers the caller from their Auth0 profile.
// New accounts are always customers; staff roles are granted by an administrator.
func CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	auth0 := services.NewAuth0Service(config.GetConfig().Auth0Domain)
	userInfo, err := auth0.GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		respondError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	if userInfo.Name == "" {
		respondError(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    userInfo.Name,
		Email:   userInfo.Email,
		Role:    models.RoleCustomer,
	}
	if userInfo.PhoneNumber != "" {
		phone := userInfo.PhoneNumber
		user.Phone = &phone
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if services.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetMyProfile handles GET /api/v1/users/me
func GetMyProfile(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var user models.User
	if err := config.GetDB().Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateMyProfile handles PUT /api/v1/users/me
func UpdateMyProfile(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != nil {
		if p := strings.TrimSpace(*req.Phone); p == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = p
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    user,
		})
		return
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if services.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile")
		return
	}

	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// ListStaff handles GET /api/v1/users/staff - the people tasks can be assigned to
func ListStaff(c *gin.Context) {
	var users []models.User
	err := config.GetDB().
		Where("role IN ?", middleware.StaffRoles).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list staff")
		return
	}

	staff := make([]*models.UserSummary, 0, len(users))
	for _, u := range users {
		staff = append(staff, u.Summary())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    staff,
	})
}

// UpdateUserRole handles PUT /api/v1/users/:id/role. Only a SUPER_ADMIN may
// grant or revoke SUPER_ADMIN.
func UpdateUserRole(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	db := config.GetDB()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user")
		return
	}

	touchesSuperAdmin := req.Role == models.RoleSuperAdmin || user.Role == models.RoleSuperAdmin
	if touchesSuperAdmin && actor.Role != models.RoleSuperAdmin {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only a super administrator can change super administrator access")
		return
	}

	if err := db.Model(&user).Update("role", req.Role).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update role")
		return
	}
	user.Role = req.Role

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}
