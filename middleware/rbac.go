package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/kendall-kelly/atelier-api/models"
	"gorm.io/gorm"
)

const currentUserKey = "current_user"

// StaffRoles may work on bespoke orders and production tasks.
var StaffRoles = []string{models.RoleStaff, models.RoleAdmin, models.RoleSuperAdmin}

// AdminRoles may delete orders and tasks.
var AdminRoles = []string{models.RoleAdmin, models.RoleSuperAdmin}

// RequireUser loads the registered user behind the token and stores it on
// the context. Tokens without a registered account are rejected.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := loadCurrentUser(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireRole lets the request through only when the caller holds one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		user, ok := loadCurrentUser(c)
		if !ok {
			return
		}
		if !allowed[user.Role] {
			abortWith(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser or RequireRole
func CurrentUser(c *gin.Context) (*models.User, error) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "Current user not found in context"}
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "Current user is not in the expected format"}
	}
	return user, nil
}

func loadCurrentUser(c *gin.Context) (*models.User, bool) {
	if user, err := CurrentUser(c); err == nil {
		return user, true
	}

	auth0ID, err := GetUserID(c)
	if err != nil {
		abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return nil, false
	}

	var user models.User
	err = config.GetDB().WithContext(c.Request.Context()).Where("auth0_id = ?", auth0ID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abortWith(c, http.StatusForbidden, "USER_NOT_REGISTERED", "Create your profile before using this endpoint")
			return nil, false
		}
		logger.Get().WithFields(map[string]interface{}{
			"auth0_id": auth0ID,
			"error":    err.Error(),
		}).Error("Failed to load current user")
		abortWith(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user")
		return nil, false
	}

	c.Set(currentUserKey, &user)
	return &user, true
}
