package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// SetMockAuthContext sets the keys the JWT middleware would set for subject
func SetMockAuthContext(c *gin.Context, subject string, issuer string, scopes []string) {
	claims := MockValidatedClaims(subject, issuer, scopes)
	c.Set("user_id", subject)
	c.Set("access_token", "mock-token")
	c.Set("validated_claims", claims)
	c.Set("custom_claims", claims.CustomClaims)
}

// MockAuthMiddleware authenticates every request as subject
func MockAuthMiddleware(subject string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, subject, "https://test.auth0.com/", nil)
		c.Next()
	}
}

// HeaderAuthMiddleware authenticates as the subject in the X-Test-User
// header and rejects requests without one.
func HeaderAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetHeader("X-Test-User")
		if subject == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "Missing test user"},
			})
			return
		}
		SetMockAuthContext(c, subject, "https://test.auth0.com/", nil)
		c.Next()
	}
}
