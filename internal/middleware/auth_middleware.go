package middleware

import (
	"net/http"
	"strings"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Authorization header is missing or malformed.")
			return
		}

		claims, err := helpers.ParseJWT(secret, tokenString)
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// AdminOnly must run after JWTAuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != models.RoleAdmin {
			helpers.RespondWithError(c, http.StatusForbidden, "Admin access required.")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user id and role.
func CurrentUser(c *gin.Context) (uuid.UUID, string, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, "", false
	}
	id, ok := v.(uuid.UUID)
	return id, c.GetString(RoleKey), ok
}
