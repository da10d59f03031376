package middlewares

import (
	"net/http"
	"strings"

	"campusdesk-be/access"
	"campusdesk-be/models"
	"campusdesk-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

// AuthMiddleware verifies the bearer token and stores the caller's identity
// in the context.
func AuthMiddleware(tokens *utils.TokenIssuer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
			return
		}

		// Extracting token from "Bearer <token>" format
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			log.Debug("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is not valid"})
			return
		}

		c.Set(identityKey, access.Identity{UserID: claims.UserID, Role: models.Role(claims.Role)})
		c.Next()
	}
}

// RequireRole rejects callers whose token role is not role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c).Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied"})
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by AuthMiddleware, or the zero
// Identity if none was set.
func CurrentIdentity(c *gin.Context) access.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return access.Identity{}
	}
	id, _ := v.(access.Identity)
	return id
}
